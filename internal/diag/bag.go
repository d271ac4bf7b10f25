package diag

// Bag accumulates diagnostics for one compilation. There is exactly one Bag
// per compile (spec.md §5: "an accumulating user-error channel" is process-wide
// state with defined initialization/teardown at the start/end of a compile).
type Bag struct {
	errors []*Error
	// hardAborted is set once phase F reports its first unrecoverable error;
	// after that point the pipeline must not continue to phase G/H.
	hardAborted bool
}

// NewBag returns an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add records a diagnostic without aborting the current component. Checking of
// the current top-level definition normally stops, but the caller continues on
// to the next top-level definition (spec.md §7).
func (b *Bag) Add(err *Error) {
	b.errors = append(b.errors, err)
}

// Abort records err and marks the bag hard-aborted: phase F's worklist loop
// must stop after its first unrecoverable error (spec.md §5, §7).
func (b *Bag) Abort(err *Error) {
	b.Add(err)
	b.hardAborted = true
}

// HasErrors reports whether any diagnostic has been recorded.
func (b *Bag) HasErrors() bool {
	return len(b.errors) > 0
}

// Aborted reports whether phase F's hard-abort has fired.
func (b *Bag) Aborted() bool {
	return b.hardAborted
}

// Errors returns all recorded diagnostics in report order.
func (b *Bag) Errors() []*Error {
	return b.errors
}

// CanStartPhaseF reports whether the compiler may begin monomorphization: the
// ambient error count must be zero (spec.md §7, "refuses to start phase F if
// any errors have been reported").
func (b *Bag) CanStartPhaseF() bool {
	return !b.HasErrors()
}
