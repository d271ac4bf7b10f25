// Package diag collects and renders compiler diagnostics.
//
// Every phase of the pipeline (A through H) reports failures as values through
// a *Bag rather than panicking; only phase F may abort the whole compilation on
// its first unrecoverable error (see Bag.Abort).
package diag

import "fmt"

// Pos is a source location. The lexer/parser collaborator is responsible for
// producing these; the core pipeline only threads them through.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// IsZero reports whether the position was never set (e.g. a synthesized node).
func (p Pos) IsZero() bool {
	return p.File == "" && p.Line == 0 && p.Column == 0
}
