package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Kind classifies a diagnostic by the pipeline phase that raised it (spec.md §7).
type Kind string

const (
	KindSyntax         Kind = "syntax"
	KindName           Kind = "name"
	KindType           Kind = "type"
	KindClass          Kind = "class"
	KindPattern        Kind = "pattern"
	KindSpecialization Kind = "specialization"
	KindLowering       Kind = "lowering"
)

// InfoAnnotation is a secondary location attached to an Error, e.g. "see prior
// declaration here". Modeled on the original compiler's user_error::add_info
// (zion: src/class_predicate.cpp, type_checker.cpp call sites).
type InfoAnnotation struct {
	Pos     Pos
	Message string
}

// Error is one compiler diagnostic: a primary location, a message, a Kind, and
// zero or more secondary InfoAnnotations forming a readable causal chain.
type Error struct {
	Kind    Kind
	Pos     Pos
	Message string
	Reason  string // the constraint/check "reason" string that produced this, if any
	Info    []InfoAnnotation
}

func (e *Error) Error() string {
	return e.Render(false)
}

// Render formats the diagnostic, optionally with ANSI color.
func (e *Error) Render(colorize bool) string {
	var b strings.Builder
	head := fmt.Sprintf("%s: %s", e.Pos, e.Message)
	if colorize {
		head = fmt.Sprintf("%s: %s", color.New(color.FgRed, color.Bold).Sprint(e.Pos.String()), e.Message)
	}
	b.WriteString(head)
	if e.Reason != "" {
		b.WriteString("\n  " + e.Reason)
	}
	for _, info := range e.Info {
		line := fmt.Sprintf("\n  info: %s: %s", info.Pos, info.Message)
		if colorize {
			line = fmt.Sprintf("\n  %s: %s: %s", color.New(color.FgYellow).Sprint("info"), info.Pos, info.Message)
		}
		b.WriteString(line)
	}
	return b.String()
}

// WithInfo returns a copy of e with an additional secondary annotation.
func (e *Error) WithInfo(pos Pos, format string, args ...any) *Error {
	cp := *e
	cp.Info = append(append([]InfoAnnotation{}, e.Info...), InfoAnnotation{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
	return &cp
}

// New constructs an Error of the given kind.
func New(kind Kind, pos Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
