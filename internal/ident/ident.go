// Package ident implements the Identifier data type (spec.md §3): a name
// together with a source location, fully qualified with a scope separator
// after module resolution.
package ident

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sunholo/zion-core/internal/diag"
)

// Separator is the scope separator used once a name has been qualified by
// module resolution, e.g. "std/list::map".
const Separator = "::"

// Identifier is a name paired with the position it was written at.
type Identifier struct {
	Name string
	Pos  diag.Pos
}

// New builds an Identifier, normalizing Name to Unicode NFC so that two
// spellings of the same identifier (e.g. combining-diacritic forms pasted from
// different editors) compare equal by name, as required by spec.md §3's
// "variable equality is by name" invariant.
func New(name string, pos diag.Pos) Identifier {
	return Identifier{Name: norm.NFC.String(name), Pos: pos}
}

// Qualify produces the fully-qualified form "module::name" used after
// name-resolution (spec.md §3).
func Qualify(module, name string) string {
	return module + Separator + name
}

// Unqualify splits a fully-qualified name back into module and bare name. It
// returns ok=false if name carries no scope separator (e.g. a local binder).
func Unqualify(qualified string) (module, name string, ok bool) {
	i := strings.LastIndex(qualified, Separator)
	if i < 0 {
		return "", qualified, false
	}
	return qualified[:i], qualified[i+len(Separator):], true
}

// IsBuiltin reports whether name denotes a backend-handled builtin, which the
// specializer must never enqueue for monomorphization (spec.md §4.F).
func IsBuiltin(name string) bool {
	return strings.HasPrefix(name, "__builtin_")
}
