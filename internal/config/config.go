// Package config reads the small set of environment-variable toggles the
// driver and CLI consult (SPEC_FULL.md §1): no config file format, the same
// plain os.Getenv-driven pattern the teacher's eval_harness/runtime use.
package config

import (
	"os"
	"strconv"
)

// DefaultMaxTuple is MAX_TUPLE's value when unset.
const DefaultMaxTuple = 16

// Flags is the resolved set of toggles for one compiler invocation.
type Flags struct {
	ShowEnv       bool
	ShowTypes     bool
	ShowExprTypes bool
	ShowDefnTypes bool
	MaxTuple      int
}

// FromEnv reads SHOW_ENV, SHOW_TYPES, SHOW_EXPR_TYPES, SHOW_DEFN_TYPES and
// MAX_TUPLE, applying MaxTuple's default when the variable is unset or
// unparsable.
func FromEnv() Flags {
	return Flags{
		ShowEnv:       getBool("SHOW_ENV"),
		ShowTypes:     getBool("SHOW_TYPES"),
		ShowExprTypes: getBool("SHOW_EXPR_TYPES"),
		ShowDefnTypes: getBool("SHOW_DEFN_TYPES"),
		MaxTuple:      getInt("MAX_TUPLE", DefaultMaxTuple),
	}
}

// Override applies CLI flags on top of f: a non-nil pointer marks a flag the
// user actually passed and wins over its env var; a nil pointer leaves the
// env-derived value in place.
func (f Flags) Override(showEnv, showTypes, showExprTypes, showDefnTypes *bool) Flags {
	if showEnv != nil {
		f.ShowEnv = *showEnv
	}
	if showTypes != nil {
		f.ShowTypes = *showTypes
	}
	if showExprTypes != nil {
		f.ShowExprTypes = *showExprTypes
	}
	if showDefnTypes != nil {
		f.ShowDefnTypes = *showDefnTypes
	}
	return f
}

func getBool(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func getInt(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
