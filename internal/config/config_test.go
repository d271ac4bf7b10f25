package config

import "testing"

func TestFromEnvDefaultsMaxTuple(t *testing.T) {
	t.Setenv("MAX_TUPLE", "")
	f := FromEnv()
	if f.MaxTuple != DefaultMaxTuple {
		t.Fatalf("expected default MaxTuple %d, got %d", DefaultMaxTuple, f.MaxTuple)
	}
}

func TestFromEnvReadsOverrides(t *testing.T) {
	t.Setenv("MAX_TUPLE", "32")
	t.Setenv("SHOW_ENV", "true")
	t.Setenv("SHOW_TYPES", "1")
	f := FromEnv()
	if f.MaxTuple != 32 {
		t.Fatalf("expected MaxTuple 32, got %d", f.MaxTuple)
	}
	if !f.ShowEnv {
		t.Fatalf("expected ShowEnv true")
	}
	if !f.ShowTypes {
		t.Fatalf("expected ShowTypes true")
	}
}

func TestOverrideWinsOverEnv(t *testing.T) {
	t.Setenv("SHOW_ENV", "false")
	f := FromEnv()
	yes := true
	f = f.Override(&yes, nil, nil, nil)
	if !f.ShowEnv {
		t.Fatalf("expected CLI flag to override env var")
	}
}
