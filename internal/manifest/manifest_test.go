package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadValidManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zion.yaml")
	content := "entry: Main\nruntime_lib: ./runtime\nmax_tuple: 32\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Entry != "Main" || m.RuntimeLib != "./runtime" || m.MaxTuple != 32 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
}

func TestLoadRejectsMissingEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zion.yaml")
	if err := os.WriteFile(path, []byte("runtime_lib: ./runtime\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a manifest missing entry")
	}
}

func TestEffectiveMaxTupleFallsBackWhenUnset(t *testing.T) {
	m := &Manifest{Entry: "Main", RuntimeLib: "./runtime"}
	if got := m.EffectiveMaxTuple(16); got != 16 {
		t.Fatalf("expected fallback 16, got %d", got)
	}
	m.MaxTuple = 64
	if got := m.EffectiveMaxTuple(16); got != 64 {
		t.Fatalf("expected manifest override 64, got %d", got)
	}
}
