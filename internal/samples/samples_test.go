package samples

import (
	"strings"
	"testing"

	"github.com/sunholo/zion-core/internal/codegen"
	"github.com/sunholo/zion-core/internal/pipeline"
)

func TestNamesIsSortedAndNonEmpty(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatalf("expected at least one registered sample")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Names() not sorted: %v", names)
		}
	}
}

func TestFindUnknownNameFails(t *testing.T) {
	if _, ok := Find("does-not-exist"); ok {
		t.Fatalf("expected Find to report an unknown sample as absent")
	}
	if _, err := Describe("does-not-exist"); err == nil {
		t.Fatalf("expected Describe to error on an unknown sample")
	}
}

// Every registered sample must compile cleanly end to end through
// pipeline.Run — this is what the CLI's compile/specialize/ssa-gen
// subcommands exercise for each name.
func TestEverySampleCompiles(t *testing.T) {
	for _, name := range Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			prog, ok := Find(name)
			if !ok {
				t.Fatalf("Find(%q) reported absent after Names() listed it", name)
			}
			result, err := pipeline.Run(prog, codegen.NewTextSink())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if result.HasErrors {
				var msgs []string
				for _, d := range result.Diags {
					msgs = append(msgs, d.Render(false))
				}
				t.Fatalf("sample %q produced diagnostics:\n%s", name, strings.Join(msgs, "\n"))
			}
			if result.EntryLifted == nil {
				t.Fatalf("sample %q: expected an entry lifted function", name)
			}
		})
	}
}
