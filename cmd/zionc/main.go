// Command zionc is the reference driver over internal/pipeline: it wires a
// named sample program (internal/samples stands in for the external
// lexer/parser/module-resolver, spec.md §1) through modules C-H and prints
// the result. Grounded on the teacher's cmd/ailang/main.go: flag.Bool /
// flag.Parse / flag.Arg dispatch, the same green/red/yellow/cyan/bold
// fatih/color sprint-func set, and a printHelp that lists one line per
// subcommand.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/sunholo/zion-core/internal/codegen"
	"github.com/sunholo/zion-core/internal/config"
	"github.com/sunholo/zion-core/internal/pipeline"
	"github.com/sunholo/zion-core/internal/samples"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		showEnvFlag       = flag.Bool("show-env", false, "Print the resolved MAX_TUPLE setting")
		showTypesFlag     = flag.Bool("show-types", false, "Print main's inferred type")
		showExprTypesFlag = flag.Bool("show-expr-types", false, "Print how many subexpressions have a tracked type")
		showDefnTypesFlag = flag.Bool("show-defn-types", false, "Print every specialized definition's id")
		helpFlag          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	passed := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { passed[f.Name] = true })
	ifPassed := func(name string, p *bool) *bool {
		if passed[name] {
			return p
		}
		return nil
	}
	flags := config.FromEnv().Override(ifPassed("show-env", showEnvFlag), ifPassed("show-types", showTypesFlag),
		ifPassed("show-expr-types", showExprTypesFlag), ifPassed("show-defn-types", showDefnTypesFlag))
	command := flag.Arg(0)

	switch command {
	case "help":
		printHelp()

	case "find":
		if flag.NArg() < 2 {
			fail("missing program name\nUsage: zionc find <name>")
		}
		runFind(flag.Arg(1))

	case "parse":
		if flag.NArg() < 2 {
			fail("missing program name\nUsage: zionc parse <prog>")
		}
		runParse(flag.Arg(1))

	case "compile":
		if flag.NArg() < 2 {
			fail("missing program name\nUsage: zionc compile <prog>")
		}
		runCompile(flag.Arg(1), flags, false)

	case "specialize":
		if flag.NArg() < 2 {
			fail("missing program name\nUsage: zionc specialize <prog>")
		}
		runSpecialize(flag.Arg(1), flags)

	case "ssa-gen":
		if flag.NArg() < 2 {
			fail("missing program name\nUsage: zionc ssa-gen <prog>")
		}
		runCompile(flag.Arg(1), flags, true)

	case "repl":
		runRepl(flags)

	default:
		// An unrecognized first argument is shorthand for `ssa-gen <that>`
		// (SPEC_FULL.md §1): `zionc factorial` behaves like
		// `zionc ssa-gen factorial`.
		runCompile(command, flags, true)
	}
}

func runFind(name string) {
	desc, err := samples.Describe(name)
	if err != nil {
		fail(err.Error())
	}
	fmt.Println(desc)
}

func runParse(name string) {
	prog, ok := samples.Find(name)
	if !ok {
		fail(fmt.Sprintf("no such sample program %q (have: %v)", name, samples.Names()))
	}
	fmt.Printf("%s %s\n", green("✓ parsed"), name)
	fmt.Println(prog.Entry.String())
}

func runCompile(name string, flags config.Flags, dumpSink bool) {
	prog, ok := samples.Find(name)
	if !ok {
		fail(fmt.Sprintf("no such sample program %q (have: %v)", name, samples.Names()))
	}

	sink := codegen.NewTextSink()
	result, err := pipeline.Run(prog, sink)
	if err != nil {
		fail(err.Error())
	}
	if printDiags(result) {
		os.Exit(1)
	}

	fmt.Printf("%s compiled %s\n", green("✓"), name)
	printShowFlags(result, flags)

	if dumpSink {
		fmt.Print(sink.String())
	}
}

func runSpecialize(name string, flags config.Flags) {
	prog, ok := samples.Find(name)
	if !ok {
		fail(fmt.Sprintf("no such sample program %q (have: %v)", name, samples.Names()))
	}

	result, err := pipeline.Run(prog, codegen.NewTextSink())
	if err != nil {
		fail(err.Error())
	}
	if printDiags(result) {
		os.Exit(1)
	}

	fmt.Printf("%s specialized %s into %d definition(s)\n", green("✓"), name, len(result.DefnOrder))
	for _, id := range result.DefnOrder {
		fmt.Printf("  %s %s\n", cyan("·"), id.String())
	}
	printShowFlags(result, flags)
}

// printDiags renders every diagnostic result carries and reports whether any
// of them is an error the caller should exit non-zero for.
func printDiags(result *pipeline.Result) bool {
	for _, d := range result.Diags {
		fmt.Fprintln(os.Stderr, d.Render(true))
	}
	return result.HasErrors
}

func printShowFlags(result *pipeline.Result, flags config.Flags) {
	if flags.ShowTypes && result.MainType != nil {
		fmt.Printf("%s main : %s\n", yellow("type"), result.MainType.String())
	}
	if flags.ShowDefnTypes {
		for _, id := range result.DefnOrder {
			fmt.Printf("%s %s\n", yellow("defn"), id.String())
		}
	}
	if flags.ShowExprTypes && result.Tracked != nil {
		fmt.Printf("%s %d subexpression(s) tracked\n", yellow("exprs"), result.Tracked.Len())
	}
	if flags.ShowEnv {
		fmt.Printf("%s MAX_TUPLE=%d\n", yellow("env"), flags.MaxTuple)
	}
}

// runRepl offers a tiny line-editing front end over the sample registry
// (SPEC_FULL.md §2: "a convenience entry point that internally calls the
// same find/-show-env machinery, never bypassing the pipeline"). There is no
// expression syntax to read here without a real parser, so each line is
// treated as a sample program name.
func runRepl(flags config.Flags) {
	line := liner.NewLiner()
	defer line.Close()

	fmt.Println(bold("zionc repl") + " — type a sample name (list, quit)")
	for {
		input, err := line.Prompt("zion> ")
		if err != nil {
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case "quit", "exit":
			return
		case "list":
			for _, name := range samples.Names() {
				fmt.Printf("  %s\n", name)
			}
		default:
			runCompile(input, flags, false)
		}
	}
}

func fail(msg string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), msg)
	os.Exit(2)
}

func printHelp() {
	fmt.Println(bold("zionc — semantic core driver for a typed, eagerly-evaluated functional language"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  zionc <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <name>        Describe a sample program's entry point\n", cyan("find"))
	fmt.Printf("  %s <prog>       Parse (load) a sample program and print its tree\n", cyan("parse"))
	fmt.Printf("  %s <prog>     Run inference through code emission\n", cyan("compile"))
	fmt.Printf("  %s <prog>  Run inference and the monomorphizing specializer\n", cyan("specialize"))
	fmt.Printf("  %s <prog>     Compile and print the emitted pseudo-IR trace\n", cyan("ssa-gen"))
	fmt.Printf("  %s               Start an interactive sample-name REPL\n", cyan("repl"))
	fmt.Println()
	fmt.Println("An unrecognized first argument is shorthand for ssa-gen:")
	fmt.Printf("  %s is the same as %s\n", cyan("zionc factorial"), cyan("zionc ssa-gen factorial"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -show-env          Print the resolved MAX_TUPLE setting")
	fmt.Println("  -show-types        Print main's inferred type")
	fmt.Println("  -show-expr-types   Print the tracked subexpression count")
	fmt.Println("  -show-defn-types   Print every specialized definition id")
	fmt.Println()
	fmt.Println("Env vars: SHOW_ENV, SHOW_TYPES, SHOW_EXPR_TYPES, SHOW_DEFN_TYPES, MAX_TUPLE (default 16)")
	fmt.Println()
	fmt.Println("Samples:", samples.Names())
}
