// Command verifyc is the thin driver spec.md §1 treats as an external
// collaborator: it is not part of the core, but something has to load a
// heap, run the Resolve→Flow→Version→VCGen pipeline, and report the
// result to a human. Flag handling and process-exit texture follow the
// teacher's cmd/funxy/main.go (manual os.Args scanning rather than the
// flag package, a deferred panic recovery, os.Exit with a stable code
// per outcome).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/wyverify/wyverify/internal/config"
	"github.com/wyverify/wyverify/internal/external"
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/pipeline"
	"github.com/wyverify/wyverify/internal/proverclient"
	"github.com/wyverify/wyverify/internal/testutil"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "this is a bug in verifyc, please report it")
			os.Exit(1)
		}
	}()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "-help", "--help", "help":
		printUsage()
	case "-version", "--version", "version":
		fmt.Println("verifyc", config.Version)
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "demo":
		os.Exit(cmdDemo(os.Args[2:]))
	case "prove":
		os.Exit(cmdProve(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "verifyc: unknown command %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`verifyc - heap compiler & verification-condition driver

Usage:
  verifyc check <heap-file> [-config <path>]   run Resolve/Flow/Version/VCGen over a binary heap
  verifyc demo [scenario-name]                 run one of the spec.md worked examples in-process
  verifyc prove <heap-file> [-addr host:port] [-timeout 5s]
                                               check generated obligations against a prover
  verifyc help                                 show this message
  verifyc version                              print the build version`)
}

// colorEnabled follows the teacher's own detectColorLevel gate: a
// NO_COLOR env var or a non-terminal stdout disables color outright.
func colorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func loadHeap(path string) (*heap.Heap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	h, err := heap.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading heap %s: %w", path, err)
	}
	return h, nil
}

func runPipeline(h *heap.Heap, unitName string, emitObligations bool) *pipeline.PipelineContext {
	stages := []pipeline.Processor{
		pipeline.ResolveProcessor{},
		pipeline.FlowProcessor{},
		pipeline.VersionProcessor{},
	}
	if emitObligations {
		stages = append(stages, pipeline.VCGenProcessor{})
	}
	p := pipeline.New(stages...)
	return p.Run(&pipeline.PipelineContext{UnitName: unitName, Heap: h})
}

func cmdCheck(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: verifyc check <heap-file> [-config <path>]")
		return 2
	}
	path := args[0]
	cfgPath := ""
	for i := 1; i < len(args)-1; i++ {
		if args[i] == "-config" {
			cfgPath = args[i+1]
		}
	}
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading config: %s\n", err)
			return 1
		}
		cfg = loaded
	}

	h, err := loadHeap(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx := runPipeline(h, path, cfg.EmitObligations)
	return reportContext(ctx)
}

func cmdDemo(args []string) int {
	scenarios := testutil.All()
	if len(args) > 0 {
		var found *testutil.Scenario
		for _, s := range scenarios {
			if s.Name == args[0] {
				found = s
				break
			}
		}
		if found == nil {
			fmt.Fprintf(os.Stderr, "verifyc: unknown scenario %q\n", args[0])
			return 2
		}
		scenarios = []*testutil.Scenario{found}
	}

	exit := 0
	for _, s := range scenarios {
		fmt.Printf("=== %s ===\n", s.Name)
		ctx := runPipeline(s.Heap, s.Name, true)
		if code := reportContext(ctx); code != 0 {
			exit = code
		}
		fmt.Println()
	}
	return exit
}

func cmdProve(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: verifyc prove <heap-file> [-addr host:port] [-timeout 5s]")
		return 2
	}
	path := args[0]
	addr := "localhost:9321"
	timeout := 5 * time.Second
	for i := 1; i < len(args)-1; i++ {
		switch args[i] {
		case "-addr":
			addr = args[i+1]
		case "-timeout":
			if d, err := time.ParseDuration(args[i+1]); err == nil {
				timeout = d
			}
		}
	}

	h, err := loadHeap(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx := runPipeline(h, path, true)
	if code := reportContext(ctx); code != 0 {
		return code
	}

	client, err := proverclient.Dial(addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dialing prover at %s: %s\n", addr, err)
		return 1
	}
	defer client.Close()

	exit := 0
	for _, mod := range ctx.Modules {
		cctx, cancel := context.WithTimeout(context.Background(), timeout)
		results, err := client.Check(cctx, mod)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: prover error: %s\n", mod.UnitName, err)
			exit = 1
			continue
		}
		for _, r := range results {
			fmt.Printf("%s: %s %s\n", mod.UnitName, r.ObligationID, r.Verdict)
			if r.Verdict == external.VerdictInvalid && len(r.Counterexample) > 0 {
				for k, v := range r.Counterexample {
					fmt.Printf("    %s = %s\n", k, v)
				}
				exit = 1
			}
		}
	}
	return exit
}
