package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/wyverify/wyverify/internal/diagnostics"
	"github.com/wyverify/wyverify/internal/pipeline"
)

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
	ansiReset  = "\x1b[0m"
)

// reportContext prints every diagnostic collected by the pipeline and a
// one-line summary, returning the process exit code (0 on success, 1 if
// any error-severity diagnostic was reported, 2 on cancellation).
func reportContext(ctx *pipeline.PipelineContext) int {
	color := colorEnabled()

	var errCount, warnCount int
	for _, d := range ctx.Errors {
		printDiagnostic(d, color)
		if d.Severity == diagnostics.SeverityError {
			errCount++
		} else {
			warnCount++
		}
	}

	obligationCount := 0
	for _, mod := range ctx.Modules {
		obligationCount += len(mod.Obligations)
	}

	fmt.Printf("%s: %s errors, %s warnings, %s obligations generated across %s unit(s)\n",
		ctx.UnitName,
		humanize.Comma(int64(errCount)),
		humanize.Comma(int64(warnCount)),
		humanize.Comma(int64(obligationCount)),
		humanize.Comma(int64(len(ctx.Modules))))

	if ctx.Cancelled {
		return 2
	}
	if errCount > 0 {
		return 1
	}
	return 0
}

func printDiagnostic(d *diagnostics.Diagnostic, color bool) {
	label := d.Severity.String()
	out := os.Stderr
	if !color {
		fmt.Fprintf(out, "%s: %s: %s [%s]\n", d.Range, label, d.Message, d.Code)
	} else {
		prefixColor := ansiRed
		if d.Severity == diagnostics.SeverityWarning {
			prefixColor = ansiYellow
		}
		fmt.Fprintf(out, "%s%s%s: %s: %s %s[%s]%s\n",
			prefixColor, label, ansiReset, d.Range, d.Message, ansiDim, d.Code, ansiReset)
	}
	for _, rel := range d.Related {
		fmt.Fprintf(out, "    %s: %s\n", rel.Range, rel.Message)
	}
}
