package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/dspace/engine/process"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'dspace.process'
func tracer() tracing.Trace {
	return tracing.Select("dspace.process")
}

func main() {
	initDisplay()

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	version := flag.Int("o", 3, "UFO format version for generated instances")
	round := flag.Bool("round", false, "Round interpolated geometry to integers")
	norules := flag.Bool("norules", false, "Skip substitution rules")
	glyphs := flag.String("glyphs", "", "List glyph names with a prefix instead of generating")
	flag.Parse()
	if flag.NArg() != 1 {
		pterm.Error.Println("usage: dscli [options] <document.designspace | directory>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":      "go",
		"trace.dspace.core":    *tlevel,
		"trace.dspace.ufo":     *tlevel,
		"trace.dspace.mutator": *tlevel,
		"trace.dspace.process": *tlevel,
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Println("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	pterm.Info.Println("designspace processor")
	opts := process.Options{
		UFOVersion:    *version,
		RoundGeometry: *round,
		SkipRules:     *norules,
	}
	if *glyphs != "" {
		listGlyphs(flag.Arg(0), *glyphs)
		return
	}
	procs, err := process.Build(flag.Arg(0), opts)
	if err != nil {
		pterm.Error.Println(core.UserMessage(err))
		tracer().Errorf(err.Error())
		os.Exit(2)
	}
	report(procs)
}

// listGlyphs prints the glyph-name union of a document's masters,
// filtered by prefix.
func listGlyphs(path string, prefix string) {
	procs, err := process.Load(path)
	if err != nil {
		pterm.Error.Println(core.UserMessage(err))
		os.Exit(2)
	}
	for _, proc := range procs {
		pterm.Info.Printfln("document %s", proc.Document().Path)
		for _, name := range proc.GlyphNamesWithPrefix(prefix) {
			pterm.Println("  " + name)
		}
	}
}

func report(procs []*process.Processor) {
	problems := 0
	for _, proc := range procs {
		for _, p := range proc.Problems() {
			problems++
			switch p.Severity {
			case process.SevError:
				pterm.Error.Println(p.String())
			default:
				pterm.Warning.Println(p.String())
			}
		}
	}
	if problems == 0 {
		pterm.Info.Printfln("processed %d document(s) without problems", len(procs))
		return
	}
	pterm.Warning.Printfln("processed %d document(s), %d problem(s)", len(procs), problems)
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " ds ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}
