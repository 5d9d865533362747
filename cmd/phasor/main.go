package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/edp1096/toy-phasor/pkg/analysis"
	"github.com/edp1096/toy-phasor/pkg/matrix"
	"github.com/edp1096/toy-phasor/pkg/netlist"
	"github.com/edp1096/toy-phasor/pkg/report"
	"github.com/edp1096/toy-phasor/pkg/schematic"
	"github.com/edp1096/toy-phasor/pkg/solver"
	"github.com/edp1096/toy-phasor/pkg/util"
)

var (
	method        = flag.String("method", "nodal", "analysis method: "+methodList())
	backend       = flag.String("backend", "dense", "matrix backend: dense or sparse")
	freq          = flag.Float64("freq", 0, "override the circuit frequency in Hz, 0 for DC")
	parallel      = flag.Bool("parallel", false, "solve superposition sub-problems concurrently")
	requireGround = flag.Bool("require-ground", false, "fail circuits without a ground symbol")
	pngPath       = flag.String("png", "", "write a phasor diagram of the node voltages")
	htmlPath      = flag.String("html", "", "write an interactive chart page")
	jsonOut       = flag.Bool("json", false, "print the step log and results as JSON")
	verbose       = flag.Bool("v", false, "log progress and dump every assembled system")
)

func methodList() string {
	names := make([]string, len(analysis.Methods))
	for i, m := range analysis.Methods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func sortedKeys(m map[string]complex128) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printResults(res *solver.Result) {
	fmt.Println("\nAnalysis Results:")
	fmt.Println("================")
	fmt.Printf("Method: %s, frequency: %s\n", res.Method, util.FormatFrequency(res.Frequency))

	fmt.Println("\nNode Voltages:")
	for _, name := range sortedKeys(res.Voltages) {
		fmt.Printf("  %s  (%s)\n", util.FormatMagnitudePhase("V("+name+")", res.Voltages[name]), util.FormatRect(res.Voltages[name]))
	}

	fmt.Println("\nBranch Currents:")
	for _, name := range sortedKeys(res.Currents) {
		fmt.Printf("  %s  (%s)\n", util.FormatMagnitudePhase("I("+name+")", res.Currents[name]), util.FormatRect(res.Currents[name]))
	}
}

type jsonResult struct {
	RequestID string            `json:"request_id"`
	Method    string            `json:"method"`
	Frequency float64           `json:"frequency"`
	Steps     []report.Step     `json:"steps"`
	Voltages  map[string]string `json:"voltages"`
	Currents  map[string]string `json:"currents"`
	Error     string            `json:"error,omitempty"`
}

func printJSON(res *solver.Result, solveErr error) error {
	out := jsonResult{
		RequestID: res.RequestID.String(),
		Method:    string(res.Method),
		Frequency: res.Frequency,
		Steps:     res.Steps,
		Voltages:  make(map[string]string, len(res.Voltages)),
		Currents:  make(map[string]string, len(res.Currents)),
	}
	for k, v := range res.Voltages {
		out.Voltages[k] = util.FormatPolar(v, "V")
	}
	for k, v := range res.Currents {
		out.Currents[k] = util.FormatPolar(v, "A")
	}
	if solveErr != nil {
		out.Error = solveErr.Error()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func export(res *solver.Result) error {
	nl := res.Netlist

	if *pngPath != "" {
		if err := report.SavePhasorPlot(*pngPath, nl.Title, nl.Nodes, res.Voltages, nl.Reference); err != nil {
			return err
		}
		fmt.Printf("Phasor diagram written to %s\n", *pngPath)
	}

	if *htmlPath != "" {
		series := []report.Series{{Name: "Total", Voltages: res.Voltages}}
		for _, p := range res.Partials {
			series = append(series, report.Series{Name: "Only " + p.Source, Voltages: p.Solution.Voltages})
		}
		if err := report.SaveChart(*htmlPath, nl, series...); err != nil {
			return err
		}
		fmt.Printf("Chart written to %s\n", *htmlPath)
	}
	return nil
}

func config() (solver.Config, error) {
	cfg := solver.DefaultConfig()

	m, err := analysis.ParseMethod(*method)
	if err != nil {
		return cfg, err
	}
	b, err := matrix.ParseBackend(*backend)
	if err != nil {
		return cfg, err
	}

	cfg.Method = m
	cfg.Backend = b
	cfg.Parallel = *parallel
	cfg.RequireGround = *requireGround
	if *verbose {
		cfg.Logger = log.New(os.Stderr, "phasor: ", log.LstdFlags)
		cfg.Trace = os.Stderr
	}
	return cfg, nil
}

// isSet reports whether the named flag was given on the command line, so
// -freq 0 forces a DC solve instead of meaning "keep the file's frequency".
func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// solve reads a schematic (.json) or a text netlist and solves it.
func solve(ctx context.Context, path string, cfg solver.Config) (*solver.Result, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		s, err := schematic.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if isSet(flag.CommandLine, "freq") {
			s.Frequency = *freq
		}
		return solver.SolveSchematic(ctx, s, cfg)
	}

	nl, err := netlist.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if isSet(flag.CommandLine, "freq") {
		nl.Frequency = *freq
	}
	return solver.SolveNetlist(ctx, nl, cfg)
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("Usage: phasor [flags] <schematic.json | netlist_file>")
	}

	cfg, err := config()
	if err != nil {
		log.Fatalf("Error in flags: %v", err)
	}

	res, err := solve(context.Background(), flag.Arg(0), cfg)
	if res == nil {
		log.Fatalf("Error reading circuit: %v", err)
	}

	if *jsonOut {
		if jerr := printJSON(res, err); jerr != nil {
			log.Fatalf("Error encoding result: %v", jerr)
		}
		if err != nil {
			os.Exit(1)
		}
		return
	}

	report.Print(os.Stdout, res.Steps)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	printResults(res)
	if err := export(res); err != nil {
		log.Fatalf("Error exporting: %v", err)
	}
}
