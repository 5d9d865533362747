package analysis

import (
	"fmt"
	"sync"

	"github.com/edp1096/toy-phasor/pkg/circuit"
	"github.com/edp1096/toy-phasor/pkg/matrix"
	"github.com/edp1096/toy-phasor/pkg/report"
	"github.com/edp1096/toy-phasor/pkg/util"
)

const DefaultTolerance = 1e-9

// Partial is the response to one independent source acting alone.
type Partial struct {
	Source   string
	Solution *circuit.Solution
	Steps    []report.Step
	err      error
}

// SuperpositionAnalysis solves once per independent source with every other
// source zeroed, then solves the unmodified netlist for the total.
type SuperpositionAnalysis struct {
	BaseAnalysis
	Parallel  bool    // run the single-source solves concurrently
	Tolerance float64 // relative, for the total vs. sum check
	partials  []Partial
	matched   bool
}

func NewSuperposition(backend matrix.Backend) *SuperpositionAnalysis {
	return &SuperpositionAnalysis{
		BaseAnalysis: *NewBaseAnalysis(backend),
		Tolerance:    DefaultTolerance,
	}
}

func (sa *SuperpositionAnalysis) Partials() []Partial {
	return append([]Partial(nil), sa.partials...)
}

func (sa *SuperpositionAnalysis) solvePartial(source string) Partial {
	sub := NewNodal(sa.Backend)
	sub.Trace = sa.Trace

	p := Partial{Source: source}
	if p.err = sub.Setup(sa.Netlist.WithOnlySource(source)); p.err == nil {
		p.err = sub.Execute()
	}
	p.Solution = sub.Solution()
	p.Steps = sub.Steps()
	return p
}

func (sa *SuperpositionAnalysis) Execute() error {
	if sa.Netlist == nil {
		return fmt.Errorf("netlist not set")
	}

	sources := sa.Netlist.Sources()
	partials := make([]Partial, len(sources))

	// A shared trace writer keeps the solves sequential.
	if sa.Parallel && sa.Trace == nil {
		var wg sync.WaitGroup
		for i, src := range sources {
			wg.Add(1)
			go func() {
				defer wg.Done()
				partials[i] = sa.solvePartial(src.ID)
			}()
		}
		wg.Wait()
	} else {
		for i, src := range sources {
			partials[i] = sa.solvePartial(src.ID)
			if partials[i].err != nil {
				partials = partials[:i+1]
				break
			}
		}
	}

	// Steps are replayed in source order whatever the execution order was.
	for i, p := range partials {
		sa.log.Add(report.Info,
			fmt.Sprintf("Sub-Problem %d: Source %s Active", i+1, p.Source),
			"Solved circuit with only one source active.")
		sa.log.Extend(p.Steps)
		if p.err != nil {
			return fmt.Errorf("source %s: %w", p.Source, p.err)
		}

		sa.log.Add(report.Result, fmt.Sprintf("Results for Source %s", p.Source), "",
			sa.voltageLines(p.Solution, fmt.Sprintf("^{(source %s)}", p.Source))...)
		sa.partials = append(sa.partials, p)
	}

	sa.log.Add(report.Info, "Superposition Total",
		"Summing all partial responses (Verified by full system solve):")

	total, err := sa.solve(sa.Netlist, false)
	if err != nil {
		return err
	}
	sa.StoreResult(total)
	sa.check(total)

	return nil
}

func (sa *SuperpositionAnalysis) voltageLines(sol *circuit.Solution, suffix string) []string {
	lines := make([]string, 0, len(sol.Nodes))
	for _, node := range sol.Nodes {
		if node == sa.Netlist.Reference {
			continue
		}
		lines = append(lines, fmt.Sprintf("V_{%s}%s = %s", node, suffix, util.FormatPolar(sol.Voltages[node], "V")))
	}
	return lines
}

// check compares the independent total with the sum of the partials.
func (sa *SuperpositionAnalysis) check(total *circuit.Solution) {
	sa.matched = true
	if len(sa.partials) == 0 {
		return
	}

	var lines []string
	for _, node := range total.Nodes {
		if node == sa.Netlist.Reference {
			continue
		}

		parts := make([]complex128, len(sa.partials))
		for i, p := range sa.partials {
			parts[i] = p.Solution.Voltages[node]
		}
		sum := util.Sum(parts...)

		relation := "="
		if !util.Close(total.Voltages[node], sum, sa.Tolerance) {
			relation = "\\neq"
			sa.matched = false
		}
		lines = append(lines, fmt.Sprintf("\\sum_k V_{%s}^{(k)} = %s %s V_{%s}",
			node, util.FormatPolar(sum, "V"), relation, node))
	}

	description := fmt.Sprintf("Sum of partial responses matches the full solve within %g.", sa.Tolerance)
	if !sa.matched {
		description = fmt.Sprintf("Sum of partial responses differs from the full solve beyond %g.", sa.Tolerance)
	}
	sa.log.Add(report.Info, "Superposition Check", description, lines...)
}

// Matched reports whether the total agreed with the sum of the partials.
func (sa *SuperpositionAnalysis) Matched() bool { return sa.matched }
