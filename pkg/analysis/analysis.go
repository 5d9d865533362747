package analysis

import (
	"fmt"
	"io"
	"strings"

	"github.com/edp1096/toy-phasor/pkg/circuit"
	"github.com/edp1096/toy-phasor/pkg/matrix"
	"github.com/edp1096/toy-phasor/pkg/netlist"
	"github.com/edp1096/toy-phasor/pkg/report"
)

// Method is the analysis label chosen by the user. Only superposition
// changes the procedure, every other label runs nodal analysis.
type Method string

const (
	Nodal                Method = "nodal"
	Mesh                 Method = "mesh"
	Superposition        Method = "superposition"
	SourceTransformation Method = "source_transformation"
	Thevenin             Method = "thevenin"
	Norton               Method = "norton"
	OpAmp                Method = "op_amp"
	Spice                Method = "spice"
)

var Methods = []Method{Nodal, Mesh, Superposition, SourceTransformation, Thevenin, Norton, OpAmp, Spice}

func ParseMethod(name string) (Method, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Nodal, nil
	}
	for _, m := range Methods {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown analysis method %q", name)
}

type Analysis interface {
	Setup(nl *netlist.Netlist) error
	Execute() error
	GetResults() map[string]complex128
	Solution() *circuit.Solution
	Steps() []report.Step
}

// New returns the analysis that carries out method.
func New(method Method, backend matrix.Backend) Analysis {
	if method == Superposition {
		return NewSuperposition(backend)
	}
	return NewNodal(backend)
}

type BaseAnalysis struct {
	Netlist *netlist.Netlist
	Backend matrix.Backend
	Trace   io.Writer // numeric system dump, optional

	log      report.Log
	solution *circuit.Solution
	results  map[string]complex128 // key: V(node) or I(component)
}

func NewBaseAnalysis(backend matrix.Backend) *BaseAnalysis {
	return &BaseAnalysis{
		Backend: backend,
		results: make(map[string]complex128),
	}
}

func (a *BaseAnalysis) Setup(nl *netlist.Netlist) error {
	if nl == nil {
		return fmt.Errorf("netlist not set")
	}
	if nl.Reference == "" && len(nl.Nodes) > 0 {
		return fmt.Errorf("%w: no reference node selected", netlist.ErrTopology)
	}
	a.Netlist = nl
	return nil
}

// solve runs one assemble and solve pass on its own circuit and matrix.
// The symbolic system is logged even when solving fails.
func (a *BaseAnalysis) solve(nl *netlist.Netlist, logEquations bool) (*circuit.Solution, error) {
	ckt, err := circuit.New(nl, a.Backend)
	if err != nil {
		return nil, err
	}
	ckt.Trace = a.Trace

	sol, err := ckt.Solve()
	if eqs := ckt.Equations(); logEquations && len(eqs) > 0 {
		a.log.Add(report.Equations, "System of Equations", "Generated KCL and Constituent Equations:", eqs...)
	}
	if err != nil {
		return nil, err
	}
	return sol, nil
}

func (a *BaseAnalysis) StoreResult(sol *circuit.Solution) {
	a.solution = sol
	a.results = make(map[string]complex128, len(sol.Voltages)+len(sol.Currents))
	for name, v := range sol.Voltages {
		a.results[fmt.Sprintf("V(%s)", name)] = v
	}
	for name, i := range sol.Currents {
		a.results[fmt.Sprintf("I(%s)", name)] = i
	}
}

func (a *BaseAnalysis) GetResults() map[string]complex128 { return a.results }

func (a *BaseAnalysis) Solution() *circuit.Solution { return a.solution }

func (a *BaseAnalysis) Steps() []report.Step { return a.log.Steps() }
