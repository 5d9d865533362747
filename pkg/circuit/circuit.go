package circuit

import (
	"errors"
	"fmt"
	"io"
	"maps"

	"github.com/edp1096/toy-phasor/pkg/device"
	"github.com/edp1096/toy-phasor/pkg/matrix"
	"github.com/edp1096/toy-phasor/pkg/netlist"
)

// ErrEmptyCircuit is returned when there is nothing to solve: no
// non-reference node and no current-carrying component.
var ErrEmptyCircuit = errors.New("empty circuit")

// Circuit maps a netlist onto MNA unknowns. Node voltages come first in node
// order, followed by one branch current per voltage source and op-amp in
// component order. Each Assemble call stamps into a fresh matrix.
type Circuit struct {
	name      string
	netlist   *netlist.Netlist
	backend   matrix.Backend
	nodeMap   map[string]int
	branchMap map[string]int
	nodes     []string
	branches  []string
	omega     float64
	matrix    matrix.CircuitMatrix
	equations []string

	// Trace receives the numeric system before each solve when set.
	Trace io.Writer
}

// Solution of one solve call.
type Solution struct {
	Nodes    []string              // All node labels, reference included
	Voltages map[string]complex128 // Reference node is 0
	// Currents maps every component id to its branch current, flowing from
	// Pos to Neg through the component. For op-amps it is the current
	// flowing from the output node into the output terminal.
	Currents map[string]complex128
}

func New(nl *netlist.Netlist, backend matrix.Backend) (*Circuit, error) {
	if err := nl.Validate(); err != nil {
		return nil, err
	}
	if nl.Reference == "" && len(nl.Nodes) > 0 {
		return nil, fmt.Errorf("%w: no reference node selected", netlist.ErrTopology)
	}

	c := &Circuit{
		name:      nl.Title,
		netlist:   nl,
		backend:   backend,
		nodeMap:   make(map[string]int),
		branchMap: make(map[string]int),
		omega:     nl.Omega(),
	}
	c.assignNodeBranchMaps()

	if c.Size() == 0 {
		return nil, ErrEmptyCircuit
	}
	return c, nil
}

func (c *Circuit) assignNodeBranchMaps() {
	for _, label := range c.netlist.Unknowns() {
		c.nodes = append(c.nodes, label)
		c.nodeMap[label] = len(c.nodes)
	}

	branchStart := len(c.nodes) + 1
	for _, comp := range c.netlist.Components {
		if comp.Kind.HasBranchCurrent() {
			c.branches = append(c.branches, comp.ID)
			c.branchMap[comp.ID] = branchStart
			branchStart++
		}
	}
}

func (c *Circuit) Name() string { return c.name }

// Size is the number of MNA unknowns.
func (c *Circuit) Size() int { return len(c.nodes) + len(c.branches) }

// NodeIndex returns the matrix index of a node, 0 for the reference.
func (c *Circuit) NodeIndex(label string) int { return c.nodeMap[label] }

// BranchIndex returns the matrix index of a component's branch current.
func (c *Circuit) BranchIndex(id string) (int, bool) {
	idx, ok := c.branchMap[id]
	return idx, ok
}

func (c *Circuit) GetNodeMap() map[string]int   { return maps.Clone(c.nodeMap) }
func (c *Circuit) GetBranchMap() map[string]int { return maps.Clone(c.branchMap) }

// Equations returns the symbolic rows of the last assembled system: one per
// KCL row followed by one per constraint row.
func (c *Circuit) Equations() []string {
	return append([]string(nil), c.equations...)
}

// Assemble builds A and Z from scratch.
func (c *Circuit) Assemble() error {
	if c.matrix != nil {
		c.matrix.Destroy()
		c.matrix = nil
	}

	mat, err := matrix.New(c.backend, c.Size())
	if err != nil {
		return err
	}

	equations := make([]string, 0, c.Size())

	// KCL rows
	for _, node := range c.nodes {
		row := &kclRow{node: node, index: c.nodeMap[node]}
		for _, comp := range c.netlist.Components {
			if err := c.stampKCL(mat, row, comp); err != nil {
				mat.Destroy()
				return fmt.Errorf("stamping device %s: %w", comp.ID, err)
			}
		}
		equations = append(equations, row.latex())
	}

	// Constraint rows
	for _, comp := range c.netlist.Components {
		if !comp.Kind.HasBranchCurrent() {
			continue
		}
		equations = append(equations, c.stampConstraint(mat, comp))
	}

	c.matrix = mat
	c.equations = equations
	return nil
}

// Solve assembles a fresh system and solves it.
func (c *Circuit) Solve() (*Solution, error) {
	if err := c.Assemble(); err != nil {
		return nil, err
	}
	defer func() {
		c.matrix.Destroy()
		c.matrix = nil
	}()

	if c.Trace != nil {
		matrix.Print(c.Trace, c.matrix)
	}

	x, err := c.matrix.Solve()
	if err != nil {
		return nil, err
	}
	return c.solution(x)
}

func (c *Circuit) solution(x []complex128) (*Solution, error) {
	sol := &Solution{
		Nodes:    append([]string(nil), c.netlist.Nodes...),
		Voltages: make(map[string]complex128, len(c.netlist.Nodes)),
		Currents: make(map[string]complex128, len(c.netlist.Components)),
	}

	voltage := func(label string) complex128 { return x[c.nodeMap[label]] }
	for _, label := range c.netlist.Nodes {
		sol.Voltages[label] = voltage(label)
	}

	for _, comp := range c.netlist.Components {
		switch {
		case comp.Kind.IsPassive() && comp.Pos == comp.Neg:
			sol.Currents[comp.ID] = 0

		case comp.Kind.IsPassive():
			y, err := device.Admittance(comp.Kind, comp.Value, c.omega)
			if err != nil {
				return nil, err
			}
			sol.Currents[comp.ID] = (voltage(comp.Pos) - voltage(comp.Neg)) * y

		case comp.Kind == device.CurrentSource:
			// The source drives current out of Pos into the network.
			sol.Currents[comp.ID] = -device.Phasor(comp.Value, comp.Phase)

		case comp.Kind.HasBranchCurrent():
			sol.Currents[comp.ID] = x[c.branchMap[comp.ID]]
		}
	}
	return sol, nil
}
