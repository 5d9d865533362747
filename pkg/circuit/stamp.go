package circuit

import (
	"fmt"
	"strings"

	"github.com/edp1096/toy-phasor/pkg/device"
	"github.com/edp1096/toy-phasor/pkg/matrix"
	"github.com/edp1096/toy-phasor/pkg/netlist"
	"github.com/edp1096/toy-phasor/pkg/util"
)

type term struct {
	negative bool
	text     string
}

// kclRow collects the symbolic terms of one node equation while it is stamped.
type kclRow struct {
	node  string
	index int
	lhs   []term
	rhs   []term
}

func joinTerms(terms []term) string {
	if len(terms) == 0 {
		return "0"
	}

	var sb strings.Builder
	for i, t := range terms {
		switch {
		case i == 0 && t.negative:
			sb.WriteString("-")
		case i > 0 && t.negative:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}
		sb.WriteString(t.text)
	}
	return sb.String()
}

func (r *kclRow) latex() string {
	return fmt.Sprintf("\\text{Node %s: } %s = %s", r.node, joinTerms(r.lhs), joinTerms(r.rhs))
}

// stampKCL adds what comp contributes to the KCL row of one node. A
// component touching the node with both terminals contributes twice and
// the terms cancel.
func (c *Circuit) stampKCL(mat matrix.DeviceMatrix, row *kclRow, comp netlist.Component) error {
	atPos, atNeg := comp.Pos == row.node, comp.Neg == row.node

	switch comp.Kind {
	case device.Resistor, device.Capacitor, device.Inductor:
		if atPos {
			if err := c.stampPassive(mat, row, comp, comp.Neg); err != nil {
				return err
			}
		}
		if atNeg {
			if err := c.stampPassive(mat, row, comp, comp.Pos); err != nil {
				return err
			}
		}

	case device.CurrentSource:
		if atPos {
			stampCurrentSource(mat, row, comp, false)
		}
		if atNeg {
			stampCurrentSource(mat, row, comp, true)
		}

	case device.VoltageSource:
		bIdx := c.branchMap[comp.ID]
		if atPos {
			stampBranchCurrent(mat, row, comp, bIdx, 1)
		}
		if atNeg {
			stampBranchCurrent(mat, row, comp, bIdx, -1)
		}

	case device.OpAmp:
		// Ideal inputs draw no current.
		if comp.Out == row.node {
			stampBranchCurrent(mat, row, comp, c.branchMap[comp.ID], 1)
		}

	default:
		return fmt.Errorf("unsupported component kind %v", comp.Kind)
	}
	return nil
}

// stampPassive is the nodal admittance stamp seen from row.node.
func (c *Circuit) stampPassive(mat matrix.DeviceMatrix, row *kclRow, comp netlist.Component, other string) error {
	y, err := device.Admittance(comp.Kind, comp.Value, c.omega)
	if err != nil {
		return err
	}

	n := row.index
	m := c.nodeMap[other]

	mat.AddComplexElement(n, n, y)
	if m != 0 {
		mat.AddComplexElement(n, m, -y)
	}

	z := device.ImpedanceLatex(comp.Kind, comp.ID, comp.Value, c.omega)
	row.lhs = append(row.lhs, term{text: fmt.Sprintf("\\frac{V_{%s} - V_{%s}}{%s}", row.node, other, z)})
	return nil
}

// stampCurrentSource moves the source current to the right hand side:
// positive where it enters the node (Pos), negative where it leaves (Neg).
func stampCurrentSource(mat matrix.DeviceMatrix, row *kclRow, comp netlist.Component, leaving bool) {
	current := device.Phasor(comp.Value, comp.Phase)
	if leaving {
		current = -current
	}
	mat.AddComplexRHS(row.index, current)

	row.rhs = append(row.rhs, term{
		negative: leaving,
		text:     util.FormatPolar(device.Phasor(comp.Value, comp.Phase), "A"),
	})
}

func stampBranchCurrent(mat matrix.DeviceMatrix, row *kclRow, comp netlist.Component, bIdx int, coeff float64) {
	mat.AddComplexElement(row.index, bIdx, complex(coeff, 0))
	row.lhs = append(row.lhs, term{negative: coeff < 0, text: fmt.Sprintf("I_{%s}", comp.ID)})
}

// stampConstraint writes the branch row of a voltage source or op-amp:
// V(pos) - V(neg) = phasor for sources, 0 for the op-amp virtual short.
func (c *Circuit) stampConstraint(mat matrix.DeviceMatrix, comp netlist.Component) string {
	bIdx := c.branchMap[comp.ID]
	n1, n2 := c.nodeMap[comp.Pos], c.nodeMap[comp.Neg]

	if n1 != 0 {
		mat.AddComplexElement(bIdx, n1, 1)
	}
	if n2 != 0 {
		mat.AddComplexElement(bIdx, n2, -1)
	}

	rhs := "0"
	if comp.Kind == device.VoltageSource {
		voltage := device.Phasor(comp.Value, comp.Phase)
		mat.AddComplexRHS(bIdx, voltage)
		rhs = util.FormatPolar(voltage, "V")
	}
	return fmt.Sprintf("V_{%s} - V_{%s} = %s", comp.Pos, comp.Neg, rhs)
}
