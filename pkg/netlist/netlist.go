package netlist

import (
	"errors"
	"fmt"
	"slices"

	"github.com/edp1096/toy-phasor/internal/consts"
	"github.com/edp1096/toy-phasor/pkg/device"
)

var (
	// ErrTopology marks a defect in the connection graph or netlist references.
	ErrTopology = errors.New("topology defect")
	// ErrParse marks a malformed text netlist.
	ErrParse = errors.New("netlist parse error")
)

type Component struct {
	ID    string
	Kind  device.Kind
	Value float64 // Ω, F, H, V or A
	Phase float64 // Degree, sources only
	Pos   string  // Positive, non-inverting input for op-amps
	Neg   string  // Negative, inverting input for op-amps
	Out   string  // Op-amp output
}

// Terminals returns the node labels the component touches.
func (c Component) Terminals() []string {
	if c.Kind == device.OpAmp {
		return []string{c.Pos, c.Neg, c.Out}
	}
	return []string{c.Pos, c.Neg}
}

// Netlist is the electrical view of a circuit. It is not mutated once built;
// use Clone or WithOnlySource to derive variants.
type Netlist struct {
	Title      string
	Nodes      []string // Labels in discovery order
	Components []Component
	Frequency  float64 // Hz
	Reference  string  // Reference node label, "" when none was chosen
	// ImplicitReference is set when no ground exists and a node was picked as reference.
	ImplicitReference bool
}

func (n *Netlist) Omega() float64 { return device.Omega(n.Frequency) }

func (n *Netlist) HasNode(label string) bool {
	return slices.Contains(n.Nodes, label)
}

// Unknowns returns the non-reference node labels in order.
func (n *Netlist) Unknowns() []string {
	nodes := make([]string, 0, len(n.Nodes))
	for _, label := range n.Nodes {
		if label != n.Reference {
			nodes = append(nodes, label)
		}
	}
	return nodes
}

// Sources returns the independent sources in netlist order.
func (n *Netlist) Sources() []Component {
	var sources []Component
	for _, c := range n.Components {
		if c.Kind.IsSource() {
			sources = append(sources, c)
		}
	}
	return sources
}

func (n *Netlist) Component(id string) (Component, bool) {
	for _, c := range n.Components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}

func (n *Netlist) Clone() *Netlist {
	clone := *n
	clone.Nodes = slices.Clone(n.Nodes)
	clone.Components = slices.Clone(n.Components)
	return &clone
}

// WithOnlySource returns a copy where every independent source except id has
// its magnitude forced to zero. Topology and component order are unchanged.
func (n *Netlist) WithOnlySource(id string) *Netlist {
	clone := n.Clone()
	for i := range clone.Components {
		c := &clone.Components[i]
		if c.Kind.IsSource() && c.ID != id {
			c.Value = 0 // V=0 (short), I=0 (open)
		}
	}
	return clone
}

// EnsureReference picks the reference node when the netlist has none.
// The first node in discovery order is used unless requireGround is set.
func (n *Netlist) EnsureReference(requireGround bool) error {
	if n.Reference != "" {
		return nil
	}
	if len(n.Nodes) == 0 {
		return nil
	}
	if requireGround {
		return fmt.Errorf("%w: circuit has no ground", ErrTopology)
	}
	n.Reference = n.Nodes[0]
	n.ImplicitReference = true
	return nil
}

// Validate checks that ids are unique and every node reference resolves.
func (n *Netlist) Validate() error {
	if n.Reference != "" && !n.HasNode(n.Reference) {
		return fmt.Errorf("%w: reference node %q does not exist", ErrTopology, n.Reference)
	}

	seen := make(map[string]bool, len(n.Components))
	for _, c := range n.Components {
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate component %q", ErrTopology, c.ID)
		}
		seen[c.ID] = true

		if !c.Kind.Valid() {
			return fmt.Errorf("%w: component %q has unknown kind %v", ErrTopology, c.ID, c.Kind)
		}
		for _, label := range c.Terminals() {
			if !n.HasNode(label) {
				return fmt.Errorf("%w: component %q references unknown node %q", ErrTopology, c.ID, label)
			}
		}
	}
	return nil
}

// IsGroundName reports the node names a text netlist treats as reference.
func IsGroundName(name string) bool {
	return name == consts.GroundNode || name == "gnd" || name == "GND"
}
