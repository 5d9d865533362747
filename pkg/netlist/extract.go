package netlist

import (
	"fmt"
	"strconv"

	"github.com/edp1096/toy-phasor/internal/consts"
	"github.com/edp1096/toy-phasor/pkg/device"
	"github.com/edp1096/toy-phasor/pkg/schematic"
)

var componentKinds = map[schematic.Kind]device.Kind{
	schematic.Resistor:      device.Resistor,
	schematic.Capacitor:     device.Capacitor,
	schematic.Inductor:      device.Inductor,
	schematic.VoltageSource: device.VoltageSource,
	schematic.CurrentSource: device.CurrentSource,
	schematic.OpAmp:         device.OpAmp,
}

// extractor interns connection points to dense ids for the union-find.
type extractor struct {
	points map[schematic.Point]int
	order  []schematic.Point
	sets   *disjointSet
}

func (e *extractor) intern(p schematic.Point) int {
	id := e.sets.add()
	e.points[p] = id
	e.order = append(e.order, p)
	return id
}

func (e *extractor) lookup(p schematic.Point) (int, error) {
	id, ok := e.points[p]
	if !ok {
		return 0, fmt.Errorf("%w: unknown connection point %s", ErrTopology, p)
	}
	return id, nil
}

func (e *extractor) join(a, b schematic.Point) error {
	ia, err := e.lookup(a)
	if err != nil {
		return err
	}
	ib, err := e.lookup(b)
	if err != nil {
		return err
	}
	e.sets.union(ia, ib)
	return nil
}

// Extract derives the electrical netlist from a schematic snapshot.
//
// Two-terminal symbols join left+top (terminal A) and right+bottom
// (terminal B). Ground and junction symbols are a single node. Op-amp
// terminals stay distinct: left is inverting, bottom non-inverting, right
// the output. The node holding any ground symbol is labeled "0"; other
// nodes get "1", "2", ... in order of first appearance. Without a ground
// no reference is assigned (see Netlist.EnsureReference).
func Extract(s *schematic.Schematic) (*Netlist, error) {
	e := &extractor{
		points: make(map[schematic.Point]int, 4*len(s.Nodes)),
		sets:   newDisjointSet(4 * len(s.Nodes)),
	}

	seen := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node without id", ErrTopology)
		}
		if seen[n.ID] {
			return nil, fmt.Errorf("%w: duplicate node id %q", ErrTopology, n.ID)
		}
		seen[n.ID] = true

		if !n.Kind.Valid() {
			return nil, fmt.Errorf("%w: node %q has unknown type %q", ErrTopology, n.ID, n.Kind)
		}
		for _, p := range n.Points() {
			e.intern(p)
		}
	}

	// Internal terminal topology
	var grounds []schematic.Point
	for _, n := range s.Nodes {
		point := func(h schematic.Handle) schematic.Point { return schematic.Point{Node: n.ID, Handle: h} }

		switch n.Kind {
		case schematic.Ground, schematic.Junction:
			for _, h := range n.Kind.Handles() {
				if err := e.join(point(schematic.Top), point(h)); err != nil {
					return nil, err
				}
			}
			if n.Kind == schematic.Ground {
				grounds = append(grounds, point(schematic.Top))
			}

		case schematic.OpAmp:
			// Distinct inputs and output

		default:
			if err := e.join(point(schematic.Left), point(schematic.Top)); err != nil {
				return nil, err
			}
			if err := e.join(point(schematic.Right), point(schematic.Bottom)); err != nil {
				return nil, err
			}
		}
	}

	// Every ground symbol is the same reference node.
	for i := 1; i < len(grounds); i++ {
		if err := e.join(grounds[0], grounds[i]); err != nil {
			return nil, err
		}
	}

	for i, w := range s.Wires {
		a, b := w.Endpoints()
		if err := e.join(a, b); err != nil {
			return nil, fmt.Errorf("wire %d: %w", i, err)
		}
	}

	groundRoot := -1
	if len(grounds) > 0 {
		groundRoot = e.sets.find(e.points[grounds[0]])
	}

	nl := &Netlist{Title: s.Title, Frequency: s.Frequency}
	labels := make(map[int]string)
	counter := 1
	for _, p := range e.order {
		root := e.sets.find(e.points[p])
		if _, ok := labels[root]; ok {
			continue
		}

		label := strconv.Itoa(counter)
		if root == groundRoot {
			label = consts.GroundNode
			nl.Reference = label
		} else {
			counter++
		}
		labels[root] = label
		nl.Nodes = append(nl.Nodes, label)
	}

	resolve := func(id string, h schematic.Handle) (string, error) {
		p := schematic.Point{Node: id, Handle: h}
		pid, err := e.lookup(p)
		if err != nil {
			return "", err
		}
		label, ok := labels[e.sets.find(pid)]
		if !ok {
			return "", fmt.Errorf("%w: %s has no electrical node", ErrTopology, p)
		}
		return label, nil
	}

	for _, n := range s.Nodes {
		if n.Kind.IsTap() {
			continue
		}

		comp := Component{
			ID:    n.ID,
			Kind:  componentKinds[n.Kind],
			Value: n.Value,
			Phase: n.Phase,
		}

		var err error
		if comp.Kind == device.OpAmp {
			if comp.Neg, err = resolve(n.ID, schematic.Left); err != nil {
				return nil, err
			}
			if comp.Pos, err = resolve(n.ID, schematic.Bottom); err != nil {
				return nil, err
			}
			if comp.Out, err = resolve(n.ID, schematic.Right); err != nil {
				return nil, err
			}
		} else {
			if comp.Pos, err = resolve(n.ID, schematic.Left); err != nil {
				return nil, err
			}
			if comp.Neg, err = resolve(n.ID, schematic.Right); err != nil {
				return nil, err
			}
		}

		nl.Components = append(nl.Components, comp)
	}

	return nl, nil
}
