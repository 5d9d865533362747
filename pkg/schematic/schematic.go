// Package schematic holds the graph the editor hands over: component
// instances with fixed connection handles and point-to-point wires.
package schematic

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Kind is the editor's component type tag.
type Kind string

const (
	Resistor      Kind = "resistor"
	Capacitor     Kind = "capacitor"
	Inductor      Kind = "inductor"
	VoltageSource Kind = "voltage_source"
	CurrentSource Kind = "current_source"
	OpAmp         Kind = "op_amp"
	Ground        Kind = "ground"
	Junction      Kind = "junction"
)

// Handle names one visual terminal of a component symbol.
type Handle string

const (
	Top    Handle = "top"
	Right  Handle = "right"
	Bottom Handle = "bottom"
	Left   Handle = "left"
)

var (
	ringHandles  = []Handle{Top, Right, Bottom, Left}
	opAmpHandles = []Handle{Right, Bottom, Left} // top is not connectable
)

// Handles returns the connection points of a kind in discovery order.
func (k Kind) Handles() []Handle {
	switch k {
	case OpAmp:
		return opAmpHandles
	case Resistor, Capacitor, Inductor, VoltageSource, CurrentSource, Ground, Junction:
		return ringHandles
	}
	return nil
}

func (k Kind) Valid() bool { return k.Handles() != nil }

// IsTap reports kinds that only join wires and are not netlist components.
func (k Kind) IsTap() bool { return k == Ground || k == Junction }

// Point identifies one handle of one node.
type Point struct {
	Node   string
	Handle Handle
}

func (p Point) String() string { return p.Node + "-" + string(p.Handle) }

type Node struct {
	ID    string  `json:"id"`
	Kind  Kind    `json:"type"`
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
	Phase float64 `json:"phase,omitempty"` // degrees, sources only
}

// Points lists the node's connection points.
func (n Node) Points() []Point {
	handles := n.Kind.Handles()
	points := make([]Point, len(handles))
	for i, h := range handles {
		points[i] = Point{Node: n.ID, Handle: h}
	}
	return points
}

type Wire struct {
	Source       string `json:"source"`
	SourceHandle Handle `json:"sourceHandle"`
	Target       string `json:"target"`
	TargetHandle Handle `json:"targetHandle"`
}

func (w Wire) Endpoints() (Point, Point) {
	return Point{Node: w.Source, Handle: w.SourceHandle}, Point{Node: w.Target, Handle: w.TargetHandle}
}

// Schematic is an immutable snapshot of the editor graph.
type Schematic struct {
	Title     string  `json:"title,omitempty"`
	Nodes     []Node  `json:"nodes"`
	Wires     []Wire  `json:"edges"`
	Frequency float64 `json:"frequency"` // Hz
}

// Connect appends a wire between two handles.
func (s *Schematic) Connect(source string, sourceHandle Handle, target string, targetHandle Handle) {
	s.Wires = append(s.Wires, Wire{
		Source:       source,
		SourceHandle: sourceHandle,
		Target:       target,
		TargetHandle: targetHandle,
	})
}

// Add appends a node and returns its id.
func (s *Schematic) Add(id string, kind Kind, value float64) string {
	s.Nodes = append(s.Nodes, Node{ID: id, Kind: kind, Value: value})
	return id
}

// AddSource appends a voltage or current source with a phase in degrees.
func (s *Schematic) AddSource(id string, kind Kind, magnitude, phase float64) string {
	s.Nodes = append(s.Nodes, Node{ID: id, Kind: kind, Value: magnitude, Phase: phase})
	return id
}

func Load(r io.Reader) (*Schematic, error) {
	var s Schematic
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding schematic: %v", err)
	}
	return &s, nil
}

func LoadFile(path string) (*Schematic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer f.Close()

	return Load(f)
}
