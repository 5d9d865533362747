package netlist

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/edp1096/toy-phasor/internal/consts"
	"github.com/edp1096/toy-phasor/pkg/device"
)

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"G":   1e9,   // giga
	"meg": 1e6,   // mega
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"M":   1e-3,  // milli, as in SPICE
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var (
	valuePattern = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)((?i:meg)|[TGMKkmunpf])?([a-zA-Z]*)$`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// parser accumulates a netlist while reading lines.
type parser struct {
	netlist *Netlist
	nodes   map[string]bool
	lineNo  int
	ended   bool
}

// Parse reads a text netlist. The first line is the title.
//
//	R1 in out 1k
//	C1 out 0 100n
//	V1 in 0 AC 5 30
//	O1 plus minus out
//	.freq 1k
func Parse(input string) (*Netlist, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	p := &parser{
		netlist: &Netlist{},
		nodes:   make(map[string]bool),
	}

	// Title or comment
	if scanner.Scan() {
		p.lineNo++
		p.netlist.Title = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "*"))
	}

	var currentLine string
	for scanner.Scan() {
		p.lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Inline comment
		if idx := strings.IndexAny(line, "*;"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if len(line) == 0 {
			continue
		}

		// Continued line
		if strings.HasPrefix(line, "+") {
			if currentLine == "" {
				return nil, p.errorf("continuation without a preceding line")
			}
			currentLine += " " + strings.TrimSpace(line[1:])
			continue
		}

		if currentLine != "" {
			if err := p.parseLine(currentLine); err != nil {
				return nil, err
			}
		}
		currentLine = line
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading netlist: %v", err)
	}

	if currentLine != "" {
		if err := p.parseLine(currentLine); err != nil {
			return nil, err
		}
	}

	if err := p.netlist.Validate(); err != nil {
		return nil, err
	}
	return p.netlist, nil
}

func ParseFile(path string) (*Netlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	return Parse(string(data))
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrParse, p.lineNo, fmt.Sprintf(format, args...))
}

func (p *parser) parseLine(line string) error {
	if p.ended {
		return nil
	}

	line = spacePattern.ReplaceAllString(line, " ")
	if strings.HasPrefix(line, ".") {
		return p.parseDotOperator(line)
	}

	comp, err := p.parseElement(line)
	if err != nil {
		return err
	}
	p.netlist.Components = append(p.netlist.Components, *comp)
	return nil
}

// Parse .freq, .ac, .title, .end
func (p *parser) parseDotOperator(line string) error {
	fields := strings.Fields(line)

	switch strings.ToLower(fields[0]) {
	case ".freq":
		if len(fields) != 2 {
			return p.errorf(".freq needs exactly one frequency")
		}
		freq, err := ParseValue(fields[1])
		if err != nil {
			return p.errorf("invalid frequency: %v", err)
		}
		p.netlist.Frequency = freq

	case ".ac":
		// .ac <sweep> <points> <fstart> [fstop] - single frequency only
		if len(fields) < 4 {
			return p.errorf("insufficient ac parameters")
		}
		fStart, err := ParseValue(fields[3])
		if err != nil {
			return p.errorf("invalid fstart: %v", err)
		}
		if len(fields) > 4 {
			fStop, err := ParseValue(fields[4])
			if err != nil {
				return p.errorf("invalid fstop: %v", err)
			}
			if fStop != fStart {
				return p.errorf("frequency sweeps are not supported, use a single frequency")
			}
		}
		p.netlist.Frequency = fStart

	case ".title":
		p.netlist.Title = strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	case ".end":
		p.ended = true

	default:
		return p.errorf("unsupported directive %s", fields[0])
	}
	return nil
}

func (p *parser) parseElement(line string) (*Component, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, p.errorf("invalid element format: %s", line)
	}

	kind, ok := device.KindFromSymbol(strings.ToUpper(fields[0][:1]))
	if !ok {
		return nil, p.errorf("unsupported element %s", fields[0])
	}
	comp := &Component{ID: fields[0], Kind: kind}

	switch kind {
	case device.Resistor, device.Capacitor, device.Inductor:
		if len(fields) != 4 {
			return nil, p.errorf("%s needs two nodes and a value", comp.ID)
		}
		value, err := ParseValue(fields[3])
		if err != nil {
			return nil, p.errorf("%s: %v", comp.ID, err)
		}
		comp.Pos, comp.Neg = p.node(fields[1]), p.node(fields[2])
		comp.Value = value

	case device.VoltageSource, device.CurrentSource:
		if len(fields) < 4 {
			return nil, p.errorf("insufficient %s parameters", strings.ToLower(kind.String()))
		}
		comp.Pos, comp.Neg = p.node(fields[1]), p.node(fields[2])
		if err := p.parseSource(comp, fields[3:]); err != nil {
			return nil, err
		}

	case device.OpAmp:
		if len(fields) != 4 {
			return nil, p.errorf("%s needs non-inverting, inverting and output nodes", comp.ID)
		}
		comp.Pos, comp.Neg, comp.Out = p.node(fields[1]), p.node(fields[2]), p.node(fields[3])
	}

	return comp, nil
}

// parseSource reads "[AC|DC] magnitude [phase]".
func (p *parser) parseSource(comp *Component, words []string) error {
	switch strings.ToUpper(words[0]) {
	case "AC", "DC":
		words = words[1:]
	}
	if len(words) == 0 || len(words) > 2 {
		return p.errorf("%s: expected magnitude and optional phase", comp.ID)
	}

	magnitude, err := ParseValue(words[0])
	if err != nil {
		return p.errorf("invalid %s magnitude: %v", comp.ID, err)
	}
	comp.Value = magnitude

	if len(words) == 2 {
		phase, err := strconv.ParseFloat(words[1], 64)
		if err != nil {
			return p.errorf("invalid %s phase: %v", comp.ID, err)
		}
		comp.Phase = phase
	}
	return nil
}

// node normalizes a node name and records it in first-seen order.
func (p *parser) node(name string) string {
	if IsGroundName(name) {
		name = consts.GroundNode
		p.netlist.Reference = name
	}
	if !p.nodes[name] {
		p.nodes[name] = true
		p.netlist.Nodes = append(p.netlist.Nodes, name)
	}
	return name
}

// ParseValue - Parse value and factor. 1k -> 1000, 10uF -> 1e-05
func ParseValue(val string) (float64, error) {
	matches := valuePattern.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	// meg is matched in any case, single letters are case sensitive
	if factor := matches[2]; len(factor) > 1 {
		num *= unitMap[strings.ToLower(factor)]
	} else if factor != "" {
		num *= unitMap[factor]
	}

	return num, nil
}
