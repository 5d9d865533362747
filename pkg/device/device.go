package device

import "fmt"

// Kind is the closed set of netlist component types.
type Kind int

const (
	Resistor Kind = iota
	Capacitor
	Inductor
	VoltageSource
	CurrentSource
	OpAmp
)

var kindNames = [...]string{
	Resistor:      "Resistor",
	Capacitor:     "Capacitor",
	Inductor:      "Inductor",
	VoltageSource: "V_Source",
	CurrentSource: "I_Source",
	OpAmp:         "Op_Amp",
}

var kindSymbols = [...]string{
	Resistor:      "R",
	Capacitor:     "C",
	Inductor:      "L",
	VoltageSource: "V",
	CurrentSource: "I",
	OpAmp:         "O",
}

var kindUnits = [...]string{
	Resistor:      "Ω",
	Capacitor:     "F",
	Inductor:      "H",
	VoltageSource: "V",
	CurrentSource: "A",
	OpAmp:         "",
}

func (k Kind) Valid() bool { return k >= Resistor && k <= OpAmp }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Symbol is the one letter element prefix used in text netlists.
func (k Kind) Symbol() string {
	if !k.Valid() {
		return "?"
	}
	return kindSymbols[k]
}

// Unit of the component value.
func (k Kind) Unit() string {
	if !k.Valid() {
		return ""
	}
	return kindUnits[k]
}

// IsPassive reports whether the kind is stamped through its admittance.
func (k Kind) IsPassive() bool {
	return k == Resistor || k == Capacitor || k == Inductor
}

// IsSource reports whether the kind is an independent source.
func (k Kind) IsSource() bool {
	return k == VoltageSource || k == CurrentSource
}

// HasBranchCurrent reports whether the kind needs an auxiliary current unknown.
func (k Kind) HasBranchCurrent() bool {
	return k == VoltageSource || k == OpAmp
}

// KindFromSymbol maps a netlist element prefix (R, C, L, V, I, O) to its kind.
func KindFromSymbol(symbol string) (Kind, bool) {
	for k, s := range kindSymbols {
		if s == symbol {
			return Kind(k), true
		}
	}
	return 0, false
}
