package circuit

import (
	"errors"
	"math"
	"math/cmplx"
	"reflect"
	"testing"

	"github.com/edp1096/toy-phasor/internal/consts"
	"github.com/edp1096/toy-phasor/pkg/device"
	"github.com/edp1096/toy-phasor/pkg/matrix"
	"github.com/edp1096/toy-phasor/pkg/netlist"
)

const tol = 1e-9

func r(id, pos, neg string, value float64) netlist.Component {
	return netlist.Component{ID: id, Kind: device.Resistor, Value: value, Pos: pos, Neg: neg}
}

func v(id, pos, neg string, mag, phase float64) netlist.Component {
	return netlist.Component{ID: id, Kind: device.VoltageSource, Value: mag, Phase: phase, Pos: pos, Neg: neg}
}

func build(freq float64, nodes []string, comps ...netlist.Component) *netlist.Netlist {
	return &netlist.Netlist{
		Nodes:      nodes,
		Components: comps,
		Frequency:  freq,
		Reference:  consts.GroundNode,
	}
}

func solve(t *testing.T, nl *netlist.Netlist, backend matrix.Backend) *Solution {
	t.Helper()
	ckt, err := New(nl, backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sol, err := ckt.Solve()
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return sol
}

func assertPhasor(t *testing.T, name string, got, want complex128) {
	t.Helper()
	if cmplx.Abs(got-want) > tol*math.Max(1, cmplx.Abs(want)) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestResistiveDivider(t *testing.T) {
	for _, backend := range []matrix.Backend{matrix.DenseBackend, matrix.SparseBackend} {
		t.Run(string(backend), func(t *testing.T) {
			nl := build(50, []string{"1", "0", "2"},
				v("V1", "1", "0", 10, 0),
				r("R1", "1", "2", 1e3),
				r("R2", "2", "0", 3e3),
			)
			sol := solve(t, nl, backend)

			assertPhasor(t, "V(1)", sol.Voltages["1"], 10)
			assertPhasor(t, "V(2)", sol.Voltages["2"], 10*3e3/4e3)
			assertPhasor(t, "V(0)", sol.Voltages["0"], 0)

			// Source current flows into its positive terminal.
			assertPhasor(t, "I(V1)", sol.Currents["V1"], -10/4e3)
			assertPhasor(t, "I(R1)", sol.Currents["R1"], 10/4e3)
			assertPhasor(t, "I(R2)", sol.Currents["R2"], 10/4e3)
		})
	}
}

// Terraohm networks put 1e-12 admittances next to the unit coefficients of
// the source constraint. Both backends must solve them.
func TestHighImpedanceNetworks(t *testing.T) {
	tests := []struct {
		name string
		nl   *netlist.Netlist
		want map[string]complex128
	}{
		{
			name: "floating source",
			nl: build(0, []string{"1", "2", "0"},
				v("V1", "1", "2", 1, 0),
				r("R1", "1", "0", 10e12),
				r("R2", "2", "0", 10e12),
			),
			want: map[string]complex128{"1": 0.5, "2": -0.5},
		},
		{
			name: "terraohm divider",
			nl: build(0, []string{"1", "0", "2"},
				v("V1", "1", "0", 1, 0),
				r("R1", "1", "2", 1e12),
				r("R2", "2", "0", 1e12),
				r("R3", "2", "0", 1e12),
			),
			want: map[string]complex128{"1": 1, "2": 1.0 / 3},
		},
	}

	for _, tt := range tests {
		for _, backend := range []matrix.Backend{matrix.DenseBackend, matrix.SparseBackend} {
			t.Run(tt.name+"/"+string(backend), func(t *testing.T) {
				sol := solve(t, tt.nl, backend)
				for node, want := range tt.want {
					assertPhasor(t, "V("+node+")", sol.Voltages[node], want)
				}
			})
		}
	}
}

func TestSourceAcrossResistor(t *testing.T) {
	nl := build(60, []string{"1", "0"},
		v("V1", "1", "0", 7, 0),
		r("R1", "1", "0", 470),
	)
	sol := solve(t, nl, matrix.DenseBackend)
	assertPhasor(t, "V(1)", sol.Voltages["1"], 7)
}

func TestUndrivenNodesAreZero(t *testing.T) {
	t.Run("resistor", func(t *testing.T) {
		sol := solve(t, build(60, []string{"1", "0"}, r("R1", "1", "0", 100)), matrix.DenseBackend)
		assertPhasor(t, "V(1)", sol.Voltages["1"], 0)
	})

	t.Run("capacitor", func(t *testing.T) {
		c := netlist.Component{ID: "C1", Kind: device.Capacitor, Value: 1e-6, Pos: "1", Neg: "0"}
		sol := solve(t, build(60, []string{"1", "0"}, c), matrix.DenseBackend)
		assertPhasor(t, "V(1)", sol.Voltages["1"], 0)
	})
}

func TestCapacitorOpenAtDC(t *testing.T) {
	nl := build(0, []string{"1", "0", "2"},
		v("V1", "1", "0", 10, 0),
		r("R1", "1", "2", 1e3),
		netlist.Component{ID: "C1", Kind: device.Capacitor, Value: 1e-6, Pos: "2", Neg: "0"},
	)
	sol := solve(t, nl, matrix.DenseBackend)
	assertPhasor(t, "V(2)", sol.Voltages["2"], 10)
	assertPhasor(t, "I(C1)", sol.Currents["C1"], 0)
}

func TestRCLowPass(t *testing.T) {
	// omega*R*C = 1 puts the output at 1/(1+j).
	freq := 1e3 / consts.TwoPi
	nl := build(freq, []string{"in", "0", "out"},
		v("V1", "in", "0", 1, 0),
		r("R1", "in", "out", 1e3),
		netlist.Component{ID: "C1", Kind: device.Capacitor, Value: 1e-6, Pos: "out", Neg: "0"},
	)
	sol := solve(t, nl, matrix.DenseBackend)
	assertPhasor(t, "V(out)", sol.Voltages["out"], complex(0.5, -0.5))
}

func TestRLWithPhase(t *testing.T) {
	// omega*L = R gives a 45 degree split.
	freq := 1e3 / consts.TwoPi
	nl := build(freq, []string{"in", "0", "out"},
		v("V1", "in", "0", 2, 90),
		r("R1", "in", "out", 1e3),
		netlist.Component{ID: "L1", Kind: device.Inductor, Value: 1, Pos: "out", Neg: "0"},
	)
	sol := solve(t, nl, matrix.DenseBackend)

	vin := device.Phasor(2, 90)
	assertPhasor(t, "V(out)", sol.Voltages["out"], vin*complex(0, 1)/complex(1, 1))
}

func TestCurrentSourceIntoResistor(t *testing.T) {
	nl := build(50, []string{"1", "0"},
		netlist.Component{ID: "I1", Kind: device.CurrentSource, Value: 2e-3, Phase: 30, Pos: "1", Neg: "0"},
		r("R1", "1", "0", 1e3),
	)
	sol := solve(t, nl, matrix.DenseBackend)
	assertPhasor(t, "V(1)", sol.Voltages["1"], device.Phasor(2, 30))
	assertPhasor(t, "I(I1)", sol.Currents["I1"], -device.Phasor(2e-3, 30))
}

func TestOpAmpAmplifiers(t *testing.T) {
	vin := device.Phasor(1, 45)

	t.Run("inverting", func(t *testing.T) {
		nl := build(1e3, []string{"in", "0", "m", "out"},
			v("V1", "in", "0", 1, 45),
			r("Rin", "in", "m", 1e3),
			r("Rf", "m", "out", 2e3),
			netlist.Component{ID: "U1", Kind: device.OpAmp, Pos: "0", Neg: "m", Out: "out"},
		)
		sol := solve(t, nl, matrix.DenseBackend)
		assertPhasor(t, "V(m)", sol.Voltages["m"], 0)
		assertPhasor(t, "V(out)", sol.Voltages["out"], -2*vin)
	})

	t.Run("non-inverting", func(t *testing.T) {
		nl := build(1e3, []string{"p", "0", "m", "out"},
			v("V1", "p", "0", 1, 45),
			r("R1", "m", "0", 1e3),
			r("R2", "out", "m", 1e3),
			netlist.Component{ID: "U1", Kind: device.OpAmp, Pos: "p", Neg: "m", Out: "out"},
		)
		sol := solve(t, nl, matrix.DenseBackend)
		assertPhasor(t, "V(m)", sol.Voltages["m"], vin)
		assertPhasor(t, "V(out)", sol.Voltages["out"], 2*vin)
	})
}

func TestSolveFailures(t *testing.T) {
	t.Run("isolated node", func(t *testing.T) {
		nl := build(50, []string{"1", "0", "2"},
			v("V1", "1", "0", 1, 0),
			r("R1", "1", "0", 1),
		)
		ckt, err := New(nl, matrix.DenseBackend)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := ckt.Solve(); !errors.Is(err, matrix.ErrSingular) {
			t.Errorf("got %v, want ErrSingular", err)
		}
	})

	t.Run("shorted source", func(t *testing.T) {
		nl := build(50, []string{"1", "0"},
			v("V1", "1", "1", 1, 0),
			r("R1", "1", "0", 1),
		)
		ckt, _ := New(nl, matrix.DenseBackend)
		if _, err := ckt.Solve(); !errors.Is(err, matrix.ErrSingular) {
			t.Errorf("got %v, want ErrSingular", err)
		}
	})

	t.Run("zero ohm", func(t *testing.T) {
		nl := build(50, []string{"1", "0"},
			v("V1", "1", "0", 1, 0),
			r("R1", "1", "0", 0),
		)
		ckt, _ := New(nl, matrix.DenseBackend)
		if _, err := ckt.Solve(); !errors.Is(err, device.ErrZeroImpedance) {
			t.Errorf("got %v, want ErrZeroImpedance", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		nl := build(50, []string{"0"}, r("R1", "0", "0", 1))
		if _, err := New(nl, matrix.DenseBackend); !errors.Is(err, ErrEmptyCircuit) {
			t.Errorf("got %v, want ErrEmptyCircuit", err)
		}
	})

	t.Run("no reference", func(t *testing.T) {
		nl := build(50, []string{"a", "b"}, r("R1", "a", "b", 1))
		nl.Reference = ""
		if _, err := New(nl, matrix.DenseBackend); !errors.Is(err, netlist.ErrTopology) {
			t.Errorf("got %v, want ErrTopology", err)
		}
	})
}

func TestVariableOrdering(t *testing.T) {
	nl := build(50, []string{"1", "0", "2", "3"},
		r("R1", "1", "2", 1),
		v("V1", "1", "0", 1, 0),
		netlist.Component{ID: "U1", Kind: device.OpAmp, Pos: "0", Neg: "2", Out: "3"},
		v("V2", "3", "0", 1, 0),
	)
	ckt, err := New(nl, matrix.DenseBackend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if want := map[string]int{"1": 1, "2": 2, "3": 3}; !reflect.DeepEqual(ckt.GetNodeMap(), want) {
		t.Errorf("node map = %v, want %v", ckt.GetNodeMap(), want)
	}
	if want := map[string]int{"V1": 4, "U1": 5, "V2": 6}; !reflect.DeepEqual(ckt.GetBranchMap(), want) {
		t.Errorf("branch map = %v, want %v", ckt.GetBranchMap(), want)
	}
	if ckt.Size() != 6 || ckt.NodeIndex("0") != 0 {
		t.Errorf("size = %d, ground index = %d", ckt.Size(), ckt.NodeIndex("0"))
	}
}

func TestEquations(t *testing.T) {
	nl := build(50, []string{"1", "0", "2"},
		v("V1", "1", "0", 10, 0),
		r("R1", "1", "2", 1e3),
		netlist.Component{ID: "I1", Kind: device.CurrentSource, Value: 1, Pos: "0", Neg: "2"},
		netlist.Component{ID: "C1", Kind: device.Capacitor, Value: 1e-6, Pos: "2", Neg: "0"},
	)
	ckt, err := New(nl, matrix.DenseBackend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ckt.Assemble(); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	want := []string{
		`\text{Node 1: } I_{V1} + \frac{V_{1} - V_{2}}{R_{R1}} = 0`,
		`\text{Node 2: } \frac{V_{2} - V_{1}}{R_{R1}} + \frac{V_{2} - V_{0}}{\frac{1}{j\omega C_{C1}}} = -1 ∠ 0.00° A`,
		`V_{1} - V_{0} = 10 ∠ 0.00° V`,
	}
	if got := ckt.Equations(); !reflect.DeepEqual(got, want) {
		t.Errorf("equations =\n%q\nwant\n%q", got, want)
	}
}

func TestSolveIsIdempotent(t *testing.T) {
	nl := build(1e3, []string{"1", "0", "2"},
		v("V1", "1", "0", 3, 20),
		r("R1", "1", "2", 220),
		netlist.Component{ID: "L1", Kind: device.Inductor, Value: 10e-3, Pos: "2", Neg: "0"},
	)
	ckt, err := New(nl, matrix.DenseBackend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := ckt.Solve()
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	eqs := ckt.Equations()

	second, err := ckt.Solve()
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated solve differs:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(eqs, ckt.Equations()) {
		t.Error("repeated assembly changed the equations")
	}
}
