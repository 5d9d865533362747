package device

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func TestImpedance(t *testing.T) {
	omega := Omega(1000)

	tests := []struct {
		name  string
		kind  Kind
		value float64
		want  complex128
	}{
		{"resistor", Resistor, 1e3, complex(1e3, 0)},
		{"inductor", Inductor, 1e-3, complex(0, omega*1e-3)},
		{"capacitor", Capacitor, 1e-6, complex(0, -1/(omega*1e-6))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, open, err := Impedance(tt.kind, tt.value, omega)
			if err != nil {
				t.Fatalf("Impedance: %v", err)
			}
			if open {
				t.Fatalf("unexpected open circuit")
			}
			if cmplx.Abs(z-tt.want) > 1e-9*cmplx.Abs(tt.want) {
				t.Errorf("got %v, want %v", z, tt.want)
			}
		})
	}
}

func TestCapacitorAtZeroFrequencyIsOpen(t *testing.T) {
	z, open, err := Impedance(Capacitor, 1e-6, 0)
	if err != nil {
		t.Fatalf("Impedance: %v", err)
	}
	if !open || z != 0 {
		t.Errorf("got z=%v open=%v, want open circuit", z, open)
	}

	y, err := Admittance(Capacitor, 1e-6, 0)
	if err != nil {
		t.Fatalf("Admittance: %v", err)
	}
	if y != 0 {
		t.Errorf("admittance = %v, want 0", y)
	}
}

func TestAdmittanceShort(t *testing.T) {
	if _, err := Admittance(Resistor, 0, 1); !errors.Is(err, ErrZeroImpedance) {
		t.Errorf("0 Ω resistor: got %v, want ErrZeroImpedance", err)
	}
	if _, err := Admittance(Inductor, 1e-3, 0); !errors.Is(err, ErrZeroImpedance) {
		t.Errorf("inductor at DC: got %v, want ErrZeroImpedance", err)
	}
}

func TestSourcesHaveNoImpedance(t *testing.T) {
	for _, k := range []Kind{VoltageSource, CurrentSource, OpAmp} {
		if _, _, err := Impedance(k, 1, 1); err == nil {
			t.Errorf("%s: expected error", k)
		}
	}
}

func TestPhasor(t *testing.T) {
	p := Phasor(2, 90)
	if math.Abs(real(p)) > 1e-12 || math.Abs(imag(p)-2) > 1e-12 {
		t.Errorf("Phasor(2, 90) = %v", p)
	}
	if Phasor(5, 0) != complex(5, 0) {
		t.Errorf("Phasor(5, 0) = %v", Phasor(5, 0))
	}
}

func TestKindSymbols(t *testing.T) {
	for k := Resistor; k <= OpAmp; k++ {
		got, ok := KindFromSymbol(k.Symbol())
		if !ok || got != k {
			t.Errorf("KindFromSymbol(%q) = %v, %v", k.Symbol(), got, ok)
		}
	}
	if !VoltageSource.HasBranchCurrent() || !OpAmp.HasBranchCurrent() || CurrentSource.HasBranchCurrent() {
		t.Error("branch current flags")
	}
}
