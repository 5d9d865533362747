package device

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/edp1096/toy-phasor/internal/consts"
)

// ErrZeroImpedance is returned for an ideal short (0 Ω resistor, inductor at 0 Hz)
// which has no finite admittance.
var ErrZeroImpedance = errors.New("zero impedance")

// Omega returns the angular frequency for f in Hz.
func Omega(freq float64) float64 {
	return consts.TwoPi * freq
}

// Phasor converts magnitude and phase in degrees to a complex value.
func Phasor(magnitude, phaseDeg float64) complex128 {
	return cmplx.Rect(magnitude, phaseDeg*consts.DegToRad)
}

// Impedance returns the complex impedance of a passive kind at omega.
// open is true when the impedance is infinite (capacitor with omega*C = 0).
func Impedance(kind Kind, value, omega float64) (z complex128, open bool, err error) {
	switch kind {
	case Resistor:
		return complex(value, 0), false, nil

	case Inductor:
		// jωL
		return complex(0, omega*value), false, nil

	case Capacitor:
		wc := omega * value
		if wc == 0 {
			return 0, true, nil // DC block
		}
		// 1/(jωC) = -j/(ωC)
		return complex(0, -1/wc), false, nil

	default:
		return 0, false, fmt.Errorf("%s has no scalar impedance", kind)
	}
}

// Admittance returns 1/Z for a passive kind. An open circuit is zero admittance.
func Admittance(kind Kind, value, omega float64) (complex128, error) {
	z, open, err := Impedance(kind, value, omega)
	if err != nil {
		return 0, err
	}
	if open {
		return 0, nil
	}
	if z == 0 {
		return 0, fmt.Errorf("%w: %s %g%s at omega=%g", ErrZeroImpedance, kind, value, kind.Unit(), omega)
	}
	return 1 / z, nil
}

// ImpedanceLatex renders the impedance symbol of component id for equation lines.
func ImpedanceLatex(kind Kind, id string, value, omega float64) string {
	switch kind {
	case Resistor:
		return fmt.Sprintf("R_{%s}", id)
	case Inductor:
		return fmt.Sprintf("j\\omega L_{%s}", id)
	case Capacitor:
		if omega*value == 0 {
			return "\\infty"
		}
		return fmt.Sprintf("\\frac{1}{j\\omega C_{%s}}", id)
	}
	return "0"
}
