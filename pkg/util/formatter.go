package util

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/edp1096/toy-phasor/internal/consts"
)

func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue == 0:
		return fmt.Sprintf("0 %s", unit)
	case absValue >= 1e6:
		return fmt.Sprintf("%.3f M%s", value/1e6, unit)
	case absValue >= 1e3:
		return fmt.Sprintf("%.3f k%s", value/1e3, unit)
	case absValue >= 1:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

func FormatFrequency(freq float64) string {
	switch {
	case freq >= 1e6:
		return fmt.Sprintf("%.3f MHz", freq/1e6)
	case freq >= 1e3:
		return fmt.Sprintf("%.3f kHz", freq/1e3)
	default:
		return fmt.Sprintf("%.3f Hz", freq)
	}
}

// Polar returns the magnitude and the angle in degrees of a phasor.
// Small magnitudes are kept; only an exact zero has no angle.
func Polar(c complex128) (magnitude, angleDeg float64) {
	r, theta := cmplx.Polar(c)
	if r == 0 {
		return 0, 0
	}
	return r, CleanZero(theta*consts.RadToDeg, 1e-9)
}

// FormatPolar renders a phasor as "5 ∠ 30.00° V".
func FormatPolar(c complex128, unit string) string {
	mag, deg := Polar(c)
	return fmt.Sprintf("%.4g ∠ %.2f° %s", mag, deg, unit)
}

// FormatRect renders a phasor as "4.33 + 2.5j".
func FormatRect(c complex128) string {
	// Parts below 1e-12 of the magnitude are rounding noise.
	eps := 1e-12 * cmplx.Abs(c)
	re, im := CleanZero(real(c), eps), CleanZero(imag(c), eps)
	sign := "+"
	if im < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%.4g %s %.4gj", re, sign, math.Abs(im))
}

func FormatMagnitudePhase(name string, c complex128) string {
	value, phase := Polar(c)

	var magStr string
	if value >= 1000 || (value < 0.001 && value != 0) {
		magStr = fmt.Sprintf("%8.2e", value) // e.g., "1.00e+03"
	} else {
		magStr = fmt.Sprintf("%8.3g", value) // e.g., "  732.5 "
	}
	phaseStr := fmt.Sprintf("%6.1f", phase) // e.g., "  90.0"
	return fmt.Sprintf("%s=%s<%sdeg", name, magStr, phaseStr)
}
