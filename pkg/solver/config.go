package solver

import (
	"io"
	"log"

	"github.com/edp1096/toy-phasor/pkg/analysis"
	"github.com/edp1096/toy-phasor/pkg/matrix"
)

type Config struct {
	Method  analysis.Method
	Backend matrix.Backend

	// Parallel runs the single-source solves of superposition concurrently.
	Parallel bool
	// RequireGround fails a circuit without a ground symbol instead of
	// using its first node as the reference.
	RequireGround bool
	// Tolerance is the relative tolerance of the superposition check.
	Tolerance float64

	Logger *log.Logger // progress lines, nil is silent
	Trace  io.Writer   // numeric system of every solve, nil is off
}

func DefaultConfig() Config {
	return Config{
		Method:    analysis.Nodal,
		Backend:   matrix.DenseBackend,
		Tolerance: analysis.DefaultTolerance,
	}
}

func (c Config) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}
