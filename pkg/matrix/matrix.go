package matrix

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"math/cmplx"
	"strings"
)

// ErrSingular reports a system matrix that cannot be factored.
var ErrSingular = errors.New("the network is not solvable as given")

type Backend string

const (
	DenseBackend  Backend = "dense"  // LU with partial pivoting
	SparseBackend Backend = "sparse" // Markowitz ordered sparse LU
)

func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case DenseBackend, "":
		return DenseBackend, nil
	case SparseBackend:
		return SparseBackend, nil
	}
	return "", fmt.Errorf("unknown matrix backend %q", name)
}

// CircuitMatrix is the square complex system A·x = Z of one solve call.
// Vectors are 1-based, index 0 stands for the reference node and is always 0.
type CircuitMatrix interface {
	DeviceMatrix
	Size() int
	Element(i, j int) complex128 // valid until Solve
	RHS(i int) complex128
	Solve() ([]complex128, error)
	Destroy()
}

// New creates a zeroed matrix of the given backend.
func New(backend Backend, size int) (CircuitMatrix, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid matrix size: %d", size)
	}

	switch backend {
	case DenseBackend, "":
		return NewDense(size), nil
	case SparseBackend:
		return NewSparse(size)
	}
	return nil, fmt.Errorf("unknown matrix backend %q", backend)
}

func inBounds(i, j, size int) bool {
	if i < 0 || j < 0 || i > size || j > size {
		log.Printf("Warning: Matrix index out of bounds (i=%d, j=%d, size=%d)", i, j, size)
		return false
	}
	return i != 0 && j != 0
}

func checkSolution(x []complex128) error {
	for i := 1; i < len(x); i++ {
		if cmplx.IsNaN(x[i]) || cmplx.IsInf(x[i]) || math.IsNaN(real(x[i])) {
			return fmt.Errorf("%w: unknown x%d is not finite", ErrSingular, i)
		}
	}
	return nil
}

// Print writes the system row by row, e.g. for a verbose log.
func Print(w io.Writer, m CircuitMatrix) {
	size := m.Size()
	fmt.Fprintf(w, "Circuit Equations (%dx%d):\n", size, size)
	fmt.Fprintln(w, "Node equations 1..n, followed by branch equations")

	for i := 1; i <= size; i++ {
		var sb strings.Builder
		for j := 1; j <= size; j++ {
			e := m.Element(i, j)
			if e == 0 {
				continue
			}
			if imag(e) == 0 {
				fmt.Fprintf(&sb, "  %+g*x%d", real(e), j)
			} else {
				fmt.Fprintf(&sb, "  (%g%+gj)*x%d", real(e), imag(e), j)
			}
		}
		if sb.Len() == 0 {
			sb.WriteString("  0")
		}
		rhs := m.RHS(i)
		fmt.Fprintf(w, "Equation %d:%s = %g%+gj\n", i, sb.String(), real(rhs), imag(rhs))
	}
}
