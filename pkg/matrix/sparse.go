package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// Sparse wraps a complex sparse.Matrix. Right hand side and solution
// vectors are interleaved (re, im) per index, as the package expects.
type Sparse struct {
	size   int
	matrix *sparse.Matrix
	rhs    []float64
	config *sparse.Configuration
}

func NewSparse(size int) (*Sparse, error) {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 true,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %v", err)
	}

	m := &Sparse{
		size:   size,
		matrix: mat,
		rhs:    make([]float64, 2*(size+1)),
		config: config,
	}
	m.setupElements()

	return m, nil
}

// setupElements allocates the full pattern so every diagonal exists before ordering.
func (m *Sparse) setupElements() {
	for i := 1; i <= m.size; i++ {
		for j := 1; j <= m.size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *Sparse) Size() int { return m.size }

func (m *Sparse) AddComplexElement(i, j int, value complex128) {
	if !inBounds(i, j, m.size) {
		return
	}
	element := m.matrix.GetElement(int64(i), int64(j))
	element.Real += real(value)
	element.Imag += imag(value)
}

func (m *Sparse) AddComplexRHS(i int, value complex128) {
	if !inBounds(i, i, m.size) {
		return
	}
	m.rhs[2*i] += real(value)
	m.rhs[2*i+1] += imag(value)
}

func (m *Sparse) Element(i, j int) complex128 {
	if i <= 0 || j <= 0 || i > m.size || j > m.size {
		return 0
	}
	element := m.matrix.GetElement(int64(i), int64(j))
	return complex(element.Real, element.Imag)
}

func (m *Sparse) RHS(i int) complex128 {
	if i <= 0 || i > m.size {
		return 0
	}
	return complex(m.rhs[2*i], m.rhs[2*i+1])
}

// Solve factors in place; Element no longer returns A afterwards.
func (m *Sparse) Solve() ([]complex128, error) {
	if err := m.matrix.Factor(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	solution, _, err := m.matrix.SolveComplex(m.rhs, make([]float64, m.size+1))
	if err != nil {
		return nil, fmt.Errorf("matrix solve failed: %v", err)
	}

	x := make([]complex128, m.size+1)
	for i := 1; i <= m.size; i++ {
		x[i] = complex(solution[2*i], solution[2*i+1])
	}

	if err := checkSolution(x); err != nil {
		return nil, err
	}
	return x, nil
}

func (m *Sparse) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
