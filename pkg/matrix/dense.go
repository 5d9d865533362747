package matrix

import (
	"fmt"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Relative pivot threshold. A pivot at or below this fraction of the largest
// entry left in the active submatrix is treated as zero. Unit constraint
// coefficients share columns with admittances many decades smaller.
const pivotThreshold = 1e-20

// Dense keeps A in a gonum complex matrix and solves it by LU
// decomposition with partial pivoting.
type Dense struct {
	size int
	a    *mat.CDense
	rhs  []complex128 // 1-based
}

func NewDense(size int) *Dense {
	return &Dense{
		size: size,
		a:    mat.NewCDense(size, size, nil),
		rhs:  make([]complex128, size+1),
	}
}

func (m *Dense) Size() int { return m.size }

func (m *Dense) AddComplexElement(i, j int, value complex128) {
	if !inBounds(i, j, m.size) {
		return
	}
	m.a.Set(i-1, j-1, m.a.At(i-1, j-1)+value)
}

func (m *Dense) AddComplexRHS(i int, value complex128) {
	if !inBounds(i, i, m.size) {
		return
	}
	m.rhs[i] += value
}

func (m *Dense) Element(i, j int) complex128 {
	if i <= 0 || j <= 0 || i > m.size || j > m.size {
		return 0
	}
	return m.a.At(i-1, j-1)
}

func (m *Dense) RHS(i int) complex128 {
	if i <= 0 || i > m.size {
		return 0
	}
	return m.rhs[i]
}

// Solve factors a copy of A, so the assembled system stays readable.
func (m *Dense) Solve() ([]complex128, error) {
	n := m.size

	// LU factors in a second CDense, rows addressed through its raw storage.
	raw := m.a.RawCMatrix()
	factors := mat.NewCDense(n, n, slices.Clone(raw.Data[:n*raw.Stride]))
	data := factors.RawCMatrix()
	lu := make([][]complex128, n)
	for i := range n {
		lu[i] = data.Data[i*data.Stride : i*data.Stride+n]
	}

	perm := make([]int, n) // perm[k]: original row now at row k
	for i := range perm {
		perm[i] = i
	}

	for k := range n {
		pivotRow, largest := k, cmplx.Abs(lu[k][k])
		for i := k + 1; i < n; i++ {
			if mag := cmplx.Abs(lu[i][k]); mag > largest {
				pivotRow, largest = i, mag
			}
		}
		if largest == 0 {
			return nil, fmt.Errorf("%w: zero pivot at step %d", ErrSingular, k+1)
		}
		if largest <= pivotThreshold*activeMax(lu, k) {
			return nil, fmt.Errorf("%w: pivot %.3g at step %d is negligible", ErrSingular, largest, k+1)
		}

		if pivotRow != k {
			lu[k], lu[pivotRow] = lu[pivotRow], lu[k]
			perm[k], perm[pivotRow] = perm[pivotRow], perm[k]
		}

		pivot := lu[k][k]
		for i := k + 1; i < n; i++ {
			factor := lu[i][k] / pivot
			lu[i][k] = factor
			if factor == 0 {
				continue
			}
			for j := k + 1; j < n; j++ {
				lu[i][j] -= factor * lu[k][j]
			}
		}
	}

	// Forward substitution, Ly = Pb
	y := make([]complex128, n)
	for i := range n {
		sum := m.rhs[perm[i]+1]
		for j := range i {
			sum -= lu[i][j] * y[j]
		}
		y[i] = sum
	}

	// Backward substitution, Ux = y
	x := make([]complex128, n+1)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum -= lu[i][j] * x[j+1]
		}
		x[i+1] = sum / lu[i][i]
	}

	if err := checkSolution(x); err != nil {
		return nil, err
	}
	return x, nil
}

func (m *Dense) Destroy() {
	m.a = nil
	m.rhs = nil
}

// activeMax returns the largest magnitude in rows and columns k and beyond.
func activeMax(lu [][]complex128, k int) float64 {
	largest := 0.0
	for i := k; i < len(lu); i++ {
		for _, v := range lu[i][k:] {
			largest = max(largest, cmplx.Abs(v))
		}
	}
	return largest
}
