package matrix

import (
	"bytes"
	"errors"
	"math/cmplx"
	"strings"
	"testing"
)

const tolerance = 1e-9

func fill(t *testing.T, m CircuitMatrix, a [][]complex128, b []complex128) {
	t.Helper()
	for i, row := range a {
		for j, v := range row {
			m.AddComplexElement(i+1, j+1, v)
		}
		m.AddComplexRHS(i+1, b[i])
	}
}

func assertSolution(t *testing.T, got, want []complex128) {
	t.Helper()
	if len(got) != len(want)+1 {
		t.Fatalf("solution length = %d, want %d", len(got), len(want)+1)
	}
	if got[0] != 0 {
		t.Errorf("x[0] = %v, want 0 for the reference node", got[0])
	}
	for i, w := range want {
		if cmplx.Abs(got[i+1]-w) > tolerance {
			t.Errorf("x%d = %v, want %v", i+1, got[i+1], w)
		}
	}
}

func TestSolveComplex(t *testing.T) {
	// A = [[1+2i, 2+3i], [3+4i, 4+5i]], b = [6+7i, 12+13i], x = [1+i, 2-i]
	a := [][]complex128{{1 + 2i, 2 + 3i}, {3 + 4i, 4 + 5i}}
	b := []complex128{6 + 7i, 12 + 13i}
	want := []complex128{1 + 1i, 2 - 1i}

	for _, backend := range []Backend{DenseBackend, SparseBackend} {
		t.Run(string(backend), func(t *testing.T) {
			m, err := New(backend, 2)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer m.Destroy()

			fill(t, m, a, b)
			x, err := m.Solve()
			if err != nil {
				t.Fatalf("Solve: %v", err)
			}
			assertSolution(t, x, want)
		})
	}
}

func TestDenseSolveNeedsPivoting(t *testing.T) {
	// Zero on the first diagonal forces a row exchange.
	m := NewDense(3)
	fill(t, m,
		[][]complex128{{0, 1, 0}, {1, 0, 0}, {0, 0, 2}},
		[]complex128{2, 3, 4})

	x, err := m.Solve()
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	assertSolution(t, x, []complex128{3, 2, 2})
}

func TestDenseSolveKeepsSystem(t *testing.T) {
	m := NewDense(2)
	fill(t, m, [][]complex128{{2, 1}, {1, 3}}, []complex128{3, 5})

	if _, err := m.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if m.Element(1, 1) != 2 || m.Element(2, 1) != 1 || m.RHS(2) != 5 {
		t.Errorf("assembled system changed by Solve")
	}
}

func TestDenseSingular(t *testing.T) {
	tests := []struct {
		name string
		a    [][]complex128
	}{
		{"empty column", [][]complex128{{1, 0}, {0, 0}}},
		{"dependent rows", [][]complex128{{1, -1}, {-1, 1}}},
		{"floating pair", [][]complex128{{1e-3, -1e-3}, {-1e-3, 1e-3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewDense(2)
			fill(t, m, tt.a, []complex128{1, 0})
			if _, err := m.Solve(); !errors.Is(err, ErrSingular) {
				t.Errorf("got %v, want ErrSingular", err)
			}
		})
	}
}

func TestDenseSmallAdmittanceBesideConstraint(t *testing.T) {
	// Floating 1 V source between two nodes tied to ground through 10 TΩ.
	// Unknowns: V1, V2, I(source).
	const g = 1e-13
	m := NewDense(3)
	fill(t, m,
		[][]complex128{{g, 0, 1}, {0, g, -1}, {1, -1, 0}},
		[]complex128{0, 0, 1})

	x, err := m.Solve()
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	assertSolution(t, x, []complex128{0.5, -0.5, -g / 2})
}

func TestGroundIndexIgnored(t *testing.T) {
	m := NewDense(1)
	m.AddComplexElement(0, 1, 5)
	m.AddComplexElement(1, 0, 5)
	m.AddComplexRHS(0, 5)
	m.AddComplexElement(1, 1, 2)
	m.AddComplexRHS(1, 4)

	x, err := m.Solve()
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	assertSolution(t, x, []complex128{2})
}

func TestParseBackend(t *testing.T) {
	if b, err := ParseBackend("Sparse"); err != nil || b != SparseBackend {
		t.Errorf("ParseBackend(Sparse) = %v, %v", b, err)
	}
	if b, err := ParseBackend(""); err != nil || b != DenseBackend {
		t.Errorf("ParseBackend(\"\") = %v, %v", b, err)
	}
	if _, err := ParseBackend("gpu"); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := New(DenseBackend, 0); err == nil {
		t.Error("expected error for empty matrix")
	}
}

func TestPrint(t *testing.T) {
	m := NewDense(2)
	fill(t, m, [][]complex128{{1, 0}, {0, 1i}}, []complex128{1, 0})

	var buf bytes.Buffer
	Print(&buf, m)
	out := buf.String()
	if !strings.Contains(out, "Equation 1:  +1*x1 = 1+0j") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "(0+1j)*x2") {
		t.Errorf("missing complex term:\n%s", out)
	}
}
