package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// RowSums returns a slice containing m row sums.
// It panics if m is nil.
func RowSums(m *Matrix) []float64 {
	rows, _ := m.Dims()
	sum := make([]float64, rows)

	for i := 0; i < rows; i++ {
		sum[i] = floats.Sum(m.RawRowView(i))
	}

	return sum
}

// ColSums returns a slice containing m column sums.
// It panics if m is nil.
func ColSums(m *Matrix) []float64 {
	rows, cols := m.Dims()
	sum := make([]float64, cols)

	for i := 0; i < rows; i++ {
		floats.Add(sum, m.RawRowView(i))
	}

	return sum
}

// Trace returns the sum of the diagonal elements of the square matrix m.
func Trace(m *Matrix) (float64, error) {
	if err := square(m); err != nil {
		return 0, err
	}

	var t float64
	for i := 0; i < m.r; i++ {
		t += m.At(i, i)
	}

	return t, nil
}

// Equal returns true if a and b have the same dimensions and elements.
func Equal(a, b *Matrix) bool {
	return EqualApprox(a, b, 0)
}

// EqualApprox returns true if a and b have the same dimensions and all
// their elements are within tol of each other.
func EqualApprox(a, b *Matrix, tol float64) bool {
	if a.null() || b.null() {
		return false
	}
	if a.r != b.r || a.c != b.c {
		return false
	}

	return floats.EqualApprox(a.data, b.data, tol)
}

// Sqrt returns a new matrix holding the element-wise square root of m.
func Sqrt(m *Matrix) (*Matrix, error) {
	return apply(m, math.Sqrt)
}

// Pow returns a new matrix holding every element of m raised to the power e.
func Pow(m *Matrix, e float64) (*Matrix, error) {
	return apply(m, func(v float64) float64 { return math.Pow(v, e) })
}

func apply(m *Matrix, fn func(float64) float64) (*Matrix, error) {
	if m.null() {
		return nil, ErrNullReference
	}

	out := m.Clone()
	for i, v := range out.data {
		out.data[i] = fn(v)
	}

	return out, nil
}

// Diag returns a square matrix with the elements of the column vector v on its diagonal.
func Diag(v *Matrix) (*Matrix, error) {
	if v.null() {
		return nil, ErrNullReference
	}
	if v.c != 1 {
		return nil, fmt.Errorf("%w: [%d x %d] is not a column vector", ErrInvalidDimension, v.r, v.c)
	}

	d, _ := New(v.r, v.r)
	for i := 0; i < v.r; i++ {
		d.Set(i, i, v.data[i])
	}

	return d, nil
}

// BlockDiag returns a block diagonal matrix assembled from ms.
func BlockDiag(ms ...*Matrix) (*Matrix, error) {
	var rows, cols int
	for _, m := range ms {
		if m.null() {
			return nil, ErrNullReference
		}
		rows += m.r
		cols += m.c
	}

	out, _ := New(rows, cols)
	var r0, c0 int
	for _, m := range ms {
		for i := 0; i < m.r; i++ {
			copy(out.data[(r0+i)*cols+c0:(r0+i)*cols+c0+m.c], m.RawRowView(i))
		}
		r0 += m.r
		c0 += m.c
	}

	return out, nil
}
