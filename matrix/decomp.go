package matrix

import (
	"fmt"
	"math"
)

func square(m *Matrix) error {
	if m.null() {
		return ErrNullReference
	}
	if m.r != m.c {
		return fmt.Errorf("%w: [%d x %d] is not square", ErrInvalidDimension, m.r, m.c)
	}

	return nil
}

// RowSwap swaps rows a and b of m in place.
func (m *Matrix) RowSwap(a, b int) error {
	if m.null() {
		return ErrNullReference
	}
	if a < 0 || b < 0 || a >= m.r || b >= m.r {
		return fmt.Errorf("%w: rows %d, %d of %d", ErrInvalidDimension, a, b, m.r)
	}

	if a == b {
		return nil
	}

	ra, rb := m.RawRowView(a), m.RawRowView(b)
	for j := range ra {
		ra[j], rb[j] = rb[j], ra[j]
	}

	return nil
}

// Reduce subtracts f times row a from row b of m in place.
func (m *Matrix) Reduce(a, b int, f float64) error {
	if m.null() {
		return ErrNullReference
	}
	if a < 0 || b < 0 || a >= m.r || b >= m.r {
		return fmt.Errorf("%w: rows %d, %d of %d", ErrInvalidDimension, a, b, m.r)
	}

	ra, rb := m.RawRowView(a), m.RawRowView(b)
	for j := range rb {
		rb[j] -= f * ra[j]
	}

	return nil
}

func (m *Matrix) scaleRow(i int, f float64) {
	row := m.RawRowView(i)
	for j := range row {
		row[j] *= f
	}
}

// pivot makes sure m[i][i] is non-zero by swapping row i with the first
// row below it holding a non-zero value in column i. The same swap is
// applied to every matrix in rest. It returns false if no such row exists.
func (m *Matrix) pivot(i int, rest ...*Matrix) bool {
	if m.At(i, i) != 0 {
		return true
	}

	for l := i + 1; l < m.r; l++ {
		if m.At(l, i) != 0 {
			_ = m.RowSwap(i, l)
			for _, r := range rest {
				_ = r.RowSwap(i, l)
			}
			return true
		}
	}

	return false
}

// Inverse returns the inverse of the square matrix m computed by Gauss-Jordan
// elimination on an augmented identity.
// A zero pivot is swapped with a row below it; if no such row exists
// Inverse returns ErrSingularMatrix.
func Inverse(m *Matrix) (*Matrix, error) {
	if err := square(m); err != nil {
		return nil, err
	}

	n := m.r
	if n == 0 {
		return &Matrix{}, nil
	}

	a := m.Clone()
	inv, _ := Identity(n)

	for i := 0; i < n; i++ {
		if !a.pivot(i, inv) {
			return nil, fmt.Errorf("%w: zero pivot in column %d", ErrSingularMatrix, i)
		}

		p := a.At(i, i)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			f := a.At(j, i) / p
			if f == 0 {
				continue
			}
			_ = a.Reduce(i, j, f)
			_ = inv.Reduce(i, j, f)
		}
	}

	for i := 0; i < n; i++ {
		f := 1 / a.At(i, i)
		a.scaleRow(i, f)
		inv.scaleRow(i, f)
	}

	for _, v := range inv.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite inverse", ErrSingularMatrix)
		}
	}

	return inv, nil
}

// LU computes the Doolittle decomposition m = L*U without pivoting.
// L is unit lower triangular and U is upper triangular.
// It returns ErrSingularMatrix if a zero pivot has to be divided by.
func LU(m *Matrix) (L, U *Matrix, err error) {
	if err := square(m); err != nil {
		return nil, nil, err
	}

	n := m.r
	L, _ = New(n, n)
	U, _ = New(n, n)

	for i := 0; i < n; i++ {
		for k := i; k < n; k++ {
			var sum float64
			for j := 0; j < i; j++ {
				sum += L.At(i, j) * U.At(j, k)
			}
			U.Set(i, k, m.At(i, k)-sum)
		}

		L.Set(i, i, 1)
		if i == n-1 {
			break
		}

		if U.At(i, i) == 0 {
			return nil, nil, fmt.Errorf("%w: zero pivot at %d", ErrSingularMatrix, i)
		}

		for k := i + 1; k < n; k++ {
			var sum float64
			for j := 0; j < i; j++ {
				sum += L.At(k, j) * U.At(j, i)
			}
			L.Set(k, i, (m.At(k, i)-sum)/U.At(i, i))
		}
	}

	return L, U, nil
}

// Det returns the determinant of m as the product of the diagonals of L and U.
// It returns error if m can not be LU-decomposed without pivoting.
func Det(m *Matrix) (float64, error) {
	L, U, err := LU(m)
	if err != nil {
		return 0, err
	}

	det := 1.0
	for i := 0; i < m.r; i++ {
		det *= L.At(i, i) * U.At(i, i)
	}

	return det, nil
}

// Eigenvalues approximates eigenvalues of m by the diagonal of its row echelon form.
//
// This is not an eigensolver: the result is only meaningful for small,
// diagonally dominant matrices such as the 2x2 covariances used by the
// navigation filters.
func Eigenvalues(m *Matrix) ([]float64, error) {
	if err := square(m); err != nil {
		return nil, err
	}

	a := m.Clone()
	n := a.r
	for i := 0; i < n; i++ {
		if !a.pivot(i) {
			continue
		}
		p := a.At(i, i)
		for j := i + 1; j < n; j++ {
			_ = a.Reduce(i, j, a.At(j, i)/p)
		}
	}

	vals := make([]float64, n)
	for i := range vals {
		vals[i] = a.At(i, i)
	}

	return vals, nil
}

// Cholesky returns the lower triangular L such that m = L*L'.
// m must be symmetric positive definite; otherwise the result contains NaN values.
func Cholesky(m *Matrix) (*Matrix, error) {
	if err := square(m); err != nil {
		return nil, err
	}

	n := m.r
	L, _ := New(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			var s float64
			for k := 0; k < j; k++ {
				s += L.At(i, k) * L.At(j, k)
			}
			if i == j {
				L.Set(i, i, math.Sqrt(m.At(i, i)-s))
				continue
			}
			L.Set(i, j, (m.At(i, j)-s)/L.At(j, j))
		}
	}

	return L, nil
}
