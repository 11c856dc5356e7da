package matrix

import "fmt"

// Add adds b to m element-wise, storing the result in m.
func (m *Matrix) Add(b *Matrix) error {
	if err := notNil(m, b); err != nil {
		return err
	}
	if err := sameDims(m, b); err != nil {
		return err
	}

	for i := range m.data {
		m.data[i] += b.data[i]
	}

	return nil
}

// Sub subtracts b from m element-wise, storing the result in m.
func (m *Matrix) Sub(b *Matrix) error {
	if err := notNil(m, b); err != nil {
		return err
	}
	if err := sameDims(m, b); err != nil {
		return err
	}

	for i := range m.data {
		m.data[i] -= b.data[i]
	}

	return nil
}

// Scale multiplies every element of m by f in place.
func (m *Matrix) Scale(f float64) error {
	if m.null() {
		return ErrNullReference
	}

	for i := range m.data {
		m.data[i] *= f
	}

	return nil
}

// Sum returns a new matrix a + b.
func Sum(a, b *Matrix) (*Matrix, error) {
	if err := notNil(a, b); err != nil {
		return nil, err
	}

	s := a.Clone()
	if err := s.Add(b); err != nil {
		return nil, err
	}

	return s, nil
}

// Difference returns a new matrix a - b.
func Difference(a, b *Matrix) (*Matrix, error) {
	if err := notNil(a, b); err != nil {
		return nil, err
	}

	d := a.Clone()
	if err := d.Sub(b); err != nil {
		return nil, err
	}

	return d, nil
}

// Scaled returns a new matrix f * a.
func Scaled(a *Matrix, f float64) (*Matrix, error) {
	if a.null() {
		return nil, ErrNullReference
	}

	s := a.Clone()
	_ = s.Scale(f)

	return s, nil
}

// Mul returns a new matrix a * b.
// It returns error if the number of columns of a differs from the number of rows of b.
func Mul(a, b *Matrix) (*Matrix, error) {
	if err := notNil(a, b); err != nil {
		return nil, err
	}

	if a.c != b.r {
		return nil, fmt.Errorf("%w: [%d x %d] * [%d x %d]", ErrDimensionMismatch, a.r, a.c, b.r, b.c)
	}

	p := &Matrix{r: a.r, c: b.c, data: make([]float64, a.r*b.c)}
	for i := 0; i < a.r; i++ {
		for j := 0; j < b.c; j++ {
			var acc float64
			for k := 0; k < a.c; k++ {
				acc += a.data[i*a.c+k] * b.data[k*b.c+j]
			}
			p.data[i*p.c+j] = acc
		}
	}

	return p, nil
}

// MulChain multiplies all ms from left to right and returns the product.
func MulChain(ms ...*Matrix) (*Matrix, error) {
	if len(ms) == 0 {
		return nil, ErrNullReference
	}

	p := ms[0]
	if p.null() {
		return nil, ErrNullReference
	}
	p = p.Clone()

	for _, m := range ms[1:] {
		var err error
		if p, err = Mul(p, m); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Transpose returns a new matrix which is the transpose of m.
func Transpose(m *Matrix) (*Matrix, error) {
	if m.null() {
		return nil, ErrNullReference
	}

	t := &Matrix{r: m.c, c: m.r, data: make([]float64, len(m.data))}
	for i := 0; i < m.r; i++ {
		for j := 0; j < m.c; j++ {
			t.data[j*t.c+i] = m.data[i*m.c+j]
		}
	}

	return t, nil
}

// Identity returns n x n identity matrix.
// It returns error if n is not positive.
func Identity(n int) (*Matrix, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: identity of size %d", ErrInvalidDimension, n)
	}

	m := &Matrix{r: n, c: n, data: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}

	return m, nil
}
