package matrix

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidDimension is returned when a matrix dimension is negative
	// or otherwise invalid for the requested operation.
	ErrInvalidDimension = errors.New("invalid matrix dimension")
	// ErrDimensionMismatch is returned when operands do not conform.
	ErrDimensionMismatch = errors.New("matrix dimension mismatch")
	// ErrNullReference is returned when an operand is nil or has been released.
	ErrNullReference = errors.New("nil matrix reference")
	// ErrSingularMatrix is returned when elimination runs into a zero pivot
	// which can not be swapped away.
	ErrSingularMatrix = errors.New("singular matrix")
)

// Matrix is a dense row-major matrix of float64 values.
// Matrix implements gonum mat.Matrix interface.
type Matrix struct {
	r, c     int
	data     []float64
	released bool
}

// New creates new zero-filled r x c matrix and returns it.
// It returns error if either r or c is negative.
func New(r, c int) (*Matrix, error) {
	if r < 0 || c < 0 {
		return nil, fmt.Errorf("%w: [%d x %d]", ErrInvalidDimension, r, c)
	}

	return &Matrix{
		r:    r,
		c:    c,
		data: make([]float64, r*c),
	}, nil
}

// NewFromData creates new r x c matrix backed by a copy of data stored in row-major order.
// It returns error if the dimensions are negative or do not match len(data).
// If data is nil a zero-filled matrix is returned.
func NewFromData(r, c int, data []float64) (*Matrix, error) {
	m, err := New(r, c)
	if err != nil {
		return nil, err
	}

	if data == nil {
		return m, nil
	}

	if len(data) != r*c {
		return nil, fmt.Errorf("%w: %d values for [%d x %d]", ErrDimensionMismatch, len(data), r, c)
	}
	copy(m.data, data)

	return m, nil
}

// MustNew is like NewFromData but panics on error.
// It is meant for matrices with constant, known-good dimensions.
func MustNew(r, c int, data []float64) *Matrix {
	m, err := NewFromData(r, c, data)
	if err != nil {
		panic(err)
	}

	return m
}

// FromMatrix creates a new Matrix holding a copy of a.
func FromMatrix(a mat.Matrix) *Matrix {
	r, c := a.Dims()
	m := &Matrix{r: r, c: c, data: make([]float64, r*c)}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.data[i*c+j] = a.At(i, j)
		}
	}

	return m
}

// Release releases the storage owned by the matrix referenced by m and
// clears the handle so it can not be used again.
// Any other pointer to the same matrix is treated as nil afterwards.
// It returns ErrNullReference if m or *m is nil or the matrix has already been released.
func Release(m **Matrix) error {
	if m == nil || (*m).null() {
		return ErrNullReference
	}

	(*m).data = nil
	(*m).r, (*m).c = 0, 0
	(*m).released = true
	*m = nil

	return nil
}

// Dims returns the number of rows and columns of m.
func (m *Matrix) Dims() (r, c int) {
	return m.r, m.c
}

// At returns the element at row i and column j.
// It panics if i or j are out of range.
func (m *Matrix) At(i, j int) float64 {
	m.checkIndex(i, j)
	return m.data[i*m.c+j]
}

// Set sets the element at row i and column j to v.
// It panics if i or j are out of range.
func (m *Matrix) Set(i, j int, v float64) {
	m.checkIndex(i, j)
	m.data[i*m.c+j] = v
}

func (m *Matrix) checkIndex(i, j int) {
	if uint(i) >= uint(m.r) {
		panic(mat.ErrRowAccess)
	}
	if uint(j) >= uint(m.c) {
		panic(mat.ErrColAccess)
	}
}

// T returns the implicit transpose of m.
// Use Transpose to obtain an explicit, independently owned transpose.
func (m *Matrix) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// RawRowView returns a slice backed by the row i of m.
func (m *Matrix) RawRowView(i int) []float64 {
	if uint(i) >= uint(m.r) {
		panic(mat.ErrRowAccess)
	}
	return m.data[i*m.c : (i+1)*m.c]
}

// IsEmpty returns true if m has no elements.
func (m *Matrix) IsEmpty() bool {
	return m.null() || m.r == 0 || m.c == 0
}

// Zero sets all elements of m to zero.
func (m *Matrix) Zero() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{r: m.r, c: m.c, data: make([]float64, len(m.data))}
	copy(c.data, m.data)

	return c
}

// Clone returns a deep copy of m.
// It returns ErrNullReference if m is nil.
func Clone(m *Matrix) (*Matrix, error) {
	if m.null() {
		return nil, ErrNullReference
	}

	return m.Clone(), nil
}

// CopyFrom copies the elements of src into m.
// It returns error if src is nil or if the dimensions of src and m differ.
func (m *Matrix) CopyFrom(src *Matrix) error {
	if err := notNil(m, src); err != nil {
		return err
	}

	if m.r != src.r || m.c != src.c {
		return fmt.Errorf("%w: [%d x %d] != [%d x %d]", ErrDimensionMismatch, m.r, m.c, src.r, src.c)
	}
	copy(m.data, src.data)

	return nil
}

// Dense returns a gonum copy of m.
func (m *Matrix) Dense() *mat.Dense {
	if m.IsEmpty() {
		return &mat.Dense{}
	}
	data := make([]float64, len(m.data))
	copy(data, m.data)

	return mat.NewDense(m.r, m.c, data)
}

// String implements the Stringer interface.
func (m *Matrix) String() string {
	if m.IsEmpty() {
		return ""
	}
	return fmt.Sprintf("%v", mat.Formatted(m, mat.Prefix(""), mat.Squeeze()))
}

// null reports whether m is nil or has been released.
func (m *Matrix) null() bool {
	return m == nil || m.released
}

func notNil(ms ...*Matrix) error {
	for _, m := range ms {
		if m.null() {
			return ErrNullReference
		}
	}

	return nil
}

func sameDims(a, b *Matrix) error {
	if a.r != b.r || a.c != b.c {
		return fmt.Errorf("%w: [%d x %d] != [%d x %d]", ErrDimensionMismatch, a.r, a.c, b.r, b.c)
	}

	return nil
}
