package noise

import (
	"testing"

	"github.com/milosgajdos/go-navfusion/matrix"
	"github.com/stretchr/testify/assert"
)

func TestNewZero(t *testing.T) {
	assert := assert.New(t)

	e, err := NewZero(2)
	assert.NotNil(e)
	assert.NoError(err)

	for _, size := range []int{0, -10} {
		e, err := NewZero(size)
		assert.Nil(e)
		assert.Error(err)
	}
}

func TestZeroMeanCov(t *testing.T) {
	assert := assert.New(t)

	e, err := NewZero(2)
	assert.NotNil(e)
	assert.NoError(err)

	assert.Equal([]float64{0, 0}, e.Mean())
	assert.True(matrix.Equal(matrix.MustNew(2, 2, nil), e.Cov()))
}

func TestZeroSample(t *testing.T) {
	assert := assert.New(t)

	e, err := NewZero(3)
	assert.NotNil(e)
	assert.NoError(err)

	s := e.Sample()
	r, c := s.Dims()
	assert.Equal(3, r)
	assert.Equal(1, c)
	assert.True(matrix.Equal(matrix.MustNew(3, 1, nil), s))
}

func TestZeroReset(t *testing.T) {
	assert := assert.New(t)

	e, err := NewZero(2)
	assert.NotNil(e)
	assert.NoError(err)
	assert.NoError(e.Reset())
}
