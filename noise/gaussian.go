package noise

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"github.com/milosgajdos/go-navfusion/matrix"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is gaussian noise
type Gaussian struct {
	// dist is a multivariate normal distribution
	dist *distmv.Normal
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *matrix.Matrix
	// seed is the source seed; zero means time based seed
	seed uint64
}

// NewGaussian creates new Gaussian noise with given mean and covariance.
// It returns error if it fails to create Gaussian.
func NewGaussian(mean []float64, cov *matrix.Matrix) (*Gaussian, error) {
	return NewSeededGaussian(mean, cov, 0)
}

// NewSeededGaussian creates new Gaussian noise whose samples are drawn
// from a source seeded with seed. Seed 0 seeds the source from current time.
func NewSeededGaussian(mean []float64, cov *matrix.Matrix, seed uint64) (*Gaussian, error) {
	if cov == nil {
		return nil, fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	if r, c := cov.Dims(); r != c || r != len(mean) {
		return nil, fmt.Errorf("invalid noise dimensions: mean %d, cov [%d x %d]", len(mean), r, c)
	}

	g := &Gaussian{
		mean: append([]float64(nil), mean...),
		cov:  cov.Clone(),
		seed: seed,
	}

	if err := g.Reset(); err != nil {
		return nil, err
	}

	return g, nil
}

// NewDiagonal returns zero mean Gaussian noise of given size
// with variance v on the diagonal of its covariance.
func NewDiagonal(size int, v float64) (*Gaussian, error) {
	cov, err := matrix.Identity(size)
	if err != nil {
		return nil, err
	}

	if err := cov.Scale(v); err != nil {
		return nil, err
	}

	return NewGaussian(make([]float64, size), cov)
}

// Sample generates a sample from Gaussian noise and returns it as a column vector.
func (g *Gaussian) Sample() *matrix.Matrix {
	r := g.dist.Rand(nil)
	return matrix.MustNew(len(r), 1, r)
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() *matrix.Matrix {
	return g.cov.Clone()
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// Reset resets Gaussian noise.
// It returns error if it fails to reset the noise.
func (g *Gaussian) Reset() error {
	dist, ok := newGaussianDist(g.mean, symmetric(g.cov), g.seed)
	if !ok {
		return fmt.Errorf("failed to create Gaussian noise: covariance is not positive definite")
	}
	g.dist = dist

	return nil
}

func newGaussianDist(mean []float64, cov mat.Symmetric, seed uint64) (*distmv.Normal, bool) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.New(rand.NewSource(seed))

	return distmv.NewNormal(mean, cov, src)
}

// symmetric converts m to gonum symmetric matrix using its upper triangle.
func symmetric(m *matrix.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, m.At(i, j))
		}
	}

	return sym
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
