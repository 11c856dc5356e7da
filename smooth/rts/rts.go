package rts

import (
	"fmt"

	filter "github.com/milosgajdos/go-navfusion"
	"github.com/milosgajdos/go-navfusion/estimate"
	"github.com/milosgajdos/go-navfusion/matrix"
	"github.com/milosgajdos/go-navfusion/noise"
	"github.com/milosgajdos/go-navfusion/smooth"
)

var _ smooth.RTS = (*RTS)(nil)

// RTS is Rauch-Tung-Striebel smoother
type RTS struct {
	// q is state noise a.k.a. process noise
	q filter.Noise
	// m is system model
	m filter.DiscreteModel
}

// New creates new RTS and returns it.
// Nil q is treated as zero process noise.
// It returns error if it fails to create RTS smoother.
func New(m filter.DiscreteModel, q filter.Noise) (*RTS, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}

	nx, ny := m.Dims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]", nx, ny)
	}

	if q != nil {
		if r, _ := q.Cov().Dims(); r != nx {
			return nil, fmt.Errorf("invalid state noise dimension: %d", r)
		}
	} else {
		var err error
		if q, err = noise.NewZero(nx); err != nil {
			return nil, err
		}
	}

	return &RTS{
		q: q,
		m: m,
	}, nil
}

// Smooth implements Rauch-Tung-Striebel smoothing algorithm.
// It uses filtered estimates est to compute smoothed estimates and returns them.
// u[k] is the control input which produced est[k], u may be nil if there was none.
// It returns error if either est is empty or smoothing could not be computed.
func (s *RTS) Smooth(est []filter.Estimate, u []float64) ([]filter.Estimate, error) {
	if len(est) == 0 {
		return nil, fmt.Errorf("invalid estimates size: %d", len(est))
	}

	if u != nil && len(u) != len(est) {
		return nil, fmt.Errorf("invalid input vector size: %d", len(u))
	}

	A := s.m.StateMatrix()
	at, _ := matrix.Transpose(A)
	Q := s.q.Cov()

	sx := make([]filter.Estimate, len(est))

	// the last filtered estimate is also the last smoothed one
	last := len(est) - 1
	e, err := estimate.NewBaseWithCov(est[last].Val(), est[last].Cov())
	if err != nil {
		return nil, err
	}
	sx[last] = e

	for k := last - 1; k >= 0; k-- {
		var uk float64
		if u != nil {
			uk = u[k+1]
		}

		xk, pk := est[k].Val(), est[k].Cov()

		// x_p = A*x_k + B*u
		xp, err := s.m.Propagate(xk, uk)
		if err != nil {
			return nil, fmt.Errorf("model state propagation failed: %w", err)
		}

		// P_p = A*P_k*A' + Q
		pp, err := matrix.MulChain(A, pk, at)
		if err != nil {
			return nil, err
		}
		if err := pp.Add(Q); err != nil {
			return nil, err
		}

		ppInv, err := matrix.Inverse(pp)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", k, err)
		}

		// C = P_k*A'*P_p^-1
		c, err := matrix.MulChain(pk, at, ppInv)
		if err != nil {
			return nil, err
		}
		ct, _ := matrix.Transpose(c)

		// x_s = x_k + C*(x_s[k+1] - x_p)
		dx, err := matrix.Difference(sx[k+1].Val(), xp)
		if err != nil {
			return nil, err
		}
		cdx, err := matrix.Mul(c, dx)
		if err != nil {
			return nil, err
		}
		x, _ := matrix.Sum(xk, cdx)

		// P_s = P_k + C*(P_s[k+1] - P_p)*C'
		dp, err := matrix.Difference(sx[k+1].Cov(), pp)
		if err != nil {
			return nil, err
		}
		cdp, err := matrix.MulChain(c, dp, ct)
		if err != nil {
			return nil, err
		}
		p, _ := matrix.Sum(pk, cdp)

		e, err := estimate.NewBaseWithCov(x, p)
		if err != nil {
			return nil, err
		}
		sx[k] = e
	}

	return sx, nil
}
