// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmod

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/dictlearn/admm"
)

// fixture builds the reference problem: a feasible 4×2 dictionary, the
// 2×3 coefficient matrix [[1,0,1],[0,1,1]] and the signal it generates.
func fixture() (d0, a, s *mat.Dense) {
	r2 := 1 / math.Sqrt2
	d0 = mat.NewDense(4, 2, []float64{
		0.5, r2,
		0.5, -r2,
		0.5, 0,
		0.5, 0,
	})
	a = mat.NewDense(2, 3, []float64{
		1, 0, 1,
		0, 1, 1,
	})
	s = mat.NewDense(4, 3, nil)
	s.Mul(d0, a)
	return d0, a, s
}

func solveOpts(maxIter int) *Options {
	opt := DefaultOptions()
	opt.ADMM.MaxIter = maxIter
	return opt
}

func TestDictionaryUpdate(t *testing.T) {
	_, a, s := fixture()

	c, err := New(a, s, nil, solveOpts(50))
	require.NoError(t, err)
	assert.InDelta(t, 3.0/500.0, c.Rho(), 1e-15, "default rho is K/500")

	d, err := c.Solve()
	require.NoError(t, err)

	// The result is the auxiliary variable: feasible by construction.
	_, m := d.Dims()
	for j := 0; j < m; j++ {
		assert.InDelta(t, 1.0, colNorm(d, j), 1e-6, "atom %d", j)
	}

	stats := c.Engine().Stats()
	require.Greater(t, len(stats), 6)

	// With the objective evaluated on the auxiliary variable, the
	// constraint term is identically zero and the fidelity term settles
	// into a non-increasing tail once the initial transient passes.
	for _, st := range stats {
		assert.InDelta(t, 0.0, st.Cnstr, 1e-12)
	}
	for i := 5; i < len(stats)-1; i++ {
		assert.LessOrEqual(t, stats[i+1].DFid, stats[i].DFid+1e-8+1e-6*stats[i].DFid,
			"DFid increased at iteration %d", i+1)
	}
}

func TestConstraintViolationTrend(t *testing.T) {
	_, a, s := fixture()

	opt := solveOpts(50)
	opt.AuxVarObj = false // evaluate on X, where the violation is informative
	c, err := New(a, s, nil, opt)
	require.NoError(t, err)

	_, err = c.Solve()
	require.NoError(t, err)

	stats := c.Engine().Stats()
	require.Greater(t, len(stats), 2)
	last := stats[len(stats)-1].Cnstr
	assert.Less(t, last, stats[0].Cnstr)
	assert.Less(t, last, 1e-2)
}

func TestDeferredCoefficients(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	s := randomDense(rng, 4, 6)

	c, err := New(nil, s, &DictSize{Rows: 4, Cols: 3}, solveOpts(50))
	require.NoError(t, err)
	require.Nil(t, c.gram)

	// A solve before the coefficients arrive must fail loudly, never
	// produce a silent wrong answer.
	_, err = c.XStep(mat.NewDense(4, 3, nil), mat.NewDense(4, 3, nil))
	require.ErrorIs(t, err, ErrCoefNotSet)
	_, err = c.Solve()
	require.ErrorIs(t, err, ErrCoefNotSet)

	require.NoError(t, c.SetCoef(randomDense(rng, 3, 6)))
	require.NotNil(t, c.gram)

	d, err := c.Solve()
	require.NoError(t, err)
	for j := 0; j < 3; j++ {
		assert.InDelta(t, 1.0, colNorm(d, j), 1e-6, "atom %d", j)
	}
}

func TestSetCoefSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	s := randomDense(rng, 5, 8)

	c, err := New(randomDense(rng, 3, 8), s, nil, solveOpts(30))
	require.NoError(t, err)

	// The same problem object serves a sequence of coefficient matrices,
	// as an outer dictionary learning loop would use it.
	for trial := 0; trial < 3; trial++ {
		d, err := c.Solve()
		require.NoError(t, err)
		for j := 0; j < 3; j++ {
			assert.InDelta(t, 1.0, colNorm(d, j), 1e-6, "trial %d atom %d", trial, j)
		}
		require.NoError(t, c.SetCoef(randomDense(rng, 3, 8)))
	}
}

func TestZeroMeanDictionary(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	s := randomDense(rng, 6, 10)

	opt := solveOpts(50)
	opt.ZeroMean = true
	c, err := New(randomDense(rng, 4, 10), s, nil, opt)
	require.NoError(t, err)

	d, err := c.Solve()
	require.NoError(t, err)
	for j := 0; j < 4; j++ {
		assert.InDelta(t, 0.0, colMean(d, j), 1e-12, "atom %d", j)
		assert.InDelta(t, 1.0, colNorm(d, j), 1e-6, "atom %d", j)
	}
}

func TestShapeMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	s := randomDense(rng, 4, 6)

	_, err := New(randomDense(rng, 3, 5), s, nil, nil) // column count differs
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = New(nil, s, &DictSize{Rows: 5, Cols: 3}, nil) // wrong signal dim
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = New(nil, s, nil, nil) // no way to size the dictionary
	require.ErrorIs(t, err, ErrShapeMismatch)

	c, err := New(randomDense(rng, 3, 6), s, nil, nil)
	require.NoError(t, err)
	require.ErrorIs(t, c.SetCoef(randomDense(rng, 2, 6)), ErrShapeMismatch)
	require.ErrorIs(t, c.SetCoef(randomDense(rng, 3, 7)), ErrShapeMismatch)
}

func TestInvalidOptions(t *testing.T) {
	rng := rand.New(rand.NewSource(15))
	s := randomDense(rng, 4, 6)
	a := randomDense(rng, 3, 6)

	opt := DefaultOptions()
	opt.Rho = -1
	_, err := New(a, s, nil, opt)
	require.ErrorIs(t, err, ErrInvalidOption)

	opt = DefaultOptions()
	opt.ADMM.RelaxParam = 2.5
	_, err = New(a, s, nil, opt)
	require.ErrorIs(t, err, admm.ErrInvalidOption)
}

func TestWarmStart(t *testing.T) {
	_, a, s := fixture()

	y0 := Project(mat.NewDense(4, 2, []float64{
		1, 0,
		1, 1,
		0, 1,
		1, 0,
	}), false)

	opt := solveOpts(50)
	opt.ADMM.Y0 = y0
	c, err := New(a, s, nil, opt)
	require.NoError(t, err)

	// The warm-started dual variable equals Y0, satisfying the dual
	// optimality condition at iteration zero.
	var diff mat.Dense
	diff.Sub(c.Engine().U(), y0)
	require.Zero(t, mat.Norm(&diff, 2))

	d, err := c.Solve()
	require.NoError(t, err)
	for j := 0; j < 2; j++ {
		assert.InDelta(t, 1.0, colNorm(d, j), 1e-6, "atom %d", j)
	}
}
