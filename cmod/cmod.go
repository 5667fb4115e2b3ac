// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmod implements the dictionary update step of sparse dictionary
// learning as a constrained variant of the MOD(Method of Optimal Directions)
// problem.
//
// Given a sparse coefficient matrix 𝐀 (M×K) and a signal matrix 𝐒 (N×K),
// the update solves
//
//	argmin 𝐃 ½‖𝐃𝐀 - 𝐒‖² subject to ‖𝐝ₘ‖₂ = 1
//
// where 𝐝ₘ is column m of the dictionary 𝐃 (an atom), optionally with the
// additional constraint that each atom has zero mean. The constraint is
// handled by the ADMM splitting 𝐃 = 𝐆 with the indicator function of the
// feasible set attached to 𝐆:
//   - the primal update is an unconstrained least-squares solve of the
//     normal equations 𝐗(𝐀𝐀ᵀ + 𝛒𝐈) = 𝐒𝐀ᵀ + 𝛒(𝐘 - 𝐔), accelerated by a
//     Cholesky factorization of the M×M Gram matrix cached across
//     iterations and rebuilt only when 𝐀 or 𝛒 changes
//   - the auxiliary update projects the relaxed primal estimate onto the
//     feasible set, so the auxiliary variable 𝐘 is feasible at every
//     iteration and is the value returned as the dictionary
//
// CMOD implements the admm.Problem hook set and is driven by the generic
// engine in package admm, which owns the dual update, residuals, stopping
// tests and the adaptive penalty policy. This is one alternating step of a
// dictionary learning loop: the coefficient update and the outer alternation
// live with the caller, which may reuse one CMOD across a sequence of
// coefficient matrices through SetCoef.
package cmod

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/dictlearn/admm"
)

// DictSize gives the dictionary dimensions when the coefficient matrix is
// deferred: Rows must equal the signal dimension N and Cols is the atom
// count M.
type DictSize struct {
	Rows, Cols int
}

// CMOD is the constrained MOD dictionary update problem. It owns the fixed
// problem data, the penalty parameter and the cached Gram factorization,
// and delegates the iteration to an embedded admm.Solver.
type CMOD struct {
	s   *mat.Dense // signal S, N×K
	a   *mat.Dense // coefficients A, M×K; nil until supplied
	sat *mat.Dense // S·Aᵀ, N×M
	m   int        // atom count

	rho  float64
	gram *gramSolver

	pcn        func(*mat.Dense) *mat.Dense
	fvar, gvar func(x, y *mat.Dense) *mat.Dense

	eng *admm.Solver
}

// New creates a dictionary update problem for the given coefficient and
// signal matrices. coef may be nil when dsz supplies the dictionary
// dimensions; the Gram factorization is then deferred until SetCoef. A nil
// opt selects DefaultOptions.
func New(coef, signal *mat.Dense, dsz *DictSize, opt *Options) (*CMOD, error) {
	if opt == nil {
		opt = DefaultOptions()
	}
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if signal == nil {
		return nil, fmt.Errorf("%w: signal matrix is required", ErrShapeMismatch)
	}

	n, k := signal.Dims()
	var m int
	switch {
	case coef != nil:
		m, _ = coef.Dims()
	case dsz != nil:
		if dsz.Rows != n {
			return nil, fmt.Errorf("%w: dictionary size is %dx%d, signal has %d rows",
				ErrShapeMismatch, dsz.Rows, dsz.Cols, n)
		}
		m = dsz.Cols
	default:
		return nil, fmt.Errorf("%w: either coefficients or a dictionary size is required", ErrShapeMismatch)
	}
	if m <= 0 {
		return nil, fmt.Errorf("%w: dictionary must have at least one atom", ErrShapeMismatch)
	}

	rho := opt.Rho
	if rho == 0 {
		rho = float64(k) / 500.0
	}

	c := &CMOD{
		s:   mat.DenseCopyOf(signal),
		m:   m,
		rho: rho,
		pcn: projector(opt.ZeroMean),
	}

	// Resolve the objective variable selection once instead of branching
	// on the flag at every evaluation.
	if opt.AuxVarObj {
		c.fvar = func(_, y *mat.Dense) *mat.Dense { return y }
		c.gvar = func(_, y *mat.Dense) *mat.Dense { return y }
	} else {
		c.fvar = func(x, _ *mat.Dense) *mat.Dense { return x }
		c.gvar = func(x, _ *mat.Dense) *mat.Dense { return x }
	}

	if coef != nil {
		if err := c.SetCoef(coef); err != nil {
			return nil, err
		}
	}

	engOpt := opt.ADMM
	if engOpt == nil {
		engOpt = defaultEngineOptions()
	}
	eng, err := admm.New(c, engOpt)
	if err != nil {
		return nil, err
	}
	c.eng = eng
	return c, nil
}

// SetCoef installs a new coefficient matrix: the cross product S·Aᵀ is
// recomputed and the Gram factorization rebuilt at the current penalty
// parameter. On error the previous coefficients remain in effect.
func (c *CMOD) SetCoef(coef *mat.Dense) error {
	am, ak := coef.Dims()
	n, k := c.s.Dims()
	if ak != k {
		return fmt.Errorf("%w: coefficients are %dx%d, signal has %d columns",
			ErrShapeMismatch, am, ak, k)
	}
	if am != c.m {
		return fmt.Errorf("%w: coefficients have %d rows, dictionary has %d atoms",
			ErrShapeMismatch, am, c.m)
	}

	gram, err := newGramSolver(coef, c.rho)
	if err != nil {
		return err
	}

	c.a = mat.DenseCopyOf(coef)
	sat := mat.NewDense(n, am, nil)
	sat.Mul(c.s, c.a.T())
	c.sat = sat
	c.gram = gram
	return nil
}

// Solve runs the ADMM iteration to completion and returns the feasible
// dictionary.
func (c *CMOD) Solve() (*mat.Dense, error) {
	return c.eng.Solve()
}

// Dict returns the feasible dictionary estimate: the auxiliary variable 𝐘,
// which is the output of the constraint projection and therefore satisfies
// the unit-norm (and optional zero-mean) constraint exactly, unlike the
// primal variable 𝐗.
func (c *CMOD) Dict() *mat.Dense {
	return c.eng.Y()
}

// Engine exposes the underlying iteration engine for iterate access and
// per-iteration statistics.
func (c *CMOD) Engine() *admm.Solver {
	return c.eng
}

// VarShape reports the dictionary dimensions N×M.
func (c *CMOD) VarShape() (rows, cols int) {
	n, _ := c.s.Dims()
	return n, c.m
}

// Rho reports the current penalty parameter.
func (c *CMOD) Rho() float64 {
	return c.rho
}

// RhoChange installs a new penalty parameter and rebuilds the Gram
// factorization against the current coefficient matrix. With no
// coefficients set yet, only the parameter is recorded; the factorization
// is built by SetCoef.
func (c *CMOD) RhoChange(rho float64) error {
	if c.a == nil {
		c.rho = rho
		return nil
	}
	gram, err := newGramSolver(c.a, rho)
	if err != nil {
		return err
	}
	c.rho = rho
	c.gram = gram
	return nil
}

// XStep computes the primal update: the solution of the normal equations
// 𝐗(𝐀𝐀ᵀ + 𝛒𝐈) = 𝐒𝐀ᵀ + 𝛒(𝐘 - 𝐔) against the cached factorization.
func (c *CMOD) XStep(y, u *mat.Dense) (*mat.Dense, error) {
	if c.gram == nil {
		return nil, fmt.Errorf("%w: supply coefficients before solving", ErrCoefNotSet)
	}
	var rhs mat.Dense
	rhs.Sub(y, u)
	rhs.Scale(c.rho, &rhs)
	rhs.Add(&rhs, c.sat)
	return c.gram.solve(&rhs)
}

// YStep computes the auxiliary update: the projection of 𝐀𝐗 + 𝐔 onto the
// feasible set.
func (c *CMOD) YStep(axu *mat.Dense) *mat.Dense {
	return c.pcn(axu)
}

// UInit returns the initial scaled dual variable: zero without a warm
// start, otherwise the warm-started 𝐘 itself so the dual optimality
// condition holds at iteration zero (boyd-2010-distributed, (3.10)).
func (c *CMOD) UInit(y0 *mat.Dense, rows, cols int) *mat.Dense {
	if y0 == nil {
		return mat.NewDense(rows, cols, nil)
	}
	return mat.DenseCopyOf(y0)
}

// ObjFn reports the data fidelity term ½‖𝐕𝐀 - 𝐒‖² and the constraint
// violation ‖P(𝐖) - 𝐖‖, each evaluated on the variable resolved from the
// AuxVarObj option.
func (c *CMOD) ObjFn(x, y *mat.Dense) (dfid, cnstr float64) {
	return c.dataFid(c.fvar(x, y)), c.cnstrViol(c.gvar(x, y))
}

func (c *CMOD) dataFid(v *mat.Dense) float64 {
	var r mat.Dense
	r.Mul(v, c.a)
	r.Sub(&r, c.s)
	n := mat.Norm(&r, 2)
	return 0.5 * n * n
}

func (c *CMOD) cnstrViol(v *mat.Dense) float64 {
	var d mat.Dense
	d.Sub(c.pcn(v), v)
	return mat.Norm(&d, 2)
}
