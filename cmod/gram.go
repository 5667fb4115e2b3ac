// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmod

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// gramSolver owns a Cholesky factorization of the M×M system matrix
// 𝐀𝐀ᵀ + 𝛒𝐈, where M is the dictionary atom count. M is typically far smaller
// than the signal dimension N, so factorizing the Gram matrix rather than
// the N×N alternative keeps the per-iteration solve cheap while the
// right-hand side changes every iteration.
//
// The factorization is rebuilt only through newGramSolver, on an explicit
// coefficient or penalty change. solve never refactorizes, so a stale
// factorization cannot be produced by the solve path itself.
type gramSolver struct {
	chol mat.Cholesky
	m    int
}

// newGramSolver factorizes 𝐀𝐀ᵀ + 𝛒𝐈 for the given coefficient matrix and
// penalty parameter. The matrix is positive definite for any ρ > 0 unless
// the entries degenerate; failure to factorize reports ErrSingularSystem.
func newGramSolver(a *mat.Dense, rho float64) (*gramSolver, error) {
	m, _ := a.Dims()
	g := mat.NewDense(m, m, nil)
	g.Mul(a, a.T())
	for i := 0; i < m; i++ {
		g.Set(i, i, g.At(i, i)+rho)
	}

	gs := &gramSolver{m: m}
	if ok := gs.chol.Factorize(mat.NewSymDense(m, g.RawMatrix().Data)); !ok {
		return nil, fmt.Errorf("%w: rho=%g", ErrSingularSystem, rho)
	}
	return gs, nil
}

// solve returns X satisfying X·(𝐀𝐀ᵀ + 𝛒𝐈) = rhs, by solving the transposed
// system against the cached factorization and transposing back. The result
// matches a direct inversion of the system matrix up to rounding, at the
// cost of one triangular solve pair per call.
func (g *gramSolver) solve(rhs *mat.Dense) (*mat.Dense, error) {
	var xt mat.Dense
	if err := g.chol.SolveTo(&xt, rhs.T()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}
	n, _ := rhs.Dims()
	x := mat.NewDense(n, g.m, nil)
	x.Copy(xt.T())
	return x, nil
}
