// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package admm implements a generic ADMM(Alternating Direction Method of Multipliers)
// iteration engine for problems with an equality constraint between two variable blocks.
//
// The engine solves problems of the form
//
//	minimize 𝒇(𝐗) + 𝒈(𝐘) subject to 𝐗 = 𝐘
//
// by alternating three updates on the scaled augmented Lagrangian
// (see boyd-2010-distributed, §3):
//   - primal update:    𝐗ᵏ⁺¹ = argmin 𝒇(𝐗) + ½𝛒‖𝐗 - 𝐘ᵏ + 𝐔ᵏ‖²
//   - auxiliary update: 𝐘ᵏ⁺¹ = argmin 𝒈(𝐘) + ½𝛒‖𝐀𝐗ᵏ⁺¹ - 𝐘 + 𝐔ᵏ‖²
//   - dual update:      𝐔ᵏ⁺¹ = 𝐔ᵏ + 𝐀𝐗ᵏ⁺¹ - 𝐘ᵏ⁺¹
//
// where 𝐀𝐗 = 𝛂𝐗ᵏ⁺¹ + (1-𝛂)𝐘ᵏ is the over-relaxed primal estimate and 𝐔 is the
// dual variable scaled by 1/𝛒.
//
// The engine owns the iterates 𝐗, 𝐘, 𝐔 and the outer loop: residual and
// tolerance bookkeeping, the stopping test, over-relaxation and the adaptive
// penalty policy. Everything problem specific is delegated to the Problem
// hook set, so the engine never inspects concrete problem state.
//
// Convergence is declared when both residuals fall below their tolerances
// (boyd-2010-distributed, (3.12)):
//
//	𝐫ᵏ = ‖𝐗ᵏ - 𝐘ᵏ‖           ≤ ε₊ = √n·εₐ + max(‖𝐗ᵏ‖,‖𝐘ᵏ‖)·εᵣ
//	𝐬ᵏ = 𝛒‖𝐘ᵏ - 𝐘ᵏ⁻¹‖        ≤ ε₋ = √n·εₐ + 𝛒‖𝐔ᵏ‖·εᵣ
//
// The adaptive penalty policy (boyd-2010-distributed, §3.4.1) grows 𝛒 when
// the primal residual dominates and shrinks it when the dual residual does,
// rescaling 𝐔 by the inverse factor so the scaled dual form stays consistent,
// and notifies the problem through RhoChange before the next primal update.
package admm

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Problem is the hook set a constrained-ADMM problem exposes to the engine.
//
// The problem owns its data, the penalty parameter 𝛒 and any cached
// factorization derived from it. The engine owns the iterates 𝐗, 𝐘, 𝐔 and
// passes them into the hooks; it never reads problem internals.
type Problem interface {
	// VarShape reports the dimensions of the working variables 𝐗, 𝐘, 𝐔.
	VarShape() (rows, cols int)

	// Rho reports the current penalty parameter.
	Rho() float64

	// RhoChange installs a new penalty parameter. The problem must rebuild
	// any state derived from 𝛒 (e.g. a cached factorization) before this
	// call returns: the engine performs the next primal update immediately
	// after.
	RhoChange(rho float64) error

	// XStep computes the primal update: the minimizer of the augmented
	// Lagrangian with respect to 𝐗 for fixed 𝐘 and 𝐔.
	XStep(y, u *mat.Dense) (*mat.Dense, error)

	// YStep computes the auxiliary update: the minimizer of the augmented
	// Lagrangian with respect to 𝐘, given the relaxed primal estimate plus
	// the scaled dual variable 𝐀𝐗 + 𝐔.
	YStep(axu *mat.Dense) *mat.Dense

	// UInit returns the initial scaled dual variable. y0 is the configured
	// warm-start value for 𝐘, or nil when none was supplied.
	UInit(y0 *mat.Dense, rows, cols int) *mat.Dense

	// ObjFn reports the two objective components recorded per iteration:
	// the data fidelity term 𝒇 and the constraint violation measure 𝒈.
	ObjFn(x, y *mat.Dense) (dfid, cnstr float64)
}

// Solver drives the ADMM iteration for a Problem.
type Solver struct {
	prob Problem
	opt  Options

	x, y, u *mat.Dense
	ax      *mat.Dense

	iter      int
	converged bool
	stats     []IterStats
}

// New creates a Solver for the given problem. A nil opt selects DefaultOptions.
func New(p Problem, opt *Options) (*Solver, error) {
	if opt == nil {
		opt = DefaultOptions()
	}
	if err := opt.validate(); err != nil {
		return nil, err
	}

	nr, nc := p.VarShape()
	y := mat.NewDense(nr, nc, nil)
	if opt.Y0 != nil {
		yr, yc := opt.Y0.Dims()
		if yr != nr || yc != nc {
			return nil, errY0Shape(yr, yc, nr, nc)
		}
		y.Copy(opt.Y0)
	}

	return &Solver{
		prob: p,
		opt:  *opt,
		y:    y,
		u:    p.UInit(opt.Y0, nr, nc),
		ax:   mat.NewDense(nr, nc, nil),
	}, nil
}

// Solve runs the iteration until both residual tolerances are met or the
// iteration budget is exhausted, and returns the auxiliary variable 𝐘.
func (s *Solver) Solve() (*mat.Dense, error) {
	nr, nc := s.prob.VarShape()
	sqrtn := math.Sqrt(float64(nr * nc))
	alpha := s.opt.RelaxParam

	start := time.Now()
	s.converged = false
	s.progressHeader()

	yprev := mat.NewDense(nr, nc, nil)
	axu := mat.NewDense(nr, nc, nil)

	for k := 0; k < s.opt.MaxIter; k++ {
		x, err := s.prob.XStep(s.y, s.u)
		if err != nil {
			return nil, err
		}
		s.x = x

		// AX = α·X + (1-α)·Yᵏ
		s.ax.Scale(alpha, s.x)
		yprev.Scale(1-alpha, s.y)
		s.ax.Add(s.ax, yprev)

		yprev.Copy(s.y)
		axu.Add(s.ax, s.u)
		s.y = s.prob.YStep(axu)

		s.u.Add(s.u, s.ax)
		s.u.Sub(s.u, s.y)

		rho := s.prob.Rho()
		r := normDiff(s.x, s.y)
		d := rho * normDiff(s.y, yprev)
		epri := sqrtn*s.opt.AbsStopTol +
			math.Max(mat.Norm(s.x, 2), mat.Norm(s.y, 2))*s.opt.RelStopTol
		edua := sqrtn*s.opt.AbsStopTol + rho*mat.Norm(s.u, 2)*s.opt.RelStopTol

		dfid, cnstr := s.prob.ObjFn(s.x, s.y)
		st := IterStats{
			Iter: k, DFid: dfid, Cnstr: cnstr,
			PrimalRsdl: r, DualRsdl: d,
			EpsPrimal: epri, EpsDual: edua,
			Rho: rho, Time: time.Since(start),
		}
		s.stats = append(s.stats, st)
		s.progressRow(st)
		s.iter = k + 1

		if r <= epri && d <= edua {
			s.converged = true
			break
		}

		if err := s.updateRho(k, r, d); err != nil {
			return nil, err
		}
	}
	return s.y, nil
}

// updateRho applies the adaptive penalty policy after iteration k with
// primal residual r and dual residual d.
func (s *Solver) updateRho(k int, r, d float64) error {
	ar := s.opt.AutoRho
	if !ar.Enabled || (k+1)%ar.Period != 0 {
		return nil
	}
	tau, mu, xi := ar.Scaling, ar.RsdlRatio, ar.RsdlTarget

	mult := tau
	if ar.AutoScaling && r > 0 && d > 0 {
		if r > d*xi {
			mult = math.Sqrt(r / (d * xi))
		} else {
			mult = math.Sqrt(d * xi / r)
		}
		if mult > tau {
			mult = tau
		}
	}

	rsf := 1.0
	if r > xi*mu*d {
		rsf = mult
	} else if d > (mu/xi)*r {
		rsf = 1.0 / mult
	}
	if rsf == 1.0 {
		return nil
	}

	// Keep the scaled dual form consistent: U carries a 1/ρ factor.
	s.u.Scale(1.0/rsf, s.u)
	return s.prob.RhoChange(rsf * s.prob.Rho())
}

// X returns the primal variable of the last completed iteration.
func (s *Solver) X() *mat.Dense { return s.x }

// Y returns the auxiliary variable of the last completed iteration.
func (s *Solver) Y() *mat.Dense { return s.y }

// U returns the scaled dual variable of the last completed iteration.
func (s *Solver) U() *mat.Dense { return s.u }

// Iterations reports the number of completed iterations.
func (s *Solver) Iterations() int { return s.iter }

// Converged reports whether the last Solve met both residual tolerances.
func (s *Solver) Converged() bool { return s.converged }

// Stats returns the per-iteration statistics of the last Solve.
func (s *Solver) Stats() []IterStats { return s.stats }

func normDiff(a, b *mat.Dense) float64 {
	var t mat.Dense
	t.Sub(a, b)
	return mat.Norm(&t, 2)
}
