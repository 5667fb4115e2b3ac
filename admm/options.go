// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package admm

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidOption indicates an out-of-range engine option.
var ErrInvalidOption = errors.New("admm: invalid option")

// AutoRho configures the adaptive penalty policy.
type AutoRho struct {
	// Enabled switches the policy on.
	Enabled bool
	// Period is the number of iterations between adaptation checks.
	Period int
	// Scaling is the multiplier τ applied to ρ on adaptation.
	Scaling float64
	// RsdlRatio is the residual ratio μ beyond which adaptation triggers.
	RsdlRatio float64
	// RsdlTarget is the target residual ratio ξ.
	RsdlTarget float64
	// AutoScaling derives the multiplier from the residual imbalance
	// instead of the fixed Scaling factor, capped at Scaling.
	AutoScaling bool
}

// Options configure the iteration engine.
type Options struct {
	// MaxIter is the iteration budget.
	MaxIter int
	// AbsStopTol and RelStopTol are the absolute and relative residual
	// stopping tolerances.
	AbsStopTol, RelStopTol float64
	// RelaxParam is the over-relaxation factor α, in (0, 2).
	RelaxParam float64
	// Y0 is an optional warm start for the auxiliary variable.
	Y0 *mat.Dense
	// AutoRho is the adaptive penalty policy.
	AutoRho AutoRho
	// Progress, when non-nil, receives a per-iteration status table.
	Progress io.Writer
}

// DefaultOptions returns the engine defaults. The adaptive penalty policy
// is disabled; problems that want it enable it with their own targets.
func DefaultOptions() *Options {
	return &Options{
		MaxIter:    1000,
		AbsStopTol: 0.0,
		RelStopTol: 1e-4,
		RelaxParam: 1.8,
		AutoRho: AutoRho{
			Enabled:    false,
			Period:     10,
			Scaling:    2.0,
			RsdlRatio:  10.0,
			RsdlTarget: 1.0,
		},
	}
}

func (o *Options) validate() error {
	switch {
	case o.MaxIter <= 0:
		return fmt.Errorf("%w: MaxIter must be positive, got %d", ErrInvalidOption, o.MaxIter)
	case o.AbsStopTol < 0 || o.RelStopTol < 0:
		return fmt.Errorf("%w: stopping tolerances must be non-negative", ErrInvalidOption)
	case o.RelaxParam <= 0 || o.RelaxParam >= 2:
		return fmt.Errorf("%w: RelaxParam must lie in (0, 2), got %g", ErrInvalidOption, o.RelaxParam)
	}
	if ar := o.AutoRho; ar.Enabled {
		switch {
		case ar.Period <= 0:
			return fmt.Errorf("%w: AutoRho.Period must be positive, got %d", ErrInvalidOption, ar.Period)
		case ar.Scaling <= 1:
			return fmt.Errorf("%w: AutoRho.Scaling must exceed 1, got %g", ErrInvalidOption, ar.Scaling)
		case ar.RsdlRatio <= 1:
			return fmt.Errorf("%w: AutoRho.RsdlRatio must exceed 1, got %g", ErrInvalidOption, ar.RsdlRatio)
		case ar.RsdlTarget <= 0:
			return fmt.Errorf("%w: AutoRho.RsdlTarget must be positive, got %g", ErrInvalidOption, ar.RsdlTarget)
		}
	}
	return nil
}

func errY0Shape(yr, yc, nr, nc int) error {
	return fmt.Errorf("%w: Y0 is %dx%d, want %dx%d", ErrInvalidOption, yr, yc, nr, nc)
}
