// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmod

import (
	"fmt"

	"github.com/curioloop/dictlearn/admm"
)

// Options configure the constrained MOD dictionary update.
type Options struct {
	// AuxVarObj selects the variable the data fidelity term is evaluated
	// on: the auxiliary variable 𝐘 when true, the primal variable 𝐗 when
	// false. The constraint violation term follows the same selection.
	AuxVarObj bool
	// ZeroMean enables column-mean subtraction inside the constraint
	// projection, yielding zero-mean dictionary atoms.
	ZeroMean bool
	// Rho is the initial penalty parameter. Zero selects the default K/500,
	// with K the number of signal columns.
	Rho float64
	// ADMM are the iteration engine options. Nil selects the engine
	// defaults with the adaptive penalty policy enabled.
	ADMM *admm.Options
}

// DefaultOptions returns the dictionary update defaults: objective evaluated
// on the auxiliary variable, unit-norm atoms without mean subtraction,
// over-relaxation 1.8 and adaptive penalty targeting equal residuals.
func DefaultOptions() *Options {
	return &Options{
		AuxVarObj: true,
		ZeroMean:  false,
		ADMM:      defaultEngineOptions(),
	}
}

func defaultEngineOptions() *admm.Options {
	o := admm.DefaultOptions()
	o.RelaxParam = 1.8
	o.AutoRho.Enabled = true
	o.AutoRho.RsdlTarget = 1.0
	return o
}

func (o *Options) validate() error {
	if o.Rho < 0 {
		return fmt.Errorf("%w: rho must be positive, got %g", ErrInvalidOption, o.Rho)
	}
	return nil
}
