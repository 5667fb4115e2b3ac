// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package admm

import (
	"fmt"
	"time"
)

// IterStats records the state of one completed iteration.
type IterStats struct {
	// Iter is the iteration number, starting at 0.
	Iter int
	// DFid is the data fidelity component of the objective.
	DFid float64
	// Cnstr is the constraint violation component of the objective.
	Cnstr float64
	// PrimalRsdl and DualRsdl are the primal and dual residual norms.
	PrimalRsdl, DualRsdl float64
	// EpsPrimal and EpsDual are the residual stopping tolerances.
	EpsPrimal, EpsDual float64
	// Rho is the penalty parameter in effect during the iteration.
	Rho float64
	// Time is the cumulative run time at the end of the iteration.
	Time time.Duration
}

func (s *Solver) progressHeader() {
	if s.opt.Progress == nil {
		return
	}
	_, _ = fmt.Fprintf(s.opt.Progress, "%4s  %9s  %9s  %9s  %9s  %9s\n",
		"Itn", "DFid", "Cnstr", "r", "s", "rho")
}

func (s *Solver) progressRow(st IterStats) {
	if s.opt.Progress == nil {
		return
	}
	_, _ = fmt.Fprintf(s.opt.Progress, "%4d  %9.2e  %9.2e  %9.2e  %9.2e  %9.2e\n",
		st.Iter, st.DFid, st.Cnstr, st.PrimalRsdl, st.DualRsdl, st.Rho)
}
