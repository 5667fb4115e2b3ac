// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmod

import "errors"

var (
	// ErrShapeMismatch indicates inconsistent dimensions between the signal,
	// coefficient or dictionary-size arguments.
	ErrShapeMismatch = errors.New("cmod: inconsistent matrix dimensions")
	// ErrSingularSystem indicates the system matrix A·Aᵀ + ρI could not be
	// factorized.
	ErrSingularSystem = errors.New("cmod: system matrix is not positive definite")
	// ErrInvalidOption indicates an unrecognized or out-of-range option value.
	ErrInvalidOption = errors.New("cmod: invalid option")
	// ErrCoefNotSet indicates a solve was attempted before the coefficient
	// matrix was supplied.
	ErrCoefNotSet = errors.New("cmod: coefficient matrix not set")
)
