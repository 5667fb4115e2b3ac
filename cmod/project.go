// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmod

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Project returns the matrix in the feasible set closest to v: every column
// is rescaled to unit Euclidean norm, after column-mean subtraction when
// zeroMean is set. The two steps are composed in that order; the composition
// is the intended constraint, not a joint projection. A column of zeros is
// passed through unchanged. The input is not modified.
func Project(v *mat.Dense, zeroMean bool) *mat.Dense {
	out := mat.DenseCopyOf(v)
	if zeroMean {
		zeroMeanCols(out)
	}
	normalizeCols(out)
	return out
}

// projector resolves the zeroMean choice once into a projection function.
func projector(zeroMean bool) func(*mat.Dense) *mat.Dense {
	return func(v *mat.Dense) *mat.Dense {
		return Project(v, zeroMean)
	}
}

func zeroMeanCols(v *mat.Dense) {
	r, c := v.Dims()
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, v)
		floats.AddConst(-floats.Sum(col)/float64(r), col)
		v.SetCol(j, col)
	}
}

func normalizeCols(v *mat.Dense) {
	r, c := v.Dims()
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, v)
		n := floats.Norm(col, 2)
		if n == 0 {
			continue
		}
		floats.Scale(1/n, col)
		v.SetCol(j, col)
	}
}
