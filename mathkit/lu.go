// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mathkit provides the dense linear algebra and numerical
// differencing primitives shared by NewtonSolver and the ODE
// integrators: LU factorization with partial pivoting, back
// substitution, and a numerical Jacobian by forward/central
// differencing. Matrices and vectors here are 1-indexed (index 0 is
// reserved and unused) by contract — spec §4.2 calls this out explicitly
// as "a contract, not a storage optimization", so accessors are not used
// to paper over it; callers allocate with mathkit.NewMatrix/NewVector.
package mathkit

import "math"

// tinyPivot is substituted for any |a[j][j]| below this threshold during
// factorization to avoid division by zero; callers must treat the
// resulting factorization as near-singular.
const tinyPivot = 1e-20

// NewMatrix allocates an (n+1)x(n+1) matrix with row/column 0 unused.
func NewMatrix(n int) [][]float64 {
	a := make([][]float64, n+1)
	for i := range a {
		a[i] = make([]float64, n+1)
	}
	return a
}

// NewVector allocates an (n+1)-length vector with index 0 unused.
func NewVector(n int) []float64 {
	return make([]float64, n+1)
}

// LUDecompose factorizes the n x n matrix a (1-indexed, a[1..n][1..n]) in
// place into L and U (combined, Crout's method with implicit row
// scaling), returning the permutation vector indx (1-indexed) and the
// parity d (+1 or -1) of the number of row interchanges. ok is false if
// a row of the matrix is entirely zero, or if a pivot's magnitude falls
// below tinyPivot (that pivot is then replaced by tinyPivot and the
// decomposition continues).
func LUDecompose(a [][]float64, n int) (indx []int, d float64, ok bool) {
	indx = make([]int, n+1)
	vv := make([]float64, n+1)
	d = 1.0
	ok = true

	for i := 1; i <= n; i++ {
		big := 0.0
		for j := 1; j <= n; j++ {
			if t := math.Abs(a[i][j]); t > big {
				big = t
			}
		}
		if big == 0 {
			ok = false
			vv[i] = 0
			continue
		}
		vv[i] = 1.0 / big
	}

	for j := 1; j <= n; j++ {
		for i := 1; i < j; i++ {
			sum := a[i][j]
			for k := 1; k < i; k++ {
				sum -= a[i][k] * a[k][j]
			}
			a[i][j] = sum
		}
		big := 0.0
		imax := j
		for i := j; i <= n; i++ {
			sum := a[i][j]
			for k := 1; k < j; k++ {
				sum -= a[i][k] * a[k][j]
			}
			a[i][j] = sum
			dum := vv[i] * math.Abs(sum)
			if dum >= big {
				big = dum
				imax = i
			}
		}
		if j != imax {
			for k := 1; k <= n; k++ {
				a[imax][k], a[j][k] = a[j][k], a[imax][k]
			}
			d = -d
			vv[imax] = vv[j]
		}
		indx[j] = imax
		if math.Abs(a[j][j]) < tinyPivot {
			a[j][j] = tinyPivot
			ok = false
		}
		if j != n {
			dum := 1.0 / a[j][j]
			for i := j + 1; i <= n; i++ {
				a[i][j] *= dum
			}
		}
	}
	return indx, d, ok
}

// LUBackSubstitute solves A x = b in place given the LU factors produced
// by LUDecompose (a, indx): forward sweep applying the permutation, then
// backward sweep. b is overwritten with the solution x.
func LUBackSubstitute(a [][]float64, n int, indx []int, b []float64) {
	ii := 0
	for i := 1; i <= n; i++ {
		ip := indx[i]
		sum := b[ip]
		b[ip] = b[i]
		if ii != 0 {
			for j := ii; j <= i-1; j++ {
				sum -= a[i][j] * b[j]
			}
		} else if sum != 0 {
			ii = i
		}
		b[i] = sum
	}
	for i := n; i >= 1; i-- {
		sum := b[i]
		for j := i + 1; j <= n; j++ {
			sum -= a[i][j] * b[j]
		}
		b[i] = sum / a[i][i]
	}
}

// Solve is a convenience wrapper: factorize a copy of a and solve A x = b,
// leaving the original matrix a untouched. It reports ok=false if the
// factorization hit a tiny pivot (near-singular matrix).
func Solve(a [][]float64, n int, b []float64) (x []float64, ok bool) {
	lu := NewMatrix(n)
	for i := 1; i <= n; i++ {
		copy(lu[i][1:n+1], a[i][1:n+1])
	}
	indx, _, factOK := LUDecompose(lu, n)
	x = make([]float64, n+1)
	copy(x, b)
	LUBackSubstitute(lu, n, indx, x)
	return x, factOK
}
