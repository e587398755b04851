// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package newton implements a damped Newton-Raphson solver for nonlinear
// algebraic systems, built on mathkit's LU factorization and numerical
// Jacobian, following the ODE-callback idiom gosl/ode and gosl/num use
// elsewhere in the teacher repo (spec §4.3).
package newton

import (
	"math"

	"github.com/cpmech/msx/mathkit"
)

// Status codes returned by Solve, per spec §4.3.
const (
	StatusSingular  = -1
	StatusNoConverge = -2
	StatusTooLarge  = -3
)

// Solver holds scratch buffers sized for a maximum problem dimension so
// repeated Solve calls (one per segment, per step) do not allocate.
// Per spec §5 this is thread-local state: one Solver per worker.
type Solver struct {
	capacity int
	jac      [][]float64
	f0, f1, f2 []float64
	fx       []float64
	dx       []float64
}

// NewSolver opens a solver with scratch buffers for problems of up to
// capacity unknowns.
func NewSolver(capacity int) *Solver {
	return &Solver{
		capacity: capacity,
		jac:      mathkit.NewMatrix(capacity),
		f0:       mathkit.NewVector(capacity),
		f1:       mathkit.NewVector(capacity),
		f2:       mathkit.NewVector(capacity),
		fx:       mathkit.NewVector(capacity),
		dx:       mathkit.NewVector(capacity),
	}
}

// Solve iterates up to maxit times on the 1-indexed system f(x) = 0 with
// n unknowns (n <= capacity), updating x in place. numsig controls the
// convergence tolerance 10^-numsig as defined in spec §4.3. Returns the
// iteration count on success, or one of the Status* negative codes.
func (s *Solver) Solve(x []float64, n int, f mathkit.VectorField, maxit, numsig int) int {
	if n > s.capacity {
		return StatusTooLarge
	}
	tol := math.Pow(10, -float64(numsig))

	for it := 1; it <= maxit; it++ {
		mathkit.Jacobian(s.jac, x, n, f, s.f0, s.f1, s.f2)
		f(x, s.fx)
		for i := 1; i <= n; i++ {
			s.dx[i] = -s.fx[i]
		}

		lu := mathkit.NewMatrix(n)
		for i := 1; i <= n; i++ {
			copy(lu[i][1:n+1], s.jac[i][1:n+1])
		}
		indx, _, ok := mathkit.LUDecompose(lu, n)
		if !ok {
			return StatusSingular
		}
		sol := make([]float64, n+1)
		copy(sol, s.dx[:n+1])
		mathkit.LUBackSubstitute(lu, n, indx, sol)

		maxRatio := 0.0
		for i := 1; i <= n; i++ {
			x[i] += sol[i]
			denom := math.Abs(x[i])
			if denom < tol {
				denom = tol
			}
			ratio := math.Abs(sol[i]) / denom
			if ratio > maxRatio {
				maxRatio = ratio
			}
		}
		if maxRatio < tol {
			return it
		}
	}
	return StatusNoConverge
}
