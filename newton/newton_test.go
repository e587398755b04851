// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package newton

import (
	"testing"

	"github.com/cpmech/msx/mathkit"
	"github.com/stretchr/testify/assert"
)

func TestSolveQuadraticSystem(t *testing.T) {
	// f1 = x1^2 - 2 = 0, f2 = x2 - x1 - 1 = 0 => x1=sqrt2, x2=sqrt2+1
	f := func(x, out []float64) {
		out[1] = x[1]*x[1] - 2
		out[2] = x[2] - x[1] - 1
	}
	s := NewSolver(4)
	x := mathkit.NewVector(2)
	x[1], x[2] = 1.2, 2.0
	iters := s.Solve(x, 2, f, 50, 8)
	assert.Greater(t, iters, 0)
	assert.InDelta(t, 1.4142135623730951, x[1], 1e-6)
	assert.InDelta(t, 2.4142135623730951, x[2], 1e-6)
}

func TestSolveTooLargeReturnsStatusTooLarge(t *testing.T) {
	f := func(x, out []float64) {}
	s := NewSolver(2)
	x := mathkit.NewVector(5)
	got := s.Solve(x, 5, f, 10, 6)
	assert.Equal(t, StatusTooLarge, got)
}

func TestSolveEquilibriumLinear(t *testing.T) {
	// A - B = 0.5, with A held via a trivial identity constraint A=1: solve for B only.
	f := func(x, out []float64) {
		out[1] = 1.0 - x[1] - 0.5
	}
	s := NewSolver(2)
	x := mathkit.NewVector(1)
	x[1] = 0
	iters := s.Solve(x, 1, f, 20, 8)
	assert.Greater(t, iters, 0)
	assert.InDelta(t, 0.5, x[1], 1e-6)
}
