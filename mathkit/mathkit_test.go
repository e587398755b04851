// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mathkit

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLUSolveKnownSystem(t *testing.T) {
	// [2 1; 1 3] x = [3; 5]  =>  x = [4/5, 7/5]
	a := NewMatrix(2)
	a[1][1], a[1][2] = 2, 1
	a[2][1], a[2][2] = 1, 3
	b := NewVector(2)
	b[1], b[2] = 3, 5
	x, ok := Solve(a, 2, b)
	assert.True(t, ok)
	assert.InDelta(t, 4.0/5.0, x[1], 1e-9)
	assert.InDelta(t, 7.0/5.0, x[2], 1e-9)
}

func TestLUSolveRandomDiagonallyDominant(t *testing.T) {
	n := 20
	rng := rand.New(rand.NewSource(1))
	a := NewMatrix(n)
	for i := 1; i <= n; i++ {
		rowsum := 0.0
		for j := 1; j <= n; j++ {
			if i != j {
				a[i][j] = rng.Float64()*2 - 1
				rowsum += math.Abs(a[i][j])
			}
		}
		a[i][i] = rowsum + 1 + rng.Float64()
	}
	x0 := NewVector(n)
	for i := 1; i <= n; i++ {
		x0[i] = rng.Float64()
	}
	b := NewVector(n)
	for i := 1; i <= n; i++ {
		sum := 0.0
		for j := 1; j <= n; j++ {
			sum += a[i][j] * x0[j]
		}
		b[i] = sum
	}
	x, ok := Solve(a, n, b)
	assert.True(t, ok)
	for i := 1; i <= n; i++ {
		assert.InDelta(t, x0[i], x[i], 1e-6)
	}
}

func TestJacobianOfLinearFieldIsExact(t *testing.T) {
	n := 3
	A := [][]float64{
		{0, 0, 0, 0},
		{0, 2, 1, 0},
		{0, 0, 3, 1},
		{0, 1, 0, 4},
	}
	f := func(x, out []float64) {
		for i := 1; i <= n; i++ {
			sum := 0.0
			for j := 1; j <= n; j++ {
				sum += A[i][j] * x[j]
			}
			out[i] = sum
		}
	}
	x := NewVector(n)
	x[1], x[2], x[3] = 1, 2, 3
	jac := NewMatrix(n)
	f0, f1, f2 := NewVector(n), NewVector(n), NewVector(n)
	Jacobian(jac, x, n, f, f0, f1, f2)
	for i := 1; i <= n; i++ {
		for j := 1; j <= n; j++ {
			assert.InDelta(t, A[i][j], jac[i][j], 1e-5)
		}
	}
}

func TestJacobianAtZeroUsesForwardDifference(t *testing.T) {
	n := 1
	f := func(x, out []float64) { out[1] = x[1] * x[1] }
	x := NewVector(n)
	x[1] = 0
	jac := NewMatrix(n)
	f0, f1, f2 := NewVector(n), NewVector(n), NewVector(n)
	Jacobian(jac, x, n, f, f0, f1, f2)
	assert.InDelta(t, 0, jac[1][1], 1e-6)
}
