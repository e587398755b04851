// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odeint

import (
	"math"
	"testing"

	"github.com/cpmech/msx/mathkit"
	"github.com/stretchr/testify/assert"
)

// decayField implements dy/dt = -k*y.
func decayField(k float64) Func {
	return func(t float64, y []float64, n int, dy []float64) {
		for i := 1; i <= n; i++ {
			dy[i] = -k * y[i]
		}
	}
}

func TestEulerOneStep(t *testing.T) {
	y := mathkit.NewVector(1)
	y[1] = 1
	dy := mathkit.NewVector(1)
	nfev := Euler(0, y, 1, 0.1, decayField(1), dy)
	assert.Equal(t, 1, nfev)
	assert.InDelta(t, 0.9, y[1], 1e-12)
}

func TestDoPri45MatchesExponentialDecay(t *testing.T) {
	n := 1
	k := 0.01 // per-day rate, matching scenario 2 in spec §8
	y := mathkit.NewVector(n)
	y[1] = 1.0
	atol := mathkit.NewVector(n)
	rtol := mathkit.NewVector(n)
	atol[1], rtol[1] = 1e-10, 1e-8

	k1, k2, k3, k4, k5, k6, k7 := mathkit.NewVector(n), mathkit.NewVector(n), mathkit.NewVector(n), mathkit.NewVector(n), mathkit.NewVector(n), mathkit.NewVector(n), mathkit.NewVector(n)
	ytmp, yerr := mathkit.NewVector(n), mathkit.NewVector(n)

	st := NewDoPri45State()
	span := 100.0 // 100 days
	status := st.Integrate(0, y, n, span, span/10, atol, rtol, decayField(k), k1, k2, k3, k4, k5, k6, k7, ytmp, yerr, 0)
	assert.Greater(t, status, 0)
	want := math.Exp(-k * span)
	assert.InDelta(t, want, y[1], 1e-4)
}

func TestRosenbrock2MatchesExponentialDecay(t *testing.T) {
	n := 1
	k := 0.5
	y := mathkit.NewVector(n)
	y[1] = 1.0
	atol := mathkit.NewVector(n)
	rtol := mathkit.NewVector(n)
	atol[1], rtol[1] = 1e-10, 1e-8

	st := NewRosenbrock2State(n)
	span := 5.0
	status := st.Integrate(0, y, n, span, span/20, atol, rtol, decayField(k), 0)
	assert.Greater(t, status, 0)
	want := math.Exp(-k * span)
	assert.InDelta(t, want, y[1], 1e-3)
}

func TestDoPri45StepTooSmallWhenSpanTiny(t *testing.T) {
	n := 1
	y := mathkit.NewVector(n)
	y[1] = 1
	atol, rtol := mathkit.NewVector(n), mathkit.NewVector(n)
	atol[1], rtol[1] = 1e-14, 1e-14
	k1, k2, k3, k4, k5, k6, k7 := mathkit.NewVector(n), mathkit.NewVector(n), mathkit.NewVector(n), mathkit.NewVector(n), mathkit.NewVector(n), mathkit.NewVector(n), mathkit.NewVector(n)
	ytmp, yerr := mathkit.NewVector(n), mathkit.NewVector(n)
	st := NewDoPri45State()
	// a span of 1e-9 caps the first step below MinStep (1e-8), so the
	// integrator gives up before taking any step.
	status := st.Integrate(0, y, n, 1e-9, 1e-9, atol, rtol, decayField(1000), k1, k2, k3, k4, k5, k6, k7, ytmp, yerr, 0)
	assert.Equal(t, StatusStepTooSmall, status)
}
