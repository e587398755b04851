// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package odeint implements the three ODE integrators ChemEngine drives
// per segment: forward Euler, an embedded Dormand-Prince RK4(5) with a
// PI step controller, and a second-order Rosenbrock method with
// analytic/numeric Jacobian reuse. All three share the callback contract
// below, 1-indexed like mathkit, mirroring the gosl/ode idiom used by
// the teacher repo's ana package (spec §4.4).
package odeint

// Func evaluates dy/dt at (t, y) into dy. y and dy are 1-indexed,
// length n+1, index 0 unused.
type Func func(t float64, y []float64, n int, dy []float64)

const (
	// StatusMaxStepsExceeded is returned by DoPri45 when the step budget
	// (default 1000) is exhausted before reaching the target time.
	StatusMaxStepsExceeded = -1
	// StatusStepTooSmall is returned when h shrinks below 1e-8.
	StatusStepTooSmall = -2
)

// DefaultMaxSteps is the default step budget for DoPri45.
const DefaultMaxSteps = 1000

// MinStep is the smallest step size DoPri45 will accept before failing.
const MinStep = 1e-8
