// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odeint

import (
	"math"

	"github.com/cpmech/msx/mathkit"
)

// gamma is the Rosenbrock-2 stability parameter, per spec §4.4.
var gamma = 1 + 1/math.Sqrt2

// Rosenbrock2State is thread-local integrator memory: the cached
// Jacobian (rebuilt after an accepted step, reused to retry a rejected one)
// and the PI controller's error-ratio memory.
type Rosenbrock2State struct {
	jac        [][]float64
	haveJac    bool
	prevAccept bool
	facOld     float64
	haveOld    bool

	f0, f1, f2 []float64 // Jacobian scratch
	fy, fy2    []float64 // f(y), f(y+hk1)
	w          [][]float64
	k1, k2     []float64
	ytmp       []float64
}

// NewRosenbrock2State allocates scratch sized for n unknowns.
func NewRosenbrock2State(n int) *Rosenbrock2State {
	return &Rosenbrock2State{
		jac:    mathkit.NewMatrix(n),
		f0:     mathkit.NewVector(n),
		f1:     mathkit.NewVector(n),
		f2:     mathkit.NewVector(n),
		fy:     mathkit.NewVector(n),
		fy2:    mathkit.NewVector(n),
		w:      mathkit.NewMatrix(n),
		k1:     mathkit.NewVector(n),
		k2:     mathkit.NewVector(n),
		ytmp:   mathkit.NewVector(n),
		facOld: 1e-4,
	}
}

// Integrate advances y by one adaptive Rosenbrock-2 step of initial size
// htry, covering up to hspan total, with embedded error control and the
// same PI-style controller DoPri45 uses. f is wrapped so mathkit.Jacobian
// can call it with the (t, y, n) signature frozen at the current t.
func (st *Rosenbrock2State) Integrate(t0 float64, y []float64, n int, hspan, htry float64, atol, rtol []float64, f Func, maxSteps int) int {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	if htry <= 0 || htry > hspan {
		htry = hspan
	}
	h := htry
	t := t0
	tend := t0 + hspan
	nfev := 0
	st.haveJac = false
	st.prevAccept = true

	field := func(x, out []float64) { f(t, x, n, out) }

	for step := 0; step < maxSteps; step++ {
		if t >= tend {
			return nfev
		}
		if t+h > tend {
			h = tend - t
		}
		if h < MinStep {
			return StatusStepTooSmall
		}

		if st.prevAccept || !st.haveJac {
			mathkit.Jacobian(st.jac, y, n, field, st.f0, st.f1, st.f2)
			st.haveJac = true
		}

		invGammaH := 1.0 / (gamma * h)
		for i := 1; i <= n; i++ {
			for j := 1; j <= n; j++ {
				st.w[i][j] = -st.jac[i][j]
			}
			st.w[i][i] += invGammaH
		}

		f(t, y, n, st.fy)
		nfev++
		rhs1 := make([]float64, n+1)
		copy(rhs1, st.fy[:n+1])
		x1, ok1 := mathkit.Solve(st.w, n, rhs1)
		copy(st.k1[:n+1], x1[:n+1])

		for i := 1; i <= n; i++ {
			st.ytmp[i] = y[i] + h*st.k1[i]
		}
		f(t+h, st.ytmp, n, st.fy2)
		nfev++
		rhs2 := make([]float64, n+1)
		for i := 1; i <= n; i++ {
			rhs2[i] = st.fy2[i] - 2*st.k1[i]
		}
		x2, ok2 := mathkit.Solve(st.w, n, rhs2)
		copy(st.k2[:n+1], x2[:n+1])

		errNorm := 0.0
		for i := 1; i <= n; i++ {
			ynew := y[i] + 1.5*h*st.k1[i] + 0.5*h*st.k2[i]
			e := ynew - y[i] - h*st.k1[i]
			sc := atol[i] + rtol[i]*math.Max(math.Abs(y[i]), math.Abs(ynew))
			if sc == 0 {
				sc = 1e-30
			}
			r := e / sc
			errNorm += r * r
			st.ytmp[i] = ynew
		}
		errNorm = math.Sqrt(errNorm / float64(n))
		if errNorm == 0 {
			errNorm = 1e-30
		}
		if !ok1 || !ok2 {
			errNorm = math.Max(errNorm, 10)
		}

		expo := 0.5
		fac11 := math.Pow(errNorm, expo)
		var fac float64
		if st.haveOld {
			fac = fac11 / math.Pow(st.facOld, dopriBeta)
		} else {
			fac = fac11
		}
		fac = math.Max(1.0/dopriFac2, math.Min(1.0/dopriFac1, fac/dopriSafe))
		hnew := h / fac

		if errNorm <= 1 {
			st.facOld = math.Max(errNorm, 1e-4)
			st.haveOld = true
			st.prevAccept = true
			t += h
			copy(y[1:n+1], st.ytmp[1:n+1])
			h = hnew
			if t >= tend {
				return nfev
			}
		} else {
			st.prevAccept = false
			h = h / math.Min(1.0/dopriFac1, fac11/dopriSafe)
		}
	}
	return StatusMaxStepsExceeded
}
