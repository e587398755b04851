// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odeint

import "math"

// PI step-controller constants, per spec §4.4.
const (
	dopriSafe = 0.9
	dopriFac1 = 0.2
	dopriFac2 = 10.0
	dopriBeta = 0.04
)

// Dormand-Prince 4(5) tableau (Hairer's classic coefficients).
var (
	dopriC = [8]float64{0, 0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dopriA = [8][8]float64{
		{},
		{},
		{0, 1.0 / 5},
		{0, 3.0 / 40, 9.0 / 40},
		{0, 44.0 / 45, -56.0 / 15, 32.0 / 9},
		{0, 19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{0, 9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{0, 35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	// dopriE is b - b* (5th vs embedded 4th order), used directly as the
	// error-estimate weights.
	dopriE = [8]float64{0, 71.0 / 57600, 0, -71.0 / 16695, 71.0 / 1920, -17253.0 / 339200, 22.0 / 525, -1.0 / 40}
)

// DoPri45State carries the PI controller's memory of the previous
// accepted step's error ratio ("LUND-stabilized"), thread-local per
// spec §5.
type DoPri45State struct {
	facOld  float64
	haveOld bool
}

// NewDoPri45State returns a fresh controller state.
func NewDoPri45State() *DoPri45State { return &DoPri45State{facOld: 1e-4} }

// Integrate advances y from t0 to t0+hspan using DoPri45 with embedded
// error control, starting from step-size guess htry (bounded by the
// interval remainder). atol/rtol are 1-indexed per-component tolerances.
// Scratch k1..k7 and ytmp/yerr are 1-indexed length n+1 buffers supplied
// by the caller (thread-local, spec §5). Returns the number of function
// evaluations used, or a negative Status* code.
func (st *DoPri45State) Integrate(t0 float64, y []float64, n int, hspan, htry float64, atol, rtol []float64, f Func,
	k1, k2, k3, k4, k5, k6, k7, ytmp, yerr []float64, maxSteps int) int {

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

	f(t, y, n, k1)
	nfev++

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

		stage := func(k []float64, c float64, coeffs []float64, ks ...[]float64) {
			for i := 1; i <= n; i++ {
				sum := y[i]
				for idx, kk := range ks {
					sum += h * coeffs[idx+1] * kk[i]
				}
				ytmp[i] = sum
			}
			f(t+c*h, ytmp, n, k)
			nfev++
		}

		stage(k2, dopriC[2], dopriA[2][:], k1)
		stage(k3, dopriC[3], dopriA[3][:], k1, k2)
		stage(k4, dopriC[4], dopriA[4][:], k1, k2, k3)
		stage(k5, dopriC[5], dopriA[5][:], k1, k2, k3, k4)
		stage(k6, dopriC[6], dopriA[6][:], k1, k2, k3, k4, k5)

		b := dopriA[7][:]
		for i := 1; i <= n; i++ {
			ytmp[i] = y[i] + h*(b[1]*k1[i]+b[3]*k3[i]+b[4]*k4[i]+b[5]*k5[i]+b[6]*k6[i])
		}
		f(t+h, ytmp, n, k7)
		nfev++

		errNorm := 0.0
		for i := 1; i <= n; i++ {
			e := h * (dopriE[1]*k1[i] + dopriE[3]*k3[i] + dopriE[4]*k4[i] + dopriE[5]*k5[i] + dopriE[6]*k6[i] + dopriE[7]*k7[i])
			sc := atol[i] + rtol[i]*math.Max(math.Abs(y[i]), math.Abs(ytmp[i]))
			if sc == 0 {
				sc = 1e-30
			}
			r := e / sc
			errNorm += r * r
		}
		errNorm = math.Sqrt(errNorm / float64(n))
		if errNorm == 0 {
			errNorm = 1e-30
		}

		expo := 0.2 - dopriBeta*0.75
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
			t += h
			copy(y[1:n+1], ytmp[1:n+1])
			copy(k1[1:n+1], k7[1:n+1]) // FSAL: k7 becomes next step's k1
			h = hnew
			if t >= tend {
				return nfev
			}
		} else {
			h = h / math.Min(1.0/dopriFac1, fac11/dopriSafe)
		}
	}
	return StatusMaxStepsExceeded
}
