// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odeint

// Euler advances y by one forward-Euler step of size h starting at time
// t0, using a single function evaluation. Used when accuracy is not
// critical and reaction rates are mild (spec §4.4). Returns the number
// of function evaluations (always 1).
func Euler(t0 float64, y []float64, n int, h float64, f Func, dy []float64) int {
	f(t0, y, n, dy)
	for i := 1; i <= n; i++ {
		y[i] += h * dy[i]
	}
	return 1
}
