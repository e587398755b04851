// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mathkit

// jacobianEps is the perturbation size for numerical differencing,
// mirroring gosl/num's DerivCentral/DerivForward convention (spec §4.2).
const jacobianEps = 1e-7

// VectorField evaluates f(x) into the 1-indexed buffer out, given the
// 1-indexed input x; both are length n+1 with index 0 unused.
type VectorField func(x, out []float64)

// Jacobian computes the numerical Jacobian of f at x (1-indexed, n x n)
// into jac, using a centered difference when x[j] != 0 and a forward
// difference when x[j] == 0, dividing by the actual denominator used.
// f1 and f2 are caller-provided scratch buffers of length n+1, reused
// across calls to avoid per-call allocation inside hot integration loops.
func Jacobian(jac [][]float64, x []float64, n int, f VectorField, f0, f1, f2 []float64) {
	f(x, f0)
	for j := 1; j <= n; j++ {
		xj := x[j]
		if xj != 0 {
			h := jacobianEps * xj
			if h < 0 {
				h = -h
			}
			save := x[j]
			x[j] = save + h
			f(x, f1)
			x[j] = save - h
			f(x, f2)
			x[j] = save
			denom := 2 * h
			for i := 1; i <= n; i++ {
				jac[i][j] = (f1[i] - f2[i]) / denom
			}
		} else {
			h := jacobianEps
			save := x[j]
			x[j] = save + h
			f(x, f1)
			x[j] = save
			for i := 1; i <= n; i++ {
				jac[i][j] = (f1[i] - f0[i]) / h
			}
		}
	}
}
