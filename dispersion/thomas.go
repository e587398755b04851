// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dispersion

// Thomas solves the tridiagonal system with sub-diagonal a, diagonal b,
// super-diagonal c, and right-hand side r, all 0-indexed length n, and
// writes the solution into y (which may alias r). a[0] and c[n-1] are
// ignored. gam is scratch of length n, reused by the caller across
// repeated calls to avoid per-call allocation (spec §5 thread-local
// dispersion work buffers al/bl/cl/rl/sol/gam).
func Thomas(n int, a, b, c, r, y, gam []float64) {
	bet := b[0]
	y[0] = r[0] / bet
	for j := 1; j < n; j++ {
		gam[j] = c[j-1] / bet
		bet = b[j] - a[j]*gam[j]
		y[j] = (r[j] - a[j]*y[j-1]) / bet
	}
	for j := n - 2; j >= 0; j-- {
		y[j] -= gam[j+1] * y[j+1]
	}
}
