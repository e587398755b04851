// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dispersion implements per-pipe longitudinal dispersion (spec
// §4.9): a Green's-function tridiagonal response per pipe, assembled
// into a symmetric nodal system solved via sparsechol, written back
// into node and segment concentrations.
package dispersion

import (
	"math"

	"github.com/cpmech/msx/network"
)

// DefaultPecletLimit is the PECLET [OPTIONS] default (spec §6).
const DefaultPecletLimit = 1000.0

// Length computes the effective longitudinal dispersion coefficient ℓ
// for one pipe and one species' molecular diffusivity d0, given the
// pipe's already-evaluated hydraulic variables (hyd.Re and hyd.Us are
// expected to already reflect this hydraulic event, per
// evalHydVariables in spec §4.10). A negative d0 requests a fixed
// dispersion coefficient ℓ = -d0, bypassing the Reynolds-based formula.
// ok reports whether the resulting Peclet number L·v/ℓ stays below
// pecletLimit; dispersion on the pipe is skipped when ok is false. At zero
// velocity ℓ reduces to d0 (or -d0) and the Peclet number is 0, so ok is true.
func Length(hyd network.HydVars, d0, pecletLimit float64) (ell float64, ok bool) {
	if hyd.D <= 0 || hyd.Len <= 0 {
		return 0, false
	}
	switch {
	case d0 < 0:
		ell = -d0
	case hyd.Re > 2300:
		ell = 0.5 * hyd.D * hyd.Us * (10.1 + 577*math.Pow(hyd.Re/1000.0, -2.2))
	default:
		elpt := hyd.Len / hyd.U
		tau := 16.0 * d0 * elpt / (0.25 * hyd.D * hyd.D)
		taylorTerm := 0.0
		if tau != 0 {
			taylorTerm = 1 - (1-math.Exp(-tau))/tau
		}
		ell = square(0.5*hyd.D*hyd.U)/(48*d0)*taylorTerm + d0
	}
	if ell <= 0 {
		return 0, false
	}
	peclet := hyd.Len * hyd.U / ell
	if pecletLimit <= 0 {
		pecletLimit = DefaultPecletLimit
	}
	return ell, peclet < pecletLimit
}

func square(x float64) float64 { return x * x }
