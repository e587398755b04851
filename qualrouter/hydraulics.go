// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qualrouter

import (
	"math"

	"github.com/cpmech/msx/network"
)

// evalHydVariables computes one pipe's hydraulic-variable bundle (spec
// §4.1 GLOSSARY, §4.9 step 1) from its current flow q and the head at
// each endpoint, following the head-loss-derived friction factor the
// dispersion coefficient formula needs: v = q/area, Re = v·D/ν with
// ν = relativeViscosity·1.1e-5, f = 39.725·|Δh|·D⁵/(L·Q²),
// u* = v·√(f/8), area/volume ratio Av = 4/D.
func evalHydVariables(l *network.Link, head1, head2, q, relativeViscosity float64) network.HydVars {
	area := 0.785398 * l.Diameter * l.Diameter
	var v float64
	if area > 0 {
		v = q / area
	}
	nu := relativeViscosity * 1.1e-5
	var re float64
	if nu > 0 {
		re = math.Abs(v) * l.Diameter / nu
	}
	var f, us float64
	if l.Length > 0 && q != 0 {
		dh := head1 - head2
		f = 39.725 * math.Abs(dh) * math.Pow(l.Diameter, 5) / (l.Length * q * q)
		if f > 0 {
			us = math.Abs(v) * math.Sqrt(f/8)
		}
	}
	var av float64
	if l.Diameter > 0 {
		av = 4.0 / l.Diameter
	}
	return network.HydVars{D: l.Diameter, Q: q, U: v, Re: re, Us: us, Ff: f, Av: av, Kc: l.Roughness, Len: l.Length}
}
