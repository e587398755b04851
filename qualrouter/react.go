// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qualrouter

import (
	"github.com/cpmech/msx/chem"
	"github.com/cpmech/msx/errcode"
	"github.com/cpmech/msx/network"
	"github.com/cpmech/msx/segment"
)

// reactAll runs ChemEngine over every pipe segment and every
// non-reservoir tank's mixing/stagnant-zone segments for dt seconds
// (spec §2 "calls ChemEngine on each segment" and §4.6), accumulating
// per-link reacted mass via chem.AccumulateReacted and per-tank reacted
// mass directly (tanks carry no wall species). Returns the first
// non-Success code encountered, if any.
func (r *Router) reactAll(dt float64) errcode.Code {
	worst := errcode.Success
	note := func(c errcode.Code) {
		if c != errcode.Success && worst == errcode.Success {
			worst = c
		}
	}

	for _, l := range r.Links {
		params := r.resolveParams(l.ParamOverride)
		for h := l.Segs.Head; h != 0; h = r.Pool.Next(h) {
			seg := r.Pool.Get(h)
			note(r.Engine.React(seg, l.Hyd, params, r.Constants, dt, true))
			chem.AccumulateReacted(r.Engine.Species, l, seg, r.LitersPerFt3, r.AreaUCF)
		}
	}

	for _, tk := range r.Tanks {
		if tk.IsReservoir() {
			continue
		}
		params := r.resolveParams(tk.ParamOverride)
		for _, list := range [...]*segment.List{&tk.MixSegs, &tk.StagSegs} {
			for h := list.Head; h != 0; h = r.Pool.Next(h) {
				seg := r.Pool.Get(h)
				note(r.Engine.React(seg, network.HydVars{}, params, r.Constants, dt, false))
				for _, sp := range r.Engine.Species {
					if sp.Kind != network.Bulk {
						continue
					}
					dc := seg.C[sp.Index] - seg.Cprev[sp.Index]
					tk.Reacted[sp.Index] += seg.Volume * dc * r.LitersPerFt3
				}
			}
		}
		if !tk.MixSegs.Empty() {
			copy(tk.C, r.Pool.Get(tk.MixSegs.Tail).C)
		}
	}
	return worst
}
