// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qualrouter

import (
	"math"

	"github.com/cpmech/msx/network"
	"github.com/cpmech/msx/segment"
	"github.com/cpmech/msx/tankmix"
)

// traverseNodes walks every node in topological order, accumulating
// inflow, computing the node's new concentration (junction mixing,
// reservoir clamp, or TankMixer dispatch), applying WQ sources, and
// releasing a new upstream segment on every outgoing link — spec
// §4.10's "Topological node traversal" and "Segment advection" folded
// into a single pass (the advected inflow and the released outflow
// segment are two ends of the same consume/produce operation).
func (r *Router) traverseNodes(dt float64) {
	for _, ni := range r.order {
		r.traverseNode(ni, dt)
	}
}

func (r *Router) traverseNode(ni int, dt float64) {
	n := r.Nodes[ni]
	vin := 0.0
	massin := r.massin[ni]
	for i := range massin {
		massin[i] = 0
	}

	for _, li := range n.Incident {
		l := r.Links[li]
		if l.Dir == network.Zero {
			continue
		}
		_, down := upstreamDownstream(l)
		if down != ni {
			continue
		}
		vol := math.Abs(l.Hyd.Q) * dt
		vin += consumeInflow(r.Pool, &l.Segs, vol, massin)
	}

	vout := 0.0
	if n.Demand > 0 {
		vout += n.Demand * dt
	} else if n.Demand < 0 {
		vin += -n.Demand * dt // dilution: volume with zero carried mass
	}
	for _, li := range n.Incident {
		l := r.Links[li]
		if l.Dir == network.Zero {
			continue
		}
		up, _ := upstreamDownstream(l)
		if up == ni {
			vout += math.Abs(l.Hyd.Q) * dt
		}
	}

	if n.TankIndex != -1 {
		r.mixTank(n, vin, massin, vout)
	} else {
		r.mixJunction(n, vin, massin)
	}

	r.applySources(n, vin, vout, dt)

	for _, li := range n.Incident {
		l := r.Links[li]
		if l.Dir == network.Zero {
			continue
		}
		up, _ := upstreamDownstream(l)
		if up != ni {
			continue
		}
		vrelease := math.Abs(l.Hyd.Q) * dt
		releaseSegment(r.Pool, &l.Segs, vrelease, n.C, r.MergeTol)
	}
}

func (r *Router) mixTank(n *network.Node, vin float64, massin []float64, vout float64) {
	tk := r.Tanks[n.TankIndex]
	if tk.IsReservoir() {
		copy(n.C, tk.C)
		for sp := range massin {
			r.Mass.Species[sp].Outflow += massin[sp] * r.LitersPerFt3
			r.Mass.Species[sp].Inflow += vout * n.C[sp] * r.LitersPerFt3
		}
		return
	}
	vnet := vin - vout
	tankmix.Mix(r.Pool, tk, tk.Mixing, vin, massin, vnet, r.LitersPerFt3, r.MergeTol)
	copy(n.C, tk.C)
	params := r.resolveParams(tk.ParamOverride)
	r.Engine.EquilibriumAt(n.C, network.HydVars{}, params, r.Constants)
	copy(tk.C, n.C)
}

func (r *Router) mixJunction(n *network.Node, vin float64, massin []float64) {
	if vin > 0 {
		for sp := range n.C {
			n.C[sp] = massin[sp] / (vin * r.LitersPerFt3)
		}
	} else if avg, ok := r.noFlowAverage(n); ok {
		copy(n.C, avg)
	}
	r.Engine.EquilibriumAt(n.C, network.HydVars{}, r.ParamDefaults, r.Constants)
}

// noFlowAverage implements spec §4.10's no-inflow fallback: average of
// the concentrations in the first (downstream-most) or last
// (upstream-most) segment of each incident link, per that link's
// current flow direction relative to n.
func (r *Router) noFlowAverage(n *network.Node) ([]float64, bool) {
	sum := make([]float64, r.NumSpecies)
	cnt := 0
	for _, li := range n.Incident {
		l := r.Links[li]
		if l.Segs.Empty() {
			continue
		}
		var h segment.Handle
		nIsN1 := l.N1 == n.Index
		switch l.Dir {
		case network.Positive:
			if nIsN1 {
				h = l.Segs.Tail
			} else {
				h = l.Segs.Head
			}
		case network.Negative:
			if nIsN1 {
				h = l.Segs.Head
			} else {
				h = l.Segs.Tail
			}
		default:
			if nIsN1 {
				h = l.Segs.Head
			} else {
				h = l.Segs.Tail
			}
		}
		seg := r.Pool.Get(h)
		for sp := range sum {
			sum[sp] += seg.C[sp]
		}
		cnt++
	}
	if cnt == 0 {
		return nil, false
	}
	for sp := range sum {
		sum[sp] /= float64(cnt)
	}
	return sum, true
}

// applySources applies every WQ source on n (spec §4.10 "Apply WQ
// sources"), advancing its pattern lazily, blending the mass
// contribution into n.C, and re-solving equilibrium once per source.
func (r *Router) applySources(n *network.Node, vin, vout, dt float64) {
	if len(n.Sources) == 0 {
		return
	}
	patTime := float64(r.Qtime) / 1000
	for _, src := range n.Sources {
		strength := src.BaseStrength
		if src.PatternIndex >= 0 && src.PatternIndex < len(r.Patterns) {
			strength *= r.Patterns[src.PatternIndex].CurrentMultiplier(patTime, r.PatternStepSec)
		}
		sp := src.SpeciesIndex
		if sp < 0 || sp >= len(n.C) {
			continue
		}

		switch src.Type {
		case network.SrcConcen:
			if n.Demand < 0 {
				massAdd := strength * (-n.Demand) * dt
				r.blendMass(n, sp, massAdd, vin)
				r.Mass.Species[sp].Inflow += massAdd
			}
		case network.SrcMass:
			massAdd := (strength / 60.0) * dt
			basis := vin
			if basis <= 0 {
				basis = vout
			}
			r.blendMass(n, sp, massAdd, basis)
			r.Mass.Species[sp].Inflow += massAdd
		case network.SrcSetpoint:
			if strength > n.C[sp] {
				massAdd := (strength - n.C[sp]) * vin * r.LitersPerFt3
				n.C[sp] = strength
				r.Mass.Species[sp].Inflow += massAdd
			}
		case network.SrcFlowPaced:
			massAdd := strength * vout
			basis := vin
			if basis <= 0 {
				basis = vout
			}
			r.blendMass(n, sp, massAdd, basis)
			r.Mass.Species[sp].Inflow += massAdd
		}

		params := r.resolveNodeParams(n)
		r.Engine.EquilibriumAt(n.C, network.HydVars{}, params, r.Constants)
	}
}

// blendMass folds an additional mass contribution massAdd into species
// sp's concentration at n, treating volBasis as the volume of water
// (already reflected in n.C[sp]) that mass is distributed across.
func (r *Router) blendMass(n *network.Node, sp int, massAdd, volBasis float64) {
	if volBasis <= 0 {
		return
	}
	den := volBasis * r.LitersPerFt3
	n.C[sp] = (n.C[sp]*den + massAdd) / den
}

// resolveNodeParams returns the parameter-override array that applies
// at a junction node: a tank's override if n is a tank, else defaults
// (junctions have no per-node parameter overrides in spec §3).
func (r *Router) resolveNodeParams(n *network.Node) []float64 {
	if n.TankIndex != -1 {
		return r.resolveParams(r.Tanks[n.TankIndex].ParamOverride)
	}
	return r.ParamDefaults
}

// consumeInflow walks list from its Head (downstream-most, the end
// flow enters a node from), consuming volume vol and accumulating
// volume*concentration into massin per species. Segments fully consumed
// are retired to the pool's free list; a partially-consumed segment has
// its volume reduced. Returns the volume actually consumed (less than
// vol if the list empties first).
func consumeInflow(pool *segment.Pool, list *segment.List, vol float64, massin []float64) float64 {
	remaining := vol
	consumed := 0.0
	for remaining > 1e-12 && !list.Empty() {
		h := list.Head
		seg := pool.Get(h)
		take := seg.Volume
		if take > remaining {
			take = remaining
		}
		for sp := range massin {
			massin[sp] += seg.C[sp] * take
		}
		consumed += take
		remaining -= take
		if take >= seg.Volume-1e-12 {
			pool.RemoveSeg(list, h)
		} else {
			seg.Volume -= take
		}
	}
	return consumed
}

// releaseSegment prepends a new segment of volume vol and concentration
// c at list's upstream end (Tail), merging by volume-weighted average
// into the current Tail segment if it lies within mergeTol of c (spec
// §4.10 "release a new upstream segment... or merge by volume-weighted
// average").
func releaseSegment(pool *segment.Pool, list *segment.List, vol float64, c []float64, mergeTol float64) {
	if vol <= 0 {
		return
	}
	if !list.Empty() {
		tail := pool.Get(list.Tail)
		if withinTolerance(tail.C, c, mergeTol) {
			newVol := tail.Volume + vol
			for sp := range tail.C {
				tail.C[sp] = (tail.C[sp]*tail.Volume + c[sp]*vol) / newVol
			}
			tail.Volume = newVol
			return
		}
	}
	h := pool.GetFreeSeg(vol, c)
	pool.AddSeg(list, h)
}

func withinTolerance(a, b []float64, tol float64) bool {
	for i := range a {
		denom := math.Abs(a[i])
		if denom < 1e-9 {
			denom = 1e-9
		}
		if math.Abs(a[i]-b[i])/denom > tol {
			return false
		}
	}
	return true
}
