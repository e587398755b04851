// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tankmix implements the four tank mixing models of spec §4.7:
// complete mix, two-compartment, FIFO, and LIFO, all operating on the
// same segment.Pool the pipe network uses.
package tankmix

import (
	"errors"

	"github.com/cpmech/msx/network"
	"github.com/cpmech/msx/segment"
)

// ErrUndefinedLIFODrain reports the open question documented in spec §9:
// the LIFO model's behavior when vnet < 0 and the inflow-plus-tank
// volume is exactly zero is undefined in the original source. Rather
// than guess, Mix returns this error and leaves the tank unchanged.
var ErrUndefinedLIFODrain = errors.New("tankmix: LIFO drain with vnet<0 and vin+vt==0 is undefined behavior")

// Mix applies model to tank using pool-owned segment lists, given the
// inflow volume vIn, per-species inflow mass massIn, the net volume
// change vNet (inflow minus outflow), and litersPerFt3 (the "L" unit
// factor spec's Mix1/Mix2 formulas use to convert volume*concentration
// into mass-consistent units). mergeTol is the relative concentration
// tolerance for merging a new segment into the last one instead of
// prepending a distinct segment.
func Mix(pool *segment.Pool, tank *network.Tank, model network.MixModel, vIn float64, massIn []float64, vNet, litersPerFt3, mergeTol float64) error {
	switch model {
	case network.Mix1:
		mix1(pool, tank, vIn, massIn, vNet, litersPerFt3)
	case network.Mix2:
		mix2(pool, tank, vIn, massIn, vNet, litersPerFt3)
	case network.FIFO:
		fifo(pool, tank, vIn, massIn, vNet, mergeTol)
	case network.LIFO:
		return lifo(pool, tank, vIn, massIn, vNet, mergeTol)
	}
	return nil
}

func ensureSingleSeg(pool *segment.Pool, list *segment.List, v float64, c []float64) *segment.Segment {
	if list.Empty() {
		h := pool.GetFreeSeg(v, c)
		pool.AddSeg(list, h)
	}
	return pool.Get(list.Head)
}

// mix1 implements complete-mix: new c = (c*v*L + massIn)/((v+vIn)*L); v += vNet.
func mix1(pool *segment.Pool, tank *network.Tank, vIn float64, massIn []float64, vNet, litersPerFt3 float64) {
	seg := ensureSingleSeg(pool, &tank.MixSegs, tank.V, tank.C)
	for m := range tank.C {
		num := seg.C[m]*tank.V*litersPerFt3 + massIn[m]
		den := (tank.V + vIn) * litersPerFt3
		if den == 0 {
			continue
		}
		seg.C[m] = num / den
	}
	tank.V += vNet
	seg.Volume = tank.V
	copy(tank.C, seg.C)
}

// mix2 implements the two-compartment model: a mixing-zone segment that
// dilutes with inflow, spilling excess beyond MixZoneVolume into the
// stagnant zone (filling) or drawing back from it (draining), preserving
// mass in both directions, per spec §4.7 and original_source/msxtank.c.
func mix2(pool *segment.Pool, tank *network.Tank, vIn float64, massIn []float64, vNet, litersPerFt3 float64) {
	mixSeg := ensureSingleSeg(pool, &tank.MixSegs, tank.MixZoneVolume, tank.C)
	stagSeg := ensureSingleSeg(pool, &tank.StagSegs, 0, tank.C)

	for m := range tank.C {
		den := (mixSeg.Volume + vIn) * litersPerFt3
		if den != 0 {
			mixSeg.C[m] = (mixSeg.C[m]*mixSeg.Volume*litersPerFt3 + massIn[m]) / den
		}
	}
	mixSeg.Volume += vIn

	if mixSeg.Volume > tank.MixZoneVolume {
		excess := mixSeg.Volume - tank.MixZoneVolume
		for m := range tank.C {
			den := stagSeg.Volume + excess
			if den != 0 {
				stagSeg.C[m] = (stagSeg.C[m]*stagSeg.Volume + mixSeg.C[m]*excess) / den
			}
		}
		stagSeg.Volume += excess
		mixSeg.Volume = tank.MixZoneVolume
	}

	outflow := vIn - vNet
	need := outflow
	if need > 0 {
		transfer := need
		if transfer > stagSeg.Volume {
			transfer = stagSeg.Volume
		}
		if transfer > 0 {
			for m := range tank.C {
				den := mixSeg.Volume + transfer
				if den != 0 {
					mixSeg.C[m] = (mixSeg.C[m]*mixSeg.Volume + stagSeg.C[m]*transfer) / den
				}
			}
			mixSeg.Volume += transfer
			stagSeg.Volume -= transfer
		}
		mixSeg.Volume -= need
		if mixSeg.Volume < 0 {
			mixSeg.Volume = 0
		}
	}

	tank.V = mixSeg.Volume + stagSeg.Volume
	copy(tank.C, mixSeg.C)
}

// fifo consumes outflow from the downstream end (List.Head) and appends
// inflow at the upstream end (List.Tail), merging into the last segment
// when its concentration matches within mergeTol.
func fifo(pool *segment.Pool, tank *network.Tank, vIn float64, massIn []float64, vNet, mergeTol float64) {
	list := &tank.MixSegs
	outflow := vIn - vNet
	if outflow > 0 {
		consumeFromEnd(pool, list, outflow, true)
	}
	appendInflow(pool, list, vIn, massIn, mergeTol, true)
	tank.V += vNet
	if !list.Empty() {
		copy(tank.C, pool.Get(list.Tail).C)
	}
}

// lifo consumes outflow from the upstream end (List.Tail, the most
// recently added water) and appends inflow at the same end.
func lifo(pool *segment.Pool, tank *network.Tank, vIn float64, massIn []float64, vNet, mergeTol float64) error {
	list := &tank.MixSegs
	outflow := vIn - vNet
	if vNet < 0 && vIn+tank.V == 0 {
		return ErrUndefinedLIFODrain
	}
	if outflow > 0 {
		consumeFromEnd(pool, list, outflow, false)
	}
	appendInflow(pool, list, vIn, massIn, mergeTol, false)
	tank.V += vNet
	if !list.Empty() {
		copy(tank.C, pool.Get(list.Tail).C)
	}
	return nil
}

// consumeFromEnd removes vol of water from list, starting at its Head
// (fromHead=true) or Tail (fromHead=false), fully retiring exhausted
// segments and trimming a partially-consumed one.
func consumeFromEnd(pool *segment.Pool, list *segment.List, vol float64, fromHead bool) {
	remaining := vol
	for remaining > 0 && !list.Empty() {
		var h segment.Handle
		if fromHead {
			h = list.Head
		} else {
			h = list.Tail
		}
		seg := pool.Get(h)
		if seg.Volume <= remaining {
			remaining -= seg.Volume
			pool.RemoveSeg(list, h)
		} else {
			seg.Volume -= remaining
			remaining = 0
		}
	}
}

// appendInflow pushes vIn/massIn onto list's upstream end (Tail),
// merging by volume-weighted average into the current Tail segment if
// its concentration is within mergeTol of the inflow concentration.
func appendInflow(pool *segment.Pool, list *segment.List, vIn float64, massIn []float64, mergeTol float64, _ bool) {
	if vIn <= 0 {
		return
	}
	c := make([]float64, len(massIn))
	for m := range c {
		c[m] = massIn[m] / vIn
	}
	if !list.Empty() {
		tail := pool.Get(list.Tail)
		if withinTolerance(tail.C, c, mergeTol) {
			newVol := tail.Volume + vIn
			for m := range tail.C {
				tail.C[m] = (tail.C[m]*tail.Volume + c[m]*vIn) / newVol
			}
			tail.Volume = newVol
			return
		}
	}
	h := pool.GetFreeSeg(vIn, c)
	pool.AddSeg(list, h)
}

func withinTolerance(a, b []float64, tol float64) bool {
	for i := range a {
		denom := a[i]
		if denom == 0 {
			denom = 1
		}
		if absf((a[i]-b[i])/denom) > tol {
			return false
		}
	}
	return true
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
