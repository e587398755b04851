// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package massbalance implements the per-species mass-balance
// accumulators and final ratio computation of spec §4.10/§8: initial,
// inflow, outflow, reacted, dispersed, and final stored mass, reduced
// to the single closure ratio the report's mass-balance block prints.
package massbalance

// Accumulator holds one species' running mass tallies across a
// simulation, in the project's native mass units (already folded
// through litersPerFt3 by the caller).
type Accumulator struct {
	Initial   float64 // mass present in all segments/tanks at Init
	Inflow    float64 // mass entering via source injection and external demand
	Outflow   float64 // mass leaving via node demand/outflow
	Reacted   float64 // net reaction mass change (+gain, -loss)
	Dispersed float64 // net mass moved in by Dispersion.Step
	Final     float64 // mass present in all segments/tanks at Finalize
}

// Ratio computes spec §4.10's closure ratio:
//
//	(outflow + reacted_if_loss + final) / (initial + inflow + dispersed + reacted_if_gain)
//
// A perfectly closed balance yields 1; deviation measures the
// simulation's numerical mass-conservation error (spec §8's
// closed-network property). Returns 0 if the denominator is 0 (no
// mass ever present).
func (a Accumulator) Ratio() float64 {
	num := a.Outflow + a.Final
	den := a.Initial + a.Inflow + a.Dispersed
	if a.Reacted < 0 {
		num += -a.Reacted
	} else {
		den += a.Reacted
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Tracker holds one Accumulator per species, indexed by species index.
type Tracker struct {
	Species []Accumulator
}

// NewTracker allocates a Tracker for nSpecies species.
func NewTracker(nSpecies int) *Tracker {
	return &Tracker{Species: make([]Accumulator, nSpecies)}
}

// Reset zeroes every accumulator, called from QualRouter.Init.
func (t *Tracker) Reset() {
	for i := range t.Species {
		t.Species[i] = Accumulator{}
	}
}
