// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qualrouter implements the top-level water-quality transport
// loop of spec §4.10: the Idle→Opened→Initialized→Stepping→Finalized
// state machine, segment advection, topological node traversal, WQ
// source injection, tank-mixing dispatch, flow-reversal handling, and
// mass-balance tallies, wiring together chem.Engine, dispersion.System,
// tankmix.Mix and segment.Pool.
package qualrouter

import (
	"github.com/cpmech/msx/chem"
	"github.com/cpmech/msx/dispersion"
	"github.com/cpmech/msx/errcode"
	"github.com/cpmech/msx/massbalance"
	"github.com/cpmech/msx/network"
	"github.com/cpmech/msx/segment"
	"github.com/cpmech/msx/tankmix"
)

// State is QualRouter's lifecycle state (spec §4.10).
type State int

const (
	Idle State = iota
	Opened
	Initialized
	Stepping
	Finalized
)

// Router is one simulation's QualRouter instance (spec §9 "one owned
// project context"); it holds no package-level state, so multiple
// Routers may coexist.
type Router struct {
	Nodes    []*network.Node
	Links    []*network.Link
	Tanks    []*network.Tank
	Patterns []*network.Pattern

	ParamDefaults     []float64
	Constants         []float64
	NumSpecies        int
	Pool              *segment.Pool
	Engine            *chem.Engine
	Disp              *dispersion.System // nil disables dispersion entirely
	Hyd               HydSource
	AreaUCF           float64
	LitersPerFt3      float64
	QStagnant         float64
	PatternStepSec    float64
	MergeTol          float64
	RelativeViscosity float64

	// QstepMS/RstepMS are the quality and reporting step sizes, held in
	// milliseconds per spec §4.10's "Qstep... held in milliseconds".
	QstepMS int64
	RstepMS int64

	// OnReport is invoked with the elapsed simulation time (seconds)
	// whenever Qtime reaches the next reporting time; wired to
	// outfile.Writer.SaveResults by the driver. May be left nil.
	OnReport func(tSeconds float64) error

	Mass *massbalance.Tracker

	state State
	Done  bool

	Qtime, Htime, Rtime int64 // milliseconds

	order         []int // node indices in topological order
	needsTopology bool

	vin, vout    []float64
	massin       [][]float64
	paramScratch []float64
}

// Open allocates per-node/per-link/per-tank buffers, wires the chem
// engine/dispersion system/hydraulic source, and verifies the engine
// was classified for exactly nSpecies species (spec §4.10 "open()").
func Open(nodes []*network.Node, links []*network.Link, tanks []*network.Tank, patterns []*network.Pattern,
	paramDefaults, constants []float64, nSpecies int,
	pool *segment.Pool, engine *chem.Engine, disp *dispersion.System, hyd HydSource,
	areaUCF, litersPerFt3, qStagnantCFS, patternStepSec, mergeTol, relativeViscosity float64) (*Router, error) {

	if len(engine.Species) != nSpecies {
		return nil, errcode.ErrTooFewExprs
	}

	r := &Router{
		Nodes: nodes, Links: links, Tanks: tanks, Patterns: patterns,
		ParamDefaults: paramDefaults, Constants: constants, NumSpecies: nSpecies,
		Pool: pool, Engine: engine, Disp: disp, Hyd: hyd,
		AreaUCF: areaUCF, LitersPerFt3: litersPerFt3, QStagnant: qStagnantCFS,
		PatternStepSec: patternStepSec, MergeTol: mergeTol, RelativeViscosity: relativeViscosity,
		QstepMS: 300000, RstepMS: 3600000,
		Mass: massbalance.NewTracker(nSpecies),
	}
	r.vin = make([]float64, len(nodes))
	r.vout = make([]float64, len(nodes))
	r.massin = make([][]float64, len(nodes))
	for i := range r.massin {
		r.massin[i] = make([]float64, nSpecies)
	}
	r.paramScratch = make([]float64, len(paramDefaults))
	r.state = Opened
	return r, nil
}

// State reports the router's current lifecycle state.
func (r *Router) State() State { return r.state }

func (r *Router) resolveParams(overrides map[int]float64) []float64 {
	copy(r.paramScratch, r.ParamDefaults)
	for idx, v := range overrides {
		if idx >= 0 && idx < len(r.paramScratch) {
			r.paramScratch[idx] = v
		}
	}
	return r.paramScratch
}

// Init copies initial concentrations into working buffers, resets
// pattern cursors and mass-balance accumulators, and computes the
// initial stored mass (spec §4.10 "init(saveFlag)"). saveFlag is
// accepted for interface parity with the original operation; output
// snapshotting is driven by OnReport regardless.
func (r *Router) Init(saveFlag bool) error {
	if r.state < Opened {
		return errcode.ErrNotOpened
	}
	_ = saveFlag
	for _, n := range r.Nodes {
		copy(n.C, n.C0)
	}
	for _, l := range r.Links {
		for h := l.Segs.Head; h != 0; h = r.Pool.Next(h) {
			copy(r.Pool.Get(h).C, l.C0)
		}
		for i := range l.Reacted {
			l.Reacted[i] = 0
		}
	}
	for _, tk := range r.Tanks {
		copy(tk.C, r.Nodes[tk.NodeIndex].C0)
		for i := range tk.Reacted {
			tk.Reacted[i] = 0
		}
	}
	for _, p := range r.Patterns {
		p.ResetCursor()
	}
	r.Mass.Reset()
	for sp := 0; sp < r.NumSpecies; sp++ {
		r.Mass.Species[sp].Initial = r.storedMass(sp)
	}
	r.Qtime, r.Htime, r.Rtime = 0, 0, 0
	r.needsTopology = true
	r.Done = false
	r.state = Initialized
	return nil
}

// storedMass sums species sp's mass across every pipe segment and every
// non-reservoir tank, in project mass units (spec §8's initial/final
// stored-mass terms). Reservoirs are a fixed external boundary, not
// tracked stored mass — their contribution shows up in Inflow/Outflow
// instead (see traverseNode).
func (r *Router) storedMass(sp int) float64 {
	total := 0.0
	for _, l := range r.Links {
		for h := l.Segs.Head; h != 0; h = r.Pool.Next(h) {
			seg := r.Pool.Get(h)
			total += seg.Volume * seg.C[sp] * r.LitersPerFt3
		}
	}
	for _, tk := range r.Tanks {
		if tk.IsReservoir() {
			continue
		}
		total += tk.V * tk.C[sp] * r.LitersPerFt3
	}
	return total
}

// Finalize computes the final stored mass and the net reacted mass
// (summed from every link's and non-reservoir tank's accumulator) for
// every species, completing the mass-balance tallies spec §4.10
// describes under "Mass balance".
func (r *Router) Finalize() {
	for sp := 0; sp < r.NumSpecies; sp++ {
		r.Mass.Species[sp].Final = r.storedMass(sp)
		reacted := 0.0
		for _, l := range r.Links {
			reacted += l.Reacted[sp]
		}
		for _, tk := range r.Tanks {
			if tk.IsReservoir() {
				continue
			}
			reacted += tk.Reacted[sp]
		}
		r.Mass.Species[sp].Reacted = reacted
	}
	r.state = Finalized
}

// Step advances the simulation by one quality time step (spec §4.10
// "step() → (t, tleft)"), returning the elapsed simulation time and the
// time remaining until the next hydraulic event, both in seconds. When
// the hydraulic trace is exhausted, Done is set and Step becomes a
// no-op returning the same (t, 0).
func (r *Router) Step() (t, tleft float64, code errcode.Code) {
	if r.state != Initialized && r.state != Stepping {
		return 0, 0, errcode.ErrNotInitialized
	}
	if r.Done {
		return float64(r.Qtime) / 1000, 0, errcode.Success
	}
	r.state = Stepping

	if r.Qtime >= r.Htime {
		ev, ok, err := r.Hyd.Next()
		if err != nil {
			return float64(r.Qtime) / 1000, 0, errcode.ErrOpenHydFile
		}
		if !ok {
			r.Done = true
			return float64(r.Qtime) / 1000, 0, errcode.Success
		}
		reversed, err := r.applyHydEvent(ev)
		if err != nil {
			return float64(r.Qtime) / 1000, 0, errcode.ErrUnknownObject
		}
		if reversed || r.needsTopology {
			if err := r.rebuildTopology(); err != nil {
				return float64(r.Qtime) / 1000, 0, errcode.ErrUnknownObject
			}
			r.needsTopology = false
		}
		r.Htime = int64(ev.TimeSec)*1000 + int64(ev.TimeStepSec)*1000
	}

	dtMS := r.QstepMS
	if remain := r.Htime - r.Qtime; remain > 0 && remain < dtMS {
		dtMS = remain
	}
	if dtMS <= 0 {
		dtMS = r.QstepMS
	}
	dt := float64(dtMS) / 1000.0

	worst := r.reactAll(dt)
	r.traverseNodes(dt)

	if r.Disp != nil {
		for sp := 0; sp < r.NumSpecies; sp++ {
			mass, dcode := r.Disp.Step(sp, dt)
			r.Mass.Species[sp].Dispersed += mass
			if dcode != errcode.Success && worst == errcode.Success {
				worst = dcode
			}
		}
	}

	r.Qtime += dtMS
	if r.Qtime >= r.Rtime {
		if r.OnReport != nil {
			if err := r.OnReport(float64(r.Qtime) / 1000); err != nil {
				return float64(r.Qtime) / 1000, 0, errcode.ErrOpenOutFile
			}
		}
		r.Rtime += r.RstepMS
	}

	tleftSec := float64(r.Htime-r.Qtime) / 1000
	if tleftSec < 0 {
		tleftSec = 0
	}
	return float64(r.Qtime) / 1000, tleftSec, worst
}

// applyHydEvent installs a new hydraulic snapshot: per-node demand,
// per-link flow/direction/hydraulic variables, reversing any link's
// segment list whose flow direction flips sign. Returns whether any
// link's direction changed (triggering a topology rebuild).
func (r *Router) applyHydEvent(ev HydEvent) (bool, error) {
	changed := false
	for i, n := range r.Nodes {
		if i < len(ev.Demand) {
			n.Demand = ev.Demand[i]
		}
	}
	for k, l := range r.Links {
		q := 0.0
		if k < len(ev.Flow) {
			q = ev.Flow[k]
		}
		newDir := network.ClassifyFlow(q, r.QStagnant)
		if (l.Dir == network.Positive && newDir == network.Negative) ||
			(l.Dir == network.Negative && newDir == network.Positive) {
			r.Pool.ReverseSegs(&l.Segs)
			changed = true
		} else if newDir != l.Dir {
			changed = true
		}
		l.Dir = newDir
		var h1, h2 float64
		if l.N1 < len(ev.Head) {
			h1 = ev.Head[l.N1]
		}
		if l.N2 < len(ev.Head) {
			h2 = ev.Head[l.N2]
		}
		l.Hyd = evalHydVariables(l, h1, h2, q, r.RelativeViscosity)
	}
	return changed, nil
}

func (r *Router) rebuildTopology() error {
	g, err := buildFlowGraph(r.Nodes, r.Links)
	if err != nil {
		return err
	}
	order, err := topologicalOrder(g, r.Nodes)
	if err != nil {
		return err
	}
	r.order = order
	return nil
}

func upstreamDownstream(l *network.Link) (up, down int) {
	if l.Dir == network.Negative {
		return l.N2, l.N1
	}
	return l.N1, l.N2
}
