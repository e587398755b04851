// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chem

import (
	"github.com/cpmech/msx/errcode"
	"github.com/cpmech/msx/exprlang"
	"github.com/cpmech/msx/mathkit"
	"github.com/cpmech/msx/newton"
	"github.com/cpmech/msx/odeint"
	"github.com/cpmech/msx/segment"
	"github.com/cpmech/msx/network"
)

// RateUnits is the RATE_UNITS [OPTIONS] setting (spec §6).
type RateUnits int

const (
	RateSec RateUnits = iota
	RateMin
	RateHr
	RateDay
)

// SecondsPerUnit converts a duration expressed in u into seconds.
func (u RateUnits) SecondsPerUnit() float64 {
	switch u {
	case RateMin:
		return 60
	case RateHr:
		return 3600
	case RateDay:
		return 86400
	default:
		return 1
	}
}

// Coupling is the COUPLING [OPTIONS] setting.
type Coupling int

const (
	CouplingNone Coupling = iota
	CouplingFull
)

// SolverKind is the SOLVER [OPTIONS] setting.
type SolverKind int

const (
	SolverEuler SolverKind = iota
	SolverRK5
	SolverROS2
)

// Engine is ChemEngine: thread-local scratch plus the compiled species
// table, driving odeint/newton per segment (spec §4.6, §5).
type Engine struct {
	Species []*network.Species
	Terms   []*network.Term
	Class   Classification
	Solver  SolverKind
	Coupling Coupling
	RateU   RateUnits
	MaxIt   int
	NumSig  int

	ctx     *EvalContext
	y, dy   []float64 // dense 1-indexed rate vector, sized to len(rate species)+1
	rateIdx []int      // which species indices (pipe or tank set, set per call)

	dopri  *odeint.DoPri45State
	ros2   *odeint.Rosenbrock2State
	nwtn   *newton.Solver

	k1, k2, k3, k4, k5, k6, k7, ytmp, yerr []float64

	Tracker *exprlang.MathErrorTracker
}

// NewEngine allocates an Engine sized for nParams/nConstants scratch and
// up to maxRate simultaneous rate species (pipe or tank, whichever is
// larger) and maxEquil simultaneous equilibrium unknowns.
func NewEngine(species []*network.Species, terms []*network.Term, nParams, nConstants, maxRate, maxEquil int) *Engine {
	e := &Engine{
		Species: species,
		Terms:   terms,
		Class:   Classify(species),
		MaxIt:   50,
		NumSig:  7,
		RateU:   RateSec,
	}
	e.ctx = &EvalContext{
		Species:   make([]float64, len(species)),
		Terms:     make([]float64, len(terms)),
		Params:    make([]float64, nParams),
		Constants: make([]float64, nConstants),
	}
	e.y = mathkit.NewVector(maxRate)
	e.dy = mathkit.NewVector(maxRate)
	e.k1 = mathkit.NewVector(maxRate)
	e.k2 = mathkit.NewVector(maxRate)
	e.k3 = mathkit.NewVector(maxRate)
	e.k4 = mathkit.NewVector(maxRate)
	e.k5 = mathkit.NewVector(maxRate)
	e.k6 = mathkit.NewVector(maxRate)
	e.k7 = mathkit.NewVector(maxRate)
	e.ytmp = mathkit.NewVector(maxRate)
	e.yerr = mathkit.NewVector(maxRate)
	e.dopri = odeint.NewDoPri45State()
	e.ros2 = odeint.NewRosenbrock2State(maxRate)
	e.nwtn = newton.NewSolver(maxEquil)
	e.Tracker = &exprlang.MathErrorTracker{}
	return e
}

func exprFor(sp *network.Species, isPipe bool) network.Expr {
	if isPipe {
		return sp.Pipe
	}
	if sp.Tank.Kind == network.ExprNone {
		return sp.Pipe
	}
	return sp.Tank
}

func classFor(c Classification, isPipe bool) (rate, equil, formula []int) {
	if isPipe {
		return c.PipeRate, c.PipeEquil, c.PipeFormula
	}
	return c.TankRate, c.TankEquil, c.TankFormula
}

// React runs the six steps of spec §4.6 on one segment's concentration
// vector (seg.C), over dtSeconds of wall-clock time, using the pipe or
// tank expression set according to isPipe. hyd/params/constants must
// already reflect the owning link or tank's current hydraulic variables
// and parameter overrides. Returns an errcode.Code (Success, or a
// WarnXxx if a numeric issue was recorded this call).
func (e *Engine) React(seg *segment.Segment, hyd network.HydVars, params, constants []float64, dtSeconds float64, isPipe bool) errcode.Code {
	copy(seg.Cprev, seg.C)
	copy(e.ctx.Species, seg.C)
	copy(e.ctx.Params, params)
	copy(e.ctx.Constants, constants)
	e.ctx.Hyd = hyd

	rateIdx, equilIdx, formulaIdx := classFor(e.Class, isPipe)
	dtRate := dtSeconds / e.RateU.SecondsPerUnit()

	warn := errcode.Success
	clamped := false

	if len(rateIdx) > 0 {
		e.rateIdx = rateIdx
		n := len(rateIdx)
		for i, idx := range rateIdx {
			e.y[i+1] = e.ctx.Species[idx]
		}
		field := e.makeRateField(isPipe, equilIdx)
		var status int
		switch e.Solver {
		case SolverEuler:
			status = odeint.Euler(0, e.y, n, dtRate, field, e.dy)
		case SolverROS2:
			status = e.ros2.Integrate(0, e.y, n, dtRate, dtRate, e.tolVec(rateIdx, true), e.tolVec(rateIdx, false), field, 0)
		default: // SolverRK5
			status = e.dopri.Integrate(0, e.y, n, dtRate, dtRate, e.tolVec(rateIdx, true), e.tolVec(rateIdx, false), field,
				e.k1, e.k2, e.k3, e.k4, e.k5, e.k6, e.k7, e.ytmp, e.yerr, 0)
		}
		if status < 0 {
			warn = errcode.WarnIntegratorDiverged
			for i := range rateIdx {
				e.y[i+1] = 0
			}
		}
		for i, idx := range rateIdx {
			v := e.y[i+1]
			if v < 0 {
				v = 0
				clamped = true
			}
			e.ctx.Species[idx] = v
		}
	}

	if len(equilIdx) > 0 {
		if !e.solveEquilibrium(equilIdx, isPipe) {
			warn = errcode.WarnSingularJacobian
		}
	}

	for _, idx := range formulaIdx {
		sp := e.Species[idx]
		ex := exprFor(sp, isPipe)
		if ex.Prog == nil {
			continue
		}
		e.ctx.EvalTerms(e.Terms, e.Tracker)
		v := ex.Prog.Prog.Eval(e.ctx.Get, e.Tracker, "species "+sp.ID)
		if v < 0 {
			v = 0
			clamped = true
		}
		e.ctx.Species[idx] = v
	}

	for i := range e.ctx.Species {
		if e.ctx.Species[i] < 0 {
			e.ctx.Species[i] = 0
			clamped = true
		}
	}
	copy(seg.C, e.ctx.Species)

	if (clamped || e.Tracker.Message != "") && warn == errcode.Success {
		warn = errcode.WarnMathError
	}
	return warn
}

// EquilibriumAt re-solves the pipe-kind equilibrium species directly
// against a node's concentration vector c (mutated in place), used by
// QualRouter after mixing/source injection at a junction rather than
// after a full React call on a segment (spec §4.10 "call the
// equilibrium evaluator" / "re-solve equilibrium at the node").
func (e *Engine) EquilibriumAt(c []float64, hyd network.HydVars, params, constants []float64) errcode.Code {
	if len(e.Class.PipeEquil) == 0 {
		return errcode.Success
	}
	copy(e.ctx.Species, c)
	copy(e.ctx.Params, params)
	copy(e.ctx.Constants, constants)
	e.ctx.Hyd = hyd
	e.ctx.EvalTerms(e.Terms, e.Tracker)
	if !e.solveEquilibrium(e.Class.PipeEquil, true) {
		copy(c, e.ctx.Species)
		return errcode.WarnSingularJacobian
	}
	copy(c, e.ctx.Species)
	return errcode.Success
}

// makeRateField builds the ODE field callback for the current rate
// species set. In FULL_COUPLING mode it first re-solves the equilibrium
// species against the trial rate concentrations and aborts to a
// zero-derivative if that equilibrium solve fails (spec §4.6 step 2).
func (e *Engine) makeRateField(isPipe bool, equilIdx []int) odeint.Func {
	return func(t float64, y []float64, n int, dy []float64) {
		for i, idx := range e.rateIdx {
			e.ctx.Species[idx] = y[i+1]
		}
		e.ctx.EvalTerms(e.Terms, e.Tracker)
		if e.Coupling == CouplingFull && len(equilIdx) > 0 {
			if !e.solveEquilibrium(equilIdx, isPipe) {
				for i := 1; i <= n; i++ {
					dy[i] = 0
				}
				return
			}
		}
		for i, idx := range e.rateIdx {
			sp := e.Species[idx]
			ex := exprFor(sp, isPipe)
			if ex.Prog == nil {
				dy[i+1] = 0
				continue
			}
			dy[i+1] = ex.Prog.Prog.Eval(e.ctx.Get, e.Tracker, "species "+sp.ID)
		}
	}
}

// solveEquilibrium runs NewtonSolver against the equilibrium expressions
// for equilIdx, mutating e.ctx.Species for those indices in place. isPipe
// selects the pipe or tank expression of each species.
func (e *Engine) solveEquilibrium(equilIdx []int, isPipe bool) bool {
	n := len(equilIdx)
	x := mathkit.NewVector(n)
	for i, idx := range equilIdx {
		x[i+1] = e.ctx.Species[idx]
	}
	field := func(xx, out []float64) {
		for i, idx := range equilIdx {
			e.ctx.Species[idx] = xx[i+1]
		}
		e.ctx.EvalTerms(e.Terms, e.Tracker)
		for i, idx := range equilIdx {
			sp := e.Species[idx]
			ex := exprFor(sp, isPipe)
			out[i+1] = ex.Prog.Prog.Eval(e.ctx.Get, e.Tracker, "equilibrium "+sp.ID)
		}
	}
	iters := e.nwtn.Solve(x, n, field, e.MaxIt, e.NumSig)
	if iters < 0 {
		return false
	}
	for i, idx := range equilIdx {
		e.ctx.Species[idx] = x[i+1]
	}
	return true
}

func (e *Engine) tolVec(idx []int, abs bool) []float64 {
	v := mathkit.NewVector(len(idx))
	for i, si := range idx {
		sp := e.Species[si]
		if abs {
			v[i+1] = sp.ATol
		} else {
			v[i+1] = sp.RTol
		}
	}
	return v
}

// AccumulateReacted updates a pipe link's per-species reacted-mass
// accumulator after React has run, per spec §4.6 step 6: Bulk species
// accrue v*Δc*(L/ft3); Wall species on a nonzero-diameter pipe accrue
// v*(4/diam)*areaUcf*Δc.
func AccumulateReacted(species []*network.Species, link *network.Link, seg *segment.Segment, litersPerFt3, areaUcf float64) {
	for _, sp := range species {
		dc := seg.C[sp.Index] - seg.Cprev[sp.Index]
		switch sp.Kind {
		case network.Bulk:
			link.Reacted[sp.Index] += seg.Volume * dc * litersPerFt3
		case network.Wall:
			if link.Diameter > 0 {
				link.Reacted[sp.Index] += seg.Volume * (4.0 / link.Diameter) * areaUcf * dc
			}
		}
	}
}
