// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chem implements ChemEngine: species classification into
// rate/formula/equilibrium/none per spec §4.6, and per-segment chemistry
// driven by odeint/newton, accumulating reacted mass.
package chem

import (
	"github.com/cpmech/msx/exprlang"
	"github.com/cpmech/msx/network"
)

// EvalContext supplies exprlang.VarGetter semantics for one evaluation:
// current species concentrations (seg or node scratch), term values
// (computed fresh, since terms may reference other terms and species),
// per-object parameter overrides, global constants, and the owning
// link's hydraulic variables. It is thread-local scratch, reused across
// calls (spec §5).
type EvalContext struct {
	Species   []float64 // current concentration per species
	Terms     []float64 // evaluated term values, filled by EvalTerms
	Params    []float64 // resolved parameter value per parameter index
	Constants []float64 // constant value per constant index
	Hyd       network.HydVars
}

// Get implements exprlang.VarGetter.
func (c *EvalContext) Get(kind exprlang.VarKind, index int) float64 {
	switch kind {
	case exprlang.VarSpecies:
		if index >= 0 && index < len(c.Species) {
			return c.Species[index]
		}
	case exprlang.VarTerm:
		if index >= 0 && index < len(c.Terms) {
			return c.Terms[index]
		}
	case exprlang.VarParam:
		if index >= 0 && index < len(c.Params) {
			return c.Params[index]
		}
	case exprlang.VarConst:
		if index >= 0 && index < len(c.Constants) {
			return c.Constants[index]
		}
	case exprlang.VarHyd:
		return hydAt(c.Hyd, index)
	}
	return 0
}

func hydAt(h network.HydVars, index int) float64 {
	switch index {
	case 0:
		return h.D
	case 1:
		return h.Q
	case 2:
		return h.U
	case 3:
		return h.Re
	case 4:
		return h.Us
	case 5:
		return h.Ff
	case 6:
		return h.Av
	case 7:
		return h.Kc
	case 8:
		return h.Len
	default:
		return 0
	}
}

// EvalTerms evaluates every term program into c.Terms, in slice order,
// in a single forward pass: a term sees this pass's values only for the
// terms that precede it. NewEngine keeps terms in the order it is given;
// it neither reorders them nor checks them for cycles.
func (c *EvalContext) EvalTerms(terms []*network.Term, tracker *exprlang.MathErrorTracker) {
	for _, tm := range terms {
		if tm.Prog == nil {
			continue
		}
		c.Terms[tm.Index] = tm.Prog.Prog.Eval(c.Get, tracker, "term "+tm.ID)
	}
}
