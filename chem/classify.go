// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chem

import "github.com/cpmech/msx/network"

// Classification holds the four disjoint species-index sets for pipes
// and for tanks, computed once in NewEngine and reused every step
// (spec §4.6, confirmed against original_source/EPANET-MSX/Src/msxchem.c
// which caches this at ChemOpen rather than recomputing it per step).
type Classification struct {
	PipeRate, PipeEquil, PipeFormula, PipeNone []int
	TankRate, TankEquil, TankFormula, TankNone []int
}

// Classify buckets each species by its pipe and tank expression kind. A
// species whose Tank expression was left unset inherits the Pipe
// classification for tanks.
func Classify(species []*network.Species) Classification {
	var c Classification
	for _, sp := range species {
		pipeKind := sp.Pipe.Kind
		tankExpr := sp.Tank
		if tankExpr.Kind == network.ExprNone {
			tankExpr = sp.Pipe
		}
		switch pipeKind {
		case network.ExprRate:
			c.PipeRate = append(c.PipeRate, sp.Index)
		case network.ExprEquilibrium:
			c.PipeEquil = append(c.PipeEquil, sp.Index)
		case network.ExprFormula:
			c.PipeFormula = append(c.PipeFormula, sp.Index)
		default:
			c.PipeNone = append(c.PipeNone, sp.Index)
		}
		switch tankExpr.Kind {
		case network.ExprRate:
			c.TankRate = append(c.TankRate, sp.Index)
		case network.ExprEquilibrium:
			c.TankEquil = append(c.TankEquil, sp.Index)
		case network.ExprFormula:
			c.TankFormula = append(c.TankFormula, sp.Index)
		default:
			c.TankNone = append(c.TankNone, sp.Index)
		}
	}
	return c
}
