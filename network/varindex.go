// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import (
	"fmt"

	"github.com/cpmech/msx/exprlang"
)

// CompiledExpr bundles a parsed expression's IR root (for the cyclic-term
// walk and string reconstruction) with its flattened evaluation program.
type CompiledExpr struct {
	Root *exprNode
	Prog *exprlang.Program
}

type exprNode = exprlang.Node

// hydVarOrder fixes the index assigned to each reserved hydraulic
// variable name inside the VarHyd namespace, per spec §4.1.
var hydVarOrder = []string{"D", "Q", "U", "Re", "Us", "Ff", "Av", "Kc", "Len"}

// VarTable is the single namespace resolver spec §4.1 requires: species
// (first), then terms, then parameters, then constants, then hydraulic
// variables. It implements exprlang.Resolver.
type VarTable struct {
	species   map[string]int
	terms     map[string]int
	params    map[string]int
	constants map[string]int
	hyd       map[string]int
}

// NewVarTable builds the resolver from the project's registered object
// names. Registering a species/term/parameter/constant whose name
// collides with a reserved hydraulic variable is a caller-side input
// error (errcode.ErrReservedName) — checked by RegisterName below, which
// projfile must call before adding any user object.
func NewVarTable() *VarTable {
	t := &VarTable{
		species:   map[string]int{},
		terms:     map[string]int{},
		params:    map[string]int{},
		constants: map[string]int{},
		hyd:       map[string]int{},
	}
	for i, name := range hydVarOrder {
		t.hyd[name] = i
	}
	return t
}

// IsReservedName reports whether name collides with a hydraulic variable.
func IsReservedName(name string) bool { return exprlang.ReservedHydraulicVars[name] }

// RegisterName validates name against the reserved set and against
// duplicate registration before the caller assigns it an index.
func RegisterName(existing map[string]int, name string) error {
	if IsReservedName(name) {
		return fmt.Errorf("identifier %q collides with a reserved hydraulic variable name", name)
	}
	if _, dup := existing[name]; dup {
		return fmt.Errorf("duplicate identifier %q", name)
	}
	return nil
}

func (t *VarTable) AddSpecies(name string, idx int) error {
	if err := RegisterName(t.species, name); err != nil {
		return err
	}
	t.species[name] = idx
	return nil
}

func (t *VarTable) AddTerm(name string, idx int) error {
	if err := RegisterName(t.terms, name); err != nil {
		return err
	}
	t.terms[name] = idx
	return nil
}

func (t *VarTable) AddParameter(name string, idx int) error {
	if err := RegisterName(t.params, name); err != nil {
		return err
	}
	t.params[name] = idx
	return nil
}

func (t *VarTable) AddConstant(name string, idx int) error {
	if err := RegisterName(t.constants, name); err != nil {
		return err
	}
	t.constants[name] = idx
	return nil
}

// Resolve implements exprlang.Resolver.
func (t *VarTable) Resolve(name string) (exprlang.VarKind, int, bool) {
	if idx, ok := t.species[name]; ok {
		return exprlang.VarSpecies, idx, true
	}
	if idx, ok := t.terms[name]; ok {
		return exprlang.VarTerm, idx, true
	}
	if idx, ok := t.params[name]; ok {
		return exprlang.VarParam, idx, true
	}
	if idx, ok := t.constants[name]; ok {
		return exprlang.VarConst, idx, true
	}
	if idx, ok := t.hyd[name]; ok {
		return exprlang.VarHyd, idx, true
	}
	return 0, 0, false
}

// Compile parses and flattens s against this table, returning a
// CompiledExpr ready for evaluation.
func (t *VarTable) Compile(s string) (*CompiledExpr, error) {
	root, err := exprlang.Parse(s, t)
	if err != nil {
		return nil, err
	}
	return &CompiledExpr{Root: root, Prog: exprlang.Compile(root)}, nil
}

// TermRefIndex reports whether n is a KindVar node referencing the Term
// namespace, for use with exprlang.CheckCyclicTerms.
func TermRefIndex(n *exprNode) (int, bool) {
	if n.Kind == exprlang.KindVar && n.VarKind == exprlang.VarTerm {
		return n.VarIndex, true
	}
	return 0, false
}
