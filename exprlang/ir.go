// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exprlang

// NodeKind tags the variant a Node holds.
type NodeKind int

const (
	KindLit NodeKind = iota
	KindVar
	KindNeg
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindPow
	KindCall
)

// VarKind classifies which namespace a resolved variable index falls in,
// following the fixed ordering of spec §4.1: species, terms, parameters,
// constants, hydraulic variables.
type VarKind int

const (
	VarSpecies VarKind = iota
	VarTerm
	VarParam
	VarConst
	VarHyd
)

// Node is one node of the expression IR tree. Exactly one of its fields
// is meaningful, selected by Kind — a tagged variant rather than an
// interface hierarchy, matching the "integer opcode switch" of the
// original source translated into idiomatic Go (spec §9).
type Node struct {
	Kind NodeKind

	Lit float64 // KindLit

	VarName  string  // KindVar: raw identifier text (pre-resolution)
	VarIndex int     // KindVar: resolved index into the unified variable table
	VarKind  VarKind // KindVar: which namespace VarIndex falls in

	Func string // KindCall: one of unaryFuncs

	L, R *Node // operands; R is nil for KindNeg and KindCall
}

// ParseError reports a grammar violation with no position tracking beyond
// the raw message, matching the project input file's "section + message"
// reporting done one layer up in projfile.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return "exprlang: " + e.Msg }
