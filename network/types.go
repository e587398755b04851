// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package network is the data model of spec §3: Species, Term,
// Parameter, Constant, Pattern, Node, Link, Tank, Source, and the
// adjacency structures QualRouter/SparseCholesky rebuild on topology
// change. It mirrors the role gofem's fem.Domain/inp.Mesh play for the
// FEM side — the owned, explicit project context spec §9 calls for in
// place of the original source's single global MSX struct.
package network

import "github.com/cpmech/msx/segment"

// QStagnantGPM is the |Q| threshold (gpm, converted to cfs at load time)
// below which a link's flow direction is Zero and it does not
// participate in transport or topological ordering (spec §3).
const QStagnantGPM = 0.005

// SpeciesKind distinguishes bulk (transported with segments) from wall
// (attached to pipe surface) species.
type SpeciesKind int

const (
	Bulk SpeciesKind = iota
	Wall
)

// ExprKind classifies how a species' concentration evolves in a given
// context (pipe or tank), per spec §4.6.
type ExprKind int

const (
	ExprNone ExprKind = iota
	ExprRate
	ExprFormula
	ExprEquilibrium
)

// Expr bundles a classified reaction expression with its compiled IR.
type Expr struct {
	Kind ExprKind
	Prog *ExprIR // nil when Kind == ExprNone
}

// ExprIR is a thin alias kept so network does not import exprlang's
// Program type name directly into every call site; defined in
// varindex.go alongside the Resolver that builds these.
type ExprIR = CompiledExpr

// Species is immutable during simulation once Open() has run.
type Species struct {
	ID         string
	Index      int // 0-based index into the unified variable table's species range
	Kind       SpeciesKind
	Units      string
	ATol, RTol float64
	Precision  int
	Pipe       Expr
	Tank       Expr // inherits Pipe if not supplied, per spec §4.6
}

// Term is immutable at simulation time; used only inside expressions.
type Term struct {
	ID    string
	Index int
	Prog  *ExprIR
}

// Parameter has a default plus optional per-link/per-tank overrides.
type Parameter struct {
	ID      string
	Index   int
	Default float64
}

// Constant is immutable at simulation time.
type Constant struct {
	ID    string
	Index int
	Value float64
}

// Pattern is an ordered, finite list of multipliers with a monotonically
// advancing interval cursor.
type Pattern struct {
	ID          string
	Index       int
	Multipliers []float64
	cursor      int
}

// CurrentMultiplier returns the multiplier for patternTime (seconds since
// pattern start) given a pattern step length patternStep (seconds),
// advancing the cursor lazily and monotonically — it never rewinds,
// matching the "lazily advanced to the current simulated pattern
// interval" behavior spec §4.10 describes for source strength lookup.
func (p *Pattern) CurrentMultiplier(patternTime, patternStep float64) float64 {
	if len(p.Multipliers) == 0 {
		return 1
	}
	interval := int(patternTime / patternStep)
	if interval < 0 {
		interval = 0
	}
	n := len(p.Multipliers)
	idx := interval % n
	if idx > p.cursor || (p.cursor >= n-1 && idx < p.cursor) {
		p.cursor = idx
	}
	return p.Multipliers[p.cursor]
}

// ResetCursor rewinds the pattern to its first interval; called from
// QualRouter.Init.
func (p *Pattern) ResetCursor() { p.cursor = 0 }

// SourceType classifies how a Source contributes mass, per spec §4.10.
type SourceType int

const (
	SrcConcen SourceType = iota
	SrcMass
	SrcSetpoint
	SrcFlowPaced
)

// Source is a WQ injection attached to one node.
type Source struct {
	Type         SourceType
	SpeciesIndex int
	BaseStrength float64
	PatternIndex int // -1 if unpatterned (constant strength)
}

// Direction enumerates a link's current flow direction relative to its
// N1->N2 orientation.
type Direction int

const (
	Negative Direction = -1
	Zero     Direction = 0
	Positive Direction = 1
)

// ClassifyFlow applies the Q_STAGNANT threshold (spec §3) to a flow
// value already expressed in the engine's internal cfs-equivalent units.
func ClassifyFlow(q, qStagnant float64) Direction {
	if q > qStagnant {
		return Positive
	}
	if q < -qStagnant {
		return Negative
	}
	return Zero
}

// HydVars are the per-link hydraulic variables exposed to expressions
// (spec §4.1 GLOSSARY): diameter, flow, velocity, Reynolds number, shear
// velocity, friction factor, area/volume ratio, roughness, length.
type HydVars struct {
	D, Q, U, Re, Us, Ff, Av, Kc, Len float64
}

// Node holds per-species concentration state mutated by QualRouter.
type Node struct {
	ID        string
	Index     int
	C         []float64 // current, per species
	C0        []float64 // initial
	Sources   []*Source
	TankIndex int     // -1 if not a tank/reservoir node
	Demand    float64 // current demand flow (cfs-equivalent); positive withdraws, negative adds
	Report    bool

	// topology, rebuilt on topology change
	Incident []int // incident link indices
}

// Link connects two nodes and owns a segment list.
type Link struct {
	ID             string
	Index          int
	N1, N2         int
	Diameter       float64
	Length         float64
	Roughness      float64
	ParamOverride  map[int]float64
	Reacted        []float64 // per-species accumulated reacted mass
	C0             []float64 // per-species initial concentration
	Hyd            HydVars
	Segs           segment.List
	Report         bool
	Dir            Direction
	MolecDiffusion []float64 // per-species d0 (spec §4.9); 0 => no dispersion for that species
}

// MixModel enumerates the four tank mixing models, spec §4.7.
type MixModel int

const (
	Mix1 MixModel = iota
	Mix2
	FIFO
	LIFO
)

// Tank is a storage node (Area == 0 means a fixed-concentration
// reservoir) that reuses the segment pool for its internal mixing
// zones.
type Tank struct {
	NodeIndex     int
	Area          float64 // 0 => reservoir
	V0, V         float64
	Mixing        MixModel
	MixZoneVolume float64
	ParamOverride map[int]float64
	C             []float64 // representative concentration
	Reacted       []float64

	MixSegs  segment.List // mixing-zone (Mix1/FIFO/LIFO) or mix-zone half of Mix2
	StagSegs segment.List // stagnant-zone half of Mix2 only
}

// IsReservoir reports whether t has a fixed concentration (area == 0).
func (t *Tank) IsReservoir() bool { return t.Area == 0 }
