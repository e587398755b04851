// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dispersion

import (
	"math"

	"github.com/cpmech/msx/errcode"
	"github.com/cpmech/msx/network"
	"github.com/cpmech/msx/segment"
	"github.com/cpmech/msx/sparsechol"
)

// System holds the fixed adjacency/sparsity pattern for one network's
// junction set, plus the thread-local scratch spec §5 requires for the
// per-pipe tridiagonal solves and the nodal assembly arrays. It is
// rebuilt only when topology changes (spec §5 "Resource policy").
type System struct {
	Nodes []*network.Node
	Links []*network.Link
	Tanks []*network.Tank
	Pool  *segment.Pool

	AreaUCF      float64 // converts D^2 area terms into the project's reporting area units
	LitersPerFt3 float64
	PecletLimit  float64

	juncRow      []int // per node index: sparsechol row (1-indexed), 0 if tank/reservoir
	linkEdge     []int // per link index: sparsechol coefficient slot, 0 if not junction-junction
	mat          *sparsechol.Matrix

	al, bl, cl, rl, y, gam []float64 // pipe tridiagonal scratch, grown as needed
	aii, aij, f            []float64 // nodal assembly scratch
}

// Open builds the junction adjacency graph and its symbolic Cholesky
// pattern from the current link set. Nodes with TankIndex != -1 are
// excluded from the solved system (spec §4.8: "tanks/reservoirs have
// degree 0 and are placed last").
func Open(nodes []*network.Node, links []*network.Link, tanks []*network.Tank, pool *segment.Pool, areaUCF, litersPerFt3, pecletLimit float64) (*System, error) {
	s := &System{
		Nodes: nodes, Links: links, Tanks: tanks, Pool: pool,
		AreaUCF: areaUCF, LitersPerFt3: litersPerFt3, PecletLimit: pecletLimit,
	}
	s.juncRow = make([]int, len(nodes))
	row := 0
	for i, n := range nodes {
		if n.TankIndex == -1 {
			row++
			s.juncRow[i] = row
		}
	}
	nJunc := row

	var edges []sparsechol.Edge
	s.linkEdge = make([]int, len(links))
	edgePos := make([]int, len(links)) // 1-based position in edges, 0 if no edge
	for k, l := range links {
		r1, r2 := s.juncRow[l.N1], s.juncRow[l.N2]
		if r1 > 0 && r2 > 0 {
			edges = append(edges, sparsechol.Edge{A: r1, B: r2})
			edgePos[k] = len(edges)
		}
	}
	mat, err := sparsechol.Build(nJunc, edges)
	if err != nil {
		return nil, err
	}
	s.mat = mat
	for k, pos := range edgePos {
		if pos > 0 {
			s.linkEdge[k] = mat.EdgeCoeff[pos-1]
		}
	}
	s.aii = make([]float64, nJunc+1)
	s.f = make([]float64, nJunc+1)
	s.aij = make([]float64, s.mat.NNZ+2)
	return s, nil
}

func pipeArea(diam float64) float64 { return 0.25 * math.Pi * diam * diam }

func (s *System) ensureScratch(n int) {
	if cap(s.al) >= n {
		s.al, s.bl, s.cl, s.rl, s.y, s.gam = s.al[:n], s.bl[:n], s.cl[:n], s.rl[:n], s.y[:n], s.gam[:n]
		return
	}
	s.al = make([]float64, n)
	s.bl = make([]float64, n)
	s.cl = make([]float64, n)
	s.rl = make([]float64, n)
	s.y = make([]float64, n)
	s.gam = make([]float64, n)
}

// pipeResponse builds the per-segment Green's-function response (H, U,
// D) for one pipe and species, per spec §4.9 step 2. Returns false if
// the pipe currently has no segments.
func (s *System) pipeResponse(link *network.Link, sp int, ell, tstep float64) bool {
	handles := make([]segment.Handle, 0, link.Segs.Count)
	for h := link.Segs.Head; h != 0; h = s.Pool.Next(h) {
		handles = append(handles, h)
	}
	nseg := len(handles)
	if nseg == 0 {
		return false
	}

	area := pipeArea(link.Diameter)
	asquare := area * area
	cons := 2 * ell * asquare * tstep

	n := nseg + 2
	s.ensureScratch(n)
	s.bl[0], s.cl[0] = 1, 0
	s.al[n-1], s.bl[n-1] = 0, 1

	for i := 1; i <= nseg; i++ {
		seg := s.Pool.Get(handles[i-1])
		vself := seg.Volume
		var vd, vu float64
		if i > 1 {
			vd = s.Pool.Get(handles[i-2]).Volume
		}
		if i < nseg {
			vu = s.Pool.Get(handles[i]).Volume
		}
		s.al[i] = -cons / (vself*vself + vself*vd)
		s.cl[i] = -cons / (vself*vself + vself*vu)
		s.bl[i] = 1 - s.al[i] - s.cl[i]
	}

	solve := func(setRHS func()) {
		for i := 1; i <= nseg; i++ {
			s.rl[i] = 0
		}
		s.rl[0], s.rl[n-1] = 0, 0
		setRHS()
		Thomas(n, s.al, s.bl, s.cl, s.rl, s.y, s.gam)
	}

	solve(func() {
		for i := 1; i <= nseg; i++ {
			s.rl[i] = s.Pool.Get(handles[i-1]).C[sp]
		}
	})
	for i := 1; i <= nseg; i++ {
		s.Pool.Get(handles[i-1]).H[sp] = s.y[i]
	}

	solve(func() { s.rl[0] = 1 })
	for i := 1; i <= nseg; i++ {
		s.Pool.Get(handles[i-1]).D[sp] = s.y[i]
	}

	solve(func() { s.rl[n-1] = 1 })
	for i := 1; i <= nseg; i++ {
		s.Pool.Get(handles[i-1]).U[sp] = s.y[i]
	}
	return true
}

// upstreamDownstream returns the link's current upstream and downstream
// node indices according to its stored flow direction.
func upstreamDownstream(l *network.Link) (n1, n2 int) {
	if l.Dir == network.Negative {
		return l.N2, l.N1
	}
	return l.N1, l.N2
}

// Step runs spec §4.9 for one species over one quality time step: pipe
// responses, nodal assembly and solve, and segment/node writeback. It
// returns the mass dispersed into the network this step (to be folded
// into the caller's mass-balance accumulator) and an errcode (Success,
// or WarnCholeskyNonPosDef if the Cholesky factorization hit a
// non-positive pivot, in which case node/segment state is left
// unchanged).
func (s *System) Step(sp int, tstep float64) (dispersedMass float64, code errcode.Code) {
	for i := range s.aii {
		s.aii[i] = 0
		s.f[i] = 0
	}
	for i := range s.aij {
		s.aij[i] = 0
	}

	ok := make([]bool, len(s.Links))
	ell := make([]float64, len(s.Links))
	for k, l := range s.Links {
		d0 := 0.0
		if sp < len(l.MolecDiffusion) {
			d0 = l.MolecDiffusion[sp]
		}
		if d0 == 0 {
			continue
		}
		e, within := Length(l.Hyd, d0, s.PecletLimit)
		if !within || !s.pipeResponse(l, sp, e, tstep) {
			continue
		}
		ok[k] = true
		ell[k] = e
	}

	for k, l := range s.Links {
		if !ok[k] {
			continue
		}
		n1, n2 := upstreamDownstream(l)
		first := s.Pool.Get(l.Segs.Head)
		last := s.Pool.Get(l.Segs.Tail)
		asquare := square(pipeArea(l.Diameter))
		coeFirst := ell[k] * asquare / first.Volume
		coeLast := ell[k] * asquare / last.Volume

		if e := s.linkEdge[k]; e > 0 {
			s.aij[e] -= coeFirst * first.U[sp]
		}

		if row := s.juncRow[n2]; row > 0 {
			s.aii[row] += coeFirst * (1 - first.D[sp])
			s.f[row] += coeFirst * first.H[sp]
		} else if row := s.juncRow[n1]; row > 0 {
			s.f[row] += coeLast * last.D[sp] * s.Nodes[n2].C[sp]
		}

		if row := s.juncRow[n1]; row > 0 {
			s.aii[row] += coeLast * (1 - last.U[sp])
			s.f[row] += coeLast * last.H[sp]
		} else if row := s.juncRow[n2]; row > 0 {
			s.f[row] += coeFirst * first.U[sp] * s.Nodes[n1].C[sp]
		}
	}

	for i, n := range s.Nodes {
		row := s.juncRow[i]
		if row == 0 {
			continue
		}
		if s.aii[row] == 0 {
			s.aii[row] = 1
			s.f[row] = n.C[sp]
		}
	}

	if status := s.mat.FactorSolve(s.aii, s.aij, s.f); status != 0 {
		return 0, errcode.WarnCholeskyNonPosDef
	}

	for i, n := range s.Nodes {
		if row := s.juncRow[i]; row > 0 {
			n.C[sp] = s.f[row]
		}
	}

	for k, l := range s.Links {
		if !ok[k] {
			continue
		}
		n1, n2 := upstreamDownstream(l)
		c1, c2 := s.Nodes[n1].C[sp], s.Nodes[n2].C[sp]
		asquare := square(pipeArea(l.Diameter))

		first := s.Pool.Get(l.Segs.Head)
		dispersedMass += 2 * ell[k] * tstep * asquare * (c2 - first.C[sp]) * s.LitersPerFt3 / first.Volume
		last := s.Pool.Get(l.Segs.Tail)
		dispersedMass += 2 * ell[k] * tstep * asquare * (c1 - last.C[sp]) * s.LitersPerFt3 / last.Volume

		for h := l.Segs.Head; h != 0; h = s.Pool.Next(h) {
			seg := s.Pool.Get(h)
			seg.C[sp] = seg.H[sp] + seg.U[sp]*c1 + seg.D[sp]*c2
		}
	}

	return dispersedMass, errcode.Success
}
