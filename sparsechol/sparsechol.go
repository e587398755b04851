// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sparsechol factors and solves the symmetric positive-definite
// nodal dispersion system built by package dispersion. It reproduces the
// George-Liu minimum-degree ordering and compact column storage
// (XLNZ/NZSUB/LNZ) that the original Cholesky routine used, adapted to
// idiomatic Go: a Matrix holds the symbolic pattern once, and is reused
// across the Aii/Aij numeric values of every Factor/Solve call (spec
// §4.8; the fixed pattern is only rebuilt when the network topology
// changes, per the resource policy in §5).
package sparsechol

import (
	"fmt"
	"math"
)

// Edge is one pipe (or other dispersive coupling) between two 1-indexed
// junction nodes, supplied to Build in arbitrary order. Tanks and
// reservoirs never appear as an Edge endpoint: spec §4.8 places them
// last, with degree zero, so they are simply excluded from the node
// count n passed to Build.
type Edge struct {
	A, B int
}

// Matrix is the symbolic Cholesky pattern for a fixed adjacency graph of
// n junction nodes. Row maps an original node index to its position in
// the reordered system; EdgeCoeff maps the index of an Edge passed to
// Build to its coefficient slot in the Aij array the caller maintains.
// Both are exported because Dispersion's nodal assembly needs them to
// know where to accumulate each pipe's contribution.
type Matrix struct {
	N        int
	Order    []int // Order[i] = original node occupying reordered position i
	Row      []int // Row[node] = reordered position of node
	EdgeCoeff []int // EdgeCoeff[e] = Aij slot assigned to Edge e

	XLNZ  []int // per-column start index into NZSUB/LNZ, length n+2
	NZSUB []int // row indices of subdiagonal nonzeros, length NNZ+1
	LNZ   []int // Aij slot for each NZSUB entry, length NNZ+1
	NNZ   int

	first []int
	link  []int
	temp  []float64
}

type adjEntry struct {
	node  int
	coeff int
}

// Build runs minimum-degree ordering and symbolic factorization for n
// junction nodes connected by edges, and returns the reusable pattern.
// edges must be 1-indexed and reference only nodes in [1, n].
func Build(n int, edges []Edge) (*Matrix, error) {
	adj := make([][]adjEntry, n+1)
	edgeCoeff := make([]int, len(edges))
	ncoeffs := 0
	for ei, e := range edges {
		if e.A < 1 || e.A > n || e.B < 1 || e.B > n {
			return nil, fmt.Errorf("sparsechol: edge %d references node outside [1,%d]", ei, n)
		}
		ncoeffs++
		adj[e.A] = append(adj[e.A], adjEntry{node: e.B, coeff: ncoeffs})
		adj[e.B] = append(adj[e.B], adjEntry{node: e.A, coeff: ncoeffs})
		edgeCoeff[ei] = ncoeffs
	}

	degree := make([]int, n+1)
	for i := 1; i <= n; i++ {
		degree[i] = len(adj[i])
	}
	order := make([]int, n+1)
	for i := 1; i <= n; i++ {
		order[i] = i
	}

	for k := 1; k <= n; k++ {
		m := minDegreePos(k, n, order, degree)
		knode := order[m]
		ncoeffs = growList(knode, adj, degree, ncoeffs)
		order[m], order[k] = order[k], knode
		degree[knode] = 0
	}

	row := make([]int, n+1)
	for k := 1; k <= n; k++ {
		row[order[k]] = k
	}

	mat := &Matrix{N: n, Order: order, Row: row, EdgeCoeff: edgeCoeff}
	mat.storeSparse(adj, ncoeffs)
	mat.orderSparse()
	mat.first = make([]int, n+1)
	mat.link = make([]int, n+1)
	mat.temp = make([]float64, n+1)
	return mat, nil
}

// minDegreePos returns the position i in [k, n] whose order[i] node has
// the smallest remaining degree (spec §4.8 ordering rule).
func minDegreePos(k, n int, order, degree []int) int {
	min, imin := n, n
	for i := k; i <= n; i++ {
		d := degree[order[i]]
		if i == k || d < min {
			min, imin = d, i
		}
	}
	return imin
}

// growList eliminates knode: every pair of its still-active neighbors
// not already joined is connected by a new fill-in edge, consuming a
// fresh coefficient slot per spec §4.8.
func growList(knode int, adj [][]adjEntry, degree []int, ncoeffs int) int {
	entries := append([]adjEntry(nil), adj[knode]...)
	for idx, e := range entries {
		inode := e.node
		if degree[inode] <= 0 {
			continue
		}
		degree[inode]--
		for _, e2 := range entries[idx+1:] {
			jnode := e2.node
			if degree[jnode] <= 0 {
				continue
			}
			if isLinked(adj, inode, jnode) {
				continue
			}
			ncoeffs++
			adj[inode] = append(adj[inode], adjEntry{node: jnode, coeff: ncoeffs})
			adj[jnode] = append(adj[jnode], adjEntry{node: inode, coeff: ncoeffs})
			degree[inode]++
			degree[jnode]++
		}
	}
	return ncoeffs
}

func isLinked(adj [][]adjEntry, i, j int) bool {
	for _, e := range adj[i] {
		if e.node == j {
			return true
		}
	}
	return false
}

// storeSparse records, for each reordered column, the row indices and
// coefficient slots of its strictly-lower-triangular nonzeros.
func (mat *Matrix) storeSparse(adj [][]adjEntry, ncoeffs int) {
	n := mat.N
	mat.XLNZ = make([]int, n+2)
	mat.NZSUB = make([]int, ncoeffs+2)
	mat.LNZ = make([]int, ncoeffs+2)
	k := 0
	mat.XLNZ[1] = 1
	for i := 1; i <= n; i++ {
		ii := mat.Order[i]
		m := 0
		for _, e := range adj[ii] {
			j := mat.Row[e.node]
			if j > i && j <= n {
				m++
				k++
				mat.NZSUB[k] = j
				mat.LNZ[k] = e.coeff
			}
		}
		mat.XLNZ[i+1] = mat.XLNZ[i] + m
	}
	mat.NNZ = k
}

// orderSparse sorts NZSUB (and LNZ in lockstep) into ascending row order
// within each column via a transpose-transpose pass.
func (mat *Matrix) orderSparse() {
	n := mat.N
	nzt := make([]int, n+2)
	for i := 1; i <= n; i++ {
		for k := mat.XLNZ[i]; k < mat.XLNZ[i+1]; k++ {
			nzt[mat.NZSUB[k]]++
		}
	}
	xlnzt := make([]int, n+2)
	xlnzt[1] = 1
	for i := 1; i <= n; i++ {
		xlnzt[i+1] = xlnzt[i] + nzt[i]
	}
	nzsubt := make([]int, mat.NNZ+2)
	lnzt := make([]int, mat.NNZ+2)
	transposePattern(n, mat.XLNZ, mat.NZSUB, mat.LNZ, xlnzt, nzsubt, lnzt)
	transposePattern(n, xlnzt, nzsubt, lnzt, mat.XLNZ, mat.NZSUB, mat.LNZ)
}

func transposePattern(n int, il, jl, xl, ilt, jlt, xlt []int) {
	nzt := make([]int, n+2)
	for i := 1; i <= n; i++ {
		for k := il[i]; k < il[i+1]; k++ {
			j := jl[k]
			kk := ilt[j] + nzt[j]
			jlt[kk] = i
			xlt[kk] = xl[k]
			nzt[j]++
		}
	}
}

// Factor performs numeric Cholesky factorization in place: Aii (length
// n+1) holds the diagonal and becomes the L diagonal; Aij (length
// NNZ+1, indexed by the coefficient slots from LNZ/EdgeCoeff) holds the
// off-diagonal entries and becomes the L subdiagonal. Returns the
// 1-indexed row at which a non-positive pivot was found, or 0 on
// success (spec §4.8, §7: Cholesky non-positive diagonal is a numeric
// warning, not a fatal error).
func (mat *Matrix) Factor(Aii, Aij []float64) int {
	n := mat.N
	for i := range mat.temp {
		mat.temp[i] = 0
		mat.link[i] = 0
	}
	for j := 1; j <= n; j++ {
		diag := 0.0
		k := mat.link[j]
		for k != 0 {
			newk := mat.link[k]
			kfirst := mat.first[k]
			ljk := Aij[mat.LNZ[kfirst]]
			diag += ljk * ljk
			istrt, istop := kfirst+1, mat.XLNZ[k+1]-1
			if istop >= istrt {
				mat.first[k] = istrt
				isub := mat.NZSUB[istrt]
				mat.link[k] = mat.link[isub]
				mat.link[isub] = k
				for i := istrt; i <= istop; i++ {
					isub = mat.NZSUB[i]
					mat.temp[isub] += Aij[mat.LNZ[i]] * ljk
				}
			}
			k = newk
		}
		diag = Aii[j] - diag
		if diag <= 0 {
			return j
		}
		diag = math.Sqrt(diag)
		Aii[j] = diag
		istrt, istop := mat.XLNZ[j], mat.XLNZ[j+1]-1
		if istop >= istrt {
			mat.first[j] = istrt
			isub := mat.NZSUB[istrt]
			mat.link[j] = mat.link[isub]
			mat.link[isub] = j
			for i := istrt; i <= istop; i++ {
				isub = mat.NZSUB[i]
				bj := (Aij[mat.LNZ[i]] - mat.temp[isub]) / diag
				Aij[mat.LNZ[i]] = bj
				mat.temp[isub] = 0
			}
		}
	}
	return 0
}

// Solve performs forward and backward substitution against an already
// Factor-ed (Aii, Aij), overwriting B in place with the solution.
func (mat *Matrix) Solve(Aii, Aij, B []float64) {
	n := mat.N
	for j := 1; j <= n; j++ {
		bj := B[j] / Aii[j]
		B[j] = bj
		istrt, istop := mat.XLNZ[j], mat.XLNZ[j+1]-1
		for i := istrt; i <= istop; i++ {
			isub := mat.NZSUB[i]
			B[isub] -= Aij[mat.LNZ[i]] * bj
		}
	}
	for j := n; j >= 1; j-- {
		bj := B[j]
		istrt, istop := mat.XLNZ[j], mat.XLNZ[j+1]-1
		for i := istrt; i <= istop; i++ {
			isub := mat.NZSUB[i]
			bj -= Aij[mat.LNZ[i]] * B[isub]
		}
		B[j] = bj / Aii[j]
	}
}

// FactorSolve factors a copy of Aii/Aij (leaving the caller's arrays
// untouched) and solves for B in place. Dispersion uses this directly;
// Factor/Solve are exposed separately for callers that want to reuse a
// single factorization against several right-hand sides.
func (mat *Matrix) FactorSolve(Aii, Aij, B []float64) int {
	aii := append([]float64(nil), Aii...)
	aij := append([]float64(nil), Aij...)
	if j := mat.Factor(aii, aij); j != 0 {
		return j
	}
	mat.Solve(aii, aij, B)
	return 0
}
