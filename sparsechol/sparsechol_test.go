// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparsechol

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRandomSPD returns a random diagonally-dominant Aii/Aij pair over
// a chain-plus-a-few-chords graph, dense enough to exercise fill-in
// during ordering, together with the Edge list that produced it. Aii
// and Aij are indexed in ORIGINAL node/edge numbering, matching how a
// caller like Dispersion would first accumulate them.
func buildRandomSPD(n int, seed int64) (edges []Edge, Aii, Aij []float64) {
	r := rand.New(rand.NewSource(seed))
	for i := 1; i < n; i++ {
		edges = append(edges, Edge{A: i, B: i + 1})
	}
	if n >= 5 {
		edges = append(edges, Edge{A: 1, B: n})
		edges = append(edges, Edge{A: 2, B: n - 1})
	}

	Aii = make([]float64, n+1)
	Aij = make([]float64, len(edges)+1)
	offdiagSum := make([]float64, n+1)
	for ei, e := range edges {
		v := 0.5 + r.Float64()
		Aij[ei+1] = v
		offdiagSum[e.A] += v
		offdiagSum[e.B] += v
	}
	for i := 1; i <= n; i++ {
		Aii[i] = offdiagSum[i] + 1 + r.Float64()*5
	}
	return edges, Aii, Aij
}

// permuteToRows copies values indexed by original node into an array
// indexed by reordered row, per mat.Row.
func permuteToRows(mat *Matrix, values []float64) []float64 {
	out := make([]float64, mat.N+1)
	for i := 1; i <= mat.N; i++ {
		out[mat.Row[i]] = values[i]
	}
	return out
}

// permuteToSlots copies edge values (1-indexed by original edge order)
// into an array indexed by the coefficient slot Build assigned them.
func permuteToSlots(mat *Matrix, values []float64) []float64 {
	out := make([]float64, mat.NNZ+1)
	for ei := range mat.EdgeCoeff {
		out[mat.EdgeCoeff[ei]] = values[ei+1]
	}
	return out
}

// residualNorm computes ||A*x - b|| / ||b|| in reordered-row space,
// using the original (pre-factorization) Aii/Aij and edge list so the
// check is independent of Factor's in-place mutation.
func residualNorm(mat *Matrix, edges []Edge, Aii, Aij, xSol, b []float64) float64 {
	aiiRows := permuteToRows(mat, Aii)
	resid := make([]float64, mat.N+1)
	for i := 1; i <= mat.N; i++ {
		resid[i] = aiiRows[i] * xSol[i]
	}
	for ei, e := range edges {
		v := Aij[ei+1]
		resid[mat.Row[e.A]] += v * xSol[mat.Row[e.B]]
		resid[mat.Row[e.B]] += v * xSol[mat.Row[e.A]]
	}
	var resNorm, bNorm float64
	for i := 1; i <= mat.N; i++ {
		d := resid[i] - b[i]
		resNorm += d * d
		bNorm += b[i] * b[i]
	}
	return math.Sqrt(resNorm) / math.Sqrt(bNorm)
}

func TestFactorSolveMatchesRandomSPDSystem(t *testing.T) {
	const n = 12
	edges, Aii, Aij := buildRandomSPD(n, 42)
	mat, err := Build(n, edges)
	require.NoError(t, err)

	r := rand.New(rand.NewSource(1))
	xWant := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		xWant[i] = r.Float64()*10 - 5
	}

	b := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		b[mat.Row[i]] += Aii[i] * xWant[i]
	}
	for ei, e := range edges {
		v := Aij[ei+1]
		b[mat.Row[e.A]] += v * xWant[e.B]
		b[mat.Row[e.B]] += v * xWant[e.A]
	}

	aiiPerm := permuteToRows(mat, Aii)
	aijPerm := permuteToSlots(mat, Aij)

	xSol := append([]float64(nil), b...)
	status := mat.FactorSolve(aiiPerm, aijPerm, xSol)
	require.Equal(t, 0, status)

	assert.Less(t, residualNorm(mat, edges, Aii, Aij, xSol, b), 1e-9)
}

func TestFactorReportsNonPositivePivot(t *testing.T) {
	edges := []Edge{{A: 1, B: 2}}
	mat, err := Build(2, edges)
	require.NoError(t, err)
	Aii := []float64{0, 1, 1}
	Aij := []float64{0, 5} // off-diagonal far too large: not positive definite
	status := mat.Factor(Aii, Aij)
	assert.NotEqual(t, 0, status)
}

func TestBuildRejectsOutOfRangeEdge(t *testing.T) {
	_, err := Build(3, []Edge{{A: 1, B: 5}})
	assert.Error(t, err)
}
