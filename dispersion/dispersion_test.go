// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dispersion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cpmech/msx/network"
	"github.com/cpmech/msx/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThomasReproducesRandomDiagonallyDominantSystem(t *testing.T) {
	const n = 20
	r := rand.New(rand.NewSource(7))
	a := make([]float64, n)
	b := make([]float64, n)
	c := make([]float64, n)
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			a[i] = r.Float64()*2 - 1
		}
		if i < n-1 {
			c[i] = r.Float64()*2 - 1
		}
		b[i] = math.Abs(a[i]) + math.Abs(c[i]) + 1 + r.Float64()
		x[i] = r.Float64()*10 - 5
	}
	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		rhs[i] = b[i] * x[i]
		if i > 0 {
			rhs[i] += a[i] * x[i-1]
		}
		if i < n-1 {
			rhs[i] += c[i] * x[i+1]
		}
	}

	y := make([]float64, n)
	gam := make([]float64, n)
	Thomas(n, a, b, c, rhs, y, gam)

	for i := 0; i < n; i++ {
		assert.InDelta(t, x[i], y[i], 1e-12*(math.Abs(x[i])+1))
	}
}

// buildTwoJunctionNetwork constructs the spec §8 scenario 4 network: a
// single 100m pipe between two fixed-concentration reservoirs, stagnant flow, with a single
// diffusing species.
func buildTwoJunctionNetwork(t *testing.T) (*System, *network.Node, *network.Node, *network.Link, *segment.Pool) {
	const diam = 0.2
	length := 100.0
	pool := segment.NewPool(1, 8)

	// Both ends are fixed-concentration reservoirs (Area == 0): spec
	// §4.9 step 3 treats tanks/reservoirs as given boundary values that
	// only contribute to the right-hand side, never to the solved
	// junction set, which is how the scenario's step boundary condition
	// is expressed here.
	up := &network.Node{Index: 0, C: []float64{1.0}, C0: []float64{1.0}, TankIndex: 0}
	down := &network.Node{Index: 1, C: []float64{0.0}, C0: []float64{0.0}, TankIndex: 1}
	nodes := []*network.Node{up, down}
	tanks := []*network.Tank{{NodeIndex: 0, Area: 0}, {NodeIndex: 1, Area: 0}}

	link := &network.Link{
		Index: 0, N1: 0, N2: 1, Diameter: diam, Length: length,
		Dir:            network.Positive,
		MolecDiffusion: []float64{-1e-5}, // negative d0 requests fixed ell = 1e-5 (spec §4.9)
		Hyd:            network.HydVars{D: diam, U: 1e-9, Re: 1, Us: 0, Len: length},
	}
	area := pipeArea(diam)
	v := area * length
	h := pool.GetFreeSeg(v, []float64{0.5})
	link.Segs.Head, link.Segs.Tail, link.Segs.Count = h, h, 1

	sys, err := Open(nodes, []*network.Link{link}, tanks, pool, 1, 1, DefaultPecletLimit)
	require.NoError(t, err)
	return sys, up, down, link, pool
}

// TestDispersionOnlyLowPecletMidpointApproachesHalf mirrors spec §8
// scenario 4: stepping a single-segment pipe with fixed upstream/
// downstream boundary concentrations 1 and 0 toward its diffusive
// steady state should leave the (single, centerline) segment
// approaching 0.5.
func TestDispersionOnlyLowPecletMidpointApproachesHalf(t *testing.T) {
	sys, _, _, _, pool := buildTwoJunctionNetwork(t)
	const ell = 1e-5
	tEnd := 100.0 * 100.0 / (2 * ell) // L^2/(2*ell)
	const nSteps = 2000
	dt := tEnd / nSteps

	for i := 0; i < nSteps; i++ {
		_, code := sys.Step(0, dt)
		require.Equal(t, 0, int(code))
	}

	seg := pool.Get(sys.Links[0].Segs.Head)
	assert.InDelta(t, 0.5, seg.C[0], 0.05)
}
