// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qualrouter

import (
	"math"
	"testing"
	"time"

	"github.com/cpmech/msx/chem"
	"github.com/cpmech/msx/network"
	"github.com/cpmech/msx/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constFlowSource emits a single hydraulic event, then reports EOF.
type constFlowSource struct {
	flow        []float64
	timeStepSec int
	emitted     bool
}

func (s *constFlowSource) Next() (HydEvent, bool, error) {
	if s.emitted {
		return HydEvent{}, false, nil
	}
	s.emitted = true
	return HydEvent{
		TimeSec: 0, Demand: make([]float64, len(s.flow)+1), Head: make([]float64, len(s.flow)+1),
		Flow: s.flow, TimeStepSec: s.timeStepSec,
	}, true, nil
}

func pipeVolume(diam, length float64) float64 { return 0.25 * math.Pi * diam * diam * length }

// TestScenarioOnePlugFlowAdvectionRampsSteeply mirrors spec §8 scenario
// 1: a single pipe fed by a fixed-concentration reservoir should show
// the downstream junction's concentration stay near 0 until the plug
// arrives at t = pipe_volume/flow, then rise steeply to 1.
func TestScenarioOnePlugFlowAdvectionRampsSteeply(t *testing.T) {
	const diam, length, flow = 0.1, 1000.0, 0.01
	vol := pipeVolume(diam, length)
	const nSeg = 100
	segVol := vol / nSeg

	pool := segment.NewPool(1, nSeg+4)
	up := &network.Node{ID: "up", Index: 0, C: []float64{1}, C0: []float64{1}, TankIndex: 0, Incident: []int{0}}
	down := &network.Node{ID: "down", Index: 1, C: []float64{0}, C0: []float64{0}, TankIndex: -1, Incident: []int{0}}
	nodes := []*network.Node{up, down}
	tanks := []*network.Tank{{NodeIndex: 0, Area: 0, C: []float64{1}}}

	link := &network.Link{ID: "p1", Index: 0, N1: 0, N2: 1, Diameter: diam, Length: length, Dir: network.Positive,
		C0: []float64{0}, Reacted: []float64{0}}
	for i := 0; i < nSeg; i++ {
		h := pool.GetFreeSeg(segVol, []float64{0})
		pool.AddSeg(&link.Segs, h)
	}
	links := []*network.Link{link}

	species := []*network.Species{{ID: "A", Index: 0, Kind: network.Bulk}}
	engine := chem.NewEngine(species, nil, 0, 0, 1, 1)

	src := &constFlowSource{flow: []float64{flow}, timeStepSec: 1_000_000}
	r, err := Open(nodes, links, tanks, nil, nil, nil, 1, pool, engine, nil, src,
		1, 7.48052, 1.114e-5, 3600, 0.01, 1)
	require.NoError(t, err)
	require.NoError(t, r.Init(false))
	r.QstepMS = 5000 // 5s quality step, fine enough to resolve a ~785s transit

	tEnd := vol / flow
	type sample struct {
		t, c float64
	}
	var samples []sample
	for i := 0; i < 300; i++ {
		tSec, _, code := r.Step()
		require.Equal(t, 0, int(code))
		samples = append(samples, sample{tSec, down.C[0]})
		if r.Done {
			break
		}
	}

	var before, after sample
	foundBefore, foundAfter := false, false
	for _, s := range samples {
		if s.t < 0.9*tEnd {
			before = s
			foundBefore = true
		}
		if !foundAfter && s.t > 1.1*tEnd {
			after = s
			foundAfter = true
		}
	}
	require.True(t, foundBefore)
	require.True(t, foundAfter)
	assert.Less(t, before.c, 0.1)
	assert.Greater(t, after.c, 0.9)
}

// TestFlowReversalSwapsSegmentListExactlyOnSignFlip mirrors spec §8
// scenario 5's core assertion: the segment list reverses precisely when
// applyHydEvent observes a flow-direction sign flip, not before.
func TestFlowReversalSwapsSegmentListExactlyOnSignFlip(t *testing.T) {
	pool := segment.NewPool(1, 8)
	up := &network.Node{ID: "up", Index: 0, C: []float64{0}, C0: []float64{0}, TankIndex: -1, Incident: []int{0}}
	down := &network.Node{ID: "down", Index: 1, C: []float64{0}, C0: []float64{0}, TankIndex: -1, Incident: []int{0}}
	nodes := []*network.Node{up, down}

	link := &network.Link{ID: "p1", Index: 0, N1: 0, N2: 1, Diameter: 0.1, Length: 100, Dir: network.Positive,
		C0: []float64{0}, Reacted: []float64{0}}
	for _, c := range []float64{0.1, 0.5, 0.9} {
		h := pool.GetFreeSeg(1, []float64{c})
		pool.AddSeg(&link.Segs, h)
	}
	links := []*network.Link{link}
	originalHead, originalTail := link.Segs.Head, link.Segs.Tail

	species := []*network.Species{{ID: "A", Index: 0, Kind: network.Bulk}}
	engine := chem.NewEngine(species, nil, 0, 0, 1, 1)
	src := &constFlowSource{} // unused directly; applyHydEvent called manually below
	r, err := Open(nodes, links, nil, nil, nil, nil, 1, pool, engine, nil, src,
		1, 7.48052, 1.114e-5, 3600, 0.01, 1)
	require.NoError(t, err)
	require.NoError(t, r.Init(false))

	changed, err := r.applyHydEvent(HydEvent{Demand: []float64{0, 0}, Head: []float64{0, 0}, Flow: []float64{1}})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, originalHead, link.Segs.Head)
	assert.Equal(t, originalTail, link.Segs.Tail)

	changed, err = r.applyHydEvent(HydEvent{Demand: []float64{0, 0}, Head: []float64{0, 0}, Flow: []float64{-1}})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, originalTail, link.Segs.Head)
	assert.Equal(t, originalHead, link.Segs.Tail)
	assert.InDelta(t, 0.9, pool.Get(link.Segs.Head).C[0], 1e-12)
	assert.InDelta(t, 0.1, pool.Get(link.Segs.Tail).C[0], 1e-12)
}

// TestTopologicalSortCycleFallbackReturnsCompletePermutation mirrors
// spec §8 scenario 6: a three-node flow loop must not deadlock the
// sorter, and must still produce a full permutation of all nodes.
func TestTopologicalSortCycleFallbackReturnsCompletePermutation(t *testing.T) {
	nodes := []*network.Node{
		{ID: "n0", Index: 0}, {ID: "n1", Index: 1}, {ID: "n2", Index: 2},
	}
	links := []*network.Link{
		{Index: 0, N1: 0, N2: 1, Dir: network.Positive},
		{Index: 1, N1: 1, N2: 2, Dir: network.Positive},
		{Index: 2, N1: 2, N2: 0, Dir: network.Positive},
	}
	g, err := buildFlowGraph(nodes, links)
	require.NoError(t, err)

	type result struct {
		order []int
		err   error
	}
	done := make(chan result, 1)
	go func() {
		order, err := topologicalOrder(g, nodes)
		done <- result{order, err}
	}()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Len(t, res.order, 3)
		seen := map[int]bool{}
		for _, idx := range res.order {
			seen[idx] = true
		}
		assert.Len(t, seen, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("topologicalOrder did not terminate on a cyclic graph")
	}
}
