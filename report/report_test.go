// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"testing"

	"github.com/cpmech/msx/massbalance"
	"github.com/cpmech/msx/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReportIncludesNodeLinkAndMassBalanceSections(t *testing.T) {
	species := []*network.Species{{ID: "CL2", Index: 0}}
	n1 := &network.Node{ID: "N1", C: []float64{1.2}, Report: true}
	l1 := &network.Link{ID: "P1", Report: true}

	linkC := func(l *network.Link) []float64 { return []float64{0.9} }
	w := New([]*network.Node{n1}, []*network.Link{l1}, species, linkC)
	w.Snapshot(0)
	n1.C[0] = 1.1
	w.Snapshot(300)

	mass := massbalance.NewTracker(1)
	mass.Species[0] = massbalance.Accumulator{Initial: 10, Inflow: 5, Outflow: 3, Reacted: -1, Final: 11}

	var buf bytes.Buffer
	require.NoError(t, w.WriteReport(&buf, mass, []int{0}))

	out := buf.String()
	assert.Contains(t, out, "Multi-Species Water-Quality Simulation Report")
	assert.Contains(t, out, "N1")
	assert.Contains(t, out, "P1")
	assert.Contains(t, out, "Mass Balance")
	assert.Contains(t, out, "CL2")
}
