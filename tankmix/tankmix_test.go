// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tankmix

import (
	"math"
	"testing"

	"github.com/cpmech/msx/network"
	"github.com/cpmech/msx/segment"
	"github.com/stretchr/testify/assert"
)

func TestMix1CSTRFillThenDrain(t *testing.T) {
	pool := segment.NewPool(1, 8)
	tank := &network.Tank{Area: 10, V0: 100, V: 100, C: []float64{0}, Reacted: []float64{0}}

	for i := 0; i < 50; i++ {
		massIn := []float64{2 * 1}
		err := Mix(pool, tank, network.Mix1, 1, massIn, 0, 1, 1e-3)
		assert.NoError(t, err)
	}
	want := 2 * (1 - math.Exp(-50.0/100.0))
	assert.InDelta(t, want, tank.C[0], 0.01*want)
}

func TestFIFOConsumesDownstreamFirst(t *testing.T) {
	pool := segment.NewPool(1, 8)
	tank := &network.Tank{Area: 10, V: 0, C: []float64{0}, Reacted: []float64{0}}

	// two inflow pulses of distinct concentration, far enough apart not to merge
	assert.NoError(t, Mix(pool, tank, network.FIFO, 10, []float64{10}, 10, 1, 1e-6)) // c=1
	assert.NoError(t, Mix(pool, tank, network.FIFO, 10, []float64{50}, 10, 1, 1e-6)) // c=5

	// draining 10 volume should consume the oldest (downstream, c=1) pulse first
	assert.NoError(t, Mix(pool, tank, network.FIFO, 0, []float64{0}, -10, 1, 1e-6))
	head := pool.Get(tank.MixSegs.Head)
	assert.InDelta(t, 5.0, head.C[0], 1e-9)
}

func TestLIFOConsumesUpstreamFirst(t *testing.T) {
	pool := segment.NewPool(1, 8)
	tank := &network.Tank{Area: 10, V: 0, C: []float64{0}, Reacted: []float64{0}}

	assert.NoError(t, Mix(pool, tank, network.LIFO, 10, []float64{10}, 10, 1, 1e-6)) // c=1
	assert.NoError(t, Mix(pool, tank, network.LIFO, 10, []float64{50}, 10, 1, 1e-6)) // c=5

	// draining 10 should consume the most recently added (c=5) pulse first
	assert.NoError(t, Mix(pool, tank, network.LIFO, 0, []float64{0}, -10, 1, 1e-6))
	tail := pool.Get(tank.MixSegs.Tail)
	assert.InDelta(t, 1.0, tail.C[0], 1e-9)
}
