// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package massbalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatioIsOneForAPerfectlyClosedBalance(t *testing.T) {
	a := Accumulator{Initial: 10, Inflow: 5, Outflow: 3, Reacted: -2, Final: 10}
	// initial+inflow = 15, minus 3 outflow minus 2 reacted-loss = 10 final. Closed.
	assert.InDelta(t, 1.0, a.Ratio(), 1e-12)
}

func TestRatioAccountsForReactedGain(t *testing.T) {
	a := Accumulator{Initial: 10, Reacted: 5, Final: 15}
	assert.InDelta(t, 1.0, a.Ratio(), 1e-12)
}

func TestRatioZeroWhenNoMassEverPresent(t *testing.T) {
	assert.Equal(t, 0.0, Accumulator{}.Ratio())
}

func TestTrackerResetZeroesAllAccumulators(t *testing.T) {
	tr := NewTracker(2)
	tr.Species[0] = Accumulator{Initial: 5, Final: 5}
	tr.Species[1] = Accumulator{Initial: 1}
	tr.Reset()
	assert.Equal(t, Accumulator{}, tr.Species[0])
	assert.Equal(t, Accumulator{}, tr.Species[1])
}
