// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exprlang

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripStepSgnCoth(t *testing.T) {
	n, err := Parse("(3+4)*step(-1) + sgn(0) + coth(1)", nil)
	require.NoError(t, err)
	prog := Compile(n)
	got := prog.Eval(nil, nil, "")
	want := 1.0 / math.Tanh(1)
	assert.InDelta(t, want, got, 1e-12)
	assert.InDelta(t, 1.3130352854993313, got, 1e-9)
}

func TestRightAssociativePower(t *testing.T) {
	// 2^3^2 == 2^(3^2) == 2^9 == 512
	n, err := Parse("2^3^2", nil)
	require.NoError(t, err)
	got := Compile(n).Eval(nil, nil, "")
	assert.InDelta(t, 512.0, got, 1e-9)
}

func TestReservedNamesRejectedAsUserIDs(t *testing.T) {
	res := &fakeResolver{known: map[string]struct {
		kind VarKind
		idx  int
	}{}}
	for name := range ReservedHydraulicVars {
		_, _, ok := res.Resolve(name)
		assert.False(t, ok, "reserved name %q must not resolve as a user identifier", name)
	}
}

func TestNaNCollapsesToZeroAndRaisesOnce(t *testing.T) {
	n, err := Parse("asin(2) + asin(2)", nil)
	require.NoError(t, err)
	var tracker MathErrorTracker
	got := Compile(n).Eval(nil, &tracker, "species A")
	assert.Equal(t, 0.0, got)
	assert.Equal(t, "species A", tracker.Message)
}

func TestDivisionByZeroYieldsZero(t *testing.T) {
	n, err := Parse("1/0", nil)
	require.NoError(t, err)
	got := Compile(n).Eval(nil, nil, "")
	assert.Equal(t, 0.0, got)
}

func TestStackUnderflowFromMalformedProgramYieldsZero(t *testing.T) {
	p := &Program{code: []instr{{op: opAdd}}}
	assert.NotPanics(t, func() {
		got := p.Eval(nil, nil, "")
		assert.Equal(t, 0.0, got)
	})
}

func TestCyclicTermDetection(t *testing.T) {
	// term0 references term1, term1 references term0: a cycle.
	t0 := &Node{Kind: KindVar, VarName: "T1"}
	t1 := &Node{Kind: KindVar, VarName: "T0"}
	refersTerm := func(n *Node) (int, bool) {
		switch n.VarName {
		case "T0":
			return 0, true
		case "T1":
			return 1, true
		}
		return 0, false
	}
	_, found := CheckCyclicTerms([]*Node{t0, t1}, refersTerm)
	assert.True(t, found)
}

func TestNoCycleForAcyclicTerms(t *testing.T) {
	t0 := &Node{Kind: KindLit, Lit: 1}
	t1 := &Node{Kind: KindVar, VarName: "T0"}
	refersTerm := func(n *Node) (int, bool) {
		if n.VarName == "T0" {
			return 0, true
		}
		return 0, false
	}
	_, found := CheckCyclicTerms([]*Node{t0, t1}, refersTerm)
	assert.False(t, found)
}

func TestStringRoundTrip(t *testing.T) {
	n, err := Parse("2*(3+4)-1", nil)
	require.NoError(t, err)
	s := String(n, nil)
	n2, err := Parse(s, nil)
	require.NoError(t, err)
	a := Compile(n).Eval(nil, nil, "")
	b := Compile(n2).Eval(nil, nil, "")
	assert.InDelta(t, a, b, 1e-12)
}

type fakeResolver struct {
	known map[string]struct {
		kind VarKind
		idx  int
	}
}

func (r *fakeResolver) Resolve(name string) (VarKind, int, bool) {
	if ReservedHydraulicVars[name] {
		return 0, 0, false
	}
	v, ok := r.known[name]
	return v.kind, v.idx, ok
}
