// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[TITLE]
Chlorine decay example

[SPECIES]
CL2 BULK MG/L 0.01 0.001

[COEFFICIENTS]
PARAMETER KB 0.5
CONSTANT  KCONST 1.0

[TERMS]
RATE -KB*CL2

[PIPES]
P1 N1 N2 1.0 1000 100

[TANKS]
T1 N2 1000 500 MIX1

[SOURCES]
CONCEN N1 CL2 1.0

[QUALITY]
N1 CL2 1.0

[PATTERNS]
PAT1 1.0 0.8 0.6

[OPTIONS]
TIMESTEP 300
SOLVER RK5
SEGMENTS 50
PECLET 1000

[REPORT]
NODE ALL
LINK ALL

[DIFFUSIVITY]
CL2 1.2e-9
`

func TestParseFullSample(t *testing.T) {
	p, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "Chlorine decay example", p.Title)
	require.Len(t, p.Species, 1)
	assert.Equal(t, "CL2", p.Species[0].ID)
	require.Len(t, p.Parameters, 1)
	require.Len(t, p.Constants, 1)
	require.Len(t, p.Terms, 1)
	require.Len(t, p.Links, 1)
	require.Len(t, p.Tanks, 1)
	require.Len(t, p.Nodes, 2)
	require.Len(t, p.Patterns, 1)
	assert.Equal(t, []float64{1.0, 0.8, 0.6}, p.Patterns[0].Multipliers)
	assert.Equal(t, 300.0, p.Options.TimestepSec)
	assert.Equal(t, "RK5", p.Options.Solver)
	assert.Equal(t, 1.2e-9, p.Links[0].MolecDiffusion[0])

	var n1 *int
	for i, n := range p.Nodes {
		if n.ID == "N1" {
			idx := i
			n1 = &idx
		}
	}
	require.NotNil(t, n1)
	assert.Equal(t, 1.0, p.Nodes[*n1].C0[0])
	require.Len(t, p.Nodes[*n1].Sources, 1)
}

func TestParseRejectsDuplicateSpeciesWithLineNumber(t *testing.T) {
	const bad = "[SPECIES]\nCL2 BULK MG/L\nCL2 BULK MG/L\n"
	_, err := Parse(strings.NewReader(bad))
	require.Error(t, err)
	pe, ok := err.(*ParseErr)
	require.True(t, ok)
	assert.Equal(t, 3, pe.Line)
	assert.Equal(t, "SPECIES", pe.Section)
}

func TestParseRejectsReservedHydraulicVariableName(t *testing.T) {
	const bad = "[SPECIES]\nQ BULK MG/L\n"
	_, err := Parse(strings.NewReader(bad))
	require.Error(t, err)
	pe, ok := err.(*ParseErr)
	require.True(t, ok)
	assert.Contains(t, pe.Detail, "reserved")
}

func TestParseRejectsUnknownSourceReference(t *testing.T) {
	const bad = "[SPECIES]\nCL2 BULK MG/L\n[SOURCES]\nCONCEN GHOST CL2 1.0\n"
	_, err := Parse(strings.NewReader(bad))
	require.Error(t, err)
}
