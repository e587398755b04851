// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hydfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/cpmech/msx/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEvent(buf *bytes.Buffer, timeSec int32, demand, head, flow []float32, timeStep int32) {
	binary.Write(buf, binary.LittleEndian, timeSec)
	binary.Write(buf, binary.LittleEndian, demand)
	binary.Write(buf, binary.LittleEndian, head)
	binary.Write(buf, binary.LittleEndian, flow)
	status := make([]float32, len(flow))
	binary.Write(buf, binary.LittleEndian, status)
	binary.Write(buf, binary.LittleEndian, status)
	binary.Write(buf, binary.LittleEndian, timeStep)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, [7]int32{1, 1, 1, 1, 0, 0, 0})
	_, err := Open(buf, 1.114e-5)
	assert.Equal(t, errcode.ErrBadMagic, err)
}

func TestNextReadsEventAndZeroesStagnantFlow(t *testing.T) {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, [7]int32{Magic, 1, 2, 1, 0, 0, 0})
	writeEvent(buf, 0, []float32{1, -1}, []float32{10, 9}, []float32{0.001}, 3600)

	rd, err := Open(buf, 0.01)
	require.NoError(t, err)
	ev, ok, err := rd.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.0, ev.Flow[0]) // below qStagnant, zeroed
	assert.Equal(t, 3600, ev.TimeStepSec)
	assert.Equal(t, []float64{1, -1}, ev.Demand)

	_, ok, err = rd.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNextReportsShortReadOnTruncatedRecord(t *testing.T) {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, [7]int32{Magic, 1, 1, 1, 0, 0, 0})
	binary.Write(buf, binary.LittleEndian, int32(0))
	binary.Write(buf, binary.LittleEndian, []float32{1}) // only demand, nothing else

	rd, err := Open(buf, 0.01)
	require.NoError(t, err)
	_, ok, err := rd.Next()
	assert.False(t, ok)
	assert.Equal(t, errcode.ErrShortRead, err)
}
