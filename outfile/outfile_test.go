// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package outfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/cpmech/msx/errcode"
	"github.com/cpmech/msx/network"
	"github.com/cpmech/msx/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFile is an in-memory io.WriteSeeker over a growable byte slice,
// for testing.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	if m.pos+len(p) > len(m.buf) {
		grown := make([]byte, m.pos+len(p))
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.pos:], p)
	m.pos += n
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekCurrent:
		return int64(m.pos), nil
	case io.SeekStart:
		m.pos = int(offset)
		return offset, nil
	}
	return 0, errors.New("unsupported whence")
}

func TestCreateThenSaveResultsThenCloseRoundTrips(t *testing.T) {
	species := []*network.Species{{ID: "A", Index: 0, Units: "MG/L"}}
	nodes := []*network.Node{{ID: "n1", C: []float64{1}, Report: true}}
	links := []*network.Link{{ID: "p1", Report: true}}
	pool := segment.NewPool(1, 4)
	h := pool.GetFreeSeg(1, []float64{0.5})
	pool.AddSeg(&links[0].Segs, h)

	f := &memFile{}
	w, err := Create(f, nodes, links, species, pool, 3600)
	require.NoError(t, err)

	require.NoError(t, w.SaveResults(0))
	nodes[0].C[0] = 2
	require.NoError(t, w.SaveResults(3600))
	require.NoError(t, w.Close(errcode.Success))

	assert.Equal(t, int32(2), w.nPeriods)

	// re-parse the trailer back out to confirm it was written correctly.
	trailer := f.buf[len(f.buf)-16:]
	var vals [4]int32
	require.NoError(t, binary.Read(bytes.NewReader(trailer), binary.LittleEndian, &vals))
	assert.Equal(t, int32(2), vals[1])       // nPeriods
	assert.Equal(t, int32(0), vals[2])       // errorCode == Success
	assert.Equal(t, Magic, vals[3])
}
