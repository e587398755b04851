// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hydfile reads the binary hydraulic trace file spec §6
// describes: a fixed header followed by one fixed-size record per
// hydraulic event. It implements qualrouter.HydSource directly so a
// *Reader plugs into Router.Open without an adapter, the way gofem's
// inp readers hand domain-ready structures straight to fem.Domain.
package hydfile

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/cpmech/msx/errcode"
	"github.com/cpmech/msx/qualrouter"
)

// Magic is the required header magic number (spec §6).
const Magic int32 = 516114521

// Header is the hydraulic trace file's fixed preamble.
type Header struct {
	Version int32
	NNodes  int32
	NLinks  int32
}

// Reader streams HydEvents out of a binary hydraulic trace, satisfying
// qualrouter.HydSource. It owns no file handle — callers pass an
// io.Reader (typically a *os.File wrapped by bufio) and close it
// themselves, mirroring how gofem keeps file lifetime with the caller
// rather than inside its inp readers.
type Reader struct {
	r         *bufio.Reader
	Header    Header
	qStagnant float64
}

// Open reads and validates the header, returning a Reader positioned at
// the first hydraulic event. qStagnantCFS is the already-unit-converted
// Q_STAGNANT threshold (spec §3) applied to every flow value read.
func Open(r io.Reader, qStagnantCFS float64) (*Reader, error) {
	br := bufio.NewReader(r)
	var raw [7]int32
	if err := binary.Read(br, binary.LittleEndian, &raw); err != nil {
		return nil, errcode.ErrOpenHydFile
	}
	if raw[0] != Magic {
		return nil, errcode.ErrBadMagic
	}
	return &Reader{
		r:         br,
		Header:    Header{Version: raw[1], NNodes: raw[2], NLinks: raw[3]},
		qStagnant: qStagnantCFS,
	}, nil
}

// Next reads the next hydraulic event, classifying and zeroing any
// below-Q_STAGNANT flow per spec §6's "absolute flow below Q_STAGNANT
// ... is replaced with 0 after read". ok is false (err nil) once the
// stream is cleanly exhausted at a record boundary; any other read
// failure, including a truncated record, is reported as
// errcode.ErrShortRead.
func (rd *Reader) Next() (qualrouter.HydEvent, bool, error) {
	var timeSec int32
	if err := binary.Read(rd.r, binary.LittleEndian, &timeSec); err != nil {
		if err == io.EOF {
			return qualrouter.HydEvent{}, false, nil
		}
		return qualrouter.HydEvent{}, false, errcode.ErrShortRead
	}

	nNodes := int(rd.Header.NNodes)
	nLinks := int(rd.Header.NLinks)

	demand, err := rd.readF32Slice(nNodes)
	if err != nil {
		return qualrouter.HydEvent{}, false, err
	}
	head, err := rd.readF32Slice(nNodes)
	if err != nil {
		return qualrouter.HydEvent{}, false, err
	}
	flow, err := rd.readF32Slice(nLinks)
	if err != nil {
		return qualrouter.HydEvent{}, false, err
	}
	if _, err := rd.readF32Slice(nLinks); err != nil { // status, discarded
		return qualrouter.HydEvent{}, false, err
	}
	if _, err := rd.readF32Slice(nLinks); err != nil { // settings, discarded
		return qualrouter.HydEvent{}, false, err
	}

	var timeStep int32
	if err := binary.Read(rd.r, binary.LittleEndian, &timeStep); err != nil {
		return qualrouter.HydEvent{}, false, errcode.ErrShortRead
	}

	for i, q := range flow {
		if q < float32(rd.qStagnant) && q > -float32(rd.qStagnant) {
			flow[i] = 0
		}
	}

	return qualrouter.HydEvent{
		TimeSec:     int(timeSec),
		Demand:      demand,
		Head:        head,
		Flow:        flow,
		TimeStepSec: int(timeStep),
	}, true, nil
}

func (rd *Reader) readF32Slice(n int) ([]float64, error) {
	raw := make([]float32, n)
	if err := binary.Read(rd.r, binary.LittleEndian, raw); err != nil {
		return nil, errcode.ErrShortRead
	}
	out := make([]float64, n)
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}
