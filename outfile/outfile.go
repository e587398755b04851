// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package outfile writes the binary results file spec §6 describes:
// a header naming every species, one species-major record per
// reporting period, and a trailer locating the results block. It is
// wired to qualrouter.Router.OnReport by cmd/msx, the binary-results
// counterpart to gofem's fem/output.go snapshotting.
package outfile

import (
	"encoding/binary"
	"io"

	"github.com/cpmech/msx/errcode"
	"github.com/cpmech/msx/network"
	"github.com/cpmech/msx/segment"
)

// Magic is the header/trailer magic number, reusing spec §6's hydraulic
// trace value as the project's single file-format signature.
const Magic int32 = 516114521

// Writer accumulates one reporting period at a time behind an
// io.WriteSeeker (a *os.File in production, an in-memory seekable byte
// slice in tests) so the trailer can record the byte
// offset where periodic results begin.
type Writer struct {
	w        io.WriteSeeker
	nodes    []*network.Node
	links    []*network.Link
	species  []*network.Species
	pool     *segment.Pool
	nPeriods int32
	resultsOffset int64
}

// Create writes the header (magic, version, reported-node count,
// reported-link count, species count, reporting step, then per-species
// name/units) and returns a Writer ready for SaveResults calls. Only
// nodes/links with Report == true are counted and later written, per
// the project's [REPORT] section (spec §6).
func Create(w io.WriteSeeker, nodes []*network.Node, links []*network.Link, species []*network.Species,
	pool *segment.Pool, reportStepSec float64) (*Writer, error) {

	reportedNodes := filterReportedNodes(nodes)
	reportedLinks := filterReportedLinks(links)

	header := []int32{Magic, 1, int32(len(reportedNodes)), int32(len(reportedLinks)), int32(len(species))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return nil, errcode.ErrOpenOutFile
	}
	if err := binary.Write(w, binary.LittleEndian, float32(reportStepSec)); err != nil {
		return nil, errcode.ErrOpenOutFile
	}
	for _, sp := range species {
		if err := binary.Write(w, binary.LittleEndian, int32(len(sp.ID))); err != nil {
			return nil, errcode.ErrOpenOutFile
		}
		if _, err := w.Write([]byte(sp.ID)); err != nil {
			return nil, errcode.ErrOpenOutFile
		}
		var units [16]byte
		copy(units[:], sp.Units)
		if err := binary.Write(w, binary.LittleEndian, units); err != nil {
			return nil, errcode.ErrOpenOutFile
		}
	}

	offset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errcode.ErrOpenOutFile
	}

	return &Writer{
		w: w, nodes: reportedNodes, links: reportedLinks, species: species,
		pool: pool, resultsOffset: offset,
	}, nil
}

func filterReportedNodes(nodes []*network.Node) []*network.Node {
	out := make([]*network.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Report {
			out = append(out, n)
		}
	}
	return out
}

func filterReportedLinks(links []*network.Link) []*network.Link {
	out := make([]*network.Link, 0, len(links))
	for _, l := range links {
		if l.Report {
			out = append(out, l)
		}
	}
	return out
}

// SaveResults appends one reporting period: species-major over reported
// node concentrations, then species-major over reported link
// concentrations (spec §6). A link's reported concentration is its
// downstream-most (Head) segment, the water actually arriving at the
// link's downstream node; a link with no segments reports 0.
func (w *Writer) SaveResults(tSeconds float64) error {
	for sp := range w.species {
		row := make([]float32, len(w.nodes))
		for i, n := range w.nodes {
			row[i] = float32(n.C[sp])
		}
		if err := binary.Write(w.w, binary.LittleEndian, row); err != nil {
			return errcode.ErrOpenOutFile
		}
	}
	for sp := range w.species {
		row := make([]float32, len(w.links))
		for i, l := range w.links {
			row[i] = float32(w.linkConcentration(l, sp))
		}
		if err := binary.Write(w.w, binary.LittleEndian, row); err != nil {
			return errcode.ErrOpenOutFile
		}
	}
	w.nPeriods++
	return nil
}

func (w *Writer) linkConcentration(l *network.Link, sp int) float64 {
	if l.Segs.Empty() {
		return 0
	}
	return w.pool.Get(l.Segs.Head).C[sp]
}

// Close writes the trailer (results offset, period count, error code,
// magic) (spec §6). errorCode is the worst errcode.Code encountered
// over the run, or errcode.Success.
func (w *Writer) Close(errorCode errcode.Code) error {
	trailer := []int32{int32(w.resultsOffset), w.nPeriods, int32(errorCode), Magic}
	if err := binary.Write(w.w, binary.LittleEndian, trailer); err != nil {
		return errcode.ErrOpenOutFile
	}
	return nil
}
