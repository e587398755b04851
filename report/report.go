// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report writes the paged, fixed-width text report spec §6
// describes: a program banner, per-node and per-link concentration
// columns for each reporting period, and a mass-balance block per
// species whose pipe expression is a rate law. It is the text-output
// counterpart to outfile's binary results, grounded on fem/main.go's
// io.Pf-based banner/table printing idiom.
package report

import (
	"fmt"
	"io"

	"github.com/cpmech/msx/massbalance"
	"github.com/cpmech/msx/network"
)

const banner = "Multi-Species Water-Quality Simulation Report\n" +
	"==============================================\n\n"

// Writer accumulates per-period rows in memory (spec's "paged" report is
// assembled once the run completes, mirroring gofem's Summary/Pf-at-end
// pattern rather than a line-at-a-time stream) and renders them with
// WriteReport.
type Writer struct {
	nodes     []*network.Node
	links     []*network.Link
	species   []*network.Species
	linkCOf   func(l *network.Link) []float64

	periods []period
}

type period struct {
	t     float64
	nodeC [][]float64 // [node][species]
	linkC [][]float64 // [link][species]
}

// New returns a Writer bound to the reported nodes/links/species.
// linkConcentrationOf extracts a link's representative concentration
// vector (normally pool.Get(l.Segs.Head).C, supplied by cmd/msx so
// report stays decoupled from segment/qualrouter, the way out/'s
// plotting functions consume already-extracted series rather than
// reaching into fem internals directly).
func New(nodes []*network.Node, links []*network.Link, species []*network.Species,
	linkConcentrationOf func(l *network.Link) []float64) *Writer {
	return &Writer{nodes: nodes, links: links, species: species, linkCOf: linkConcentrationOf}
}

// Snapshot records one reporting period's current concentrations;
// wired to qualrouter.Router.OnReport alongside outfile.Writer.SaveResults.
func (w *Writer) Snapshot(tSeconds float64) {
	p := period{t: tSeconds}
	for _, n := range w.nodes {
		row := make([]float64, len(w.species))
		copy(row, n.C)
		p.nodeC = append(p.nodeC, row)
	}
	for _, l := range w.links {
		row := make([]float64, len(w.species))
		if !l.Segs.Empty() && w.linkCOf != nil {
			copy(row, w.linkCOf(l))
		}
		p.linkC = append(p.linkC, row)
	}
	w.periods = append(w.periods, p)
}

// WriteReport renders the banner, per-period concentration tables, and
// the mass-balance block for every species whose pipe expression is a
// rate law (spec §6).
func (w *Writer) WriteReport(out io.Writer, mass *massbalance.Tracker, rateSpecies []int) error {
	if _, err := fmt.Fprint(out, banner); err != nil {
		return err
	}

	for _, p := range w.periods {
		if _, err := fmt.Fprintf(out, "Time %10.1f s\n", p.t); err != nil {
			return err
		}
		if err := w.writeNodeTable(out, p); err != nil {
			return err
		}
		if err := w.writeLinkTable(out, p); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}

	if mass != nil {
		if err := w.writeMassBalance(out, mass, rateSpecies); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeNodeTable(out io.Writer, p period) error {
	if _, err := fmt.Fprintf(out, "  %-16s", "Node"); err != nil {
		return err
	}
	for _, sp := range w.species {
		if _, err := fmt.Fprintf(out, "%14s", sp.ID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	for i, n := range w.nodes {
		if _, err := fmt.Fprintf(out, "  %-16s", n.ID); err != nil {
			return err
		}
		for _, c := range p.nodeC[i] {
			if _, err := fmt.Fprintf(out, "%14.4f", c); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeLinkTable(out io.Writer, p period) error {
	if _, err := fmt.Fprintf(out, "  %-16s", "Link"); err != nil {
		return err
	}
	for _, sp := range w.species {
		if _, err := fmt.Fprintf(out, "%14s", sp.ID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	for i, l := range w.links {
		if _, err := fmt.Fprintf(out, "  %-16s", l.ID); err != nil {
			return err
		}
		row := p.linkC[i]
		for sp := range w.species {
			v := 0.0
			if sp < len(row) {
				v = row[sp]
			}
			if _, err := fmt.Fprintf(out, "%14.4f", v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}
	return nil
}

// writeMassBalance prints the initial/inflow/outflow/reacted/final/ratio
// block for every species index in rateSpecies (species whose pipe
// expression is a rate law, per spec §6's "mass-balance block per
// species whose pipe expression is a rate law").
func (w *Writer) writeMassBalance(out io.Writer, mass *massbalance.Tracker, rateSpecies []int) error {
	if _, err := fmt.Fprint(out, "\nMass Balance\n------------\n"); err != nil {
		return err
	}
	for _, idx := range rateSpecies {
		if idx < 0 || idx >= len(mass.Species) || idx >= len(w.species) {
			continue
		}
		a := mass.Species[idx]
		_, err := fmt.Fprintf(out,
			"  %-10s initial=%12.4f inflow=%12.4f outflow=%12.4f reacted=%12.4f final=%12.4f ratio=%8.6f\n",
			w.species[idx].ID, a.Initial, a.Inflow, a.Outflow, a.Reacted, a.Final, a.Ratio())
		if err != nil {
			return err
		}
	}
	return nil
}
