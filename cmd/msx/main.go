// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command msx is a thin driver exercising the library end to end: it
// parses a project input file, wires chem/tankmix/sparsechol/dispersion
// into a qualrouter.Router fed by a binary hydraulic trace, and writes
// binary results plus a text report. It mirrors gofem/main.go's
// flag-parse-then-recover structure rather than being a product
// surface in its own right (spec's Non-goals).
package main

import (
	"flag"
	"math"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/msx/chem"
	"github.com/cpmech/msx/dispersion"
	"github.com/cpmech/msx/errcode"
	"github.com/cpmech/msx/hydfile"
	"github.com/cpmech/msx/network"
	"github.com/cpmech/msx/outfile"
	"github.com/cpmech/msx/projfile"
	"github.com/cpmech/msx/qualrouter"
	"github.com/cpmech/msx/report"
	"github.com/cpmech/msx/segment"
)

// litersPerFt3 is the fixed unit-conversion factor EPANET and
// EPANET-MSX both use internally (1 ft^3 = 28.3168 liters); a
// project's AREA_UNITS option only affects how Av-dependent user
// expressions are interpreted, not this internal storage convention.
const litersPerFt3 = 28.3168

func main() {
	msxPath := flag.String("msx", "", "path to the project input file")
	hydPath := flag.String("hyd", "", "path to the binary hydraulic trace file")
	outPath := flag.String("out", "", "path to write the binary results file")
	rptPath := flag.String("rpt", "", "path to write the text report file")
	flag.Parse()

	defer func() {
		if r := recover(); r != nil {
			io.Pfred("\nERROR: %v\n", r)
			os.Exit(1)
		}
	}()

	if *msxPath == "" || *hydPath == "" {
		chk.Panic("both -msx and -hyd are required")
	}

	io.Pf("Multi-Species Water-Quality Simulation Engine\n")

	proj := readProject(*msxPath)
	qStagnantCFS := network.QStagnantGPM * 0.0022280093 // gpm -> cfs

	hydFile, err := os.Open(*hydPath)
	if err != nil {
		chk.Panic("cannot open hydraulic trace: %v", err)
	}
	defer hydFile.Close()
	hyd, err := hydfile.Open(hydFile, qStagnantCFS)
	if err != nil {
		chk.Panic("cannot read hydraulic trace header: %v", err)
	}

	pool := segment.NewPool(len(proj.Species), proj.Options.Segments*len(proj.Links)+64)
	seedPipes(pool, proj)

	engine := chem.NewEngine(proj.Species, proj.Terms, len(proj.Parameters), len(proj.Constants),
		maxClassSize(proj.Species), maxClassSize(proj.Species))
	engine.Solver = solverFromOption(proj.Options.Solver)
	engine.Coupling = couplingFromOption(proj.Options.Coupling)
	engine.RateU = rateUnitsFromOption(proj.Options.RateUnits)

	disp, err := dispersion.Open(proj.Nodes, proj.Links, proj.Tanks, pool, 1, litersPerFt3, proj.Options.Peclet)
	if err != nil {
		chk.Panic("cannot open dispersion system: %v", err)
	}

	paramDefaults := make([]float64, len(proj.Parameters))
	for i, p := range proj.Parameters {
		paramDefaults[i] = p.Default
	}
	constants := make([]float64, len(proj.Constants))
	for i, c := range proj.Constants {
		constants[i] = c.Value
	}

	router, err := qualrouter.Open(proj.Nodes, proj.Links, proj.Tanks, proj.Patterns,
		paramDefaults, constants, len(proj.Species), pool, engine, disp, hyd,
		1, litersPerFt3, qStagnantCFS, proj.Options.PatternStepSec, 0.01, 1)
	if err != nil {
		chk.Panic("cannot open qualrouter: %v", err)
	}
	router.QstepMS = int64(proj.Options.TimestepSec * 1000)

	var outWriter *outfile.Writer
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			chk.Panic("cannot create output file: %v", err)
		}
		defer f.Close()
		outWriter, err = outfile.Create(f, proj.Nodes, proj.Links, proj.Species, pool, proj.Options.TimestepSec)
		if err != nil {
			chk.Panic("cannot write output header: %v", err)
		}
	}

	rpt := report.New(proj.Nodes, proj.Links, proj.Species, func(l *network.Link) []float64 {
		if l.Segs.Empty() {
			return nil
		}
		return pool.Get(l.Segs.Head).C
	})

	router.OnReport = func(tSeconds float64) error {
		rpt.Snapshot(tSeconds)
		if outWriter != nil {
			return outWriter.SaveResults(tSeconds)
		}
		return nil
	}

	if err := router.Init(true); err != nil {
		chk.Panic("cannot initialize simulation: %v", err)
	}

	worst := errcode.Success
	for {
		_, _, code := router.Step()
		if code != errcode.Success && code.IsFatal() {
			chk.Panic("simulation aborted: %v", code)
		}
		if code.IsWarning() && worst == errcode.Success {
			worst = code
		}
		if router.Done {
			break
		}
	}
	router.Finalize()

	if outWriter != nil {
		if err := outWriter.Close(worst); err != nil {
			chk.Panic("cannot finalize output file: %v", err)
		}
	}

	if *rptPath != "" {
		f, err := os.Create(*rptPath)
		if err != nil {
			chk.Panic("cannot create report file: %v", err)
		}
		defer f.Close()
		rateSpecies := chem.Classify(proj.Species).PipeRate
		if err := rpt.WriteReport(f, router.Mass, rateSpecies); err != nil {
			chk.Panic("cannot write report: %v", err)
		}
	}

	io.Pf("Simulation complete.\n")
}

func readProject(path string) *projfile.Project {
	f, err := os.Open(path)
	if err != nil {
		chk.Panic("cannot open project input file: %v", err)
	}
	defer f.Close()
	proj, err := projfile.Parse(f)
	if err != nil {
		chk.Panic("%v", err)
	}
	return proj
}

// seedPipes gives every pipe a single full-volume segment at its
// initial concentration; finer subdivision only emerges from
// advection/reversal/merge-tolerance during the run, since spec.md
// specifies a segment-volume invariant (sum of segment volumes equals
// pipe volume) but not an initial-subdivision algorithm.
func seedPipes(pool *segment.Pool, proj *projfile.Project) {
	for _, l := range proj.Links {
		vol := 0.25 * math.Pi * l.Diameter * l.Diameter * l.Length
		h := pool.GetFreeSeg(vol, l.C0)
		pool.AddSeg(&l.Segs, h)
	}
	for _, tk := range proj.Tanks {
		h := pool.GetFreeSeg(tk.V0, tk.C)
		pool.AddSeg(&tk.MixSegs, h)
	}
}

func maxClassSize(species []*network.Species) int {
	n := len(species)
	if n < 1 {
		n = 1
	}
	return n
}

func solverFromOption(s string) chem.SolverKind {
	switch s {
	case "RK5":
		return chem.SolverRK5
	case "ROS2":
		return chem.SolverROS2
	default:
		return chem.SolverEuler
	}
}

func couplingFromOption(s string) chem.Coupling {
	if s == "FULL" {
		return chem.CouplingFull
	}
	return chem.CouplingNone
}

func rateUnitsFromOption(s string) chem.RateUnits {
	switch s {
	case "MIN":
		return chem.RateMin
	case "HR":
		return chem.RateHr
	case "DAY":
		return chem.RateDay
	default:
		return chem.RateSec
	}
}
