// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package projfile parses the section-structured project input file
// spec §6 describes ([TITLE], [SPECIES], [COEFFICIENTS], [TERMS],
// [PIPES], [TANKS], [SOURCES], [QUALITY], [PARAMETERS], [PATTERNS],
// [OPTIONS], [REPORT], [DIFFUSIVITY]) into a Project ready to feed
// chem.NewEngine, network's node/link/tank slices, and qualrouter.Open.
// It follows spec §7's input-error convention: every syntax/semantic
// error carries the section name and line number it was found at.
package projfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cpmech/msx/errcode"
	"github.com/cpmech/msx/network"
)

// ParseErr is an input-file error carrying section + line context, per
// spec §7's "reported with section name and line number" requirement.
type ParseErr struct {
	Section string
	Line    int
	Code    errcode.Code
	Detail  string
}

func (e *ParseErr) Error() string {
	return fmt.Sprintf("msx: [%s] line %d: %s (code %d)", e.Section, e.Line, e.Detail, e.Code)
}

// Options mirrors the [OPTIONS] section (spec §6).
type Options struct {
	AreaUnits   string // FT2, M2, CM2
	RateUnits   string // SEC, MIN, HR, DAY
	Solver      string // EUL, RK5, ROS2
	Coupling    string // NONE, FULL
	TimestepSec float64
	RTOL        float64
	ATOL        float64
	Compiler    string // NONE, VC, GC
	Segments    int     // min 50
	Peclet      float64 // >1

	// PatternStepSec is not part of the spec §6 OPTIONS list, but every
	// pattern-driven source needs a pattern interval length distinct
	// from the quality timestep (EPANET-MSX reuses the hydraulic
	// pattern step for this); exposed as PATTERN_STEP so a project can
	// override the default hourly interval.
	PatternStepSec float64
}

// DefaultOptions matches EPANET-MSX's documented defaults.
func DefaultOptions() Options {
	return Options{
		AreaUnits: "FT2", RateUnits: "SEC", Solver: "EUL", Coupling: "NONE",
		TimestepSec: 300, RTOL: 0.001, ATOL: 0.01, Compiler: "NONE",
		Segments: 50, Peclet: 1000, PatternStepSec: 3600,
	}
}

// Project is everything projfile extracts: the data-model slices
// network/chem need, plus the resolver that validated every identifier
// as it was declared.
type Project struct {
	Title      string
	Species    []*network.Species
	Terms      []*network.Term
	Parameters []*network.Parameter
	Constants  []*network.Constant
	Patterns   []*network.Pattern
	Nodes      []*network.Node
	Links      []*network.Link
	Tanks      []*network.Tank
	Options    Options
	VarTable   *network.VarTable

	nodeIdx map[string]int
	linkIdx map[string]int
	specIdx map[string]int
	paramIdx map[string]int
	patIdx   map[string]int
}

// Parse reads a project input file from r.
func Parse(r io.Reader) (*Project, error) {
	p := &Project{
		VarTable: network.NewVarTable(),
		Options:  DefaultOptions(),
		nodeIdx:  map[string]int{},
		linkIdx:  map[string]int{},
		specIdx:  map[string]int{},
		paramIdx: map[string]int{},
		patIdx:   map[string]int{},
	}

	section := ""
	lineNo := 0
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		lineNo++
		line := stripComment(sc.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			section = strings.ToUpper(strings.Trim(line, "[] \t"))
			continue
		}
		if err := p.dispatch(section, line, lineNo); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseErr{Section: section, Line: lineNo, Code: errcode.ErrOpenMsxFile, Detail: err.Error()}
	}

	if len(p.Species) == 0 {
		return nil, &ParseErr{Section: "SPECIES", Line: 0, Code: errcode.ErrMissingSection, Detail: "no species declared"}
	}
	return p, nil
}

func stripComment(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return s[:i]
	}
	return s
}

func (p *Project) dispatch(section, line string, lineNo int) error {
	fields := strings.Fields(line)
	switch section {
	case "TITLE":
		if p.Title != "" {
			p.Title += " "
		}
		p.Title += line
	case "SPECIES":
		return p.addSpecies(fields, lineNo)
	case "COEFFICIENTS":
		return p.addCoefficient(fields, lineNo)
	case "TERMS":
		return p.addTerm(fields, lineNo)
	case "PIPES":
		return p.addPipe(fields, lineNo)
	case "TANKS":
		return p.addTank(fields, lineNo)
	case "SOURCES":
		return p.addSource(fields, lineNo)
	case "QUALITY":
		return p.setQuality(fields, lineNo)
	case "PARAMETERS":
		return p.setParamOverride(fields, lineNo)
	case "PATTERNS":
		return p.addPatternRow(fields, lineNo)
	case "OPTIONS":
		return p.setOption(fields, lineNo)
	case "REPORT":
		return p.setReport(fields, lineNo)
	case "DIFFUSIVITY":
		return p.setDiffusivity(fields, lineNo)
	default:
		return &ParseErr{Section: section, Line: lineNo, Code: errcode.ErrMissingSection,
			Detail: "data line outside any recognized section"}
	}
	return nil
}

func perr(section string, line int, code errcode.Code, detail string) error {
	return &ParseErr{Section: section, Line: line, Code: code, Detail: detail}
}

// --- SPECIES: <id> <BULK|WALL> <units> [atol] [rtol] ---

func (p *Project) addSpecies(f []string, line int) error {
	if len(f) < 3 {
		return perr("SPECIES", line, errcode.ErrIllegalExpr, "expected: id BULK|WALL units [atol] [rtol]")
	}
	kind := network.Bulk
	switch strings.ToUpper(f[1]) {
	case "WALL":
		kind = network.Wall
	case "BULK":
		kind = network.Bulk
	default:
		return perr("SPECIES", line, errcode.ErrIllegalExpr, "species kind must be BULK or WALL")
	}
	idx := len(p.Species)
	if err := p.VarTable.AddSpecies(f[0], idx); err != nil {
		return perr("SPECIES", line, dupOrReserved(err), err.Error())
	}
	sp := &network.Species{ID: f[0], Index: idx, Kind: kind, Units: f[2], Precision: 2}
	if len(f) > 3 {
		sp.ATol, _ = strconv.ParseFloat(f[3], 64)
	}
	if len(f) > 4 {
		sp.RTol, _ = strconv.ParseFloat(f[4], 64)
	}
	p.specIdx[f[0]] = idx
	p.Species = append(p.Species, sp)
	return nil
}

func dupOrReserved(err error) errcode.Code {
	if strings.Contains(err.Error(), "reserved") {
		return errcode.ErrReservedName
	}
	return errcode.ErrDuplicateID
}

// --- COEFFICIENTS: PARAMETER <id> <default> | CONSTANT <id> <value> ---

func (p *Project) addCoefficient(f []string, line int) error {
	if len(f) < 3 {
		return perr("COEFFICIENTS", line, errcode.ErrIllegalExpr, "expected: PARAMETER|CONSTANT id value")
	}
	val, err := strconv.ParseFloat(f[2], 64)
	if err != nil {
		return perr("COEFFICIENTS", line, errcode.ErrIllegalExpr, "non-numeric coefficient value")
	}
	switch strings.ToUpper(f[0]) {
	case "PARAMETER":
		idx := len(p.Parameters)
		if err := p.VarTable.AddParameter(f[1], idx); err != nil {
			return perr("COEFFICIENTS", line, dupOrReserved(err), err.Error())
		}
		p.paramIdx[f[1]] = idx
		p.Parameters = append(p.Parameters, &network.Parameter{ID: f[1], Index: idx, Default: val})
	case "CONSTANT":
		idx := len(p.Constants)
		if err := p.VarTable.AddConstant(f[1], idx); err != nil {
			return perr("COEFFICIENTS", line, dupOrReserved(err), err.Error())
		}
		p.Constants = append(p.Constants, &network.Constant{ID: f[1], Index: idx, Value: val})
	default:
		return perr("COEFFICIENTS", line, errcode.ErrIllegalExpr, "expected PARAMETER or CONSTANT")
	}
	return nil
}

// --- TERMS: <id> <expression> ---

func (p *Project) addTerm(f []string, line int) error {
	if len(f) < 2 {
		return perr("TERMS", line, errcode.ErrIllegalExpr, "expected: id expression")
	}
	idx := len(p.Terms)
	if err := p.VarTable.AddTerm(f[0], idx); err != nil {
		return perr("TERMS", line, dupOrReserved(err), err.Error())
	}
	expr := strings.Join(f[1:], " ")
	compiled, err := p.VarTable.Compile(expr)
	if err != nil {
		return perr("TERMS", line, errcode.ErrIllegalExpr, err.Error())
	}
	p.Terms = append(p.Terms, &network.Term{ID: f[0], Index: idx, Prog: compiled})
	return nil
}

// --- PIPES (topology): defines the network topology a real deployment
// would otherwise get from EPANET's own .inp hydraulic file — parsing
// that file's full grammar is outside spec.md's scope (the hydraulic
// solver itself is a Non-goal), but nothing downstream can run without
// pipe endpoints/geometry, so this section carries them:
// <pipeID> <node1ID> <node2ID> <diameter> <length> [roughness]. No
// section of the file sets a species' pipe or tank expression. ---

func (p *Project) addPipe(f []string, line int) error {
	if len(f) < 5 {
		return perr("PIPES", line, errcode.ErrIllegalExpr,
			"expected: id node1 node2 diameter length [roughness]")
	}
	if _, dup := p.linkIdx[f[0]]; dup {
		return perr("PIPES", line, errcode.ErrDuplicateID, "duplicate pipe id "+f[0])
	}
	n1 := p.internNode(f[1])
	n2 := p.internNode(f[2])
	diam, _ := strconv.ParseFloat(f[3], 64)
	length, _ := strconv.ParseFloat(f[4], 64)
	rough := 100.0
	if len(f) > 5 {
		rough, _ = strconv.ParseFloat(f[5], 64)
	}
	idx := len(p.Links)
	l := &network.Link{
		ID: f[0], Index: idx, N1: n1, N2: n2, Diameter: diam, Length: length, Roughness: rough,
		Dir: network.Positive, ParamOverride: map[int]float64{},
		C0: make([]float64, len(p.Species)), Reacted: make([]float64, len(p.Species)),
		MolecDiffusion: make([]float64, len(p.Species)), Report: true,
	}
	p.linkIdx[f[0]] = idx
	p.Links = append(p.Links, l)
	p.Nodes[n1].Incident = append(p.Nodes[n1].Incident, idx)
	p.Nodes[n2].Incident = append(p.Nodes[n2].Incident, idx)
	return nil
}

func (p *Project) internNode(id string) int {
	if idx, ok := p.nodeIdx[id]; ok {
		return idx
	}
	idx := len(p.Nodes)
	n := &network.Node{
		ID: id, Index: idx, TankIndex: -1, Report: true,
		C: make([]float64, len(p.Species)), C0: make([]float64, len(p.Species)),
	}
	p.nodeIdx[id] = idx
	p.Nodes = append(p.Nodes, n)
	return idx
}

// --- TANKS: <tankID> <nodeID> <area> <initialVolume> <MIX1|MIX2|FIFO|LIFO> [mixFraction] ---

func (p *Project) addTank(f []string, line int) error {
	if len(f) < 5 {
		return perr("TANKS", line, errcode.ErrIllegalExpr,
			"expected: id node area initialVolume MIX1|MIX2|FIFO|LIFO [mixFraction]")
	}
	ni := p.internNode(f[1])
	if p.Nodes[ni].TankIndex != -1 {
		return perr("TANKS", line, errcode.ErrDuplicateID, "duplicate tank id "+f[0])
	}
	area, _ := strconv.ParseFloat(f[2], 64)
	v0, _ := strconv.ParseFloat(f[3], 64)
	mix, err := parseMixModel(f[4])
	if err != nil {
		return perr("TANKS", line, errcode.ErrIllegalExpr, err.Error())
	}
	mixFrac := 1.0
	if len(f) > 5 {
		mixFrac, _ = strconv.ParseFloat(f[5], 64)
	}
	idx := len(p.Tanks)
	p.Tanks = append(p.Tanks, &network.Tank{
		NodeIndex: ni, Area: area, V0: v0, V: v0, Mixing: mix, MixZoneVolume: v0 * mixFrac,
		ParamOverride: map[int]float64{}, C: make([]float64, len(p.Species)), Reacted: make([]float64, len(p.Species)),
	})
	p.Nodes[ni].TankIndex = idx
	return nil
}

func parseMixModel(s string) (network.MixModel, error) {
	switch strings.ToUpper(s) {
	case "MIX1":
		return network.Mix1, nil
	case "MIX2":
		return network.Mix2, nil
	case "FIFO":
		return network.FIFO, nil
	case "LIFO":
		return network.LIFO, nil
	}
	return 0, fmt.Errorf("unknown mixing model %q", s)
}

// --- SOURCES: <CONCEN|MASS|SETPOINT|FLOWPACED> <nodeID> <speciesID> <strength> [patternID] ---

func (p *Project) addSource(f []string, line int) error {
	if len(f) < 4 {
		return perr("SOURCES", line, errcode.ErrIllegalExpr,
			"expected: type node species strength [pattern]")
	}
	var typ network.SourceType
	switch strings.ToUpper(f[0]) {
	case "CONCEN":
		typ = network.SrcConcen
	case "MASS":
		typ = network.SrcMass
	case "SETPOINT":
		typ = network.SrcSetpoint
	case "FLOWPACED":
		typ = network.SrcFlowPaced
	default:
		return perr("SOURCES", line, errcode.ErrIllegalExpr, "unknown source type "+f[0])
	}
	ni, ok := p.nodeIdx[f[1]]
	if !ok {
		return perr("SOURCES", line, errcode.ErrUnknownReference, "unknown node "+f[1])
	}
	si, ok := p.specIdx[f[2]]
	if !ok {
		return perr("SOURCES", line, errcode.ErrUnknownReference, "unknown species "+f[2])
	}
	strength, err := strconv.ParseFloat(f[3], 64)
	if err != nil {
		return perr("SOURCES", line, errcode.ErrIllegalExpr, "non-numeric strength")
	}
	patIdx := -1
	if len(f) > 4 {
		idx, ok := p.patIdx[f[4]]
		if !ok {
			return perr("SOURCES", line, errcode.ErrUnknownReference, "unknown pattern "+f[4])
		}
		patIdx = idx
	}
	p.Nodes[ni].Sources = append(p.Nodes[ni].Sources, &network.Source{
		Type: typ, SpeciesIndex: si, BaseStrength: strength, PatternIndex: patIdx,
	})
	return nil
}

// --- QUALITY: <nodeID> <speciesID> <value> ---

func (p *Project) setQuality(f []string, line int) error {
	if len(f) < 3 {
		return perr("QUALITY", line, errcode.ErrIllegalExpr, "expected: node species value")
	}
	ni, ok := p.nodeIdx[f[0]]
	if !ok {
		return perr("QUALITY", line, errcode.ErrUnknownReference, "unknown node "+f[0])
	}
	si, ok := p.specIdx[f[1]]
	if !ok {
		return perr("QUALITY", line, errcode.ErrUnknownReference, "unknown species "+f[1])
	}
	v, err := strconv.ParseFloat(f[2], 64)
	if err != nil {
		return perr("QUALITY", line, errcode.ErrIllegalExpr, "non-numeric concentration")
	}
	p.Nodes[ni].C0[si] = v
	p.Nodes[ni].C[si] = v
	return nil
}

// --- PARAMETERS: PIPE|TANK <id> <paramID> <value> ---

func (p *Project) setParamOverride(f []string, line int) error {
	if len(f) < 4 {
		return perr("PARAMETERS", line, errcode.ErrIllegalExpr, "expected: PIPE|TANK id param value")
	}
	pi, ok := p.paramIdx[f[2]]
	if !ok {
		return perr("PARAMETERS", line, errcode.ErrUnknownReference, "unknown parameter "+f[2])
	}
	v, err := strconv.ParseFloat(f[3], 64)
	if err != nil {
		return perr("PARAMETERS", line, errcode.ErrIllegalExpr, "non-numeric parameter value")
	}
	switch strings.ToUpper(f[0]) {
	case "PIPE":
		li, ok := p.linkIdx[f[1]]
		if !ok {
			return perr("PARAMETERS", line, errcode.ErrUnknownReference, "unknown pipe "+f[1])
		}
		p.Links[li].ParamOverride[pi] = v
	case "TANK":
		ni, ok := p.nodeIdx[f[1]]
		if !ok || p.Nodes[ni].TankIndex == -1 {
			return perr("PARAMETERS", line, errcode.ErrUnknownReference, "unknown tank "+f[1])
		}
		p.Tanks[p.Nodes[ni].TankIndex].ParamOverride[pi] = v
	default:
		return perr("PARAMETERS", line, errcode.ErrIllegalExpr, "expected PIPE or TANK")
	}
	return nil
}

// --- PATTERNS: <patternID> <mult1> [mult2 ...] — repeatable, appends ---

func (p *Project) addPatternRow(f []string, line int) error {
	if len(f) < 2 {
		return perr("PATTERNS", line, errcode.ErrIllegalExpr, "expected: id mult [mult ...]")
	}
	idx, ok := p.patIdx[f[0]]
	if !ok {
		idx = len(p.Patterns)
		p.patIdx[f[0]] = idx
		p.Patterns = append(p.Patterns, &network.Pattern{ID: f[0], Index: idx})
	}
	for _, tok := range f[1:] {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return perr("PATTERNS", line, errcode.ErrIllegalExpr, "non-numeric multiplier")
		}
		p.Patterns[idx].Multipliers = append(p.Patterns[idx].Multipliers, v)
	}
	return nil
}

// --- OPTIONS: <KEY> <VALUE> ---

func (p *Project) setOption(f []string, line int) error {
	if len(f) < 2 {
		return perr("OPTIONS", line, errcode.ErrIllegalExpr, "expected: KEY value")
	}
	key, val := strings.ToUpper(f[0]), f[1]
	switch key {
	case "AREA_UNITS":
		p.Options.AreaUnits = strings.ToUpper(val)
	case "RATE_UNITS":
		p.Options.RateUnits = strings.ToUpper(val)
	case "SOLVER":
		p.Options.Solver = strings.ToUpper(val)
	case "COUPLING":
		p.Options.Coupling = strings.ToUpper(val)
	case "TIMESTEP":
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return perr("OPTIONS", line, errcode.ErrIllegalExpr, "non-numeric TIMESTEP")
		}
		p.Options.TimestepSec = v
	case "RTOL":
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return perr("OPTIONS", line, errcode.ErrIllegalExpr, "non-numeric RTOL")
		}
		p.Options.RTOL = v
	case "ATOL":
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return perr("OPTIONS", line, errcode.ErrIllegalExpr, "non-numeric ATOL")
		}
		p.Options.ATOL = v
	case "COMPILER":
		p.Options.Compiler = strings.ToUpper(val)
	case "SEGMENTS":
		v, err := strconv.Atoi(val)
		if err != nil || v < 50 {
			return perr("OPTIONS", line, errcode.ErrIllegalExpr, "SEGMENTS must be an integer >= 50")
		}
		p.Options.Segments = v
	case "PECLET":
		v, err := strconv.ParseFloat(val, 64)
		if err != nil || v <= 1 {
			return perr("OPTIONS", line, errcode.ErrIllegalExpr, "PECLET must be > 1")
		}
		p.Options.Peclet = v
	case "PATTERN_STEP":
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return perr("OPTIONS", line, errcode.ErrIllegalExpr, "non-numeric PATTERN_STEP")
		}
		p.Options.PatternStepSec = v
	default:
		return perr("OPTIONS", line, errcode.ErrIllegalExpr, "unknown option "+key)
	}
	return nil
}

// --- REPORT: NODE <id|ALL|NONE> | LINK <id|ALL|NONE> ---

func (p *Project) setReport(f []string, line int) error {
	if len(f) < 2 {
		return perr("REPORT", line, errcode.ErrIllegalExpr, "expected: NODE|LINK id|ALL|NONE")
	}
	setAllNodes := func(on bool) {
		for _, n := range p.Nodes {
			n.Report = on
		}
	}
	setOneNode := func(id string) (bool, error) {
		ni, ok := p.nodeIdx[id]
		if ok {
			p.Nodes[ni].Report = true
		}
		return ok, nil
	}
	setAllLinks := func(on bool) {
		for _, l := range p.Links {
			l.Report = on
		}
	}
	setOneLink := func(id string) (bool, error) {
		li, ok := p.linkIdx[id]
		if ok {
			p.Links[li].Report = true
		}
		return ok, nil
	}
	switch strings.ToUpper(f[0]) {
	case "NODE":
		return p.setReportFlag(f[1], line, "REPORT", setAllNodes, setOneNode)
	case "LINK":
		return p.setReportFlag(f[1], line, "REPORT", setAllLinks, setOneLink)
	}
	return perr("REPORT", line, errcode.ErrIllegalExpr, "expected NODE or LINK")
}

func (p *Project) setReportFlag(tok string, line int, section string, setAll func(bool), setOne func(string) (bool, error)) error {
	switch strings.ToUpper(tok) {
	case "ALL":
		setAll(true)
	case "NONE":
		setAll(false)
	default:
		ok, err := setOne(tok)
		if err != nil {
			return err
		}
		if !ok {
			return perr(section, line, errcode.ErrUnknownReference, "unknown object "+tok)
		}
	}
	return nil
}

// --- DIFFUSIVITY: <speciesID> <d0> — applied uniformly to every link's
// MolecDiffusion slot for that species (spec §4.9); per-link override is
// not part of the input grammar. ---

func (p *Project) setDiffusivity(f []string, line int) error {
	if len(f) < 2 {
		return perr("DIFFUSIVITY", line, errcode.ErrIllegalExpr, "expected: species d0")
	}
	si, ok := p.specIdx[f[0]]
	if !ok {
		return perr("DIFFUSIVITY", line, errcode.ErrUnknownReference, "unknown species "+f[0])
	}
	v, err := strconv.ParseFloat(f[1], 64)
	if err != nil {
		return perr("DIFFUSIVITY", line, errcode.ErrIllegalExpr, "non-numeric diffusivity")
	}
	for _, l := range p.Links {
		l.MolecDiffusion[si] = v
	}
	return nil
}
