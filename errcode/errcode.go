// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errcode defines the integer error-code taxonomy shared by every
// public operation in the simulation engine, mirroring EPANET-MSX's
// toolkit convention of "zero means success, everything else maps to a
// static message" while staying an idiomatic Go error.
package errcode

import "github.com/cpmech/gosl/io"

// Code is a simulation engine error. Its zero value is Success.
type Code int

// Error implements the error interface.
func (c Code) Error() string {
	if msg, ok := messages[c]; ok {
		return io.Sf("msx: [%d] %s", int(c), msg)
	}
	return io.Sf("msx: [%d] unknown error", int(c))
}

// categories, grouped the way spec §7 groups them
const (
	Success Code = 0

	// input syntax / semantic
	ErrDuplicateID      Code = 101
	ErrUnknownReference Code = 102
	ErrIllegalExpr      Code = 103
	ErrCyclicTerm       Code = 104
	ErrTooFewExprs      Code = 105
	ErrReservedName     Code = 106
	ErrMissingSection   Code = 107

	// I/O
	ErrOpenHydFile  Code = 201
	ErrOpenOutFile  Code = 202
	ErrOpenRptFile  Code = 203
	ErrOpenMsxFile  Code = 204
	ErrBadMagic     Code = 205
	ErrShortRead    Code = 206

	// numeric (warnings, recoverable - step still completes)
	WarnIntegratorDiverged Code = 301
	WarnSingularJacobian   Code = 302
	WarnCholeskyNonPosDef  Code = 303
	WarnMathError          Code = 304

	// resource
	ErrSegmentPoolExhausted Code = 401
	ErrMatrixAllocFailed    Code = 402

	// API misuse
	ErrNotOpened       Code = 501
	ErrNotInitialized  Code = 502
	ErrUnknownObject   Code = 503
	ErrAlreadyOpened   Code = 504
)

var messages = map[Code]string{
	Success:                 "success",
	ErrDuplicateID:          "duplicate object identifier",
	ErrUnknownReference:     "reference to an unknown object",
	ErrIllegalExpr:          "illegal math expression",
	ErrCyclicTerm:           "cyclic term reference",
	ErrTooFewExprs:          "too few expressions for the number of species",
	ErrReservedName:         "identifier collides with a reserved hydraulic variable name",
	ErrMissingSection:       "required input section is missing",
	ErrOpenHydFile:          "cannot open the hydraulic trace file",
	ErrOpenOutFile:          "cannot open the binary output file",
	ErrOpenRptFile:          "cannot open the report file",
	ErrOpenMsxFile:          "cannot open the project input file",
	ErrBadMagic:             "bad file magic number",
	ErrShortRead:            "short read / truncated file",
	WarnIntegratorDiverged:  "integrator failed to converge",
	WarnSingularJacobian:    "Newton solver found a singular Jacobian",
	WarnCholeskyNonPosDef:   "Cholesky factorization hit a non-positive diagonal",
	WarnMathError:           "illegal math operation (NaN) during expression evaluation",
	ErrSegmentPoolExhausted: "segment pool exhausted",
	ErrMatrixAllocFailed:    "matrix allocation failed",
	ErrNotOpened:            "project has not been opened",
	ErrNotInitialized:       "simulation has not been initialized",
	ErrUnknownObject:        "unknown object type or index",
	ErrAlreadyOpened:        "project is already opened",
}

// IsWarning reports whether c is a numeric warning that does not abort the run.
func (c Code) IsWarning() bool {
	return c == WarnIntegratorDiverged || c == WarnSingularJacobian ||
		c == WarnCholeskyNonPosDef || c == WarnMathError
}

// IsFatal reports whether c should stop the simulation outright.
func (c Code) IsFatal() bool {
	return c != Success && !c.IsWarning()
}
