// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qualrouter

// HydEvent is one hydraulic snapshot as read from the external trace
// (spec §6): demand/head per node, flow per link (already
// Q_STAGNANT-zeroed), and the duration until the next event.
type HydEvent struct {
	TimeSec     int
	Demand      []float64
	Head        []float64
	Flow        []float64
	TimeStepSec int
}

// HydSource abstracts the hydraulic trace reader (hydfile.Reader) so
// qualrouter never imports the file-format package directly, the same
// layering gofem keeps between its solver and inp/out packages. Next
// returns ok=false once the trace is exhausted.
type HydSource interface {
	Next() (ev HydEvent, ok bool, err error)
}
