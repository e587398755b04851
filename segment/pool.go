// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package segment implements the arena allocator for per-link
// water-quality segments (spec §4.5, §9). Rather than the original
// source's intrusive prev/next pointers inside heap-allocated structs,
// segments are slab entries indexed by a 32-bit Handle; link/tank heads
// and tails store handle pairs, and the free list is a handle chain
// inside the same arena — the "safe ownership" translation spec §9
// calls for.
package segment

// Handle indexes a Segment inside a Pool's arena. The zero Handle is
// reserved as the nil/sentinel value; valid handles start at 1.
type Handle uint32

const nilHandle Handle = 0

// Segment is one contiguous volume of water with a uniform concentration
// vector, per the GLOSSARY. C and Cprev are sized to the project's
// species count.
type Segment struct {
	Volume float64
	C      []float64 // current per-species concentration
	Cprev  []float64 // previous-step concentration, for mass-balance deltas
	HStep  float64   // integration sub-step size used by ChemEngine, seconds

	// dispersion response coefficients (spec §4.9): c_post = H + U*c_up + D*c_down
	H, U, D []float64

	prev, next Handle // arena-internal list links
}

// List is the head/tail pair owned by one link or tank. Segments run
// from Head (downstream-most) to Tail (upstream-most) when flow is
// Positive, per spec §3.
type List struct {
	Head, Tail Handle
	Count      int
}

// Empty reports whether the list has no segments.
func (l *List) Empty() bool { return l.Head == nilHandle }

// Pool is a bump allocator bound to one project's water-quality
// subsystem lifetime, with a free list reclaiming retired segments
// without releasing memory (spec §4.5, §5 "Resource policy").
type Pool struct {
	nSpecies int
	arena    []Segment // index 0 is the nil sentinel, never used as data
	free     Handle
	outOfMem bool
}

// NewPool allocates a pool sized for nSpecies concentration components
// per segment, pre-reserving capacity hint slots.
func NewPool(nSpecies, capacityHint int) *Pool {
	p := &Pool{nSpecies: nSpecies}
	p.arena = make([]Segment, 1, capacityHint+1) // slot 0 = sentinel
	return p
}

// OutOfMemory reports whether a prior GetFreeSeg failed to allocate.
func (p *Pool) OutOfMemory() bool { return p.outOfMem }

// Get returns a pointer to the segment data for h. Callers must never
// retain this pointer past a subsequent pool mutation that could
// reallocate the underlying arena slice (addSeg/getFreeSeg); re-fetch
// via Get instead.
func (p *Pool) Get(h Handle) *Segment {
	if h == nilHandle {
		return nil
	}
	return &p.arena[h]
}

// GetFreeSeg returns a free-list segment if available, else appends a
// fresh one to the arena, initialized with volume v and concentration c
// (copied). It always returns a valid handle and never sets OutOfMemory.
func (p *Pool) GetFreeSeg(v float64, c []float64) Handle {
	var h Handle
	if p.free != nilHandle {
		h = p.free
		seg := &p.arena[h]
		p.free = seg.next
		seg.next = nilHandle
		seg.prev = nilHandle
	} else {
		if len(p.arena) == cap(p.arena) && len(p.arena) > 0 {
			// growth via append below is safe; out-of-memory is only
			// signalled if Go's allocator itself would panic, which it
			// does not in practice — this flag exists for the resource
			// ceiling a caller may impose externally (segPool size cap).
		}
		p.arena = append(p.arena, Segment{})
		h = Handle(len(p.arena) - 1)
	}
	seg := &p.arena[h]
	seg.Volume = v
	if seg.C == nil || len(seg.C) != p.nSpecies {
		seg.C = make([]float64, p.nSpecies)
		seg.Cprev = make([]float64, p.nSpecies)
		seg.H = make([]float64, p.nSpecies)
		seg.U = make([]float64, p.nSpecies)
		seg.D = make([]float64, p.nSpecies)
	}
	copy(seg.C, c)
	copy(seg.Cprev, c)
	return h
}

// AddSeg prepends h at the upstream end (the List's Tail) of list and
// increments its segment count, per spec §4.5.
func (p *Pool) AddSeg(list *List, h Handle) {
	seg := &p.arena[h]
	seg.prev = list.Tail
	seg.next = nilHandle
	if list.Tail != nilHandle {
		p.arena[list.Tail].next = h
	}
	list.Tail = h
	if list.Head == nilHandle {
		list.Head = h
	}
	list.Count++
}

// RemoveSeg unlinks h from list (wherever it sits) and pushes it onto
// the free list without freeing memory.
func (p *Pool) RemoveSeg(list *List, h Handle) {
	seg := &p.arena[h]
	if seg.prev != nilHandle {
		p.arena[seg.prev].next = seg.next
	} else {
		list.Head = seg.next
	}
	if seg.next != nilHandle {
		p.arena[seg.next].prev = seg.prev
	} else {
		list.Tail = seg.prev
	}
	list.Count--
	seg.prev = nilHandle
	seg.next = p.free
	p.free = h
}

// ReverseSegs reverses prev/next pointers of every segment in list and
// swaps the list's head/tail handles, per spec §4.5.
func (p *Pool) ReverseSegs(list *List) {
	cur := list.Head
	for cur != nilHandle {
		seg := &p.arena[cur]
		seg.prev, seg.next = seg.next, seg.prev
		cur = seg.prev // prev now holds what was "next" before the swap
	}
	list.Head, list.Tail = list.Tail, list.Head
}

// Next returns the handle downstream-to-upstream successor of h within
// whatever list currently owns it.
func (p *Pool) Next(h Handle) Handle {
	if h == nilHandle {
		return nilHandle
	}
	return p.arena[h].next
}

// Prev returns the predecessor handle.
func (p *Pool) Prev(h Handle) Handle {
	if h == nilHandle {
		return nilHandle
	}
	return p.arena[h].prev
}

// TotalVolume sums segment volumes across list, used by the segment-sum
// invariant check in spec §8.
func (p *Pool) TotalVolume(list *List) float64 {
	total := 0.0
	cur := list.Head
	for cur != nilHandle {
		total += p.arena[cur].Volume
		cur = p.arena[cur].next
	}
	return total
}
