// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qualrouter

import (
	"github.com/cpmech/msx/network"
	"github.com/katalvlaran/lvlath/core"
)

// buildFlowGraph constructs a directed lvlath graph with one vertex per
// node and one edge per link currently carrying nonzero flow, oriented
// from upstream to downstream — the input to topologicalOrder (spec
// §4.10 "Topological sort").
func buildFlowGraph(nodes []*network.Node, links []*network.Link) (*core.Graph, error) {
	g := core.NewGraph(core.WithDirected(true), core.WithMultiEdges(), core.WithLoops())
	for _, n := range nodes {
		if err := g.AddVertex(n.ID); err != nil {
			return nil, err
		}
	}
	for _, l := range links {
		if l.Dir == network.Zero {
			continue
		}
		up, down := l.N1, l.N2
		if l.Dir == network.Negative {
			up, down = l.N2, l.N1
		}
		if nodes[up].ID == nodes[down].ID {
			continue
		}
		if _, err := g.AddEdge(nodes[up].ID, nodes[down].ID, 1); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// topologicalOrder runs Kahn's algorithm over g using node in-degree
// computed from flow-carrying edges only, returning node indices (per
// nodes) in traversal order. When the ready stack empties with nodes
// still unsorted — a flow cycle — an arbitrary unsorted node is broken
// free by zeroing its remaining in-degree rather than failing, per spec
// §4.10: "this preserves correctness because water-quality routing is
// still a finite-volume balance."
func topologicalOrder(g *core.Graph, nodes []*network.Node) ([]int, error) {
	indexByID := make(map[string]int, len(nodes))
	for i, n := range nodes {
		indexByID[n.ID] = i
	}

	verts := g.Vertices()
	outEdges := make(map[string][]*core.Edge, len(verts))
	indeg := make(map[string]int, len(verts))
	for _, v := range verts {
		indeg[v] = 0
	}
	for _, v := range verts {
		neigh, err := g.Neighbors(v)
		if err != nil {
			return nil, err
		}
		for _, e := range neigh {
			if e.From != v {
				continue
			}
			outEdges[v] = append(outEdges[v], e)
			indeg[e.To]++
		}
	}

	sorted := make(map[string]bool, len(verts))
	var stack []string
	for _, v := range verts {
		if indeg[v] == 0 {
			stack = append(stack, v)
		}
	}

	order := make([]int, 0, len(verts))
	for len(order) < len(verts) {
		if len(stack) == 0 {
			for _, v := range verts {
				if !sorted[v] {
					indeg[v] = 0
					stack = append(stack, v)
					break
				}
			}
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if sorted[v] {
			continue
		}
		sorted[v] = true
		order = append(order, indexByID[v])
		for _, e := range outEdges[v] {
			if sorted[e.To] {
				continue
			}
			indeg[e.To]--
			if indeg[e.To] == 0 {
				stack = append(stack, e.To)
			}
		}
	}
	return order, nil
}
