// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exprlang

// CheckCyclicTerms verifies that no Term expression transitively
// references itself. terms[i] is the IR root of term i; refersTerm
// reports whether a KindVar node refers to a term (as opposed to a
// species/parameter/constant/hydraulic variable) and, if so, which term
// index. It builds the N×N reference bitmap described in spec §4.1 and
// depth-first searches from each term for itself.
func CheckCyclicTerms(terms []*Node, refersTerm func(n *Node) (idx int, ok bool)) (cycleAt int, found bool) {
	n := len(terms)
	refs := make([][]bool, n)
	for i := range refs {
		refs[i] = make([]bool, n)
	}
	for i, root := range terms {
		collectTermRefs(root, refersTerm, refs[i])
	}

	visiting := make([]bool, n)
	visited := make([]bool, n)
	var dfs func(start, cur int) bool
	dfs = func(start, cur int) bool {
		if visited[cur] {
			return false
		}
		visiting[cur] = true
		for j := 0; j < n; j++ {
			if !refs[cur][j] {
				continue
			}
			if j == start {
				return true
			}
			if visiting[j] {
				continue
			}
			if dfs(start, j) {
				return true
			}
		}
		visiting[cur] = false
		visited[cur] = true
		return false
	}

	for i := 0; i < n; i++ {
		for k := range visiting {
			visiting[k] = false
			visited[k] = false
		}
		if dfs(i, i) {
			return i, true
		}
	}
	return 0, false
}

func collectTermRefs(n *Node, refersTerm func(n *Node) (int, bool), into []bool) {
	if n == nil {
		return
	}
	if n.Kind == KindVar {
		if idx, ok := refersTerm(n); ok {
			into[idx] = true
		}
		return
	}
	collectTermRefs(n.L, refersTerm, into)
	collectTermRefs(n.R, refersTerm, into)
}
