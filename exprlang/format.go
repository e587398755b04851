// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exprlang

import (
	"strconv"
	"strings"
)

// VarFormatter substitutes an indexed variable reference with its source
// text (e.g. a species name) when reconstructing a string form of the
// tree. This supports the optional native-compilation path (spec §4.1)
// and is independently testable.
type VarFormatter func(kind VarKind, index int, name string) string

// String reconstructs an infix textual form of the tree rooted at n,
// using fmt to resolve variable references back to identifiers.
func String(n *Node, fmtVar VarFormatter) string {
	var b strings.Builder
	writeNode(&b, n, fmtVar, 0)
	return b.String()
}

// prec returns the binding precedence used to decide when parentheses
// are required around a child node during reconstruction.
func prec(k NodeKind) int {
	switch k {
	case KindAdd, KindSub:
		return 1
	case KindMul, KindDiv:
		return 2
	case KindPow:
		return 3
	default:
		return 4
	}
}

func writeNode(b *strings.Builder, n *Node, fmtVar VarFormatter, parentPrec int) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindLit:
		b.WriteString(strconv.FormatFloat(n.Lit, 'g', -1, 64))
	case KindVar:
		if fmtVar != nil {
			b.WriteString(fmtVar(n.VarKind, n.VarIndex, n.VarName))
		} else {
			b.WriteString(n.VarName)
		}
	case KindNeg:
		b.WriteString("-")
		writeNode(b, n.L, fmtVar, prec(KindNeg))
	case KindCall:
		b.WriteString(n.Func)
		b.WriteString("(")
		writeNode(b, n.L, fmtVar, 0)
		b.WriteString(")")
	default:
		p := prec(n.Kind)
		needParen := p < parentPrec
		if needParen {
			b.WriteString("(")
		}
		// '^' is right-associative: its left operand binds at p+1 (so a
		// left-nested power keeps its parens, (a^b)^c) and its right
		// operand at p. Everything else binds at p on the left and p+1 on
		// the right to force parens on same-precedence right-hand
		// subtrees (e.g. a-(b-c)).
		lp, rp := p, p+1
		if n.Kind == KindPow {
			lp, rp = p+1, p
		}
		writeNode(b, n.L, fmtVar, lp)
		b.WriteString(opSymbol(n.Kind))
		writeNode(b, n.R, fmtVar, rp)
		if needParen {
			b.WriteString(")")
		}
	}
}

func opSymbol(k NodeKind) string {
	switch k {
	case KindAdd:
		return "+"
	case KindSub:
		return "-"
	case KindMul:
		return "*"
	case KindDiv:
		return "/"
	case KindPow:
		return "^"
	default:
		return "?"
	}
}
