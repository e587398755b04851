// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exprlang

import "math"

// stackSize is the fixed evaluation stack depth; spec §4.1 requires ≥1024.
const stackSize = 1024

// VarGetter resolves a variable's current value during evaluation.
type VarGetter func(kind VarKind, index int) float64

// MathErrorTracker suppresses repeated math-error reporting within a
// single quality time step, per spec §4.1 ("subsequent math errors in
// the same step are suppressed").
type MathErrorTracker struct {
	raised  bool
	Message string // set to the first offending expression's description
}

// Reset clears the suppression state; call once per quality step.
func (t *MathErrorTracker) Reset() {
	t.raised = false
	t.Message = ""
}

// raise records the first NaN occurrence and reports whether this call
// was the one that set it (so the caller can log once).
func (t *MathErrorTracker) raise(label string) bool {
	if t.raised {
		return false
	}
	t.raised = true
	t.Message = label
	return true
}

// Eval runs a compiled Program against a bounded value stack. Stack
// underflow from a malformed program yields 0 without panicking; any NaN
// produced during evaluation collapses to 0 and is reported through
// tracker (if non-nil) tagged with label.
func (p *Program) Eval(get VarGetter, tracker *MathErrorTracker, label string) float64 {
	var stack [stackSize]float64
	sp := 0 // stack pointer: stack[0:sp] holds live values

	push := func(v float64) {
		if math.IsNaN(v) {
			v = 0
			if tracker != nil {
				tracker.raise(label)
			}
		}
		if sp >= stackSize {
			// overflow: drop the value rather than corrupt memory
			return
		}
		stack[sp] = v
		sp++
	}
	pop := func() float64 {
		if sp <= 0 {
			return 0
		}
		sp--
		return stack[sp]
	}

	for _, in := range p.code {
		switch in.op {
		case opPush:
			push(in.lit)
		case opLoad:
			v := 0.0
			if get != nil {
				v = get(in.kind, in.idx)
			}
			push(v)
		case opNeg:
			a := pop()
			push(-a)
		case opAdd:
			b, a := pop(), pop()
			push(a + b)
		case opSub:
			b, a := pop(), pop()
			push(a - b)
		case opMul:
			b, a := pop(), pop()
			push(a * b)
		case opDiv:
			b, a := pop(), pop()
			if b == 0 {
				push(0)
			} else {
				push(a / b)
			}
		case opPow:
			b, a := pop(), pop()
			push(pow(a, b))
		case opCall:
			a := pop()
			push(callFunc(in.fn, a))
		}
	}
	if sp <= 0 {
		return 0
	}
	return stack[sp-1]
}

// pow implements exponentiation per spec §4.1: pow(base, exp) is 0 if
// base ≤ 0, otherwise the ordinary real power (which also covers
// fractional/negative exponents safely since base > 0).
func pow(base, exp float64) float64 {
	if base <= 0 {
		return 0
	}
	return math.Pow(base, exp)
}

func step(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return 1
}

func sgn(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func coth(x float64) float64 { return 1.0 / math.Tanh(x) }
func cot(x float64) float64  { return 1.0 / math.Tan(x) }
func acot(x float64) float64 { return math.Atan(1.0 / x) }

func callFunc(name string, x float64) float64 {
	switch name {
	case "cos":
		return math.Cos(x)
	case "sin":
		return math.Sin(x)
	case "tan":
		return math.Tan(x)
	case "cot":
		return cot(x)
	case "abs":
		return math.Abs(x)
	case "sgn":
		return sgn(x)
	case "sqrt":
		if x < 0 {
			return 0
		}
		return math.Sqrt(x)
	case "log":
		if x <= 0 {
			return 0
		}
		return math.Log(x)
	case "exp":
		return math.Exp(x)
	case "asin":
		return math.Asin(x)
	case "acos":
		return math.Acos(x)
	case "atan":
		return math.Atan(x)
	case "acot":
		return acot(x)
	case "sinh":
		return math.Sinh(x)
	case "cosh":
		return math.Cosh(x)
	case "tanh":
		return math.Tanh(x)
	case "coth":
		return coth(x)
	case "log10":
		if x <= 0 {
			return 0
		}
		return math.Log10(x)
	case "step":
		return step(x)
	default:
		return 0
	}
}
