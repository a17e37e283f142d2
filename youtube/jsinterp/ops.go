package jsinterp

import (
	"fmt"
	"math"
)

// binaryOps lists the supported operators in the exact order they are tried
// against an expression. The scan is precedence-free: the first operator
// whose symbol splits the expression wins, so "2-3+4" parses as 2-(3+4).
// Real site-extracted functions are only ever validated against this
// simplified grammar; do not reorder.
var binaryOps = []string{"|", "^", "&", ">>", "<<", "-", "+", "%", "/", "*"}

// assignOps lists compound assignment operators, tried before plain "=".
var assignOps = []string{"|=", "^=", "&=", ">>=", "<<=", "-=", "+=", "%=", "/=", "*=", "="}

// applyOp evaluates one binary operator over two values. Operands must
// already have an operator-compatible kind; strings are never implicitly
// coerced to numbers.
func applyOp(op string, a, b Value) (Value, error) {
	switch op {
	case "=":
		return b, nil
	case "|", "^", "&", ">>", "<<":
		x, okx := a.AsInt()
		y, oky := b.AsInt()
		if !okx || !oky {
			return Null(), fmt.Errorf("operator %q needs integer operands, got %s and %s", op, a.Kind(), b.Kind())
		}
		switch op {
		case "|":
			return Int(x | y), nil
		case "^":
			return Int(x ^ y), nil
		case "&":
			return Int(x & y), nil
		case ">>":
			return Int(x >> uint(y)), nil
		case "<<":
			return Int(x << uint(y)), nil
		}
	case "+":
		if sa, ok := a.AsStr(); ok {
			if sb, ok := b.AsStr(); ok {
				return Str(sa + sb), nil
			}
			return Null(), fmt.Errorf("operator %q cannot mix string and %s", op, b.Kind())
		}
		return numericOp(op, a, b)
	case "-", "*", "/", "%":
		return numericOp(op, a, b)
	}
	return Null(), fmt.Errorf("unknown operator %q", op)
}

func numericOp(op string, a, b Value) (Value, error) {
	if a.Kind() == KindInt && b.Kind() == KindInt {
		x, y := a.i, b.i
		switch op {
		case "+":
			return Int(x + y), nil
		case "-":
			return Int(x - y), nil
		case "*":
			return Int(x * y), nil
		case "/":
			if y == 0 {
				return Null(), fmt.Errorf("division by zero")
			}
			return Int(x / y), nil
		case "%":
			if y == 0 {
				return Null(), fmt.Errorf("modulo by zero")
			}
			return Int(x % y), nil
		}
	}
	x, okx := a.AsFloat()
	y, oky := b.AsFloat()
	if !okx || !oky {
		return Null(), fmt.Errorf("operator %q needs numeric operands, got %s and %s", op, a.Kind(), b.Kind())
	}
	switch op {
	case "+":
		return Float(x + y), nil
	case "-":
		return Float(x - y), nil
	case "*":
		return Float(x * y), nil
	case "/":
		return Float(x / y), nil
	case "%":
		return Float(math.Mod(x, y)), nil
	}
	return Null(), fmt.Errorf("unknown operator %q", op)
}
