package value

import (
	"fmt"
	"math"

	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/rat"
)

// OpError is a typed operator failure. The evaluator attaches a span
// and wraps it into a diag.Diagnostic; this package stays span-free so
// it has no dependency on the AST.
type OpError struct {
	Code    diag.Code
	Message string
}

func (e *OpError) Error() string { return e.Message }

func typeMismatch(format string, args ...any) error {
	return &OpError{Code: diag.CodeTypeMismatch, Message: fmt.Sprintf(format, args...)}
}

// BinaryOp evaluates a binary operator over two already-evaluated
// operands. Op is the ast.BinaryOp's textual operator, e.g. "+", "==".
func BinaryOp(op string, l, r Value) (Value, error) {
	switch op {
	case "+":
		return add(l, r)
	case "-":
		return sub(l, r)
	case "*":
		return mul(l, r)
	case "/":
		return div(l, r)
	case "%":
		return mod(l, r)
	case "==":
		return Bool{V: Equal(l, r)}, nil
	case "!=":
		return Bool{V: !Equal(l, r)}, nil
	case "<", "<=", ">", ">=":
		return compare(op, l, r)
	case "&&":
		return Bool{V: Truthy(l) && Truthy(r)}, nil
	case "||":
		return Bool{V: Truthy(l) || Truthy(r)}, nil
	default:
		return nil, typeMismatch("unknown binary operator %q", op)
	}
}

// UnaryOp evaluates a prefix unary operator.
func UnaryOp(op string, v Value) (Value, error) {
	switch op {
	case "-":
		switch n := v.(type) {
		case Int:
			return Int{V: -n.V}, nil
		case Float:
			return Float{V: -n.V}, nil
		default:
			return nil, typeMismatch("cannot negate %s", v.Kind())
		}
	case "!":
		return Bool{V: !Truthy(v)}, nil
	default:
		return nil, typeMismatch("unknown unary operator %q", op)
	}
}

func add(l, r Value) (Value, error) {
	switch a := l.(type) {
	case Int:
		switch b := r.(type) {
		case Int:
			return Int{V: a.V + b.V}, nil
		case Float:
			return Float{V: float64(a.V) + b.V}, nil
		}
	case Float:
		switch b := r.(type) {
		case Int:
			return Float{V: a.V + float64(b.V)}, nil
		case Float:
			return Float{V: a.V + b.V}, nil
		}
	case String:
		if b, ok := r.(String); ok {
			return String{V: a.V + b.V}, nil
		}
	case Pitch:
		if b, ok := r.(Int); ok {
			return pitchFromSemitones(a.MIDI + int(b.V))
		}
	case Duration:
		if b, ok := r.(Duration); ok {
			sum, err := a.Rat().Add(b.Rat())
			if err != nil {
				return nil, &OpError{Code: diag.CodeTypeMismatch, Message: err.Error()}
			}
			return Duration{N: sum.N, D: sum.D}, nil
		}
	case Array:
		if b, ok := r.(Array); ok {
			combined := make([]Value, 0, len(a.Elements)+len(b.Elements))
			combined = append(combined, a.Elements...)
			combined = append(combined, b.Elements...)
			return Array{Elements: combined}, nil
		}
	}
	return nil, typeMismatch("cannot add %s and %s", l.Kind(), r.Kind())
}

func sub(l, r Value) (Value, error) {
	switch a := l.(type) {
	case Int:
		switch b := r.(type) {
		case Int:
			return Int{V: a.V - b.V}, nil
		case Float:
			return Float{V: float64(a.V) - b.V}, nil
		}
	case Float:
		switch b := r.(type) {
		case Int:
			return Float{V: a.V - float64(b.V)}, nil
		case Float:
			return Float{V: a.V - b.V}, nil
		}
	case Pitch:
		switch b := r.(type) {
		case Int:
			return pitchFromSemitones(a.MIDI - int(b.V))
		case Pitch:
			return Int{V: int64(a.MIDI - b.MIDI)}, nil
		}
	case Duration:
		if b, ok := r.(Duration); ok {
			diff, err := a.Rat().Sub(b.Rat())
			if err != nil {
				return nil, &OpError{Code: diag.CodeTypeMismatch, Message: err.Error()}
			}
			return Duration{N: diff.N, D: diff.D}, nil
		}
	}
	return nil, typeMismatch("cannot subtract %s from %s", r.Kind(), l.Kind())
}

func mul(l, r Value) (Value, error) {
	switch a := l.(type) {
	case Int:
		switch b := r.(type) {
		case Int:
			return Int{V: a.V * b.V}, nil
		case Float:
			return Float{V: float64(a.V) * b.V}, nil
		}
	case Float:
		switch b := r.(type) {
		case Int:
			return Float{V: a.V * float64(b.V)}, nil
		case Float:
			return Float{V: a.V * b.V}, nil
		}
	case Duration:
		if b, ok := r.(Int); ok {
			scaled, err := a.Rat().Mul(rat.FromInt(b.V))
			if err != nil {
				return nil, &OpError{Code: diag.CodeTypeMismatch, Message: err.Error()}
			}
			return Duration{N: scaled.N, D: scaled.D}, nil
		}
	}
	return nil, typeMismatch("cannot multiply %s by %s", l.Kind(), r.Kind())
}

func div(l, r Value) (Value, error) {
	switch a := l.(type) {
	case Int:
		switch b := r.(type) {
		case Int:
			if b.V == 0 {
				return nil, &OpError{Code: diag.CodeDivisionByZero, Message: "division by zero"}
			}
			return Float{V: float64(a.V) / float64(b.V)}, nil
		case Float:
			if b.V == 0 {
				return nil, &OpError{Code: diag.CodeDivisionByZero, Message: "division by zero"}
			}
			return Float{V: float64(a.V) / b.V}, nil
		}
	case Float:
		switch b := r.(type) {
		case Int:
			if b.V == 0 {
				return nil, &OpError{Code: diag.CodeDivisionByZero, Message: "division by zero"}
			}
			return Float{V: a.V / float64(b.V)}, nil
		case Float:
			if b.V == 0 {
				return nil, &OpError{Code: diag.CodeDivisionByZero, Message: "division by zero"}
			}
			return Float{V: a.V / b.V}, nil
		}
	}
	return nil, typeMismatch("cannot divide %s by %s", l.Kind(), r.Kind())
}

func mod(l, r Value) (Value, error) {
	a, aok := l.(Int)
	b, bok := r.(Int)
	if !aok || !bok {
		return nil, typeMismatch("modulo requires int operands, got %s and %s", l.Kind(), r.Kind())
	}
	if b.V == 0 {
		return nil, &OpError{Code: diag.CodeDivisionByZero, Message: "division by zero"}
	}
	return Int{V: a.V % b.V}, nil
}

func compare(op string, l, r Value) (Value, error) {
	var cmp int
	switch a := l.(type) {
	case Int:
		switch b := r.(type) {
		case Int:
			cmp = cmpInt64(a.V, b.V)
		case Float:
			cmp = cmpFloat64(float64(a.V), b.V)
		default:
			return nil, typeMismatch("cannot compare %s and %s", l.Kind(), r.Kind())
		}
	case Float:
		switch b := r.(type) {
		case Int:
			cmp = cmpFloat64(a.V, float64(b.V))
		case Float:
			cmp = cmpFloat64(a.V, b.V)
		default:
			return nil, typeMismatch("cannot compare %s and %s", l.Kind(), r.Kind())
		}
	case String:
		b, ok := r.(String)
		if !ok {
			return nil, typeMismatch("cannot compare %s and %s", l.Kind(), r.Kind())
		}
		switch {
		case a.V < b.V:
			cmp = -1
		case a.V > b.V:
			cmp = 1
		}
	case Pitch:
		b, ok := r.(Pitch)
		if !ok {
			return nil, typeMismatch("cannot compare %s and %s", l.Kind(), r.Kind())
		}
		cmp = cmpInt64(int64(a.MIDI), int64(b.MIDI))
	default:
		return nil, typeMismatch("cannot compare %s and %s", l.Kind(), r.Kind())
	}
	switch op {
	case "<":
		return Bool{V: cmp < 0}, nil
	case "<=":
		return Bool{V: cmp <= 0}, nil
	case ">":
		return Bool{V: cmp > 0}, nil
	default: // ">="
		return Bool{V: cmp >= 0}, nil
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal implements structural equality, used by both "==" and match
// pattern dispatch (spec §4.F: match compares by structural equality).
func Equal(l, r Value) bool {
	switch a := l.(type) {
	case Int:
		switch b := r.(type) {
		case Int:
			return a.V == b.V
		case Float:
			return float64(a.V) == b.V
		}
		return false
	case Float:
		switch b := r.(type) {
		case Int:
			return a.V == float64(b.V)
		case Float:
			return a.V == b.V
		}
		return false
	case Bool:
		b, ok := r.(Bool)
		return ok && a.V == b.V
	case String:
		b, ok := r.(String)
		return ok && a.V == b.V
	case Null:
		_, ok := r.(Null)
		return ok
	case Pitch:
		b, ok := r.(Pitch)
		return ok && a.MIDI == b.MIDI
	case Duration:
		b, ok := r.(Duration)
		return ok && a.Rat().Equal(b.Rat())
	case Time:
		b, ok := r.(Time)
		return ok && a.Bar == b.Bar && a.Beat == b.Beat && a.Sub == b.Sub
	case Array:
		b, ok := r.(Array)
		if !ok || len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	case Object:
		b, ok := r.(Object)
		if !ok || len(a.Fields) != len(b.Fields) {
			return false
		}
		for k, v := range a.Fields {
			bv, ok := b.Fields[k]
			if !ok || !Equal(v, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Truthy implements the language's boolean-coercion rule for if
// conditions, ternaries and &&/||: only false and null are falsy.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case Bool:
		return t.V
	case Null:
		return false
	default:
		return true
	}
}

func pitchFromSemitones(midi int) (Value, error) {
	if midi < 0 || midi > 127 {
		return nil, &OpError{Code: diag.CodePitchOutOfRange, Message: fmt.Sprintf("pitch %d out of MIDI range 0-127", midi)}
	}
	return Pitch{MIDI: midi}, nil
}

// NumericValue extracts a float64 from Int or Float, used by std:
// builtins that accept either.
func NumericValue(v Value) (float64, bool) {
	switch t := v.(type) {
	case Int:
		return float64(t.V), true
	case Float:
		return t.V, true
	default:
		return 0, false
	}
}

// IsNaNOrInf reports whether f is unrepresentable as a finite MFS
// float, used to reject bad curve/transform results.
func IsNaNOrInf(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
