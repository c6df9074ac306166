package eval

import (
	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/value"
)

func (e *Evaluator) evalExpr(expr ast.Expr, env *value.Env) (value.Value, error) {
	switch x := expr.(type) {
	case *ast.IntLit:
		return value.Int{V: x.Value}, nil
	case *ast.FloatLit:
		return value.Float{V: x.Value}, nil
	case *ast.StringLit:
		return value.String{V: x.Value}, nil
	case *ast.BoolLit:
		return value.Bool{V: x.Value}, nil
	case *ast.NullLit:
		return value.Null{}, nil
	case *ast.PitchLit:
		midi := value.NameToMIDI(x.Letter, x.Accidental, x.Octave)
		if midi < 0 || midi > 127 {
			return nil, newErr(diag.CodePitchOutOfRange, "pitch out of MIDI range 0-127")
		}
		return value.Pitch{MIDI: midi}, nil
	case *ast.DurationLit:
		return value.Duration{N: x.Num, D: x.Den}, nil
	case *ast.BarBeatLit:
		return value.Time{Bar: x.Bar, Beat: x.Beat, Sub: x.Sub}, nil
	case *ast.TemplateLit:
		return e.evalTemplate(x, env)
	case *ast.Ident:
		return e.evalIdent(x, env)
	case *ast.ArrayLit:
		elems := make([]value.Value, len(x.Elements))
		for i, el := range x.Elements {
			v, err := e.evalExpr(el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.Array{Elements: elems}, nil
	case *ast.ObjectLit:
		fields := make(map[string]value.Value, len(x.Fields))
		for _, f := range x.Fields {
			v, err := e.evalExpr(f.Value, env)
			if err != nil {
				return nil, err
			}
			fields[f.Key] = v
		}
		return value.Object{Fields: fields}, nil
	case *ast.BinaryExpr:
		return e.evalBinary(x, env)
	case *ast.UnaryExpr:
		operand, err := e.evalExpr(x.Operand, env)
		if err != nil {
			return nil, err
		}
		op := "-"
		if x.Op == ast.OpNot {
			op = "!"
		}
		return value.UnaryOp(op, operand)
	case *ast.TernaryExpr:
		cond, err := e.evalExpr(x.Cond, env)
		if err != nil {
			return nil, err
		}
		if value.Truthy(cond) {
			return e.evalExpr(x.Then, env)
		}
		return e.evalExpr(x.Else, env)
	case *ast.CallExpr:
		return e.evalCall(x, env)
	case *ast.MemberExpr:
		return e.evalMember(x, env)
	case *ast.IndexExpr:
		return e.evalIndex(x, env)
	case *ast.ArrowFn:
		return value.Function{Params: x.Params, Body: x.Body, Closure: env}, nil
	case *ast.MatchExpr:
		return e.evalMatch(x, env)
	case *ast.ScoreExpr:
		return e.evalScore(x, env)
	case *ast.ClipExpr:
		return e.evalClip(x, env)
	default:
		return nil, newErr(diag.CodeTypeMismatch, "unhandled expression type %T", expr)
	}
}

func (e *Evaluator) evalIdent(x *ast.Ident, env *value.Env) (value.Value, error) {
	if v, ok := env.Lookup(x.Name); ok {
		return v, nil
	}
	if e.constsInFlight != nil && e.constsInFlight[x.Name] {
		return nil, newErr(diag.CodeUseBeforeInit, "const %q used before its initializer runs", x.Name)
	}
	return nil, newErr(diag.CodeUndefinedSymbol, "undefined symbol %q", x.Name)
}

func (e *Evaluator) evalTemplate(x *ast.TemplateLit, env *value.Env) (value.Value, error) {
	var out string
	for i, part := range x.Parts {
		out += part
		if i < len(x.Exprs) {
			v, err := e.evalExpr(x.Exprs[i], env)
			if err != nil {
				return nil, err
			}
			out += v.String()
		}
	}
	return value.String{V: out}, nil
}

func (e *Evaluator) evalBinary(x *ast.BinaryExpr, env *value.Env) (value.Value, error) {
	if x.Op == ast.OpAndAnd {
		l, err := e.evalExpr(x.Left, env)
		if err != nil {
			return nil, err
		}
		if !value.Truthy(l) {
			return value.Bool{V: false}, nil
		}
		r, err := e.evalExpr(x.Right, env)
		if err != nil {
			return nil, err
		}
		return value.Bool{V: value.Truthy(r)}, nil
	}
	if x.Op == ast.OpOrOr {
		l, err := e.evalExpr(x.Left, env)
		if err != nil {
			return nil, err
		}
		if value.Truthy(l) {
			return value.Bool{V: true}, nil
		}
		r, err := e.evalExpr(x.Right, env)
		if err != nil {
			return nil, err
		}
		return value.Bool{V: value.Truthy(r)}, nil
	}
	if x.Op == ast.OpNullish {
		l, err := e.evalExpr(x.Left, env)
		if err != nil {
			return nil, err
		}
		if _, isNull := l.(value.Null); !isNull {
			return l, nil
		}
		return e.evalExpr(x.Right, env)
	}

	l, err := e.evalExpr(x.Left, env)
	if err != nil {
		return nil, err
	}
	r, err := e.evalExpr(x.Right, env)
	if err != nil {
		return nil, err
	}
	return value.BinaryOp(binaryOpSymbol(x.Op), l, r)
}

func binaryOpSymbol(op ast.BinaryOp) string {
	switch op {
	case ast.OpEq:
		return "=="
	case ast.OpNeq:
		return "!="
	case ast.OpLt:
		return "<"
	case ast.OpLte:
		return "<="
	case ast.OpGt:
		return ">"
	case ast.OpGte:
		return ">="
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	case ast.OpMod:
		return "%"
	default:
		return "?"
	}
}

func (e *Evaluator) evalMember(x *ast.MemberExpr, env *value.Env) (value.Value, error) {
	obj, err := e.evalExpr(x.Object, env)
	if err != nil {
		return nil, err
	}
	if _, isNull := obj.(value.Null); isNull {
		if x.Optional {
			return value.Null{}, nil
		}
		return nil, newErr(diag.CodeNotIndexable, "cannot access field %q on null", x.Field)
	}
	o, ok := obj.(value.Object)
	if !ok {
		return nil, newErr(diag.CodeNotIndexable, "cannot access field %q on %s", x.Field, obj.Kind())
	}
	v, ok := o.Fields[x.Field]
	if !ok {
		if x.Optional {
			return value.Null{}, nil
		}
		return nil, newErr(diag.CodeUndefinedSymbol, "no field %q", x.Field)
	}
	return v, nil
}

func (e *Evaluator) evalIndex(x *ast.IndexExpr, env *value.Env) (value.Value, error) {
	obj, err := e.evalExpr(x.Object, env)
	if err != nil {
		return nil, err
	}
	if _, isNull := obj.(value.Null); isNull {
		if x.Optional {
			return value.Null{}, nil
		}
		return nil, newErr(diag.CodeNotIndexable, "cannot index null")
	}
	idxV, err := e.evalExpr(x.Index, env)
	if err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case value.Array:
		i, ok := idxV.(value.Int)
		if !ok {
			return nil, newErr(diag.CodeTypeMismatch, "array index must be int, got %s", idxV.Kind())
		}
		if i.V < 0 || int(i.V) >= len(o.Elements) {
			if x.Optional {
				return value.Null{}, nil
			}
			return nil, newErr(diag.CodeIndexOutOfBounds, "index %d out of bounds (len %d)", i.V, len(o.Elements))
		}
		return o.Elements[i.V], nil
	case value.Object:
		s, ok := idxV.(value.String)
		if !ok {
			return nil, newErr(diag.CodeTypeMismatch, "object index must be string, got %s", idxV.Kind())
		}
		v, ok := o.Fields[s.V]
		if !ok {
			if x.Optional {
				return value.Null{}, nil
			}
			return nil, newErr(diag.CodeUndefinedSymbol, "no field %q", s.V)
		}
		return v, nil
	default:
		return nil, newErr(diag.CodeNotIndexable, "cannot index %s", obj.Kind())
	}
}

func (e *Evaluator) evalMatch(x *ast.MatchExpr, env *value.Env) (value.Value, error) {
	scrutinee, err := e.evalExpr(x.Scrutinee, env)
	if err != nil {
		return nil, err
	}
	for _, arm := range x.Arms {
		if arm.Pattern == nil {
			return e.evalExpr(arm.Value, env)
		}
		pat, err := e.evalExpr(arm.Pattern, env)
		if err != nil {
			return nil, err
		}
		if value.Equal(scrutinee, pat) {
			return e.evalExpr(arm.Value, env)
		}
	}
	return nil, newErr(diag.CodeTypeMismatch, "match has no matching arm and no else")
}

// evalCall implements call semantics (spec §4.G): positional args bind
// first, named args override by name, defaults evaluate in the callee
// scope, a trailing rest param collects remaining positionals.
func (e *Evaluator) evalCall(x *ast.CallExpr, env *value.Env) (value.Value, error) {
	callee, err := e.evalExpr(x.Callee, env)
	if err != nil {
		return nil, err
	}
	args := make([]value.Value, 0, len(x.Args))
	named := make(map[string]value.Value)
	for _, a := range x.Args {
		v, err := e.evalExpr(a.Value, env)
		if err != nil {
			return nil, err
		}
		if a.Name != "" {
			named[a.Name] = v
		} else {
			args = append(args, v)
		}
	}
	return e.callWithArgs(callee, args, named)
}

// callAny invokes a value known to be callable with purely positional
// arguments, used for `main()`.
func (e *Evaluator) callAny(callee value.Value, args []value.Value) (value.Value, error) {
	return e.callWithArgs(callee, args, nil)
}

func (e *Evaluator) callWithArgs(callee value.Value, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	switch fn := callee.(type) {
	case value.Builtin:
		return fn.Fn(positional)
	case value.Function:
		return e.callFunction(fn, positional, named)
	default:
		return nil, newErr(diag.CodeNotCallable, "%s is not callable", callee.Kind())
	}
}

func (e *Evaluator) callFunction(fn value.Function, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	if e.callDepth >= e.cfg.RecursionLimit {
		return nil, newErr(diag.CodeRecursionLimitExceeded, "recursion limit (%d) exceeded", e.cfg.RecursionLimit)
	}
	e.callDepth++
	defer func() { e.callDepth-- }()

	callEnv := value.NewEnv(fn.Closure)

	restIdx := -1
	for i, p := range fn.Params {
		if p.Rest {
			restIdx = i
			break
		}
	}
	nonRest := fn.Params
	if restIdx >= 0 {
		nonRest = fn.Params[:restIdx]
	}

	bound := make(map[string]bool, len(nonRest))
	for i, p := range nonRest {
		if i < len(positional) {
			callEnv.Define(p.Name, positional[i], false)
			bound[p.Name] = true
		}
	}
	for name, v := range named {
		callEnv.Define(name, v, false)
		bound[name] = true
	}
	for _, p := range nonRest {
		if bound[p.Name] {
			continue
		}
		if p.Default != nil {
			v, err := e.evalExpr(p.Default, callEnv)
			if err != nil {
				return nil, err
			}
			callEnv.Define(p.Name, v, false)
		} else {
			callEnv.Define(p.Name, value.Null{}, false)
		}
	}
	if restIdx >= 0 {
		restParam := fn.Params[restIdx]
		var rest []value.Value
		if len(positional) > len(nonRest) {
			rest = append(rest, positional[len(nonRest):]...)
		}
		callEnv.Define(restParam.Name, value.Array{Elements: rest}, false)
	}

	result, err := e.execBlock(fn.Body, callEnv)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return value.Null{}, nil
	}
	return result, nil
}
