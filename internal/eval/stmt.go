package eval

import (
	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/value"
)

// controlReturn unwinds execBlock/execStmt back to the nearest
// callFunction frame carrying a `return` value. It satisfies error so
// it can ride the existing error-propagation path without a second
// return channel threaded through every statement executor.
type controlReturn struct {
	Value value.Value
}

func (c *controlReturn) Error() string { return "return" }

// execBlock runs stmts in sequence, returning the function's result
// once a controlReturn unwinds through it, or nil if the block runs to
// completion without returning.
func (e *Evaluator) execBlock(stmts []ast.Stmt, env *value.Env) (value.Value, error) {
	for _, s := range stmts {
		if err := e.execStmt(s, env); err != nil {
			if ret, ok := err.(*controlReturn); ok {
				return ret.Value, nil
			}
			return nil, err
		}
	}
	return nil, nil
}

func (e *Evaluator) execStmt(stmt ast.Stmt, env *value.Env) error {
	switch s := stmt.(type) {
	case *ast.LetDecl:
		v, err := e.evalExpr(s.Value, env)
		if err != nil {
			return err
		}
		env.Define(s.Name, v, false)
		return nil
	case *ast.LocalConstDecl:
		v, err := e.evalExpr(s.Value, env)
		if err != nil {
			return err
		}
		env.Define(s.Name, v, true)
		return nil
	case *ast.ReturnStmt:
		if s.Value == nil {
			return &controlReturn{Value: value.Null{}}
		}
		v, err := e.evalExpr(s.Value, env)
		if err != nil {
			return err
		}
		return &controlReturn{Value: v}
	case *ast.IfStmt:
		cond, err := e.evalExpr(s.Cond, env)
		if err != nil {
			return err
		}
		if value.Truthy(cond) {
			return e.execStmtsInChild(s.Then, env)
		}
		return e.execStmtsInChild(s.Else, env)
	case *ast.ForStmt:
		return e.execFor(s, env)
	case *ast.AssignmentStmt:
		return e.execAssignment(s, env)
	case *ast.ExprStmt:
		_, err := e.evalExpr(s.Value, env)
		return err
	default:
		return newErr(diag.CodeTypeMismatch, "unhandled statement type %T", stmt)
	}
}

func (e *Evaluator) execStmtsInChild(stmts []ast.Stmt, env *value.Env) error {
	if len(stmts) == 0 {
		return nil
	}
	child := env.Child()
	for _, s := range stmts {
		if err := e.execStmt(s, child); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) execFor(s *ast.ForStmt, env *value.Env) error {
	start, err := e.evalForBound(s.Start, env)
	if err != nil {
		return err
	}
	end, err := e.evalForBound(s.End, env)
	if err != nil {
		return err
	}

	loopEnd := end
	if !s.Inclusive {
		loopEnd = end - 1
	}
	for i := start; i <= loopEnd; i++ {
		child := env.Child()
		child.Define(s.Var, value.Int{V: i}, false)
		for _, stmt := range s.Body {
			if err := e.execStmt(stmt, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// evalForBound evaluates a for-loop bound expression and enforces the
// integer/const requirement (spec §4.G, §9 open question): a bare
// identifier bound must refer to a const binding, not a let.
func (e *Evaluator) evalForBound(expr ast.Expr, env *value.Env) (int64, error) {
	if id, ok := expr.(*ast.Ident); ok {
		if !env.IsConst(id.Name) {
			return 0, newErr(diag.CodeForBoundsNotConst, "for-loop bound %q must be const, not let", id.Name)
		}
	}
	v, err := e.evalExpr(expr, env)
	if err != nil {
		return 0, err
	}
	i, ok := v.(value.Int)
	if !ok {
		return 0, newErr(diag.CodeForBoundsNotConst, "for-loop bound must be an integer, got %s", v.Kind())
	}
	return i.V, nil
}

func (e *Evaluator) execAssignment(s *ast.AssignmentStmt, env *value.Env) error {
	v, err := e.evalExpr(s.Value, env)
	if err != nil {
		return err
	}
	switch target := s.Target.(type) {
	case *ast.Ident:
		if !env.IsConst(target.Name) {
			if _, ok := env.Lookup(target.Name); !ok {
				return newErr(diag.CodeUndefinedSymbol, "undefined symbol %q", target.Name)
			}
			return env.Assign(target.Name, v)
		}
		return newErr(diag.CodeTypeMismatch, "cannot assign to const %q", target.Name)
	default:
		return newErr(diag.CodeTypeMismatch, "unsupported assignment target %T", s.Target)
	}
}
