package value

import "github.com/takomusic/mfs/internal/ast"

// Function is a first-class function value: a parameter list, a body
// (shared shape for both `fn` declarations and arrow expressions —
// the parser already normalizes an arrow's expression body into a
// single-statement ReturnStmt list), and the Env it closes over.
type Function struct {
	Name    string
	Params  []ast.Param
	Body    []ast.Stmt
	Closure *Env
}

// Builtin is a function implemented in Go rather than MFS source —
// the std: modules' native primitives (e.g. theory.transpose).
type Builtin struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

func (Builtin) Kind() Kind { return KindFunction }
func (b Builtin) String() string {
	return "<builtin " + b.Name + ">"
}
