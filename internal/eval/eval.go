// Package eval implements the tree-walking evaluator (spec §4.G): a
// strict single-threaded interpreter driven by the module loader, with
// a centralized operator dispatch (internal/value) and a shallow call
// stack limit guarding recursion.
package eval

import (
	"fmt"

	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/config"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/module"
	"github.com/takomusic/mfs/internal/value"
)

// rtErr is an error tagged with a diagnostic code, independent of any
// AST span; the caller attaches the span when reporting it.
type rtErr struct {
	Code    diag.Code
	Message string
}

func (e *rtErr) Error() string { return e.Message }

func newErr(code diag.Code, format string, args ...any) error {
	return &rtErr{Code: code, Message: fmt.Sprintf(format, args...)}
}

// DiagCode extracts the diagnostic code an evaluation error was raised
// with, for callers (compiler.Compile) that need to report the real
// code instead of a generic catch-all. ok is false for an error that
// did not originate from this package's evaluation (e.g. a plain
// module-loader error already carrying its own diag.Code upstream).
func DiagCode(err error) (diag.Code, bool) {
	re, ok := err.(*rtErr)
	if !ok {
		return "", false
	}
	return re.Code, true
}

// Evaluator drives module loading and evaluation for one compilation.
// It owns no state beyond what is confined to a single compile: the
// reporter, the loader's cache, and the per-module evaluation state
// below are all single-owner (spec §5).
type Evaluator struct {
	loader   *module.Loader
	reporter *diag.Reporter
	cfg      *config.Config

	moduleExports map[string]map[string]value.Value
	moduleState   map[string]module.State
	evalStack     []string // canonical paths currently being evaluated, for CircularImport chains

	callDepth int

	// constsInFlight names the current module's not-yet-evaluated
	// const declarations, consulted only while evaluating that module's
	// ConstDecls, to distinguish UseBeforeInit from UndefinedSymbol.
	constsInFlight map[string]bool
}

func NewEvaluator(loader *module.Loader, reporter *diag.Reporter, cfg *config.Config) *Evaluator {
	return &Evaluator{
		loader:        loader,
		reporter:      reporter,
		cfg:           cfg,
		moduleExports: make(map[string]map[string]value.Value),
		moduleState:   make(map[string]module.State),
	}
}

// EvaluateEntry loads and evaluates the entry module, then invokes its
// exported `main` to obtain a Score value (spec §4.G.3).
func (e *Evaluator) EvaluateEntry(canonical string) (*value.Score, error) {
	exports, err := e.evaluateModule(canonical, false)
	if err != nil {
		return nil, err
	}
	main, ok := exports["main"]
	if !ok {
		return nil, newErr(diag.CodeMainNotFound, "module %q exports no main function", canonical)
	}
	result, err := e.callAny(main, nil)
	if err != nil {
		return nil, err
	}
	score, ok := result.(value.Score)
	if !ok {
		return nil, newErr(diag.CodeMainReturnedNonScore, "main returned %s, expected Score", result.Kind())
	}
	return &score, nil
}

// evaluateModule implements the cycle-detected load-then-evaluate path
// described in spec §4.F/§4.G: Loaded -> Evaluating -> Evaluated.
func (e *Evaluator) evaluateModule(canonical string, isStd bool) (map[string]value.Value, error) {
	if exp, ok := e.moduleExports[canonical]; ok && e.moduleState[canonical] == module.Evaluated {
		return exp, nil
	}
	if e.moduleState[canonical] == module.Evaluating {
		chain := append(append([]string{}, e.evalStack...), canonical)
		return nil, newErr(diag.CodeCircularImport, "circular import: %v", chain)
	}

	if isStd {
		e.moduleState[canonical] = module.Evaluating
		e.evalStack = append(e.evalStack, canonical)
		exports := nativeExports(canonical)
		e.evalStack = e.evalStack[:len(e.evalStack)-1]
		e.moduleState[canonical] = module.Evaluated
		e.moduleExports[canonical] = exports
		return exports, nil
	}

	mod, err := e.loader.Load(canonical, false)
	if err != nil {
		return nil, newErr(diag.CodeModuleNotFound, "%s", err.Error())
	}

	e.moduleState[canonical] = module.Evaluating
	e.evalStack = append(e.evalStack, canonical)
	defer func() { e.evalStack = e.evalStack[:len(e.evalStack)-1] }()

	env := value.NewEnv(nil)
	dir := module.Dir(canonical)

	for _, imp := range mod.Program.Imports {
		if err := e.bindImport(env, dir, imp); err != nil {
			return nil, err
		}
	}

	// Hoist fn/enum first so const initializers and function bodies can
	// reference any function regardless of declaration order.
	for _, decl := range mod.Program.Body {
		if fn, ok := decl.(*ast.FnDecl); ok {
			env.Define(fn.Name, value.Function{Name: fn.Name, Params: fn.Params, Body: fn.Body, Closure: env}, true)
		}
		if en, ok := decl.(*ast.EnumDecl); ok {
			fields := make(map[string]value.Value, len(en.Variants))
			for _, v := range en.Variants {
				fields[v] = value.String{V: v}
			}
			env.Define(en.Name, value.Object{Fields: fields}, true)
		}
	}

	constNames := make(map[string]bool)
	for _, decl := range mod.Program.Body {
		if c, ok := decl.(*ast.ConstDecl); ok {
			constNames[c.Name] = true
		}
	}

	prevInFlight := e.constsInFlight
	e.constsInFlight = constNames
	for _, decl := range mod.Program.Body {
		c, ok := decl.(*ast.ConstDecl)
		if !ok {
			continue
		}
		v, err := e.evalExpr(c.Value, env)
		if err != nil {
			e.constsInFlight = prevInFlight
			return nil, err
		}
		env.Define(c.Name, v, true)
		delete(e.constsInFlight, c.Name)
	}
	e.constsInFlight = prevInFlight

	exports := make(map[string]value.Value)
	for _, decl := range mod.Program.Body {
		switch d := decl.(type) {
		case *ast.FnDecl:
			if d.Exported {
				v, _ := env.Lookup(d.Name)
				exports[d.Name] = v
			}
		case *ast.ConstDecl:
			if d.Exported {
				v, _ := env.Lookup(d.Name)
				exports[d.Name] = v
			}
		case *ast.EnumDecl:
			if d.Exported {
				v, _ := env.Lookup(d.Name)
				exports[d.Name] = v
			}
		}
	}

	e.moduleState[canonical] = module.Evaluated
	e.moduleExports[canonical] = exports
	return exports, nil
}

func (e *Evaluator) bindImport(env *value.Env, dir string, imp *ast.ImportDecl) error {
	canonical, isStd, err := module.Resolve(dir, imp.Path)
	if err != nil {
		return newErr(diag.CodeModuleNotFound, "%s", err.Error())
	}
	exports, err := e.evaluateModule(canonical, isStd)
	if err != nil {
		return err
	}
	if imp.Namespace != "" {
		env.Define(imp.Namespace, value.Object{Fields: exports}, true)
		return nil
	}
	for _, name := range imp.Names {
		v, ok := exports[name]
		if !ok {
			return newErr(diag.CodeExportNotFound, "module %q has no export %q", canonical, name)
		}
		env.Define(name, v, true)
	}
	return nil
}
