// Package validate implements the pre-evaluation validation pass (spec
// §4.E): a walk over the parsed AST that catches static issues the
// parser itself accepts, appending warning/error diagnostics without
// stopping compilation.
package validate

import (
	"strconv"

	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/diag"
)

var validSoundKinds = map[string]bool{"instrument": true, "drumKit": true, "vocal": true, "fx": true}
var validTrackRoles = map[string]bool{"Instrument": true, "Drums": true, "Vocal": true, "Automation": true}
var validMeterDenominators = map[int64]bool{1: true, 2: true, 4: true, 8: true, 16: true, 32: true, 64: true}

// Validate walks prog and reports every static violation it finds
// (spec §4.E), applying the same checks to every module it is given.
// The grammar's closed ast.TopDecl set (FnDecl/ConstDecl/EnumDecl, plus LetDecl only so a
// module-scope `let` can be flagged below) already makes
// TopLevelExecutionInImport structurally unreachable, so this pass
// does not re-check for it.
func Validate(prog *ast.Program, reporter *diag.Reporter) {
	v := &validator{reporter: reporter}
	for _, decl := range prog.Body {
		v.walkTopDecl(decl)
	}
}

type validator struct {
	reporter *diag.Reporter
}

func (v *validator) report(span ast.Node, code diag.Code, severity diag.Severity, msg string) {
	v.reporter.Report(diag.Diagnostic{
		Severity: severity,
		Code:     code,
		Message:  msg,
		Span:     span.Span(),
	})
}

func (v *validator) walkTopDecl(decl ast.TopDecl) {
	switch d := decl.(type) {
	case *ast.FnDecl:
		for _, p := range d.Params {
			if p.Default != nil {
				v.walkExpr(p.Default)
			}
		}
		v.walkStmts(d.Body)
	case *ast.ConstDecl:
		v.walkExpr(d.Value)
	case *ast.EnumDecl:
		// no nested expressions
	case *ast.LetDecl:
		v.report(d, diag.CodeLetAtModuleScope, diag.Error, "let is block-local; use const at module scope")
		v.walkExpr(d.Value)
	}
}

func (v *validator) walkStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		v.walkStmt(s)
	}
}

func (v *validator) walkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.LetDecl:
		v.walkExpr(s.Value)
	case *ast.LocalConstDecl:
		v.walkExpr(s.Value)
	case *ast.ReturnStmt:
		if s.Value != nil {
			v.walkExpr(s.Value)
		}
	case *ast.IfStmt:
		v.walkExpr(s.Cond)
		v.walkStmts(s.Then)
		v.walkStmts(s.Else)
	case *ast.ForStmt:
		v.walkExpr(s.Start)
		v.walkExpr(s.End)
		v.walkStmts(s.Body)
	case *ast.AssignmentStmt:
		v.walkExpr(s.Target)
		v.walkExpr(s.Value)
	case *ast.ExprStmt:
		v.walkExpr(s.Value)
	}
}

// walkExpr recurses into every expression shape that can nest a
// CallExpr or a ScoreExpr/ClipExpr, checking each as it is found.
func (v *validator) walkExpr(expr ast.Expr) {
	switch x := expr.(type) {
	case *ast.TemplateLit:
		for _, e := range x.Exprs {
			v.walkExpr(e)
		}
	case *ast.ArrayLit:
		for _, e := range x.Elements {
			v.walkExpr(e)
		}
	case *ast.ObjectLit:
		for _, f := range x.Fields {
			v.walkExpr(f.Value)
		}
	case *ast.BinaryExpr:
		v.walkExpr(x.Left)
		v.walkExpr(x.Right)
	case *ast.UnaryExpr:
		v.walkExpr(x.Operand)
	case *ast.TernaryExpr:
		v.walkExpr(x.Cond)
		v.walkExpr(x.Then)
		v.walkExpr(x.Else)
	case *ast.CallExpr:
		v.checkArgOrder(x)
		v.walkExpr(x.Callee)
		for _, a := range x.Args {
			v.walkExpr(a.Value)
		}
	case *ast.MemberExpr:
		v.walkExpr(x.Object)
	case *ast.IndexExpr:
		v.walkExpr(x.Object)
		v.walkExpr(x.Index)
	case *ast.ArrowFn:
		for _, p := range x.Params {
			if p.Default != nil {
				v.walkExpr(p.Default)
			}
		}
		v.walkStmts(x.Body)
	case *ast.MatchExpr:
		v.walkExpr(x.Scrutinee)
		for _, arm := range x.Arms {
			if arm.Pattern != nil {
				v.walkExpr(arm.Pattern)
			}
			v.walkExpr(arm.Value)
		}
	case *ast.ScoreExpr:
		v.checkScore(x)
	case *ast.ClipExpr:
		v.checkClip(x)
	}
}

// checkArgOrder enforces "positional arguments must precede named
// ones" and unique named-argument keys (spec §4.D, deferred here).
func (v *validator) checkArgOrder(call *ast.CallExpr) {
	seenNamed := false
	names := make(map[string]bool)
	for _, a := range call.Args {
		if a.Name == "" {
			if seenNamed {
				v.report(call, diag.CodePositionalArgAfterNamed, diag.Error,
					"positional argument follows a named argument")
			}
			continue
		}
		seenNamed = true
		if names[a.Name] {
			v.report(call, diag.CodeDuplicateNamedArg, diag.Error,
				"duplicate named argument \""+a.Name+"\"")
		}
		names[a.Name] = true
	}
}

func (v *validator) checkScore(sc *ast.ScoreExpr) {
	soundIDs := make(map[string]bool)
	declaredSounds := make(map[string]bool)

	for _, item := range sc.Items {
		switch it := item.(type) {
		case *ast.MetaBlock:
			for _, f := range it.Fields {
				v.walkExpr(f.Value)
			}
		case *ast.TempoBlock:
			for _, te := range it.Entries {
				v.walkExpr(te.At)
				v.walkExpr(te.BPM)
				if te.Unit != nil {
					v.walkExpr(te.Unit)
				}
				if n, pos, ok := literalNumber(te.BPM); ok && !pos {
					v.report(te.BPM, diag.CodeNonPositiveDuration, diag.Error,
						"tempo BPM must be positive, got "+n)
				}
			}
		case *ast.MeterBlock:
			for _, me := range it.Entries {
				v.walkExpr(me.At)
				v.walkExpr(me.Numerator)
				v.walkExpr(me.Denominator)
				if lit, ok := me.Numerator.(*ast.IntLit); ok && lit.Value <= 0 {
					v.report(me.Numerator, diag.CodeNonPositiveDuration, diag.Error,
						"meter numerator must be a positive integer")
				}
				if lit, ok := me.Denominator.(*ast.IntLit); ok && !validMeterDenominators[lit.Value] {
					v.report(me.Denominator, diag.CodeBadMeterDenominator, diag.Error,
						"meter denominator must be one of 1,2,4,8,16,32,64")
				}
			}
		case *ast.SoundDecl:
			if soundIDs[it.ID] {
				v.report(it, diag.CodeDuplicateSoundID, diag.Error,
					"duplicate sound id \""+it.ID+"\"")
			}
			soundIDs[it.ID] = true
			declaredSounds[it.ID] = true
			if !validSoundKinds[it.Kind] {
				v.report(it, diag.CodeInvalidSoundKind, diag.Error,
					"invalid sound kind \""+it.Kind+"\"")
			}
			for _, f := range it.Fields {
				v.walkExpr(f.Value)
			}
		case *ast.TrackDecl:
			if !validTrackRoles[it.Role] {
				v.report(it, diag.CodeInvalidTrackRole, diag.Error,
					"invalid track role \""+it.Role+"\"")
			}
			if !declaredSounds[it.Sound] {
				v.report(it, diag.CodeUndefinedSound, diag.Error,
					"track refers to undeclared sound \""+it.Sound+"\"")
			}
			for _, pl := range it.Placements {
				v.walkExpr(pl.At)
				v.walkExpr(pl.Clip)
			}
		case *ast.ScoreMarker:
			v.walkExpr(it.At)
			v.walkExpr(it.Label)
		}
	}
}

// checkClip walks a clip body. ast.ClipStmt is a closed interface
// implemented only by the eight recognized statement forms, so
// "structurally valid statements" is already guaranteed by the
// parser; this walk only needs to recurse into nested expressions and
// apply the positive-duration / CC-range checks.
func (v *validator) checkClip(clip *ast.ClipExpr) {
	for _, stmt := range clip.Stmts {
		switch s := stmt.(type) {
		case *ast.AtStmt:
			v.walkExpr(s.Pos)
		case *ast.RestStmt:
			v.walkExpr(s.Duration)
			v.checkPositiveDuration(s.Duration)
		case *ast.NoteStmt:
			v.walkExpr(s.Pitch)
			v.walkExpr(s.Duration)
			v.checkPositiveDuration(s.Duration)
			if s.Velocity != nil {
				v.walkExpr(s.Velocity)
			}
		case *ast.ChordStmt:
			v.walkExpr(s.Pitches)
			v.walkExpr(s.Duration)
			v.checkPositiveDuration(s.Duration)
			if s.Velocity != nil {
				v.walkExpr(s.Velocity)
			}
		case *ast.HitStmt:
			v.walkExpr(s.Name)
			v.walkExpr(s.Duration)
			v.checkPositiveDuration(s.Duration)
			if s.Velocity != nil {
				v.walkExpr(s.Velocity)
			}
		case *ast.CCStmt:
			v.walkExpr(s.Controller)
			v.walkExpr(s.Value)
			if lit, ok := s.Controller.(*ast.IntLit); ok && (lit.Value < 0 || lit.Value > 127) {
				v.report(s.Controller, diag.CodeCCOutOfRange, diag.Error,
					"cc controller out of range 0-127")
			}
		case *ast.AutomationStmt:
			v.walkExpr(s.Parameter)
			v.walkExpr(s.Value)
		case *ast.MarkerStmt:
			v.walkExpr(s.Label)
		}
	}
}

func (v *validator) checkPositiveDuration(expr ast.Expr) {
	switch d := expr.(type) {
	case *ast.DurationLit:
		if d.Num <= 0 {
			v.report(d, diag.CodeNonPositiveDuration, diag.Error, "duration must be positive")
		}
	case *ast.IntLit:
		if d.Value <= 0 {
			v.report(d, diag.CodeNonPositiveDuration, diag.Error, "duration must be positive")
		}
	}
}

// literalNumber reports a literal's display text and whether it is
// positive, for IntLit/FloatLit expressions; ok is false for anything
// else (a runtime-computed BPM can't be statically checked here).
func literalNumber(expr ast.Expr) (text string, positive bool, ok bool) {
	switch n := expr.(type) {
	case *ast.IntLit:
		return strconv.FormatInt(n.Value, 10), n.Value > 0, true
	case *ast.FloatLit:
		return strconv.FormatFloat(n.Value, 'g', -1, 64), n.Value > 0, true
	default:
		return "", false, false
	}
}
