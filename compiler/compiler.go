// Package compiler is the public entry point to the TakoMusic/MFS
// front-end: a facade wiring the lexer, parser, validator, module
// loader, evaluator, and normalizer into the three calls a host
// actually needs (spec §6.1), the way orchestrator.go wires several
// agents into one GenerateActions call.
package compiler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/config"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/eval"
	"github.com/takomusic/mfs/internal/lexer"
	"github.com/takomusic/mfs/internal/logger"
	"github.com/takomusic/mfs/internal/metrics"
	"github.com/takomusic/mfs/internal/module"
	"github.com/takomusic/mfs/internal/parser"
	"github.com/takomusic/mfs/internal/scoreir"
	"github.com/takomusic/mfs/internal/source"
	"github.com/takomusic/mfs/internal/validate"
)

// Files is the minimal module.FileSystem a host needs to supply: the
// entry module's text plus anything it imports by relative/absolute
// path. std: imports never consult it.
type Files map[string]string

func (f Files) ReadFile(path string) (string, error) {
	text, ok := f[path]
	if !ok {
		return "", fmt.Errorf("file not found: %s", path)
	}
	return text, nil
}

// CheckResult is the outcome of Check: diagnostics plus the entry
// module's parsed AST, with no evaluation attempted.
type CheckResult struct {
	Diagnostics []diag.Diagnostic
	Program     *ast.Program
}

// Check parses and validates the entry module without evaluating
// anything, the cheapest useful compiler call for an editor-style
// "show me the errors" request. Imported modules are neither loaded
// nor validated.
func Check(files Files, entryPath string, cfg *config.Config) *CheckResult {
	if cfg == nil {
		cfg = config.Default()
	}
	fileSet := source.NewSet()
	reporter := diag.NewReporter(fileSet)
	loader := module.NewLoader(files, fileSet, reporter)

	m, err := loader.Load(entryPath, false)
	if err != nil {
		reporter.Report(diag.Diagnostic{
			Severity: diag.Error,
			Code:     diag.CodeModuleNotFound,
			Message:  err.Error(),
		})
		return &CheckResult{Diagnostics: reporter.Diagnostics()}
	}
	if m.Program != nil {
		validate.Validate(m.Program, reporter)
	}
	return &CheckResult{Diagnostics: reporter.Diagnostics(), Program: m.Program}
}

// CompileResult is the outcome of Compile: whether the compilation
// succeeded (no error-severity diagnostics), every diagnostic
// collected, the entry module's AST, and the normalized Score-IR when
// evaluation reached a Score.
type CompileResult struct {
	Success     bool
	Diagnostics []diag.Diagnostic
	Program     *ast.Program
	IR          *scoreir.ScoreIR
}

// compilerObservability is the optional metrics wiring around Compile,
// env-gated the way internal/metrics always is: Compile fills it only
// when cfg.IsProduction(), and a nil client is skipped.
type compilerObservability struct {
	cloudwatch *metrics.Client
	sentry     *metrics.SentryMetrics
}

// Compile runs the full pipeline: parse, validate, load+evaluate
// every reachable module, and normalize the resulting Score into
// Score-IR (spec §6.1). Observability (CloudWatch/Sentry) is wired
// around the call the way internal/metrics is designed to be used,
// active only when cfg.IsProduction().
func Compile(ctx context.Context, files Files, entryPath string, cfg *config.Config) *CompileResult {
	if cfg == nil {
		cfg = config.Default()
	}
	traceID := uuid.New().String()
	start := time.Now()

	var obs compilerObservability
	if cfg.IsProduction() {
		if cw, err := metrics.NewClient(ctx, cfg.Environment); err == nil {
			obs.cloudwatch = cw
		}
		obs.sentry = metrics.NewSentryMetrics()
	}

	result := compile(files, entryPath, cfg)

	duration := time.Since(start)
	fields := logger.WithCompile(traceID, entryPath, len(files))
	if result.Success {
		logger.Info("compile succeeded", fields)
	} else {
		logger.Warn("compile produced errors", fields)
	}
	errCount, warnCount := countBySeverity(result.Diagnostics)
	if obs.cloudwatch != nil {
		obs.cloudwatch.RecordCompile("compile", result.Success, duration)
		obs.cloudwatch.RecordDiagnosticCounts("compile", errCount, warnCount)
	}
	if obs.sentry != nil {
		obs.sentry.RecordCompile(ctx, "compile", result.Success, errCount, warnCount, duration)
	}

	return result
}

func compile(files Files, entryPath string, cfg *config.Config) *CompileResult {
	fileSet := source.NewSet()
	reporter := diag.NewReporter(fileSet)
	loader := module.NewLoader(files, fileSet, reporter)

	entry, err := loader.Load(entryPath, false)
	if err != nil {
		reporter.Report(diag.Diagnostic{
			Severity: diag.Error,
			Code:     diag.CodeModuleNotFound,
			Message:  err.Error(),
		})
		return &CompileResult{Diagnostics: reporter.Diagnostics()}
	}
	if entry.Program != nil {
		validate.Validate(entry.Program, reporter)
	}
	if reporter.HasErrors() {
		return &CompileResult{Diagnostics: reporter.Diagnostics(), Program: entry.Program}
	}

	evaluator := eval.NewEvaluator(loader, reporter, cfg)
	sc, err := evaluator.EvaluateEntry(entryPath)
	if err != nil {
		code := diag.CodeMainReturnedNonScore
		if c, ok := eval.DiagCode(err); ok {
			code = c
		}
		reporter.Report(diag.Diagnostic{Severity: diag.Error, Code: code, Message: err.Error()})
		return &CompileResult{Diagnostics: reporter.Diagnostics(), Program: entry.Program}
	}

	ir := scoreir.Normalize(sc, reporter, "takomusic-mfs", sourceHash(files[entryPath]))

	return &CompileResult{
		Success:     !reporter.HasErrors(),
		Diagnostics: reporter.Diagnostics(),
		Program:     entry.Program,
		IR:          ir,
	}
}

// ParseOnly lexes and parses a single source string with no module
// resolution, for callers (a formatter, a syntax-highlighter) that
// only need an AST and don't have an import graph to resolve.
func ParseOnly(src string) (*ast.Program, []diag.Diagnostic) {
	f := source.NewFile(0, "<input>", src)
	toks, lexErrs := lexer.New(f).Tokenize()
	prog, parseErrs := parser.Parse(toks, f, config.Default().MaxParseErrors)
	diags := append(append([]diag.Diagnostic{}, lexErrs...), parseErrs...)
	return prog, diags
}

func countBySeverity(diags []diag.Diagnostic) (errors, warnings int) {
	for _, d := range diags {
		switch d.Severity {
		case diag.Error:
			errors++
		case diag.Warning:
			warnings++
		}
	}
	return
}

func sourceHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
