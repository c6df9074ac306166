// Package module resolves and loads `import` targets (spec §4.F): the
// `std:X` virtual namespace, absolute/relative file paths, and a
// canonical-path-keyed cache shared across one compilation.
package module

import (
	"fmt"
	"path"
	"strings"

	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/lexer"
	"github.com/takomusic/mfs/internal/parser"
	"github.com/takomusic/mfs/internal/source"
)

// StdNamespaces is the loader's reserved std: module list (spec §4.F.1).
// internal/eval supplies their native Builtin exports; this package only
// needs to recognize the names for resolution and ModuleNotFound checks.
var StdNamespaces = map[string]bool{
	"core":      true,
	"time":      true,
	"random":    true,
	"transform": true,
	"curves":    true,
	"theory":    true,
	"drums":     true,
	"vocal":     true,
}

// FileSystem abstracts file reads so tests can supply an in-memory set
// without touching disk.
type FileSystem interface {
	ReadFile(path string) (string, error)
}

// State tracks a module's position in the load/evaluate lifecycle.
// This package only ever sets Loaded (parsed). internal/eval uses
// Evaluating/Evaluated in its own per-canonical-path state map to
// detect import cycles; it does not write them to Module.State.
type State int

const (
	Unloaded State = iota
	Loaded
	Evaluating
	Evaluated
)

// Module is one resolved, parsed compilation unit.
type Module struct {
	CanonicalPath string
	IsStd         bool
	Program       *ast.Program
	File          *source.File
	State         State

	// Exports is not filled by the loader or by internal/eval, which
	// keeps each module's exports in its own map keyed by canonical path.
	Exports map[string]any
}

// Loader resolves import paths to canonical form, parses each module at
// most once, and caches the result by canonical path (spec §4.F.3).
type Loader struct {
	fs       FileSystem
	files    *source.Set
	reporter *diag.Reporter
	cache    map[string]*Module
}

func NewLoader(fs FileSystem, files *source.Set, reporter *diag.Reporter) *Loader {
	return &Loader{fs: fs, files: files, reporter: reporter, cache: make(map[string]*Module)}
}

// Resolve turns an import path written inside fromDir into a canonical
// path. std: paths canonicalize to themselves; absolute paths
// (beginning with "/") are used as-is; relative paths are joined with
// fromDir and lexically normalized ("." / ".." collapse).
func Resolve(fromDir, importPath string) (canonical string, isStd bool, err error) {
	if strings.HasPrefix(importPath, "std:") {
		name := strings.TrimPrefix(importPath, "std:")
		if !StdNamespaces[name] {
			return "", false, fmt.Errorf("unknown std module %q", importPath)
		}
		return importPath, true, nil
	}
	if strings.HasPrefix(importPath, "/") {
		return path.Clean(importPath), false, nil
	}
	return path.Clean(path.Join(fromDir, importPath)), false, nil
}

// Load parses (or returns the cached parse of) the module at canonical
// path. A file the FileSystem cannot read yields a "module not found"
// error naming canonical; lex and parse diagnostics go to the reporter.
func (l *Loader) Load(canonical string, isStd bool) (*Module, error) {
	if m, ok := l.cache[canonical]; ok {
		return m, nil
	}

	if isStd {
		// std: modules have no MFS source: their surface (time, random,
		// transform, curves, theory, drums, vocal) is native Go behind a
		// Builtin export map that internal/eval attaches directly, since
		// they either need host capabilities (time, random) or operate
		// on opaque runtime values the grammar has no syntax for
		// constructing (Clip concatenation in transform/curves).
		m := &Module{CanonicalPath: canonical, IsStd: true, State: Loaded}
		l.cache[canonical] = m
		return m, nil
	}

	text, err := l.fs.ReadFile(canonical)
	if err != nil {
		return nil, fmt.Errorf("module not found: %s", canonical)
	}

	file := l.files.Add(canonical, text)
	toks, lexErrs := lexer.New(file).Tokenize()
	for _, d := range lexErrs {
		l.reporter.Report(d)
	}
	prog, parseErrs := parser.Parse(toks, file, 100)
	for _, d := range parseErrs {
		l.reporter.Report(d)
	}

	m := &Module{CanonicalPath: canonical, IsStd: false, Program: prog, File: file, State: Loaded}
	l.cache[canonical] = m
	return m, nil
}

// Get returns the cached module for canonical, or nil.
func (l *Loader) Get(canonical string) *Module {
	return l.cache[canonical]
}

// Dir returns the directory import paths inside path should resolve
// against — path's own directory, since imports are relative to the
// importing module, not the caller's working directory.
func Dir(canonical string) string {
	if idx := strings.LastIndex(canonical, "/"); idx >= 0 {
		return canonical[:idx]
	}
	return "."
}
