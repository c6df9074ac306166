// Command mfs-compile is a tiny example host for the compiler façade
// (package compiler — Check/Compile/ParseOnly are
// the real public surface). It reads one .mfs entry file from disk,
// compiles it, and prints either the resulting Score-IR as JSON or its
// diagnostics.
//
// The CLI proper (project templates, package fetching, output-format
// renderers, playback) is an external collaborator, not part of this
// core — this file only demonstrates wiring the library up.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/takomusic/mfs/compiler"
	"github.com/takomusic/mfs/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: mfs-compile <entry.mfs>")
	}
	entryPath := os.Args[1]

	files, err := loadModuleFiles(entryPath)
	if err != nil {
		log.Fatalf("reading %s: %v", entryPath, err)
	}

	cfg := config.Load()
	result := compiler.Compile(context.Background(), files, entryPath, cfg)

	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", d.Severity, d.Code, d.Message)
	}
	if !result.Success {
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result.IR, "", "  ")
	if err != nil {
		log.Fatalf("encoding score-ir: %v", err)
	}
	fmt.Println(string(out))
}

// loadModuleFiles reads entryPath and every local (relative/absolute
// path) module it imports, transitively, into a compiler.Files map.
// std: imports are skipped; the module loader never consults the
// FileSystem for them.
func loadModuleFiles(entryPath string) (compiler.Files, error) {
	files := compiler.Files{}
	seen := map[string]bool{}
	var visit func(path string) error
	visit = func(path string) error {
		if seen[path] {
			return nil
		}
		seen[path] = true
		text, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[path] = string(text)

		prog, _ := compiler.ParseOnly(string(text))
		if prog == nil {
			return nil
		}
		dir := filepath.Dir(path)
		for _, imp := range prog.Imports {
			if isStdImport(imp.Path) {
				continue
			}
			target := imp.Path
			if !filepath.IsAbs(target) {
				target = filepath.Join(dir, target)
			}
			if err := visit(target); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(entryPath); err != nil {
		return nil, err
	}
	return files, nil
}

func isStdImport(path string) bool {
	return len(path) >= 4 && path[:4] == "std:"
}
