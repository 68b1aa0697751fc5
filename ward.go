// Package ward is a thin facade over the analyzer core: parse every
// input file, hydrate ancestors, walk each file's AST to produce
// diagnostics, and hand back the merged issue stream. Everything that
// matters — the symbol table, the two-phase visitor walks, the
// per-class checks, the worker partitioning — lives under internal/;
// this file only wires a caller-supplied file list and config through
// internal/pipeline.
package ward

import (
	"context"

	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/config"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/pipeline"
)

// File pairs a source path with its already-parsed AST root, in the
// order the caller wants it analyzed. Order matters: it drives
// dedup-preserving-first-occurrence and partition-by-index-mod-N, not
// just display order.
type File = pipeline.File

// Run is everything one Analyze call produced: the populated CodeBase
// (useful to a caller that also wants config.GlobalsTypeMap-style
// signature introspection or a statefile.Save) and the filtered,
// deduplicated issue stream.
type Run struct {
	CodeBase  *codebase.CodeBase
	Collector *issue.Collector
}

// Analyze runs the whole-program pipeline over files under cfg and
// returns the resulting issue collector. It is a convenience wrapper
// over AnalyzeContext using context.Background.
func Analyze(cfg config.Config, files []File) (*issue.Collector, error) {
	run, err := AnalyzeContext(context.Background(), cfg, files)
	if err != nil {
		return nil, err
	}
	return run.Collector, nil
}

// AnalyzeContext is Analyze threaded with a context, so a caller can
// bound a run with a deadline or cancel it; internal/pipeline's phase
// spans are attached to ctx.
func AnalyzeContext(ctx context.Context, cfg config.Config, files []File) (*Run, error) {
	res, err := pipeline.Run(ctx, cfg, files)
	if err != nil {
		return nil, err
	}
	return &Run{CodeBase: res.CodeBase, Collector: res.Collector}, nil
}

// NewFile is a small convenience constructor, mostly useful to callers
// building a []File literal inline rather than via composite literals
// naming File's fields directly.
func NewFile(name string, root ast.Node) File {
	return File{Name: name, Root: root}
}
