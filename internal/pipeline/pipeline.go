// Package pipeline drives the two-phase whole-program run: ParseVisitor
// over every input file, ancestor hydration, then AnalysisVisitor
// partitioned across cfg.Processes workers, each with its
// own private CodeBase clone seeded from the parse phase. It is the
// idiomatic-Go translation of "fork and partition the file list into N
// groups" — goroutines standing in for worker processes, a bounded
// conc.Pool standing in for the fork, otel spans marking each phase's
// boundary the way a real multiprocess driver would mark them across an
// RPC or pipe.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"github.com/tliron/commonlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/shinyvision/ward/internal/analysis"
	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/config"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/parsepass"
)

var (
	log    = commonlog.GetLoggerf("ward.pipeline")
	tracer = otel.Tracer("ward.pipeline")
)

// File pairs a source path with its already-parsed AST root, in a
// caller-supplied order. The pipeline never parses source text itself;
// it only walks Node trees it is handed.
type File struct {
	Name string
	Root ast.Node
}

// dedupeFiles keeps input order, dropping every occurrence of a name
// after its first: file order is deterministic — input order, then
// deduplicated preserving first occurrence.
func dedupeFiles(files []File) []File {
	seen := make(map[string]bool, len(files))
	out := make([]File, 0, len(files))
	for _, f := range files {
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out
}

// Result is what one pipeline run produces: the hydrated CodeBase (whose
// per-worker clones, in a Processes>1 run, are never merged back — their
// reference counts are partial by construction, see
// config.Config.DeadCodeDetectionAllowed) and the merged issue stream.
type Result struct {
	CodeBase  *codebase.CodeBase
	Collector *issue.Collector
}

// Run executes the pipeline. It rejects a Processes>1 request that also
// asks for dead code detection up front, before doing any work, since
// dead-code reference counts require a global view no single worker's
// partial CodeBase clone has.
func Run(ctx context.Context, cfg config.Config, files []File) (*Result, error) {
	cfg = cfg.Normalize()
	if cfg.DeadCodeDetection && !cfg.DeadCodeDetectionAllowed() {
		return nil, fmt.Errorf("pipeline: dead code detection requires processes=1, got %d", cfg.Processes)
	}

	files = dedupeFiles(files)

	ctx, parseSpan := tracer.Start(ctx, "ward.pipeline.parse")
	parseSpan.SetAttributes(attribute.Int("ward.file_count", len(files)))
	cb := codebase.New()
	for _, f := range files {
		parsepass.ParseFile(cb, f.Name, f.Root)
	}
	parseSpan.End()

	_, hydrateSpan := tracer.Start(ctx, "ward.pipeline.hydrate")
	for _, cls := range cb.AllClasses() {
		cb.Hydrate(cls.FQSEN)
	}
	hydrateSpan.End()

	collector, err := analyzePartitioned(ctx, cb, cfg, files)
	if err != nil {
		return nil, err
	}
	return &Result{CodeBase: cb, Collector: collector}, nil
}

// analyzePartitioned splits files into cfg.Processes groups by index mod
// N, hands each group its own CodeBase.Clone and Collector, runs them
// concurrently with at most
// cfg.Processes goroutines live at once, and merges every worker's
// Collector into one, in worker order, once all have finished.
func analyzePartitioned(ctx context.Context, cb *codebase.CodeBase, cfg config.Config, files []File) (*issue.Collector, error) {
	n := cfg.Processes
	groups := make([][]File, n)
	for i, f := range files {
		g := i % n
		groups[g] = append(groups[g], f)
	}

	_, span := tracer.Start(ctx, "ward.pipeline.analyze")
	span.SetAttributes(attribute.Int("ward.processes", n))
	defer span.End()

	collectors := make([]*issue.Collector, n)
	p := pool.New().WithMaxGoroutines(n)
	for i, group := range groups {
		i, group := i, group
		p.Go(func() {
			workerCB := cb
			if n > 1 {
				workerCB = cb.Clone()
			}
			workerCollector := issue.NewCollector(filtersFor(cfg)...)
			for _, f := range group {
				analysis.AnalyzeFileWithConfig(workerCB, workerCollector, f.Name, f.Root, cfg)
			}
			collectors[i] = workerCollector
			log.Debugf("worker %d/%d analyzed %d files, raised %d issues", i, n, len(group), workerCollector.Len())
		})
	}
	p.Wait()

	merged := issue.NewCollector(filtersFor(cfg)...)
	for _, c := range collectors {
		merged.Merge(c)
	}
	return merged, nil
}

func filtersFor(cfg config.Config) []issue.Filter {
	suppressor := issue.Suppressor{Suppress: cfg.SuppressSet(), Whitelist: cfg.WhitelistSet()}
	return []issue.Filter{
		issue.MinimumSeverityFilter(issue.Severity(cfg.MinimumSeverity)),
		suppressor.AsFilter(),
	}
}
