package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/grid3d/pkg/cache"
	"github.com/matzehuels/grid3d/pkg/graph"
	"github.com/matzehuels/grid3d/pkg/lattice"
	"github.com/matzehuels/grid3d/pkg/observability"
	"github.com/matzehuels/grid3d/pkg/store"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, sinks and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Sinks receive the graph when Options.Persist is set.
	Sinks []store.Sink
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, sinks ...store.Sink) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Sinks:  sinks,
	}
}

// Execute runs the complete generate → render → persist pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Generate
	genStart := time.Now()
	g, genHit, err := r.GenerateWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	result.Graph = g
	result.Stats.GenerateTime = time.Since(genStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.CacheInfo.GenerateHit = genHit

	if graphData, err := graph.MarshalGraph(g); err == nil {
		result.GraphHash = cache.Hash(graphData)
	}

	r.Logger.Info("generated lattice",
		"kind", opts.Kind,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cached", genHit,
		"duration", result.Stats.GenerateTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	// Stage 3: Persist
	if opts.Persist && len(r.Sinks) > 0 {
		persistStart := time.Now()
		runID, err := r.Persist(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("persist: %w", err)
		}
		result.RunID = runID
		result.Stats.PersistTime = time.Since(persistStart)

		r.Logger.Info("persisted graph",
			"run", runID,
			"sinks", len(r.Sinks),
			"duration", result.Stats.PersistTime)
	}

	return result, nil
}

// GenerateWithCacheInfo generates a graph with caching and returns cache hit info.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, opts Options) (*graph.Graph, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForGenerate(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.GraphKey(opts.GraphKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			g, err := graph.ReadGraph(bytes.NewReader(data))
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "graph")
				return g, true, nil // Cache hit
			}
			opts.Logger.Warn("discarding unreadable cached graph", "key", cacheKey, "err", err)
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "key", cacheKey, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	g, err := Generate(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := graph.MarshalGraph(g); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.GraphTTL); err != nil {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "graph", len(data))
		}
	}

	return g, false, nil // Cache miss
}

// Generate is a convenience wrapper that calls GenerateWithCacheInfo and discards the cache hit info.
func (r *Runner) Generate(ctx context.Context, opts Options) (*graph.Graph, error) {
	g, _, err := r.GenerateWithCacheInfo(ctx, opts)
	return g, err
}

// Generate validates opts and enumerates the lattice into a new graph,
// without caching.
func Generate(ctx context.Context, opts Options) (*graph.Graph, error) {
	if err := opts.ValidateForGenerate(); err != nil {
		return nil, err
	}
	cfg := opts.Config()
	nodes := cfg.Dims().Count()

	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, opts.Kind, nodes)
	start := time.Now()

	opts.Logger.Debug("generating lattice",
		"kind", opts.Kind,
		"width", cfg.Width, "height", cfg.Height, "depth", cfg.Depth,
		"policy", fmt.Sprintf("%+v", cfg.Policy))

	var genOpts []lattice.Option
	if opts.Progress != nil {
		genOpts = append(genOpts, lattice.WithProgress(opts.Progress))
	}
	l, err := lattice.Generate(ctx, cfg, genOpts...)
	if err != nil {
		hooks.OnGenerateComplete(ctx, opts.Kind, 0, 0, time.Since(start), err)
		return nil, err
	}

	kind, _ := lattice.ParseKind(opts.Kind)
	g, err := graph.FromLattice(kind, l)
	hooks.OnGenerateComplete(ctx, opts.Kind, l.NodeCount(), l.EdgeCount(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("commit lattice: %w", err)
	}
	return g, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	graphHash := cache.Hash(graphData)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil // All artifacts from cache
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, g, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.ArtifactTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// Persist saves g to every sink under one fresh run ID and returns the ID.
// It stops at the first failing sink and deletes the run from the sinks
// that already saved it, so a run is stored everywhere or nowhere.
func (r *Runner) Persist(ctx context.Context, g *graph.Graph) (string, error) {
	rec := store.NewRecord(g)
	hooks := observability.Pipeline()
	for i, s := range r.Sinks {
		start := time.Now()
		err := s.Save(ctx, rec)
		hooks.OnPersistComplete(ctx, s.Name(), time.Since(start), err)
		if err != nil {
			err = fmt.Errorf("%s: %w", s.Name(), err)
			if uerr := r.unpersist(ctx, rec.ID, r.Sinks[:i]); uerr != nil {
				err = fmt.Errorf("%w (cleanup: %v)", err, uerr)
			}
			return "", err
		}
		r.Logger.Debug("saved graph", "sink", s.Name(), "run", rec.ID, "duration", time.Since(start))
	}
	return rec.ID, nil
}

// unpersist deletes run id from sinks, continuing past failures.
func (r *Runner) unpersist(ctx context.Context, id string, sinks []store.Sink) error {
	if len(sinks) == 0 {
		return nil
	}
	cctx, cancel := store.CleanupContext(ctx)
	defer cancel()

	var errs []error
	for _, s := range sinks {
		if err := s.Delete(cctx, id); err != nil {
			r.Logger.Warn("cleanup failed", "sink", s.Name(), "run", id, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		r.Logger.Debug("removed partial run", "sink", s.Name(), "run", id)
	}
	return errors.Join(errs...)
}

// Close releases resources held by the runner: the cache and every sink.
func (r *Runner) Close() error {
	var first error
	if r.Cache != nil {
		first = r.Cache.Close()
	}
	for _, s := range r.Sinks {
		if err := s.Close(context.Background()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
