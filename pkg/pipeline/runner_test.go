package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/grid3d/pkg/cache"
	"github.com/matzehuels/grid3d/pkg/graph"
	"github.com/matzehuels/grid3d/pkg/lattice"
	"github.com/matzehuels/grid3d/pkg/store"
)

// memCache is an in-memory cache.Cache that counts operations.
type memCache struct {
	mu         sync.Mutex
	data       map[string][]byte
	gets, sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

type fakeSink struct {
	name      string
	err       error
	deleteErr error
	saved     []*store.Record
	deleted   []string
	closed    bool
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Save(_ context.Context, rec *store.Record) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, rec)
	return nil
}

func (s *fakeSink) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeSink) Close(context.Context) error {
	s.closed = true
	return nil
}

func gridOptions(w, h, d int, conn string) Options {
	return Options{
		Kind: "grid",
		Params: lattice.Params{
			"Width": w, "Height": h, "Depth": d,
			"Spacing": 1.0, "Positioning": true, "Connectivity": conn,
		},
	}
}

func TestRunnerExecute(t *testing.T) {
	r := NewRunner(newMemCache(), nil, nil)
	opts := gridOptions(3, 3, 3, "4")
	opts.Formats = []string{FormatJSON, FormatDOT}

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.NodeCount != 27 {
		t.Errorf("nodes = %d, want 27", res.Stats.NodeCount)
	}
	if want := lattice.EdgeCount(3, 3, 3, lattice.Connectivity4); res.Stats.EdgeCount != want {
		t.Errorf("edges = %d, want %d", res.Stats.EdgeCount, want)
	}
	if res.GraphHash == "" {
		t.Error("GraphHash is empty")
	}
	if res.CacheInfo.GenerateHit || res.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", res.CacheInfo)
	}
	if res.RunID != "" {
		t.Errorf("RunID = %q without persistence", res.RunID)
	}

	g, err := graph.ReadGraph(bytes.NewReader(res.Artifacts[FormatJSON]))
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if g.EdgeCount() != res.Stats.EdgeCount {
		t.Errorf("json artifact edges = %d", g.EdgeCount())
	}
	if dot := string(res.Artifacts[FormatDOT]); !strings.HasPrefix(dot, "graph G {") {
		t.Errorf("dot artifact = %.40q", dot)
	}
}

func TestRunnerSecondGenerationIsCacheHit(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	first, err := r.Execute(ctx, gridOptions(4, 4, 2, "8"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(ctx, gridOptions(4, 4, 2, "8"))
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.GenerateHit {
		t.Error("second generation should be a cache hit")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second render should be a cache hit")
	}
	if first.GraphHash != second.GraphHash {
		t.Errorf("hash changed: %s vs %s", first.GraphHash, second.GraphHash)
	}
	if !bytes.Equal(first.Artifacts[FormatJSON], second.Artifacts[FormatJSON]) {
		t.Error("cached artifact differs")
	}
}

func TestRunnerParamSpellingSharesCache(t *testing.T) {
	r := NewRunner(newMemCache(), nil, nil)
	ctx := context.Background()

	a := gridOptions(2, 2, 2, "4")
	b := gridOptions(2, 2, 2, "4")
	b.Params["Width"] = float64(2) // as decoded from JSON

	if _, hit, err := r.GenerateWithCacheInfo(ctx, a); err != nil || hit {
		t.Fatalf("first: hit=%v err=%v", hit, err)
	}
	if _, hit, err := r.GenerateWithCacheInfo(ctx, b); err != nil || !hit {
		t.Fatalf("second: hit=%v err=%v", hit, err)
	}
}

func TestRunnerRefresh(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	if _, err := r.Execute(ctx, gridOptions(2, 2, 1, "4")); err != nil {
		t.Fatal(err)
	}
	opts := gridOptions(2, 2, 1, "4")
	opts.Refresh = true
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.GenerateHit || res.CacheInfo.RenderHit {
		t.Errorf("refresh should bypass the cache: %+v", res.CacheInfo)
	}
}

func TestRunnerDifferentConfigsMiss(t *testing.T) {
	r := NewRunner(newMemCache(), nil, nil)
	ctx := context.Background()

	if _, err := r.Execute(ctx, gridOptions(2, 2, 2, "4")); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, gridOptions(2, 2, 2, "8"))
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.GenerateHit {
		t.Error("different connectivity should miss")
	}
	if res.Stats.EdgeCount != 28 {
		t.Errorf("edges = %d, want 28", res.Stats.EdgeCount)
	}
}

func TestRunnerValidationError(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), gridOptions(0, 2, 2, "4"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Width must be positive") {
		t.Errorf("error = %v", err)
	}
}

func TestRunnerCanceled(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Execute(ctx, gridOptions(10, 10, 10, "4"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRunnerProgress(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	opts := gridOptions(3, 2, 2, "0")
	calls := 0
	opts.Progress = func(done, total int) {
		calls++
		if total != 12 {
			t.Errorf("total = %d", total)
		}
	}
	if _, err := r.Generate(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	if calls != 12 {
		t.Errorf("progress calls = %d, want 12", calls)
	}
}

func TestRunnerPersist(t *testing.T) {
	mongo := &fakeSink{name: "mongo"}
	neo := &fakeSink{name: "neo4j"}
	r := NewRunner(nil, nil, nil, mongo, neo)

	opts := gridOptions(2, 2, 1, "4")
	opts.Persist = true
	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.RunID == "" {
		t.Fatal("RunID is empty")
	}
	for _, s := range []*fakeSink{mongo, neo} {
		if len(s.saved) != 1 || s.saved[0].ID != res.RunID {
			t.Errorf("%s saved = %v", s.name, s.saved)
		}
	}
	if got := mongo.saved[0]; got.NodeCount != 4 || got.EdgeCount != 4 || got.Kind != "grid" {
		t.Errorf("record = %+v", got)
	}

	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !mongo.closed || !neo.closed {
		t.Error("sinks not closed")
	}
}

func TestRunnerPersistFailure(t *testing.T) {
	bad := &fakeSink{name: "mongo", err: errors.New("connection refused")}
	after := &fakeSink{name: "neo4j"}
	r := NewRunner(nil, nil, nil, bad, after)

	opts := gridOptions(1, 1, 1, "0")
	opts.Persist = true
	_, err := r.Execute(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), "mongo: connection refused") {
		t.Fatalf("error = %v", err)
	}
	if len(after.saved) != 0 {
		t.Error("later sink should not run after a failure")
	}
}

func TestRunnerPersistFailureRemovesEarlierSaves(t *testing.T) {
	mongo := &fakeSink{name: "mongo"}
	neo := &fakeSink{name: "neo4j", err: errors.New("import edges: boom")}
	r := NewRunner(nil, nil, nil, mongo, neo)

	g, err := r.Generate(context.Background(), gridOptions(2, 2, 1, "4"))
	if err != nil {
		t.Fatal(err)
	}
	runID, err := r.Persist(context.Background(), g)
	if err == nil || !strings.Contains(err.Error(), "neo4j: import edges: boom") {
		t.Fatalf("error = %v", err)
	}
	if runID != "" {
		t.Errorf("runID = %q, want empty", runID)
	}
	if len(mongo.saved) != 1 {
		t.Fatalf("mongo saved = %d", len(mongo.saved))
	}
	if len(mongo.deleted) != 1 || mongo.deleted[0] != mongo.saved[0].ID {
		t.Errorf("mongo deleted = %v, want [%s]", mongo.deleted, mongo.saved[0].ID)
	}
	if len(neo.deleted) != 0 {
		t.Errorf("failing sink should clean up itself, deleted = %v", neo.deleted)
	}
}

func TestRunnerPersistCleanupSurvivesCancel(t *testing.T) {
	mongo := &fakeSink{name: "mongo"}
	neo := &fakeSink{name: "neo4j", err: context.Canceled}
	r := NewRunner(nil, nil, nil, mongo, neo)

	g, err := r.Generate(context.Background(), gridOptions(1, 1, 1, "0"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Persist(ctx, g); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v", err)
	}
	if len(mongo.deleted) != 1 {
		t.Errorf("mongo deleted = %v, want the saved run", mongo.deleted)
	}
}

func TestRunnerPersistReportsFailedCleanup(t *testing.T) {
	mongo := &fakeSink{name: "mongo", deleteErr: errors.New("not primary")}
	neo := &fakeSink{name: "neo4j", err: errors.New("boom")}
	r := NewRunner(nil, nil, nil, mongo, neo)

	g, err := r.Generate(context.Background(), gridOptions(1, 1, 1, "0"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Persist(context.Background(), g)
	if err == nil || !strings.Contains(err.Error(), "cleanup: mongo: not primary") {
		t.Fatalf("error = %v", err)
	}
}

func TestRunnerPersistDisabled(t *testing.T) {
	s := &fakeSink{name: "mongo"}
	r := NewRunner(nil, nil, nil, s)
	if _, err := r.Execute(context.Background(), gridOptions(1, 1, 1, "0")); err != nil {
		t.Fatal(err)
	}
	if len(s.saved) != 0 {
		t.Error("sink used without Options.Persist")
	}
}

func TestRunnerScopedKeyer(t *testing.T) {
	c := newMemCache()
	a := NewRunner(c, cache.NewScopedKeyer(cache.NewDefaultKeyer(), "a:"), nil)
	b := NewRunner(c, cache.NewScopedKeyer(cache.NewDefaultKeyer(), "b:"), nil)
	ctx := context.Background()

	if _, err := a.Generate(ctx, gridOptions(2, 1, 1, "4")); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := b.GenerateWithCacheInfo(ctx, gridOptions(2, 1, 1, "4")); err != nil || hit {
		t.Errorf("scoped keyers should not share entries: hit=%v err=%v", hit, err)
	}
}
