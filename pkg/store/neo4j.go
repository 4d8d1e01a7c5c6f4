package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"

	"github.com/matzehuels/grid3d/pkg/graph"
	"github.com/matzehuels/grid3d/pkg/lattice"
)

// DefaultBatchSize is the number of nodes or edges sent per UNWIND query.
const DefaultBatchSize = 5000

// Runner executes one Cypher query and buffers its result.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
}

// Neo4jExecutor runs queries through the official driver.
type Neo4jExecutor struct {
	Driver neo4j.DriverWithContext
	DBName string
}

// Neo4jOptions configures NewNeo4jExecutor.
type Neo4jOptions struct {
	URI      string
	User     string
	Password string
	Database string // default "neo4j"
}

// NewNeo4jExecutor creates a driver and verifies connectivity.
func NewNeo4jExecutor(ctx context.Context, opts Neo4jOptions) (*Neo4jExecutor, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("neo4j: empty URI")
	}
	if opts.Database == "" {
		opts.Database = "neo4j"
	}
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.User, opts.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jExecutor{Driver: driver, DBName: opts.Database}, nil
}

// Run implements Runner.
func (e *Neo4jExecutor) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	res, err := neo4j.ExecuteQuery(ctx, e.Driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.DBName))
	if err != nil {
		return nil, fmt.Errorf("neo4j query: %w", err)
	}
	return res, nil
}

// Close closes the driver.
func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.Driver.Close(ctx)
}

const (
	runLabel  = "Run"
	cellLabel = "Cell"

	createCellIndex = `CREATE INDEX cell_run_id IF NOT EXISTS FOR (c:Cell) ON (c.run_id, c.id)`

	createCells = `UNWIND $rows AS row
CREATE (c:Cell {run_id: $run, id: row.id, i: row.i, j: row.j, k: row.k})
SET c += row.props`

	createEdges = `UNWIND $rows AS row
MATCH (a:Cell {run_id: $run, id: row.from})
MATCH (b:Cell {run_id: $run, id: row.to})
CREATE (a)-[:ADJACENT]->(b)`
)

// Neo4jStore imports graphs as :Cell nodes joined by :ADJACENT
// relationships. Each cell carries run_id, id and its (i, j, k) cell; x, y,
// z are added when the graph has positions. A :Run node holds the metadata.
type Neo4jStore struct {
	runner    Runner
	batchSize int
}

var _ Sink = (*Neo4jStore)(nil)

// NewNeo4jStore wraps runner. A batchSize <= 0 uses DefaultBatchSize.
func NewNeo4jStore(runner Runner, batchSize int) *Neo4jStore {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Neo4jStore{runner: runner, batchSize: batchSize}
}

// Name implements Sink.
func (s *Neo4jStore) Name() string { return "neo4j" }

// Save writes the run node, then the cells and edges in batches. Neo4j
// commits each batch on its own, so when a later batch fails the run is
// deleted again.
func (s *Neo4jStore) Save(ctx context.Context, rec *Record) error {
	if _, err := s.runner.Run(ctx, createCellIndex, nil); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	err := s.save(ctx, rec)
	if err == nil {
		return nil
	}
	cctx, cancel := CleanupContext(ctx)
	defer cancel()
	if derr := s.Delete(cctx, rec.ID); derr != nil {
		return fmt.Errorf("%w (cleanup: %v)", err, derr)
	}
	return err
}

func (s *Neo4jStore) save(ctx context.Context, rec *Record) error {
	query, params, err := gocypher.NewQueryBuilder().
		Merge(gocypher.N("r", runLabel).WithProperties(map[string]interface{}{"id": rec.ID})).
		Set(map[string]interface{}{
			"r.kind":       rec.Kind,
			"r.created_at": rec.CreatedAt.Unix(),
			"r.node_count": rec.NodeCount,
			"r.edge_count": rec.EdgeCount,
		}).
		Return("r").
		Build()
	if err != nil {
		return fmt.Errorf("build run query: %w", err)
	}
	if _, err := s.runner.Run(ctx, query, params); err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}

	if err := s.batch(ctx, createCells, rec.ID, cellRows(rec.Graph)); err != nil {
		return fmt.Errorf("import cells: %w", err)
	}
	if err := s.batch(ctx, createEdges, rec.ID, edgeRows(rec.Graph)); err != nil {
		return fmt.Errorf("import edges: %w", err)
	}
	return nil
}

func (s *Neo4jStore) batch(ctx context.Context, query, run string, rows []map[string]any) error {
	for start := 0; start < len(rows); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+s.batchSize, len(rows))
		params := map[string]any{"run": run, "rows": rows[start:end]}
		if _, err := s.runner.Run(ctx, query, params); err != nil {
			return fmt.Errorf("rows %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func cellRows(doc graph.Document) []map[string]any {
	dims, hasDims := documentDims(doc)
	rows := make([]map[string]any, len(doc.Nodes))
	for i, n := range doc.Nodes {
		row := map[string]any{"id": n.ID, "i": nil, "j": nil, "k": nil}
		if hasDims {
			c := dims.Cell(n.ID)
			row["i"], row["j"], row["k"] = c.I, c.J, c.K
		}
		props := map[string]any{}
		if len(n.Pos) == 3 {
			props["x"], props["y"], props["z"] = n.Pos[0], n.Pos[1], n.Pos[2]
		}
		row["props"] = props
		rows[i] = row
	}
	return rows
}

func edgeRows(doc graph.Document) []map[string]any {
	rows := make([]map[string]any, len(doc.Edges))
	for i, e := range doc.Edges {
		rows[i] = map[string]any{"from": e.From, "to": e.To}
	}
	return rows
}

func documentDims(doc graph.Document) (lattice.Dims, bool) {
	d := lattice.Dims{
		Width:  doc.Attributes[lattice.AttrWidth],
		Height: doc.Attributes[lattice.AttrHeight],
		Depth:  doc.Attributes[lattice.AttrDepth],
	}
	if d.Width <= 0 || d.Height <= 0 || d.Depth <= 0 || d.Count() != len(doc.Nodes) {
		return lattice.Dims{}, false
	}
	return d, true
}

// Exists reports whether a :Run node with id exists.
func (s *Neo4jStore) Exists(ctx context.Context, id string) (bool, error) {
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("r", runLabel).WithProperties(map[string]interface{}{"id": id})).
		Return("r").
		Build()
	if err != nil {
		return false, err
	}
	res, err := s.runner.Run(ctx, query, params)
	if err != nil {
		return false, err
	}
	return len(res.Records) > 0, nil
}

// Delete removes the run node and all of its cells.
func (s *Neo4jStore) Delete(ctx context.Context, id string) error {
	for _, label := range []string{cellLabel, runLabel} {
		key := "id"
		if label == cellLabel {
			key = "run_id"
		}
		query, params, err := gocypher.NewQueryBuilder().
			Match(gocypher.N("n", label).WithProperties(map[string]interface{}{key: id})).
			DetachDelete("n").
			Build()
		if err != nil {
			return err
		}
		if _, err := s.runner.Run(ctx, query, params); err != nil {
			return fmt.Errorf("delete %s nodes of run %s: %w", label, id, err)
		}
	}
	return nil
}

// Close closes the runner when it owns a connection.
func (s *Neo4jStore) Close(ctx context.Context) error {
	if c, ok := s.runner.(interface{ Close(context.Context) error }); ok {
		return c.Close(ctx)
	}
	return nil
}
