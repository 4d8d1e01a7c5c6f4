// Package store persists generated graphs to external databases.
//
// Two sinks are provided:
//
//   - [MongoStore]: one document per generation, holding the full
//     [graph.Document] plus run metadata
//   - [Neo4jStore]: imports nodes as :Cell and edges as :ADJACENT
//     relationships, tagged with the run ID
//
// Both implement [Sink], which is what the pipeline Runner fans out to
// after a successful generation.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/grid3d/pkg/errors"
	"github.com/matzehuels/grid3d/pkg/graph"
)

// ErrNotFound is returned when a run ID has no stored record.
var ErrNotFound = errors.New(errors.ErrCodeNotFound, "run not found")

// Record is one persisted generation.
type Record struct {
	ID        string         `json:"id" bson:"_id"`
	Kind      string         `json:"kind" bson:"kind"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	NodeCount int            `json:"node_count" bson:"node_count"`
	EdgeCount int            `json:"edge_count" bson:"edge_count"`
	Graph     graph.Document `json:"graph" bson:"graph"`
}

// NewRecord builds a record for g with a fresh run ID.
func NewRecord(g *graph.Graph) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Kind:      g.Kind(),
		CreatedAt: time.Now().UTC(),
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
		Graph:     g.Export(),
	}
}

// Sink receives generated graphs.
type Sink interface {
	// Name identifies the sink in logs and hooks.
	Name() string
	// Save persists rec. Implementations must not modify it, and must leave
	// nothing of rec behind when they fail.
	Save(ctx context.Context, rec *Record) error
	// Delete removes everything saved under run id.
	Delete(ctx context.Context, id string) error
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// CleanupTimeout bounds the removal of a partially saved run.
const CleanupTimeout = 30 * time.Second

// CleanupContext derives a context for undoing writes made under ctx. It
// keeps ctx's values but not its cancellation, since the writes usually
// failed because ctx was canceled.
func CleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), CleanupTimeout)
}
