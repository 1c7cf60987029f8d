// Package storage implements the pipeline storage interface (§6): a
// small CRUD surface over pipeline Meta records, consumed by the
// MCP-facing tool surface that sits outside this module and is not
// itself implemented here. Grounded on the teacher's graph/store
// package, trimmed to the non-generic shape this domain needs — a
// pipeline definition is already a JSON-serializable model.Graph, so
// there is no state-type parameter to carry.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Lacoz/virta/model"
	"github.com/Lacoz/virta/pipeline"
)

// ErrNotFound is returned when a requested id does not exist.
var ErrNotFound = errors.New("storage: not found")

// Meta is a stored pipeline record: a neutral-model definition plus its
// per-node metadata and bookkeeping timestamps.
type Meta struct {
	ID               string
	Name             string
	Description      string
	Definition       *model.Graph
	MetadataByNodeID map[string]pipeline.StepMetadata
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Summary is the list-view projection of a Meta record.
type Summary struct {
	ID        string
	Name      string
	UpdatedAt time.Time
}

// Store is the pipeline storage interface. Save creates or updates a
// record by ID; CreatedAt is preserved across updates and only set on
// first save. Implementations must be safe for concurrent use.
type Store interface {
	Save(ctx context.Context, meta Meta) error
	Get(ctx context.Context, id string) (Meta, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) (bool, error)
	Has(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) error
}
