// Package source fetches feature batches for a domain from the feature
// table: a relational database or CSV exports of it.
package source

import (
	"context"
	"errors"

	"github.com/TrevorS/dbscan/internal/featureset"
)

// ErrNullFeature is returned when an aggregate feature value is missing.
var ErrNullFeature = errors.New("source: feature value is NULL")

// ErrColumnMismatch is returned when fetched columns do not match the
// feature set.
var ErrColumnMismatch = errors.New("source: columns do not match feature set")

// Batch is one fetch of a domain's feature table.
type Batch struct {
	Domain string

	// IDs holds the entity id of each row.
	IDs []string

	// Features names the columns of Rows.
	Features []string

	// Rows holds the unstandardized feature vectors, one per entity.
	Rows [][]float64
}

// Len returns the number of entities in the batch.
func (b *Batch) Len() int { return len(b.Rows) }

// Source produces feature batches.
type Source interface {
	Fetch(ctx context.Context, fs featureset.FeatureSet) (*Batch, error)
}
