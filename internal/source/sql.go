package source

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/TrevorS/dbscan/internal/featureset"
)

// SQLSource runs each feature set's aggregation query against a database.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource wraps an open database handle.
func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

// OpenPostgres opens and pings a PostgreSQL database through the pgx driver.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("source: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("source: ping database: %w", err)
	}
	return db, nil
}

// Fetch implements Source.
func (s *SQLSource) Fetch(ctx context.Context, fs featureset.FeatureSet) (*Batch, error) {
	rows, err := s.db.QueryContext(ctx, fs.Query)
	if err != nil {
		return nil, fmt.Errorf("source: %s: query: %w", fs.Domain, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("source: %s: columns: %w", fs.Domain, err)
	}
	if want := fs.Columns(); !slices.Equal(cols, want) {
		return nil, fmt.Errorf("%w: %s: got %v, want %v", ErrColumnMismatch, fs.Domain, cols, want)
	}

	b := &Batch{Domain: fs.Domain, Features: slices.Clone(fs.Features)}
	id := new(sql.NullString)
	vals := make([]sql.NullFloat64, len(fs.Features))
	dest := make([]any, 0, len(cols))
	dest = append(dest, id)
	for i := range vals {
		dest = append(dest, &vals[i])
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("source: %s: scan row %d: %w", fs.Domain, len(b.Rows), err)
		}
		if !id.Valid {
			return nil, fmt.Errorf("%w: %s: row %d column %q", ErrNullFeature, fs.Domain, len(b.Rows), fs.IDColumn)
		}
		row := make([]float64, len(vals))
		for j, v := range vals {
			if !v.Valid {
				return nil, fmt.Errorf("%w: %s: entity %q column %q", ErrNullFeature, fs.Domain, id.String, fs.Features[j])
			}
			row[j] = v.Float64
		}
		b.IDs = append(b.IDs, id.String)
		b.Rows = append(b.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source: %s: rows: %w", fs.Domain, err)
	}
	return b, nil
}
