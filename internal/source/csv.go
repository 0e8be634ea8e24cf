package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TrevorS/dbscan/internal/featureset"
)

// CSVSource reads <Dir>/<domain>.csv exports of the feature table.
type CSVSource struct {
	Dir string
}

// Fetch implements Source.
func (s CSVSource) Fetch(ctx context.Context, fs featureset.FeatureSet) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadCSVFile(filepath.Join(s.Dir, fs.Domain+".csv"), fs)
}

// ReadCSVFile reads a feature table export from path.
func ReadCSVFile(path string, fs featureset.FeatureSet) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, fs)
}

// ReadCSV parses a header row followed by one row per entity. Columns are
// selected by name, so extra columns and any column order are accepted.
// An empty feature cell is reported as ErrNullFeature.
func ReadCSV(r io.Reader, fs featureset.FeatureSet) (*Batch, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("source: %s: missing header row", fs.Domain)
	}
	if err != nil {
		return nil, fmt.Errorf("source: %s: read header: %w", fs.Domain, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	pos := make([]int, 0, len(fs.Features)+1)
	for _, name := range fs.Columns() {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s: missing column %q", ErrColumnMismatch, fs.Domain, name)
		}
		pos = append(pos, i)
	}

	b := &Batch{Domain: fs.Domain, Features: append([]string(nil), fs.Features...)}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("source: %s: line %d: %w", fs.Domain, line, err)
		}

		id := strings.TrimSpace(rec[pos[0]])
		row := make([]float64, len(fs.Features))
		for j, p := range pos[1:] {
			cell := strings.TrimSpace(rec[p])
			if cell == "" {
				return nil, fmt.Errorf("%w: %s: line %d column %q", ErrNullFeature, fs.Domain, line, fs.Features[j])
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("source: %s: line %d column %q: %w", fs.Domain, line, fs.Features[j], err)
			}
			row[j] = v
		}
		b.IDs = append(b.IDs, id)
		b.Rows = append(b.Rows, row)
	}
	return b, nil
}
