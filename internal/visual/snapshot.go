package visual

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Snapshot is the on-disk form of a labeled batch: one scatter series per
// view, each point colored by cluster label.
type Snapshot struct {
	RequestID string  `json:"request_id"`
	Domain    string  `json:"domain"`
	CreatedAt string  `json:"created_at"`
	Eps       float64 `json:"eps"`
	MinPts    int     `json:"min_samples"`
	Views     []View  `json:"views"`
}

// View is one scatter plot of feature X against feature Y.
type View struct {
	X      string  `json:"x"`
	Y      string  `json:"y"`
	Points []Point `json:"points"`
}

// Point is one entity in a view.
type Point struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label int     `json:"cluster"`
}

// SnapshotWriter writes each batch as zstd-compressed JSON into a directory.
type SnapshotWriter struct {
	dir   string
	level zstd.EncoderLevel

	// OnWrite, if set, is called with the path of every snapshot written.
	OnWrite func(path string)
}

// NewSnapshotWriter creates dir if needed.
func NewSnapshotWriter(dir string) (*SnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("visual: create snapshot dir: %w", err)
	}
	return &SnapshotWriter{dir: dir, level: zstd.SpeedBetterCompression}, nil
}

// Render implements Visualizer.
func (w *SnapshotWriter) Render(ctx context.Context, b LabeledBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := BuildSnapshot(b)
	if err != nil {
		return err
	}

	path := filepath.Join(w.dir, snapshotFilename(b))
	tmp := path + ".tmp"
	if err := w.write(tmp, snap); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("visual: rename snapshot: %w", err)
	}
	if w.OnWrite != nil {
		w.OnWrite(path)
	}
	return nil
}

func (w *SnapshotWriter) write(path string, snap *Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("visual: create snapshot: %w", err)
	}
	defer file.Close()

	buf := bufio.NewWriterSize(file, 256*1024)
	enc, err := zstd.NewWriter(buf, zstd.WithEncoderLevel(w.level))
	if err != nil {
		return fmt.Errorf("visual: create zstd writer: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(snap); err != nil {
		enc.Close()
		return fmt.Errorf("visual: encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("visual: close zstd writer: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("visual: flush snapshot: %w", err)
	}
	return file.Sync()
}

func snapshotFilename(b LabeledBatch) string {
	id := uuid.New().String()[:8]
	return fmt.Sprintf("%s-%dp-%s-%s.json.zst", b.Domain, len(b.Rows), b.CreatedAt.UTC().Format("20060102-150405"), id)
}

// BuildSnapshot projects b onto its views. A batch without views gets one
// view of its first two features, or of the first feature against itself
// when there is only one.
func BuildSnapshot(b LabeledBatch) (*Snapshot, error) {
	if len(b.Labels) != len(b.Rows) || len(b.IDs) != len(b.Rows) {
		return nil, fmt.Errorf("visual: batch has %d rows, %d ids and %d labels", len(b.Rows), len(b.IDs), len(b.Labels))
	}
	views := b.Views
	if len(views) == 0 && len(b.Features) > 0 {
		y := b.Features[0]
		if len(b.Features) > 1 {
			y = b.Features[1]
		}
		views = [][2]string{{b.Features[0], y}}
	}

	snap := &Snapshot{
		RequestID: b.RequestID,
		Domain:    b.Domain,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
		Eps:       b.Eps,
		MinPts:    b.MinPts,
		Views:     make([]View, 0, len(views)),
	}
	for _, v := range views {
		xi, yi := slices.Index(b.Features, v[0]), slices.Index(b.Features, v[1])
		if xi < 0 || yi < 0 {
			return nil, fmt.Errorf("visual: view %s/%s references an unknown feature", v[0], v[1])
		}
		view := View{X: v[0], Y: v[1], Points: make([]Point, len(b.Rows))}
		for i, row := range b.Rows {
			view.Points[i] = Point{ID: b.IDs[i], X: row[xi], Y: row[yi], Label: b.Labels[i]}
		}
		snap.Views = append(snap.Views, view)
	}
	return snap, nil
}

// ReadSnapshot decodes a snapshot written by SnapshotWriter.
func ReadSnapshot(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("visual: open snapshot: %w", err)
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("visual: create zstd reader: %w", err)
	}
	defer dec.Close()

	var snap Snapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, fmt.Errorf("visual: decode snapshot: %w", err)
	}
	return &snap, nil
}
