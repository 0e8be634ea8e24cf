// Package pipeline runs automatic density clustering for a feature-set
// domain: fetch, standardize, choose eps and minPts, label, report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/featureset"
	"github.com/TrevorS/dbscan/internal/logging"
	"github.com/TrevorS/dbscan/internal/source"
	"github.com/TrevorS/dbscan/internal/visual"
)

// ErrUnknownDomain is returned for a domain with no registered feature set.
var ErrUnknownDomain = errors.New("pipeline: unknown domain")

// Request asks for one clustering run.
type Request struct {
	// ID identifies the request in logs and responses. Generated if empty.
	ID string

	Domain string

	// IncludeEntities adds every labeled entity to the response.
	IncludeEntities bool
}

// Record is one entity with its label and original feature values.
type Record struct {
	ID       string             `json:"id"`
	Label    int                `json:"cluster"`
	Features map[string]float64 `json:"features"`
}

// Response reports the chosen parameters, cluster count and outliers.
type Response struct {
	RequestID      string   `json:"request_id"`
	Domain         string   `json:"domain"`
	Eps            float64  `json:"optimal_eps"`
	MinPts         int      `json:"optimal_min_samples"`
	MinPtsFallback bool     `json:"min_samples_fallback"`
	ClusterCount   int      `json:"number_of_clusters"`
	OutlierCount   int      `json:"outliers_count"`
	Outliers       []Record `json:"outliers"`
	Entities       []Record `json:"entities,omitempty"`
}

// Service clusters domains on demand. It keeps no state between requests
// and is safe for concurrent use.
type Service struct {
	src  source.Source
	vis  visual.Visualizer
	opts options
	sem  *semaphore.Weighted
}

// New creates a Service reading from src and handing results to vis.
// A nil vis disables visualization.
func New(src source.Source, vis visual.Visualizer, opts ...Option) *Service {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if vis == nil {
		vis = visual.Noop{}
	}
	return &Service{
		src:  src,
		vis:  vis,
		opts: o,
		sem:  semaphore.NewWeighted(o.maxConcurrent),
	}
}

// Domains lists the registered feature sets.
func (s *Service) Domains() []featureset.FeatureSet {
	return s.opts.registry.All()
}

// Cluster runs the full pipeline for req.Domain.
//
// Errors from the data source and the clustering core come back as a
// *dbscan.StageError; a request that runs out of time reports
// context.DeadlineExceeded for the stage it was in. Visualization
// failures are logged and never fail the request.
func (s *Service) Cluster(ctx context.Context, req Request) (*Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	log := s.opts.logger.WithRequestID(req.ID).WithDomain(req.Domain)

	fs, ok := s.opts.registry.Lookup(req.Domain)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, req.Domain)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	start := time.Now()
	batch, out, err := s.run(ctx, fs)
	elapsed := time.Since(start)

	summary := logging.RunSummary{}
	if batch != nil {
		summary.Points = batch.Len()
	}
	if out != nil {
		summary.Eps = out.Eps
		summary.MinPts = out.MinPts
		summary.Fallback = out.MinPtsFallback
		summary.Clusters = out.Summary.NumClusters
		summary.Outliers = out.Summary.NumNoise
	}
	s.opts.metrics.RecordRun(fs.Domain, summary.Points, elapsed, err)
	log.LogRun(ctx, summary, elapsed, err)
	if err != nil {
		return nil, err
	}
	if out.MinPtsFallback {
		s.opts.metrics.RecordFallback(fs.Domain)
	}

	verr := s.vis.Render(ctx, visual.LabeledBatch{
		RequestID: req.ID,
		Domain:    fs.Domain,
		CreatedAt: time.Now(),
		Eps:       out.Eps,
		MinPts:    out.MinPts,
		IDs:       batch.IDs,
		Features:  batch.Features,
		Rows:      batch.Rows,
		Labels:    out.Labels,
		Views:     fs.Views,
	})
	s.opts.metrics.RecordVisualization(verr)
	if verr != nil {
		log.WarnContext(ctx, "visualization failed", "error", verr)
	}

	return buildResponse(req, batch, out), nil
}

type runResult struct {
	out *dbscan.Outcome
	err error
}

func (s *Service) run(ctx context.Context, fs featureset.FeatureSet) (*source.Batch, *dbscan.Outcome, error) {
	batch, err := s.src.Fetch(ctx, fs)
	if err != nil {
		return nil, nil, &dbscan.StageError{Stage: dbscan.StageFetch, Err: err}
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return batch, nil, &dbscan.StageError{Stage: dbscan.StageStandardize, Err: err}
	}

	var stage atomic.Value
	stage.Store(dbscan.StageStandardize)
	cfg := s.opts.config
	cfg.OnStage = func(st dbscan.Stage) { stage.Store(st) }

	done := make(chan runResult, 1)
	go func() {
		// The slot is held until the computation really ends, even when
		// the caller has already given up on it.
		defer s.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- runResult{err: fmt.Errorf("pipeline: clustering panicked: %v", r)}
			}
		}()
		out, err := dbscan.RunContext(ctx, batch.Rows, cfg)
		done <- runResult{out: out, err: err}
	}()

	select {
	case r := <-done:
		return batch, r.out, r.err
	case <-ctx.Done():
		return batch, nil, &dbscan.StageError{Stage: stage.Load().(dbscan.Stage), Err: ctx.Err()}
	}
}

func buildResponse(req Request, batch *source.Batch, out *dbscan.Outcome) *Response {
	resp := &Response{
		RequestID:      req.ID,
		Domain:         req.Domain,
		Eps:            out.Eps,
		MinPts:         out.MinPts,
		MinPtsFallback: out.MinPtsFallback,
		ClusterCount:   out.Summary.NumClusters,
		OutlierCount:   out.Summary.NumNoise,
		Outliers:       make([]Record, 0, out.Summary.NumNoise),
	}
	for _, i := range out.Summary.NoiseIndices {
		resp.Outliers = append(resp.Outliers, record(batch, out.Labels, i))
	}
	if req.IncludeEntities {
		resp.Entities = make([]Record, batch.Len())
		for i := range resp.Entities {
			resp.Entities[i] = record(batch, out.Labels, i)
		}
	}
	return resp
}

func record(batch *source.Batch, labels []int, i int) Record {
	features := make(map[string]float64, len(batch.Features))
	for j, name := range batch.Features {
		features[name] = batch.Rows[i][j]
	}
	return Record{ID: batch.IDs[i], Label: labels[i], Features: features}
}
