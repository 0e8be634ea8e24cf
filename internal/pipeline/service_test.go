package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/featureset"
	"github.com/TrevorS/dbscan/internal/metrics"
	"github.com/TrevorS/dbscan/internal/source"
	"github.com/TrevorS/dbscan/internal/visual"
)

var pair = featureset.FeatureSet{
	Domain:   "pair",
	IDColumn: "id",
	Features: []string{"x", "y"},
	Views:    [][2]string{{"x", "y"}},
}

// fakeSource serves fixed rows, or blocks until the context ends.
type fakeSource struct {
	rows  [][]float64
	err   error
	block bool
}

func (f fakeSource) Fetch(ctx context.Context, fs featureset.FeatureSet) (*source.Batch, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]string, len(f.rows))
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	return &source.Batch{Domain: fs.Domain, IDs: ids, Features: fs.Features, Rows: f.rows}, nil
}

type recordingVisualizer struct {
	mu      sync.Mutex
	batches []visual.LabeledBatch
	err     error
}

func (r *recordingVisualizer) Render(_ context.Context, b visual.LabeledBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
	return r.err
}

// groupWithOutlier is five tight points and one far away.
var groupWithOutlier = [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0.5, 0.5}, {50, 50}}

func newService(t *testing.T, src source.Source, vis visual.Visualizer, opts ...Option) (*Service, *metrics.Basic) {
	t.Helper()
	reg, err := featureset.NewRegistry(pair)
	require.NoError(t, err)
	m := &metrics.Basic{}
	opts = append([]Option{WithRegistry(reg), WithMetrics(m)}, opts...)
	return New(src, vis, opts...), m
}

func TestCluster_GroupWithOutlier(t *testing.T) {
	vis := &recordingVisualizer{}
	svc, m := newService(t, fakeSource{rows: groupWithOutlier}, vis)

	resp, err := svc.Cluster(context.Background(), Request{ID: "r1", Domain: "pair"})
	require.NoError(t, err)

	assert.Equal(t, "r1", resp.RequestID)
	assert.Equal(t, "pair", resp.Domain)
	assert.Equal(t, 1, resp.ClusterCount)
	assert.Equal(t, 1, resp.OutlierCount)
	assert.Equal(t, 2, resp.MinPts)
	assert.True(t, resp.MinPtsFallback)
	assert.Greater(t, resp.Eps, 0.0)
	require.Len(t, resp.Outliers, 1)
	assert.Equal(t, Record{ID: "f", Label: -1, Features: map[string]float64{"x": 50, "y": 50}}, resp.Outliers[0])
	assert.Nil(t, resp.Entities)

	require.Len(t, vis.batches, 1)
	assert.Equal(t, []int{0, 0, 0, 0, 0, -1}, vis.batches[0].Labels)
	assert.Equal(t, "r1", vis.batches[0].RequestID)

	s := m.Stats()
	assert.Equal(t, int64(1), s.RunCount)
	assert.Equal(t, int64(6), s.PointsClustered)
	assert.Equal(t, int64(1), s.Fallbacks)
	assert.Equal(t, int64(1), s.Visualizations)
}

func TestCluster_IncludeEntities(t *testing.T) {
	svc, _ := newService(t, fakeSource{rows: groupWithOutlier}, nil)
	resp, err := svc.Cluster(context.Background(), Request{Domain: "pair", IncludeEntities: true})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Entities, 6)
	for i, e := range resp.Entities[:5] {
		assert.Equal(t, 0, e.Label, "entity %d", i)
	}
	assert.Equal(t, groupWithOutlier[2][1], resp.Entities[2].Features["y"])
}

func TestCluster_UnknownDomain(t *testing.T) {
	svc, m := newService(t, fakeSource{rows: groupWithOutlier}, nil)
	_, err := svc.Cluster(context.Background(), Request{Domain: "suppliers"})
	assert.ErrorIs(t, err, ErrUnknownDomain)
	assert.Zero(t, m.Stats().RunCount)
}

func TestCluster_FetchError(t *testing.T) {
	boom := errors.New("db down")
	svc, m := newService(t, fakeSource{err: boom}, nil)

	_, err := svc.Cluster(context.Background(), Request{Domain: "pair"})
	require.ErrorIs(t, err, boom)
	stage, ok := dbscan.StageOf(err)
	require.True(t, ok)
	assert.Equal(t, dbscan.StageFetch, stage)
	assert.Equal(t, int64(1), m.Stats().RunErrors)
}

func TestCluster_DataErrorCarriesStage(t *testing.T) {
	svc, _ := newService(t, fakeSource{rows: [][]float64{{1, 2}, {3, 4}}}, nil)

	_, err := svc.Cluster(context.Background(), Request{Domain: "pair"})
	var de *dbscan.DataError
	require.ErrorAs(t, err, &de)
	stage, _ := dbscan.StageOf(err)
	assert.Equal(t, dbscan.StageRadius, stage)
}

func TestCluster_VisualizationFailureDoesNotFailRequest(t *testing.T) {
	vis := &recordingVisualizer{err: errors.New("disk full")}
	svc, m := newService(t, fakeSource{rows: groupWithOutlier}, vis)

	resp, err := svc.Cluster(context.Background(), Request{Domain: "pair"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ClusterCount)
	assert.Equal(t, int64(1), m.Stats().VisualizationErrors)
}

func TestCluster_FetchTimeout(t *testing.T) {
	svc, _ := newService(t, fakeSource{block: true}, nil, WithTimeout(20*time.Millisecond))

	_, err := svc.Cluster(context.Background(), Request{Domain: "pair"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	stage, _ := dbscan.StageOf(err)
	assert.Equal(t, dbscan.StageFetch, stage)
}

func TestCluster_WaitingForCapacityTimesOut(t *testing.T) {
	svc, _ := newService(t, fakeSource{rows: groupWithOutlier}, nil,
		WithMaxConcurrent(1), WithTimeout(20*time.Millisecond))

	require.NoError(t, svc.sem.Acquire(context.Background(), 1))
	defer svc.sem.Release(1)

	_, err := svc.Cluster(context.Background(), Request{Domain: "pair"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	stage, _ := dbscan.StageOf(err)
	assert.Equal(t, dbscan.StageStandardize, stage)
}

func TestCluster_ConcurrentRequestsAgree(t *testing.T) {
	svc, m := newService(t, fakeSource{rows: groupWithOutlier}, nil, WithMaxConcurrent(2))

	const n = 16
	var wg sync.WaitGroup
	resps := make([]*Response, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resps[i], errs[i] = svc.Cluster(context.Background(), Request{Domain: "pair"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, resps[0].Eps, resps[i].Eps)
		assert.Equal(t, resps[0].MinPts, resps[i].MinPts)
		assert.Equal(t, resps[0].OutlierCount, resps[i].OutlierCount)
	}
	assert.Equal(t, int64(n), m.Stats().RunCount)
}

func TestDomains(t *testing.T) {
	svc := New(fakeSource{}, nil)
	domains := svc.Domains()
	require.Len(t, domains, 3)
	assert.Equal(t, "customers", domains[0].Domain)
}
