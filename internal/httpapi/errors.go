package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/pipeline"
	"github.com/TrevorS/dbscan/internal/source"
)

// Error kinds reported in the "kind" field of error bodies.
const (
	KindUnknownDomain   = "unknown_domain"
	KindDataError       = "data_error"
	KindDegenerateCurve = "degenerate_curve"
	KindZeroVariance    = "zero_variance_feature"
	KindNullFeature     = "null_feature"
	KindTimeout         = "timeout"
	KindCanceled        = "canceled"
	KindFetchFailed     = "fetch_failed"
	KindRateLimited     = "rate_limited"
	KindInternal        = "internal"
)

// classify maps a pipeline error to an HTTP status and error kind.
func classify(err error) (status int, kind string, stage dbscan.Stage) {
	stage, _ = dbscan.StageOf(err)

	var (
		dataErr *dbscan.DataError
		degErr  *dbscan.DegenerateCurveError
		zvErr   *dbscan.ZeroVarianceFeatureError
	)
	switch {
	case errors.Is(err, pipeline.ErrUnknownDomain):
		return http.StatusNotFound, KindUnknownDomain, stage
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, KindTimeout, stage
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, KindCanceled, stage
	case errors.As(err, &dataErr):
		return http.StatusUnprocessableEntity, KindDataError, stage
	case errors.As(err, &degErr):
		return http.StatusUnprocessableEntity, KindDegenerateCurve, stage
	case errors.As(err, &zvErr):
		return http.StatusUnprocessableEntity, KindZeroVariance, stage
	case errors.Is(err, source.ErrNullFeature):
		return http.StatusUnprocessableEntity, KindNullFeature, stage
	case stage == dbscan.StageFetch:
		return http.StatusBadGateway, KindFetchFailed, stage
	default:
		return http.StatusInternalServerError, KindInternal, stage
	}
}
