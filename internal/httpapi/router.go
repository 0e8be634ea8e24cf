// Package httpapi exposes the clustering pipeline over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/TrevorS/dbscan/internal/featureset"
	"github.com/TrevorS/dbscan/internal/logging"
	"github.com/TrevorS/dbscan/internal/metrics"
	"github.com/TrevorS/dbscan/internal/pipeline"
)

// Clusterer is the part of pipeline.Service the router needs.
type Clusterer interface {
	Cluster(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
	Domains() []featureset.FeatureSet
}

// Options configures the router.
type Options struct {
	Logger *logging.Logger

	// Metrics, if set, receives rejections and is served on /metrics.
	Metrics *metrics.Basic

	// RateLimit is the sustained request rate per second; <= 0 disables
	// limiting. RateBurst is the bucket size.
	RateLimit float64
	RateBurst int
}

type handler struct {
	svc     Clusterer
	log     *logging.Logger
	metrics *metrics.Basic
}

// NewRouter builds the gin engine serving svc.
func NewRouter(svc Clusterer, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	var collector metrics.Collector = metrics.Noop{}
	if opts.Metrics != nil {
		collector = opts.Metrics
	}

	h := &handler{svc: svc, log: opts.Logger, metrics: opts.Metrics}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(opts.Logger))
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimit), burst), collector))
	}

	r.GET("/", h.root)
	r.GET("/health", h.health)
	r.GET("/domains", h.domains)
	r.GET("/clusters/:domain", h.clusters)
	r.GET("/metrics", h.stats)
	return r
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Density clustering API. GET /clusters/{domain} to cluster a domain."})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) domains(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"domains": h.svc.Domains()})
}

func (h *handler) clusters(c *gin.Context) {
	includeEntities, _ := strconv.ParseBool(c.Query("entities"))

	resp, err := h.svc.Cluster(c.Request.Context(), pipeline.Request{
		ID:              c.GetString(requestIDKey),
		Domain:          c.Param("domain"),
		IncludeEntities: includeEntities,
	})
	if err != nil {
		status, kind, stage := classify(err)
		if status >= http.StatusInternalServerError {
			h.log.ErrorContext(c.Request.Context(), "cluster request failed",
				requestIDKey, c.GetString(requestIDKey),
				"kind", kind,
				"error", err,
			)
		}
		abortWithError(c, status, kind, string(stage), err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) stats(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, metrics.Stats{})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Stats())
}
