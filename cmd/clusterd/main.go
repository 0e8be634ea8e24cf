// Command clusterd serves automatic density clustering over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/TrevorS/dbscan/internal/config"
	"github.com/TrevorS/dbscan/internal/httpapi"
	"github.com/TrevorS/dbscan/internal/logging"
	"github.com/TrevorS/dbscan/internal/metrics"
	"github.com/TrevorS/dbscan/internal/pipeline"
	"github.com/TrevorS/dbscan/internal/source"
	"github.com/TrevorS/dbscan/internal/visual"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "clusterd: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	log, err := logging.FromConfig(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := openSource(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeSrc()

	var vis visual.Visualizer = visual.Noop{}
	if cfg.Snapshots.Dir != "" {
		w, err := visual.NewSnapshotWriter(cfg.Snapshots.Dir)
		if err != nil {
			return err
		}
		w.OnWrite = func(path string) { log.LogSnapshot(context.Background(), path, nil) }
		vis = w
	}

	core, err := cfg.Clustering.Core()
	if err != nil {
		return err
	}
	m := &metrics.Basic{}
	svc := pipeline.New(src, vis,
		pipeline.WithLogger(log),
		pipeline.WithMetrics(m),
		pipeline.WithConfig(core),
		pipeline.WithMaxConcurrent(cfg.Server.MaxConcurrent),
		pipeline.WithTimeout(cfg.Server.RequestTimeout.Duration),
	)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpapi.NewRouter(svc, httpapi.Options{
			Logger:    log,
			Metrics:   m,
			RateLimit: cfg.Server.RateLimit,
			RateBurst: cfg.Server.RateBurst,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func loadConfig(args []string) (config.Config, error) {
	// The config path has to be known before the other flags get their
	// defaults, so it is parsed on its own first.
	pre := flag.NewFlagSet("clusterd", flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	path := pre.String("config", "", "TOML configuration file")
	_ = pre.Parse(filterConfigFlag(args))

	cfg, err := config.Load(*path)
	if err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("clusterd", flag.ContinueOnError)
	fs.String("config", *path, "TOML configuration file")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// filterConfigFlag keeps only the -config flag and its value.
func filterConfigFlag(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-config" || a == "--config":
			out = append(out, a)
			if i+1 < len(args) {
				out = append(out, args[i+1])
				i++
			}
		case strings.HasPrefix(a, "-config=") || strings.HasPrefix(a, "--config="):
			out = append(out, a)
		}
	}
	return out
}

func openSource(ctx context.Context, db config.Database) (source.Source, func(), error) {
	if db.DSN == "" {
		return source.CSVSource{Dir: db.CSVDir}, func() {}, nil
	}
	conn, err := source.OpenPostgres(ctx, db.DSN)
	if err != nil {
		return nil, nil, err
	}
	return source.NewSQLSource(conn), func() { conn.Close() }, nil
}
