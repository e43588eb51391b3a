package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/cardstream/internal/exposure/emitter"
	"github.com/louisbranch/cardstream/internal/exposure/storage/sqlite"
	"github.com/louisbranch/cardstream/internal/exposure/telemetry"
	"github.com/louisbranch/cardstream/internal/platform/timeouts"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// RuntimeConfig controls tracker service startup and dependencies.
type RuntimeConfig struct {
	Port           int
	HealthPort     int
	ProgressAPIURL string
	DBPath         string
	FrameInterval  time.Duration
}

const (
	defaultTrackerPort       = 8091
	defaultTrackerHealthPort = 8092
	defaultTrackerDB         = "data/tracker.db"
)

// Run starts the tracker runtime: SQLite journal, signal ingestion HTTP API,
// and a gRPC health endpoint. It blocks until ctx ends or a server fails.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.ProgressAPIURL) == "" {
		return fmt.Errorf("progress api url is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultTrackerPort
	}
	if cfg.HealthPort <= 0 {
		cfg.HealthPort = defaultTrackerHealthPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultTrackerDB
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create tracker storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open tracker sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close tracker sqlite store: %v", closeErr)
		}
	}()

	progressEmitter, err := emitter.NewHTTPEmitter(cfg.ProgressAPIURL, nil)
	if err != nil {
		return fmt.Errorf("build progress emitter: %w", err)
	}

	server, err := NewServer(ServerConfig{
		Emitter:       progressEmitter,
		Store:         store,
		Telemetry:     telemetry.NewEmitter(store),
		FrameInterval: cfg.FrameInterval,
	})
	if err != nil {
		return fmt.Errorf("build ingestion server: %w", err)
	}
	defer server.Close()

	healthListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HealthPort))
	if err != nil {
		return fmt.Errorf("listen on health port %d: %w", cfg.HealthPort, err)
	}
	defer healthListener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("tracker.runtime", grpc_health_v1.HealthCheckResponse_SERVING)

	grpcErr := make(chan error, 1)
	go func() {
		grpcErr <- grpcServer.Serve(healthListener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-grpcErr
	}()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- httpServer.ListenAndServe()
	}()

	log.Printf("tracker ingestion API listening at :%d, health at %v", cfg.Port, healthListener.Addr())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown ingestion server: %v", err)
		}
		<-httpErr
		return nil
	case err := <-httpErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve ingestion api: %w", err)
		}
		return nil
	case err := <-grpcErr:
		grpcErr <- nil // keep the deferred drain from blocking
		if err != nil {
			return fmt.Errorf("serve health endpoint: %w", err)
		}
		return nil
	}
}
