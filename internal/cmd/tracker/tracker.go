// Package tracker parses tracker command flags and launches the tracker runtime.
package tracker

import (
	"context"
	"flag"
	"time"

	"github.com/louisbranch/cardstream/internal/exposure/app"
	entrypoint "github.com/louisbranch/cardstream/internal/platform/cmd"
)

// Config holds tracker command configuration.
type Config struct {
	Port           int           `env:"CARDSTREAM_TRACKER_PORT" envDefault:"8091"`
	HealthPort     int           `env:"CARDSTREAM_TRACKER_HEALTH_PORT" envDefault:"8092"`
	ProgressAPIURL string        `env:"CARDSTREAM_TRACKER_PROGRESS_API_URL"`
	DBPath         string        `env:"CARDSTREAM_TRACKER_DB_PATH" envDefault:"data/tracker.db"`
	FrameInterval  time.Duration `env:"CARDSTREAM_TRACKER_FRAME_INTERVAL" envDefault:"16ms"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The tracker ingestion HTTP port")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The tracker health gRPC server port")
	fs.StringVar(&cfg.ProgressAPIURL, "progress-api-url", cfg.ProgressAPIURL, "The progress API endpoint for viewed events")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The tracker SQLite database path")
	fs.DurationVar(&cfg.FrameInterval, "frame-interval", cfg.FrameInterval, "Scroll sample coalescing frame interval")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the tracker runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTracker, func(context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			Port:           cfg.Port,
			HealthPort:     cfg.HealthPort,
			ProgressAPIURL: cfg.ProgressAPIURL,
			DBPath:         cfg.DBPath,
			FrameInterval:  cfg.FrameInterval,
		})
	})
}
