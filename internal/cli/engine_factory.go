package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/shelfscan/internal/config"
	redisadapter "github.com/aretw0/shelfscan/pkg/adapters/redis"
	"github.com/aretw0/shelfscan/pkg/adapters/sink"
	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/observability"
	"github.com/aretw0/shelfscan/pkg/ports"
	"github.com/aretw0/shelfscan/pkg/scanner"
	"github.com/aretw0/shelfscan/pkg/scheduler"
	"github.com/aretw0/shelfscan/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"
)

// Wiring carries the host-specific collaborators of a controller.
type Wiring struct {
	Capture   ports.MediaCapture // overrides the configured camera source
	Presenter ports.Presenter
	Sink      ports.ResultSink
	Hooks     domain.LifecycleHooks
}

// Runtime bundles a controller with the resources it owns.
type Runtime struct {
	Controller *scanner.Controller
	Registry   *prometheus.Registry
	Redis      *backend.Client
}

// Close stops the camera and releases the redis connection.
func (r *Runtime) Close() error {
	err := r.Controller.Close()
	if r.Redis != nil {
		err = errors.Join(err, r.Redis.Close())
	}
	return err
}

// createController builds a scan controller with standard CLI conventions.
func createController(ctx context.Context, cfg *config.Config, logger *slog.Logger, w Wiring) (*Runtime, error) {
	capture := w.Capture
	if capture == nil {
		var err error
		capture, err = openCapture(cfg.Camera, logger)
		if err != nil {
			return nil, err
		}
	}

	rt := &Runtime{Registry: prometheus.NewRegistry()}
	rt.Registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(rt.Registry)

	// 1. Device registry, distributed when redis is configured
	registryOpts := []session.Option{session.WithLogger(logger)}
	sinks := []ports.ResultSink{sink.NewLog(logger)}
	if w.Sink != nil {
		sinks = append(sinks, w.Sink)
	}
	if cfg.Redis.Enabled() {
		client, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		rt.Redis = client
		registryOpts = append(registryOpts,
			session.WithLocker(redisadapter.NewLocker(client, cfg.Redis.Prefix, redisadapter.WithLockerLogger(logger))),
			session.WithTTL(cfg.Redis.LockTTL),
		)
		if cfg.Redis.Publish {
			sinks = append(sinks, redisadapter.NewSink(client,
				redisadapter.WithPrefix(cfg.Redis.Prefix),
				redisadapter.WithMaxLen(cfg.Redis.MaxLen),
				redisadapter.WithSource(stationName(cfg.Camera.Device)),
			))
		}
	}

	// 2. Controller
	opts := []scanner.Option{
		scanner.WithLogger(logger),
		scanner.WithScheduler(scheduler.NewInterval(cfg.Scan.Interval)),
		scanner.WithStrictChecksum(cfg.Scan.StrictChecksum),
		scanner.WithConstraints(cfg.Camera.Constraints()),
		scanner.WithROIFractions(cfg.Scan.ROIWidth, cfg.Scan.ROIHeight),
		scanner.WithDeviceRegistry(session.NewManager(registryOpts...), cfg.Camera.Device),
		scanner.WithLifecycleHooks(observability.Combine(
			metrics.Hooks(),
			observability.LoggingHooks(logger),
			w.Hooks,
		)),
	}
	if formats := cfg.Scan.Formats(); formats != nil {
		opts = append(opts, scanner.WithSymbologies(formats...))
	}
	if w.Presenter != nil {
		opts = append(opts, scanner.WithPresenter(w.Presenter))
	}

	rt.Controller = scanner.New(capture, sink.Multi(sinks...), opts...)
	return rt, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*backend.Client, error) {
	client := backend.NewClient(&backend.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// stationName identifies this process in shared detection streams.
func stationName(device string) string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + "/" + device
}
