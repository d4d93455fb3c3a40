package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/moqwire/internal/config"
	"github.com/vango-dev/moqwire/pkg/capture"
	"github.com/vango-dev/moqwire/pkg/middleware"
	"github.com/vango-dev/moqwire/pkg/server"
	"github.com/vango-dev/moqwire/pkg/transport"
)

func serveCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP decoding service",
		Long: `Run the HTTP service described by moqwire.json.

The service decodes and encodes over HTTP, stores captures in a
directory or an S3 bucket, and answers MoQ control streams over
WebSocket at /v1/ws.

Examples:
  moqwire serve
  moqwire serve --addr=0.0.0.0:9000
  moqwire serve --config=deploy/moqwire.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from moqwire.json)")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logger := cfg.NewLogger(cmd.ErrOrStderr())

	scfg, err := serverConfig(cfg)
	if err != nil {
		return err
	}
	scfg.Logger = logger

	printBanner(cmd.OutOrStdout())
	success(cmd.OutOrStdout(), "Listening on http://%s", scfg.Address)
	if scfg.MetricsHandler != nil {
		info(cmd.OutOrStdout(), "Metrics at %s", scfg.MetricsPath)
	}
	if cfg.Path() == "" {
		warn(cmd.OutOrStdout(), "No %s found, using defaults", config.ConfigFileName)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(scfg).Run(ctx)
}

// serverConfig translates cfg into a server configuration with its
// observers and capture store.
func serverConfig(cfg *config.Config) (*server.Config, error) {
	version, err := cfg.Version()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.ShutdownTimeout()
	if err != nil {
		return nil, err
	}

	scfg := server.DefaultConfig()
	scfg.Address = cfg.Server.Addr
	scfg.ReadLimit = cfg.Server.ReadLimit
	scfg.MaxMessageSize = cfg.Server.MaxMessageSize
	scfg.SelectedVersion = version
	scfg.ShutdownTimeout = timeout

	var observers []transport.Observer
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts := []middleware.MetricsOption{
			middleware.WithRegistry(reg),
			middleware.WithSubsystem(cfg.Metrics.Subsystem),
		}
		if cfg.Metrics.Namespace != "" {
			opts = append(opts, middleware.WithNamespace(cfg.Metrics.Namespace))
		}
		observers = append(observers, middleware.Prometheus(opts...))
		scfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
		scfg.MetricsPath = cfg.Metrics.Path
	}
	if cfg.Tracing.Enabled {
		var opts []middleware.OTelOption
		if cfg.Tracing.TracerName != "" {
			opts = append(opts, middleware.WithTracerName(cfg.Tracing.TracerName))
		}
		observers = append(observers, middleware.OpenTelemetry(opts...))
	}
	if len(observers) > 0 {
		scfg.Observer = middleware.Chain(observers...)
	}

	store, err := captureStore(cfg)
	if err != nil {
		return nil, err
	}
	scfg.Captures = store
	return scfg, nil
}

// captureStore opens the S3 store when a bucket is configured and the file
// store otherwise.
func captureStore(cfg *config.Config) (capture.Store, error) {
	c := cfg.Capture
	if c.S3.Bucket != "" {
		client := capture.NewS3Client(capture.S3Config{
			Bucket:   c.S3.Bucket,
			Prefix:   c.S3.Prefix,
			Region:   c.S3.Region,
			Endpoint: c.S3.Endpoint,
		})
		return capture.NewS3Store(client, c.S3.Bucket, c.S3.Prefix, c.MaxSize), nil
	}
	dir := c.Dir
	if dir == "" {
		dir = config.DefaultCaptureDir
	}
	return capture.NewFileStore(dir, c.MaxSize)
}
