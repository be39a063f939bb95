package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/selsync/internal/config"
	"github.com/vango-dev/selsync/internal/errors"
	"github.com/vango-dev/selsync/pkg/dispatch"
	"github.com/vango-dev/selsync/pkg/filectl"
	"github.com/vango-dev/selsync/pkg/host"
	"github.com/vango-dev/selsync/pkg/reactive"
	"github.com/vango-dev/selsync/pkg/remote"
	"github.com/vango-dev/selsync/pkg/selection"
	"github.com/vango-dev/selsync/pkg/server"
	"github.com/vango-dev/selsync/pkg/snapshot"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		port     int
		bindHost string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the shared selection over HTTP and websocket",
		Long: `Serve the shared model selection.

Browser lists connect to /ws and stay synchronised with the model. The
model can also be read and replaced through /api/selection, restored from
and persisted to a snapshot store, and mirrored into a selection file.

Examples:
  selsync serve
  selsync serve --port=8080
  selsync serve --config=selsync.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = bindHost
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg, os.Stderr)
			slog.SetDefault(logger)

			a, err := newApp(cfg, logger, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			return a.run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&bindHost, "host", "H", "", "Host to bind to (default from config)")

	return cmd
}

// app wires the model selection to its collaborators.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	loop      *dispatch.Loop
	model     selection.Selection[string]
	metrics   *selection.Metrics
	store     snapshot.Store
	persister *snapshot.Persister
	file      *filectl.File
	hub       *remote.Hub
	server    *server.Server

	subs reactive.Composite
}

func newApp(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (*app, error) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mode, err := host.ParseMode(cfg.Selection.Mode)
	if err != nil {
		return nil, errors.New("E106").Wrap(err)
	}
	model, err := newModel(mode)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		loop:    dispatch.New(dispatch.WithLogger(logger)),
		model:   model,
		metrics: selection.NewMetrics(selection.WithRegistry(reg)),
	}

	if a.store, err = openStore(cfg); err != nil {
		return nil, err
	}
	if a.store != nil {
		a.persister = snapshot.NewPersister(a.store, cfg.Snapshot.Key, snapshot.WithLogger(logger))
	}

	if cfg.Watch.File != "" {
		a.file, err = filectl.Open(cfg.Watch.File, a.loop, filectl.WithLogger(logger))
		if err != nil {
			return nil, errors.New("E142").Wrap(err)
		}
	}

	a.hub = remote.NewHub(model, a.loop,
		remote.WithLogger(logger),
		remote.WithRegistry(reg),
		remote.WithSyncMetrics(a.metrics),
		remote.WithOptions(cfg.Selection.Options),
	)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	a.server = server.New(model, a.loop, server.Config{
		Addr:            cfg.Address(),
		ReadTimeout:     cfg.Server.ReadTimeout.Std(),
		WriteTimeout:    cfg.Server.WriteTimeout.Std(),
		ShutdownTimeout: server.DefaultConfig().ShutdownTimeout,
		MetricsPath:     metricsPath,
		Options:         cfg.Selection.Options,
	},
		server.WithLogger(logger),
		server.WithRegistry(reg),
		server.WithHub(a.hub),
	)
	return a, nil
}

// newModel returns the model selection for mode: a list for Extended, a
// single-item property for Single.
func newModel(mode host.Mode) (selection.Selection[string], error) {
	if mode == host.Single {
		return selection.NewProperty(reactive.NewSignal(""))
	}
	return selection.NewList[string](), nil
}

// openStore builds the configured snapshot store, or nil for none.
func openStore(cfg *config.Config) (snapshot.Store, error) {
	var store snapshot.Store
	switch cfg.Snapshot.Store {
	case config.StoreMemory:
		store = snapshot.NewMemoryStore()
	case config.StoreS3:
		client := snapshot.NewS3Client(snapshot.S3Config{
			Region:       cfg.Snapshot.S3.Region,
			Endpoint:     cfg.Snapshot.S3.Endpoint,
			UsePathStyle: cfg.Snapshot.S3.UsePathStyle,
		})
		store = snapshot.NewS3Store(client, cfg.Snapshot.S3.Bucket, cfg.Snapshot.S3.Prefix)
	default:
		return nil, nil
	}
	if cfg.Snapshot.CacheSize > 0 {
		return snapshot.NewCachedStore(store, cfg.Snapshot.CacheSize)
	}
	return store, nil
}

// run starts every component and blocks until ctx is done or one of them
// fails.
func (a *app) run(ctx context.Context) error {
	defer a.close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(a.loop.Run(ctx)) })

	if err := a.loop.Call(ctx, func() error { return a.setup(ctx) }); err != nil {
		a.loop.Close()
		_ = g.Wait()
		return err
	}

	if a.persister != nil {
		g.Go(func() error { return ignoreCanceled(a.persister.Run(ctx)) })
	}
	if a.file != nil {
		g.Go(func() error { return ignoreCanceled(a.file.Run(ctx)) })
	}
	g.Go(func() error {
		err := a.server.Run(ctx)
		a.hub.Close()
		if err != nil {
			return errors.New("E140").Wrap(err)
		}
		return nil
	})

	success("Serving selection on http://%s", a.cfg.Address())
	info("Mode: %s", a.cfg.Selection.Mode)
	info("Snapshots: %s", describeStore(a.cfg))
	if a.file != nil {
		info("Watching: %s", a.file.Path())
	}
	return g.Wait()
}

// setup restores the model and binds the persister and selection file.
// It runs on the loop.
func (a *app) setup(ctx context.Context) error {
	restored := false
	if a.store != nil {
		var err error
		restored, err = snapshot.Restore(ctx, a.store, a.cfg.Snapshot.Key, a.model)
		if err != nil {
			return errors.New("E180").Wrap(err)
		}
	}
	if !restored && len(a.cfg.Selection.Initial) > 0 {
		if err := a.model.Update(a.cfg.Selection.Initial...); err != nil {
			return err
		}
	}
	a.logger.Info("model ready",
		"mode", a.cfg.Selection.Mode,
		"items", a.model.Items(),
		"restored", restored)

	if a.persister != nil {
		a.subs.Add(a.persister.Watch(a.model))
	}
	if a.file != nil {
		b, err := host.Bind[string](a.file, a.model,
			selection.WithName("file"),
			selection.WithLogger(a.logger),
			selection.WithMetrics(a.metrics),
			selection.WithContext(ctx),
		)
		if err != nil {
			return err
		}
		a.subs.Add(reactive.OnDispose(b.Dispose))
	}
	return nil
}

func (a *app) close() {
	a.loop.Close()
	a.subs.Dispose()
	if a.file != nil {
		if err := a.file.Close(); err != nil {
			a.logger.Warn("close selection file", "error", err)
		}
	}
	a.model.Dispose()
}

func ignoreCanceled(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func describeStore(cfg *config.Config) string {
	switch cfg.Snapshot.Store {
	case config.StoreS3:
		return fmt.Sprintf("s3://%s/%s", cfg.Snapshot.S3.Bucket, cfg.Snapshot.S3.Prefix)
	default:
		return cfg.Snapshot.Store
	}
}
