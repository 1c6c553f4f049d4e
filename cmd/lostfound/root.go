package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/app"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "lostfound",
		Short:         "Lost-and-found matching service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to config file or directory")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and gRPC health server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Write the fixture postings into the configured record store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, opts)
		},
	})
	return root
}

func setup(path string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewLogger(logger.LoggerConfig{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		OutputFile: cfg.Logger.OutputFile,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log.Named(cfg.ServiceName), nil
}

func runServe(parent context.Context, opts *rootOptions) error {
	cfg, log, err := setup(opts.configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(contextOrBackground(parent), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Application starting",
		zap.String("http_port", cfg.HTTP.Port),
		zap.String("grpc_port", cfg.GRPC.Port),
		zap.String("record_store", cfg.RecordStore.Driver),
		zap.String("similarity_provider", cfg.Similarity.Provider))

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize application", zap.Error(err))
		return err
	}
	if err := a.Run(ctx); err != nil {
		log.Error("Application stopped with error", zap.Error(err))
		return err
	}
	log.Info("Application stopped")
	return nil
}

func runSeed(cmd *cobra.Command, opts *rootOptions) error {
	cfg, log, err := setup(opts.configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	n, err := app.Seed(contextOrBackground(cmd.Context()), cfg, log)
	if err != nil {
		return err
	}
	cmd.Printf("seeded %d postings into %s/%s\n", n, cfg.RecordStore.Driver, cfg.RecordStore.Table)
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
