// Package app assembles the lost-and-found service from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/http/router"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/identity"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/handoff"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/listing"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/usecase"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/tracer"
	grpcPort "github.com/Abdurahmanit/GroupProject/lostfound-service/internal/port/grpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type App struct {
	cfg     *config.Config
	logger  *logger.Logger
	metrics *metrics.MetricsManager
	flows   *handoff.Manager
	claims  *usecase.ClaimUsecase

	httpServer   *http.Server
	grpcServer   *grpc.Server
	healthServer *health.Server

	closers []closer
}

// New connects every configured backend and builds the servers. Whatever was
// opened before a failure is released again.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: log, metrics: metrics.NewMetricsManager(cfg.ServiceName)}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	shutdownTracer, err := tracer.InitTracer(ctx, cfg.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.Insecure)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.addCloser(&closer{name: "tracer", fn: shutdownTracer})

	records, c, err := newRecordStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("record store: %w", err)
	}
	a.addCloser(c)

	cache, c, err := newImageCache(ctx, &cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("image cache: %w", err)
	}
	a.addCloser(c)

	publisher, c, err := newPublisher(&cfg.NATS, log)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}
	a.addCloser(c)

	media, err := newMediaStorage(ctx, &cfg.Minio, log)
	if err != nil {
		return nil, fmt.Errorf("media storage: %w", err)
	}

	provider, c, err := newProvider(ctx, &cfg.Similarity, log)
	if err != nil {
		return nil, fmt.Errorf("similarity provider: %w", err)
	}
	a.addCloser(c)

	store := listing.NewStore()
	postings := usecase.NewPostingUsecase(store, records, media, publisher, a.metrics,
		usecase.PostingUsecaseConfig{Table: cfg.RecordStore.Table, UploadPreset: cfg.Minio.UploadPreset}, log)
	a.claims = usecase.NewClaimUsecase(store, records, publisher, newClaimMailer(&cfg.SMTP, log), a.metrics,
		cfg.RecordStore.Table, log)

	postings.Bootstrap(ctx, loadFixture(cfg.Fixture.Path, log))

	images := newAcquirer(cfg, cache, log)
	a.flows = handoff.NewManager(cfg.Handoff.MaxSessions, cfg.Handoff.SessionTTL, handoff.Deps{
		Provider:       provider,
		Images:         images,
		Claimer:        a.claims,
		Recorder:       a.metrics,
		ScoringTimeout: cfg.Handoff.ScoringTimeout,
		NoticeTTL:      cfg.Handoff.NoticeTTL,
	}, log)

	cookies := identity.Cookies{
		Issuer: identity.NewIssuer(cfg.Identity.Secret, cfg.Identity.TTL),
		Name:   cfg.Identity.CookieName,
		Secure: cfg.Identity.Secure,
	}
	mux := router.New(router.Handlers{
		Session: handler.NewSessionHandler(cookies, log),
		Posting: handler.NewPostingHandler(postings, images, cfg.HTTP.MaxUploadBytes, log),
		Finder:  handler.NewFinderHandler(a.flows, postings, images, cfg.HTTP.MaxUploadBytes, log),
	}, router.Options{
		Cookies:        cookies,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Metrics:        a.metrics,
	}, log)

	a.httpServer = &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	a.grpcServer, a.healthServer = grpcPort.NewHealthServer(cfg.ServiceName, log)
	return a, nil
}

func (a *App) addCloser(c *closer) {
	if c != nil {
		a.closers = append(a.closers, *c)
	}
}

// close releases resources in reverse order of acquisition.
func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			a.logger.Error("Failed to close resource", zap.String("resource", c.name), zap.Error(err))
		} else {
			a.logger.Info("Resource closed", zap.String("resource", c.name))
		}
	}
	a.closers = nil
}

// Run serves HTTP, gRPC health and metrics until ctx is cancelled or a server
// fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", ":"+a.cfg.GRPC.Port)
	if err != nil {
		a.close(context.Background())
		return fmt.Errorf("listen grpc on %s: %w", a.cfg.GRPC.Port, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.logger.Info("Starting gRPC health server", zap.String("port", a.cfg.GRPC.Port))
		if err := a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return metrics.StartMetricsServer(gctx, a.cfg.Metrics.Port, a.logger, a.metrics.Registry)
	})

	grpcPort.SetServing(a.healthServer, a.cfg.ServiceName, true)
	a.logger.Info("Service is up", zap.String("service", a.cfg.ServiceName))

	g.Go(func() error {
		<-gctx.Done()
		a.shutdown()
		return nil
	})
	return g.Wait()
}

func (a *App) shutdown() {
	a.logger.Info("Shutting down")
	grpcPort.SetServing(a.healthServer, a.cfg.ServiceName, false)

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	a.grpcServer.GracefulStop()
	a.flows.CloseAll()
	if err := a.claims.Wait(ctx); err != nil {
		a.logger.Warn("Claim notifications still running at shutdown", zap.Error(err))
	}
	a.close(ctx)
}

func loadFixture(path string, log *logger.Logger) []domain.Posting {
	fixture, err := listing.LoadFixture(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("Fixture not found, starting with an empty listing", zap.String("path", path))
		} else {
			log.Error("Failed to load fixture, starting with an empty listing", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	return fixture
}

// Seed writes every fixture posting into the configured record store.
func Seed(ctx context.Context, cfg *config.Config, log *logger.Logger) (int, error) {
	records, c, err := newRecordStore(ctx, cfg, log)
	if err != nil {
		return 0, fmt.Errorf("record store: %w", err)
	}
	if c != nil {
		defer func() {
			if err := c.fn(context.Background()); err != nil {
				log.Error("Failed to close record store", zap.Error(err))
			}
		}()
	}
	if records == nil {
		return 0, fmt.Errorf("record_store.driver %q has nothing to seed", cfg.RecordStore.Driver)
	}

	fixture, err := listing.LoadFixture(cfg.Fixture.Path)
	if err != nil {
		return 0, err
	}
	uc := usecase.NewPostingUsecase(listing.NewStore(), records, nil, nil, nil,
		usecase.PostingUsecaseConfig{Table: cfg.RecordStore.Table}, log)
	return uc.SeedRecords(ctx, fixture)
}
