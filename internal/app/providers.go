package app

import (
	"context"
	"fmt"
	"net/http"

	rediscache "github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/cache/redis"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/email"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/gemini"
	natsAdapter "github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/messaging/nats"
	mongoRepo "github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/repository/mongodb"
	sqliteRepo "github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/repository/sqlite"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/vision/gocvnet"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/imageacq"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/similarity"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

// closer releases one resource on shutdown.
type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// newRecordStore opens the configured record store. The memory driver
// returns a nil store: postings then live only in the process.
func newRecordStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.RecordStore, *closer, error) {
	switch cfg.RecordStore.Driver {
	case config.DriverMongo:
		store, err := mongoRepo.Dial(ctx, &cfg.Mongo, cfg.ServiceName, cfg.RecordStore.Table)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Record store: MongoDB", zap.String("database", cfg.Mongo.Database))
		return store, &closer{
			name: "mongodb",
			fn:   store.Close,
		}, nil
	case config.DriverSQLite:
		store, err := sqliteRepo.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Record store: SQLite", zap.String("path", cfg.SQLite.Path))
		return store, &closer{
			name: "sqlite",
			fn:   func(context.Context) error { return store.Close() },
		}, nil
	default:
		log.Warn("Record store disabled, postings are kept in memory only")
		return nil, nil, nil
	}
}

func newImageCache(ctx context.Context, cfg *config.RedisConfig, log *logger.Logger) (domain.ImageCache, *closer, error) {
	if cfg.Address == "" {
		log.Info("Redis address not configured, remote images are not cached")
		return nil, nil, nil
	}
	rdb, err := rediscache.NewRedisClient(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return rediscache.NewImageCache(rdb, log), &closer{
		name: "redis",
		fn:   func(context.Context) error { return rdb.Close() },
	}, nil
}

func newPublisher(cfg *config.NATSConfig, log *logger.Logger) (domain.EventPublisher, *closer, error) {
	if cfg.URL == "" {
		log.Info("NATS URL not configured, events are not published")
		return nil, nil, nil
	}
	pub, err := natsAdapter.NewNATSPublisher(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return pub, &closer{
		name: "nats",
		fn: func(context.Context) error {
			pub.Close()
			return nil
		},
	}, nil
}

func newClaimMailer(cfg *config.SMTPConfig, log *logger.Logger) domain.ClaimMailer {
	if cfg.Host == "" {
		log.Info("SMTP host not configured, claim desk mail disabled")
		return nil
	}
	return email.NewClaimMailer(cfg, log)
}

func newMediaStorage(ctx context.Context, cfg *config.MinioConfig, log *logger.Logger) (domain.MediaStorage, error) {
	return s3.NewS3Storage(ctx, cfg, log)
}

func newAcquirer(cfg *config.Config, cache domain.ImageCache, log *logger.Logger) *imageacq.Acquirer {
	return imageacq.NewAcquirer(imageacq.Options{
		Client:   &http.Client{Timeout: cfg.Similarity.FetchTimeout},
		Cache:    cache,
		CacheTTL: cfg.Redis.ImageTTL,
		MaxBytes: cfg.Similarity.MaxImageBytes,
	}, log)
}

// newProvider builds the configured similarity provider, wrapped in tracing.
func newProvider(ctx context.Context, cfg *config.SimilarityConfig, log *logger.Logger) (similarity.Provider, *closer, error) {
	switch cfg.Provider {
	case config.ProviderJudge:
		gen, err := gemini.NewGenerator(ctx, cfg.JudgeAPIKey, cfg.JudgeModel, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Similarity provider: judge", zap.String("model", cfg.JudgeModel))
		return similarity.WithTracing(config.ProviderJudge, similarity.NewJudge(gen, log)), nil, nil
	case config.ProviderEmbedding:
		emb := similarity.NewEmbedding(gocvnet.Loader(cfg.ModelPath, cfg.OutputLayer, log), log)
		log.Info("Similarity provider: embedding", zap.String("model_path", cfg.ModelPath))
		return similarity.WithTracing(config.ProviderEmbedding, emb), &closer{
			name: "embedding model",
			fn:   func(context.Context) error { return emb.Close() },
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown similarity provider %q", cfg.Provider)
	}
}
