package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		log.Error("Failed to connect to Redis", zap.String("address", cfg.Address), zap.Error(err))
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Address, err)
	}
	log.Info("Successfully connected to Redis", zap.String("address", cfg.Address))
	return rdb, nil
}

// ImageCache stores fetched remote images so repeated comparisons against the
// same posting do not hit the image host every time.
type ImageCache struct {
	client *redis.Client
	logger *logger.Logger
}

func NewImageCache(client *redis.Client, log *logger.Logger) *ImageCache {
	return &ImageCache{client: client, logger: log.Named("image_cache")}
}

var _ domain.ImageCache = (*ImageCache)(nil)

type cachedImage struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mime"`
	Name     string `json:"name"`
}

func encodeImage(img domain.Image) ([]byte, error) {
	return json.Marshal(cachedImage(img))
}

func decodeImage(b []byte) (domain.Image, error) {
	var c cachedImage
	if err := json.Unmarshal(b, &c); err != nil {
		return domain.Image{}, err
	}
	return domain.Image(c), nil
}

func (c *ImageCache) Get(ctx context.Context, key string) (domain.Image, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Image{}, domain.ErrCacheMiss
		}
		return domain.Image{}, fmt.Errorf("ImageCache.Get for key '%s': %w", key, err)
	}
	img, err := decodeImage(val)
	if err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key).Err()
		return domain.Image{}, domain.ErrCacheMiss
	}
	return img, nil
}

func (c *ImageCache) Set(ctx context.Context, key string, img domain.Image, ttl time.Duration) error {
	b, err := encodeImage(img)
	if err != nil {
		return fmt.Errorf("ImageCache.Set: encode: %w", err)
	}
	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("ImageCache.Set for key '%s': %w", key, err)
	}
	c.logger.Debug("Image cached", zap.String("key", key), zap.Duration("ttl", ttl), zap.Int("bytes", len(img.Data)))
	return nil
}
