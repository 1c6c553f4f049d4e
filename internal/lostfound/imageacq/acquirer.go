// Package imageacq turns image references (remote URLs or uploaded files)
// into in-memory images for the similarity providers.
package imageacq

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/tracer"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "lostfound:image:"

type Options struct {
	Client   *http.Client
	Cache    domain.ImageCache
	CacheTTL time.Duration
	MaxBytes int64
}

type Acquirer struct {
	client   *http.Client
	cache    domain.ImageCache
	cacheTTL time.Duration
	maxBytes int64
	logger   *logger.Logger
}

func NewAcquirer(opts Options, log *logger.Logger) *Acquirer {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Acquirer{
		client:   client,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		maxBytes: maxBytes,
		logger:   log.Named("imageacq"),
	}
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// FetchRemote downloads the image at url. A host answering 401 or 403 yields
// ErrAccessDenied; any other failure to obtain a decodable image yields
// ErrNetworkFailure.
func (a *Acquirer) FetchRemote(ctx context.Context, url string) (domain.Image, error) {
	ctx, span := tracer.Tracer("imageacq").Start(ctx, "imageacq.FetchRemote")
	defer span.End()
	span.SetAttributes(attribute.String("image.url", url))

	key := cacheKey(url)
	if a.cache != nil {
		img, err := a.cache.Get(ctx, key)
		if err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return img, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			a.logger.Warn("Image cache read failed", zap.Error(err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: bad image url %q: %w", domain.ErrNetworkFailure, url, err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: fetch %s: %w", domain.ErrNetworkFailure, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.Image{}, fmt.Errorf("%w: %s answered %s", domain.ErrAccessDenied, url, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return domain.Image{}, fmt.Errorf("%w: %s answered %s", domain.ErrNetworkFailure, url, resp.Status)
	}

	data, err := readLimited(resp.Body, a.maxBytes)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: read %s: %w", domain.ErrNetworkFailure, url, err)
	}
	norm, mime, err := Normalize(data)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: %s: %w", domain.ErrNetworkFailure, url, err)
	}

	img := domain.Image{Data: norm, MIMEType: mime, Name: url}
	if a.cache != nil {
		if err := a.cache.Set(ctx, key, img, a.cacheTTL); err != nil {
			a.logger.Warn("Image cache write failed", zap.Error(err))
		}
	}
	return img, nil
}

// FromUpload reads a finder-supplied file. Content that is not an image is a
// validation failure, not a network one.
func (a *Acquirer) FromUpload(r io.Reader, name string) (domain.Image, error) {
	data, err := readLimited(r, a.maxBytes)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: photo: %w", domain.ErrValidationFailure, err)
	}
	norm, mime, err := Normalize(data)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: photo: %w", domain.ErrValidationFailure, err)
	}
	return domain.Image{Data: norm, MIMEType: mime, Name: name}, nil
}

// FromMultipart opens fh, reads it and always closes it again.
func (a *Acquirer) FromMultipart(fh *multipart.FileHeader) (domain.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: open photo: %w", domain.ErrValidationFailure, err)
	}
	defer f.Close()
	return a.FromUpload(f, fh.Filename)
}

var errTooLarge = errors.New("image exceeds size limit")

func readLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, errTooLarge
	}
	return data, nil
}
