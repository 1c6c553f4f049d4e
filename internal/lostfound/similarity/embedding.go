package similarity

import (
	"context"
	"fmt"
	"sync"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/match"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Model turns an image into a flat feature vector.
type Model interface {
	Embed(ctx context.Context, img domain.Image) ([]float32, error)
	Close() error
}

// ModelLoader builds a Model. It is called at most once per successful load.
type ModelLoader func(ctx context.Context) (Model, error)

// Embedding scores by cosine similarity of model embeddings. The model is
// loaded lazily on first use and shared by every caller of this instance;
// concurrent first callers wait on the same load. A failed load leaves
// nothing behind, so the next call tries again.
type Embedding struct {
	load   ModelLoader
	logger *logger.Logger

	group singleflight.Group
	mu    sync.RWMutex
	model Model
}

func NewEmbedding(load ModelLoader, log *logger.Logger) *Embedding {
	return &Embedding{load: load, logger: log.Named("embedding")}
}

func (e *Embedding) loaded() Model {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// Model returns the memoized model, loading it if needed.
func (e *Embedding) Model(ctx context.Context) (Model, error) {
	if m := e.loaded(); m != nil {
		return m, nil
	}

	ch := e.group.DoChan("model", func() (any, error) {
		if m := e.loaded(); m != nil {
			return m, nil
		}
		e.logger.Info("Loading embedding model")
		// The load outlives any single caller: others may be waiting on it.
		m, err := e.load(context.WithoutCancel(ctx))
		if err != nil {
			e.logger.Error("Embedding model load failed", zap.Error(err))
			return nil, err
		}
		e.mu.Lock()
		e.model = m
		e.mu.Unlock()
		e.logger.Info("Embedding model loaded")
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrModelLoadFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrModelLoadFailed, res.Err)
		}
		return res.Val.(Model), nil
	}
}

func (e *Embedding) Score(ctx context.Context, original, candidate domain.Image) (domain.Score, error) {
	m, err := e.Model(ctx)
	if err != nil {
		return domain.Score{}, err
	}

	a, err := m.Embed(ctx, original)
	if err != nil {
		return domain.Score{}, fmt.Errorf("%w: embed original: %w", domain.ErrProviderUnavailable, err)
	}
	b, err := m.Embed(ctx, candidate)
	if err != nil {
		return domain.Score{}, fmt.Errorf("%w: embed candidate: %w", domain.ErrProviderUnavailable, err)
	}

	cos, err := match.CosineSimilarity(a, b)
	if err != nil {
		return domain.Score{}, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	return domain.Score{Similarity: match.RemapCosine(cos)}, nil
}

// Close releases the model if one was loaded.
func (e *Embedding) Close() error {
	e.mu.Lock()
	m := e.model
	e.model = nil
	e.mu.Unlock()
	if m == nil {
		return nil
	}
	if err := m.Close(); err != nil {
		return fmt.Errorf("close embedding model: %w", err)
	}
	return nil
}
