// Package similarity scores how alike two item photos are.
package similarity

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/tracer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Provider compares an original posting photo with a finder's candidate and
// returns a similarity in [0, 100].
type Provider interface {
	Score(ctx context.Context, original, candidate domain.Image) (domain.Score, error)
}

type tracedProvider struct {
	name string
	next Provider
}

// WithTracing wraps p so every call produces a span named after the provider.
func WithTracing(name string, p Provider) Provider {
	return &tracedProvider{name: name, next: p}
}

func (t *tracedProvider) Score(ctx context.Context, original, candidate domain.Image) (domain.Score, error) {
	ctx, span := tracer.Tracer("similarity").Start(ctx, "similarity.Score")
	defer span.End()
	span.SetAttributes(attribute.String("provider", t.name))

	s, err := t.next.Score(ctx, original, candidate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
		return s, err
	}
	span.SetAttributes(attribute.Float64("similarity", s.Similarity))
	return s, nil
}
