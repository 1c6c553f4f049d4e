package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/match"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

// JudgePrompt is sent verbatim with both images.
const JudgePrompt = `Act as a professional lost-and-found matching expert.
Compare Image A (Lost Item) and Image B (Found Item).
Analyze color, shape, brand, and unique features.
Strictly return a JSON object with:
similarity: number (0-100)
reason: string (concise explanation)`

// Generator is a multimodal model asked for a JSON-only answer.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, images ...domain.Image) (string, error)
}

// Judge asks a multimodal model to rate the pair directly.
type Judge struct {
	gen    Generator
	logger *logger.Logger
}

func NewJudge(gen Generator, log *logger.Logger) *Judge {
	return &Judge{gen: gen, logger: log.Named("judge")}
}

func (j *Judge) Score(ctx context.Context, original, candidate domain.Image) (domain.Score, error) {
	text, err := j.gen.GenerateJSON(ctx, JudgePrompt, original, candidate)
	if err != nil {
		j.logger.Warn("Judge call failed", zap.Error(err))
		return domain.Score{}, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}

	score, err := ParseVerdict(text)
	if err != nil {
		j.logger.Warn("Judge returned unusable verdict", zap.Error(err), zap.Int("length", len(text)))
		return domain.Score{}, err
	}
	return score, nil
}

type verdict struct {
	Similarity *float64 `json:"similarity"`
	Reason     *string  `json:"reason"`
}

// ParseVerdict decodes the judge's JSON answer. Anything other than a single
// object with a numeric similarity in [0, 100] is ErrMalformedResponse.
func ParseVerdict(text string) (domain.Score, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Score{}, fmt.Errorf("%w: empty response", domain.ErrMalformedResponse)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	var v verdict
	if err := dec.Decode(&v); err != nil {
		return domain.Score{}, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	if dec.More() {
		return domain.Score{}, fmt.Errorf("%w: trailing data after JSON object", domain.ErrMalformedResponse)
	}
	if v.Similarity == nil {
		return domain.Score{}, fmt.Errorf("%w: similarity missing", domain.ErrMalformedResponse)
	}
	if !match.InRange(*v.Similarity) {
		return domain.Score{}, fmt.Errorf("%w: similarity %v out of range", domain.ErrMalformedResponse, *v.Similarity)
	}

	s := domain.Score{Similarity: *v.Similarity}
	if v.Reason != nil {
		s.Reason = strings.TrimSpace(*v.Reason)
	}
	return s, nil
}
