package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/similarity"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Generator sends a prompt with inline images to a Gemini model and asks for
// a JSON-only answer.
type Generator struct {
	client *genai.Client
	model  string
	logger *logger.Logger
}

var _ similarity.Generator = (*Generator)(nil)

func NewGenerator(ctx context.Context, apiKey, model string, log *logger.Logger) (*Generator, error) {
	return newGenerator(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model, log)
}

func newGenerator(ctx context.Context, cc *genai.ClientConfig, model string, log *logger.Logger) (*Generator, error) {
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Generator{client: client, model: model, logger: log.Named("gemini")}, nil
}

func buildContents(prompt string, images []domain.Image) []*genai.Content {
	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func (g *Generator) GenerateJSON(ctx context.Context, prompt string, images ...domain.Image) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, buildContents(prompt, images), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		g.logger.Warn("GenerateContent failed", zap.String("model", g.model), zap.Error(err))
		return "", classify(err)
	}
	return resp.Text(), nil
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

// classify files every judge failure under ErrProviderUnavailable. Access
// denied and network failure belong to the image hosts, not to the model.
func classify(err error) error {
	if code, ok := apiErrorCode(err); ok {
		switch code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: gemini rejected the API key (%d): %w", domain.ErrProviderUnavailable, code, err)
		}
		return fmt.Errorf("%w: gemini returned %d: %w", domain.ErrProviderUnavailable, code, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
}
