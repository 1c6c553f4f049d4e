package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/similarity"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildContents(t *testing.T) {
	contents := buildContents("compare", []domain.Image{
		{Data: []byte{1}, MIMEType: "image/jpeg"},
		{Data: []byte{2}, MIMEType: "image/png"},
	})
	require.Len(t, contents, 1)
	parts := contents[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, "compare", parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte{2}, parts[2].InlineData.Data)
}

func TestClassify(t *testing.T) {
	for _, raw := range []error{
		genai.APIError{Code: 401},
		genai.APIError{Code: 403},
		genai.APIError{Code: 503},
		context.DeadlineExceeded,
		errors.New("dial tcp: connection refused"),
	} {
		err := classify(raw)
		assert.ErrorIs(t, err, domain.ErrProviderUnavailable, raw.Error())
		assert.NotErrorIs(t, err, domain.ErrAccessDenied)
		assert.NotErrorIs(t, err, domain.ErrNetworkFailure)
	}
}

func newTestGenerator(t *testing.T, baseURL string) *Generator {
	t.Helper()
	g, err := newGenerator(context.Background(), &genai.ClientConfig{
		APIKey:      "bad-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	}, "gemini-test", logger.NewNop())
	require.NoError(t, err)
	return g
}

func TestJudgeFailuresAreProviderUnavailable(t *testing.T) {
	unauthorized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`))
	}))
	defer unauthorized.Close()

	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL + "/"
	down.Close()

	tests := []struct {
		name    string
		baseURL string
	}{
		{"rejected api key", unauthorized.URL + "/"},
		{"connection refused", downURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judge := similarity.NewJudge(newTestGenerator(t, tt.baseURL), logger.NewNop())
			_, err := judge.Score(context.Background(),
				domain.Image{Data: []byte{1}, MIMEType: "image/jpeg"},
				domain.Image{Data: []byte{2}, MIMEType: "image/jpeg"})
			require.Error(t, err)
			assert.Equal(t, domain.KindProviderUnavailable, domain.KindOf(err))
		})
	}
}
