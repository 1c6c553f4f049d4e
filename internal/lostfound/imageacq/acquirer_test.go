package imageacq

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(color.RGBA{R: 200, A: 255})))
	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, solid(color.RGBA{G: 200, A: 255}), nil))
	return buf.Bytes()
}

type MockImageCache struct {
	mock.Mock
}

func (m *MockImageCache) Get(ctx context.Context, key string) (domain.Image, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.Image), args.Error(1)
}

func (m *MockImageCache) Set(ctx context.Context, key string, img domain.Image, ttl time.Duration) error {
	args := m.Called(ctx, key, img, ttl)
	return args.Error(0)
}

func TestNormalize(t *testing.T) {
	data, mime, err := Normalize(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, pngBytes(t), data)

	data, mime, err = Normalize(gifBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2])

	_, _, err = Normalize([]byte("<html>not an image</html>"))
	assert.ErrorIs(t, err, errNotImage)

	_, _, err = Normalize(nil)
	assert.ErrorIs(t, err, errNotImage)
}

func TestFetchRemote(t *testing.T) {
	body := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write(body)
		case "/private.png":
			w.WriteHeader(http.StatusForbidden)
		case "/login.png":
			w.WriteHeader(http.StatusUnauthorized)
		case "/page":
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := NewAcquirer(Options{Client: srv.Client()}, logger.NewNop())
	ctx := context.Background()

	img, err := a.FetchRemote(ctx, srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, srv.URL+"/ok.png", img.Name)

	_, err = a.FetchRemote(ctx, srv.URL+"/private.png")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	assert.Equal(t, domain.KindAccessDenied, domain.KindOf(err))

	_, err = a.FetchRemote(ctx, srv.URL+"/login.png")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = a.FetchRemote(ctx, srv.URL+"/missing.png")
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)

	_, err = a.FetchRemote(ctx, srv.URL+"/page")
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)

	_, err = a.FetchRemote(ctx, "http://127.0.0.1:1/unreachable.png")
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)
}

func TestFetchRemote_UsesCache(t *testing.T) {
	var hits atomic.Int32
	body := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	url := srv.URL + "/bag.png"
	cache := new(MockImageCache)
	cache.On("Get", mock.Anything, cacheKey(url)).Return(domain.Image{}, domain.ErrCacheMiss).Once()
	cache.On("Set", mock.Anything, cacheKey(url), mock.AnythingOfType("domain.Image"), time.Minute).Return(nil).Once()

	a := NewAcquirer(Options{Client: srv.Client(), Cache: cache, CacheTTL: time.Minute}, logger.NewNop())
	_, err := a.FetchRemote(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	cached := domain.Image{Data: body, MIMEType: "image/png", Name: url}
	cache.On("Get", mock.Anything, cacheKey(url)).Return(cached, nil).Once()
	img, err := a.FetchRemote(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, cached, img)
	assert.Equal(t, int32(1), hits.Load())
	cache.AssertExpectations(t)
}

func TestFromUpload(t *testing.T) {
	a := NewAcquirer(Options{MaxBytes: 1 << 20}, logger.NewNop())

	img, err := a.FromUpload(bytes.NewReader(pngBytes(t)), "found.png")
	require.NoError(t, err)
	assert.Equal(t, "found.png", img.Name)

	_, err = a.FromUpload(strings.NewReader("plain text"), "notes.txt")
	assert.ErrorIs(t, err, domain.ErrValidationFailure)

	small := NewAcquirer(Options{MaxBytes: 10}, logger.NewNop())
	_, err = small.FromUpload(bytes.NewReader(pngBytes(t)), "big.png")
	assert.ErrorIs(t, err, domain.ErrValidationFailure)
	assert.ErrorIs(t, err, errTooLarge)
}
