package router

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/identity"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/handoff"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/imageacq"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/listing"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/usecase"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMedia struct{}

func (fakeMedia) Upload(_ context.Context, preset string, _ domain.Image) (string, error) {
	return "https://cdn.example/" + preset + "/photo.png", nil
}

type staticImages struct{}

func (staticImages) FetchRemote(_ context.Context, url string) (domain.Image, error) {
	return domain.Image{Data: []byte{1}, MIMEType: "image/png", Name: url}, nil
}

type fixedProvider struct{ sim float64 }

func (p fixedProvider) Score(context.Context, domain.Image, domain.Image) (domain.Score, error) {
	return domain.Score{Similarity: p.sim, Reason: "same umbrella"}, nil
}

type testServer struct {
	*httptest.Server
	client *http.Client
	store  *listing.Store
}

func newTestServer(t *testing.T, sim float64, maxUpload int64) *testServer {
	t.Helper()
	log := logger.NewNop()

	store := listing.NewStore()
	store.Seed([]domain.Posting{{
		ID:          "1",
		Author:      "Ann",
		ImageURL:    "https://cdn.example/1.jpg",
		Location:    "Library",
		Description: "Blue umbrella",
		CreatedAt:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}})

	postings := usecase.NewPostingUsecase(store, nil, fakeMedia{}, nil, nil,
		usecase.PostingUsecaseConfig{Table: "items", UploadPreset: "lostfound"}, log)
	claims := usecase.NewClaimUsecase(store, nil, nil, nil, nil, "items", log)
	flows := handoff.NewManager(16, time.Hour, handoff.Deps{
		Provider: fixedProvider{sim: sim},
		Images:   staticImages{},
		Claimer:  claims,
	}, log)
	photos := imageacq.NewAcquirer(imageacq.Options{MaxBytes: maxUpload}, log)
	cookies := identity.Cookies{Issuer: identity.NewIssuer("secret", time.Hour), Name: "lf_session"}

	mux := New(Handlers{
		Session: handler.NewSessionHandler(cookies, log),
		Posting: handler.NewPostingHandler(postings, photos, maxUpload, log),
		Finder:  handler.NewFinderHandler(flows, postings, photos, maxUpload, log),
	}, Options{
		Cookies:        cookies,
		AllowedOrigins: []string{"*"},
		Metrics:        metrics.NewMetricsManager("lostfound_test"),
	}, log)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{Server: srv, client: &http.Client{Jar: jar}, store: store}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func multipartBody(t *testing.T, photo []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if photo != nil {
		fw, err := mw.CreateFormFile("photo", "found.png")
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) postJSON(t *testing.T, path, body string) (int, map[string]any) {
	return s.do(t, http.MethodPost, path, strings.NewReader(body), "application/json")
}

func TestFinderJourney(t *testing.T) {
	s := newTestServer(t, 87.5, 1<<20)

	status, _ := s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, sess := s.do(t, http.MethodGet, "/api/session", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, sess["signedIn"])

	status, sess = s.postJSON(t, "/api/session", `{"username":"  Dana "}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Dana", sess["username"])

	body, ct := multipartBody(t, pngBytes(t), map[string]string{"location": "Cafe", "description": "Black wallet"})
	status, created := s.do(t, http.MethodPost, "/api/postings", body, ct)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Dana", created["author"])
	assert.Equal(t, "https://cdn.example/lostfound/photo.png", created["imageurl"])
	id := created["id"].(string)

	resp, err := s.client.Get(s.URL + "/api/postings")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list, 2)
	assert.Equal(t, id, list[0]["id"])
	assert.Equal(t, "01/03/2024", list[1]["createdAt"])

	status, snap := s.do(t, http.MethodPost, "/api/postings/"+id+"/finder", nil, "")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, string(handoff.StateIdle), snap["state"])

	status, _ = s.do(t, http.MethodPost, "/api/finder/validate", nil, "")
	assert.Equal(t, http.StatusConflict, status)

	body, ct = multipartBody(t, pngBytes(t), nil)
	status, snap = s.do(t, http.MethodPost, "/api/finder/candidate", body, ct)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(handoff.StateCandidateSelected), snap["state"])
	assert.Equal(t, "found.png", snap["candidate"])

	status, snap = s.do(t, http.MethodPost, "/api/finder/validate?wait=1", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(handoff.StateMatched), snap["state"])
	assert.InDelta(t, 87.5, snap["similarity"], 0.001)
	assert.Equal(t, "same umbrella", snap["reason"])

	status, snap = s.do(t, http.MethodPost, "/api/finder/contact", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(handoff.StateContactForm), snap["state"])

	status, _ = s.postJSON(t, "/api/finder/submit", `{"name":"Sam","mobile":"","pickupLocation":"Desk"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, snap = s.postJSON(t, "/api/finder/submit", `{"name":"Sam","mobile":"555-0101","pickupLocation":"Desk"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(handoff.StateSubmitted), snap["state"])

	status, _ = s.do(t, http.MethodGet, "/api/postings/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodDelete, "/api/finder", nil, "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.do(t, http.MethodGet, "/api/finder", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRejectedCandidate(t *testing.T) {
	s := newTestServer(t, 12, 1<<20)

	status, _ := s.do(t, http.MethodPost, "/api/postings/1/finder", nil, "")
	require.Equal(t, http.StatusCreated, status)

	body, ct := multipartBody(t, pngBytes(t), nil)
	status, _ = s.do(t, http.MethodPost, "/api/finder/candidate", body, ct)
	require.Equal(t, http.StatusOK, status)

	status, snap := s.do(t, http.MethodPost, "/api/finder/validate?wait=1", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(handoff.StateRejected), snap["state"])
	assert.Equal(t, string(domain.DecisionNoMatch), snap["decision"])

	status, _ = s.do(t, http.MethodPost, "/api/finder/contact", nil, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 1, s.store.Len())
}

func TestCreatePosting_Validation(t *testing.T) {
	s := newTestServer(t, 90, 1<<20)

	body, ct := multipartBody(t, nil, map[string]string{"location": "Cafe"})
	status, out := s.do(t, http.MethodPost, "/api/postings", body, ct)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(domain.KindValidationFailure), out["kind"])

	body, ct = multipartBody(t, []byte("plain text"), map[string]string{"location": "Cafe", "description": "Keys"})
	status, _ = s.do(t, http.MethodPost, "/api/postings", body, ct)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 1, s.store.Len())
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, 90, 512)

	body, ct := multipartBody(t, bytes.Repeat([]byte{0x89}, 4096), map[string]string{"location": "Cafe", "description": "Keys"})
	status, _ := s.do(t, http.MethodPost, "/api/postings", body, ct)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFinderWithoutFlow(t *testing.T) {
	s := newTestServer(t, 90, 1<<20)

	status, _ := s.do(t, http.MethodGet, "/api/finder", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodPost, "/api/postings/missing/finder", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}
