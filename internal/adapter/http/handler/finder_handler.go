package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/handoff"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

// FlowManager keeps one handoff flow per session.
type FlowManager interface {
	Open(sessionID string, p domain.Posting) *handoff.Flow
	Get(sessionID string) (*handoff.Flow, error)
	Close(sessionID string) error
}

type PostingLookup interface {
	GetPosting(ctx context.Context, id string) (domain.Posting, error)
}

// FinderHandler drives the finder's side: attach a photo, validate it and
// hand over contact details.
type FinderHandler struct {
	flows     FlowManager
	postings  PostingLookup
	photos    PhotoReader
	maxUpload int64
	logger    *logger.Logger
}

func NewFinderHandler(flows FlowManager, postings PostingLookup, photos PhotoReader, maxUpload int64, log *logger.Logger) *FinderHandler {
	return &FinderHandler{flows: flows, postings: postings, photos: photos, maxUpload: maxUpload, logger: log.Named("finder_handler")}
}

type contactJSON struct {
	Name           string `json:"name"`
	Mobile         string `json:"mobile"`
	PickupLocation string `json:"pickupLocation"`
}

type noticeJSON struct {
	ID        string `json:"id"`
	Level     string `json:"level"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
	ExpiresAt string `json:"expiresAt"`
}

type snapshotResponse struct {
	State      string       `json:"state"`
	PostingID  string       `json:"postingId"`
	Candidate  string       `json:"candidate,omitempty"`
	Similarity *float64     `json:"similarity"`
	Reason     string       `json:"reason"`
	Decision   string       `json:"decision,omitempty"`
	Contact    *contactJSON `json:"contact"`
	Notices    []noticeJSON `json:"notices"`
}

func toSnapshotResponse(s handoff.Snapshot) snapshotResponse {
	out := snapshotResponse{
		State:      string(s.State),
		PostingID:  s.PostingID,
		Candidate:  s.Candidate,
		Similarity: s.Similarity,
		Reason:     s.Reason,
		Decision:   string(s.Decision),
		Notices:    make([]noticeJSON, 0, len(s.Notices)),
	}
	if s.Contact != nil {
		out.Contact = &contactJSON{Name: s.Contact.Name, Mobile: s.Contact.Mobile, PickupLocation: s.Contact.PickupLocation}
	}
	for _, n := range s.Notices {
		out.Notices = append(out.Notices, noticeJSON{
			ID:        n.ID,
			Level:     string(n.Level),
			Kind:      string(n.Kind),
			Message:   n.Message,
			ExpiresAt: n.ExpiresAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

// flow resolves the caller's flow or writes the error.
func (h *FinderHandler) flow(w http.ResponseWriter, r *http.Request) (*handoff.Flow, bool) {
	id, err := identityFrom(r)
	if err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	f, err := h.flows.Get(id.SessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	return f, true
}

func (h *FinderHandler) writeSnapshot(w http.ResponseWriter, status int, f *handoff.Flow) {
	writeJSON(w, h.logger, status, toSnapshotResponse(f.Snapshot()))
}

func (h *FinderHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	id, err := identityFrom(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	p, err := h.postings.GetPosting(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	f := h.flows.Open(id.SessionID, p)
	h.writeSnapshot(w, http.StatusCreated, f)
}

func (h *FinderHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	h.writeSnapshot(w, http.StatusOK, f)
}

func (h *FinderHandler) HandleCandidate(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	form, err := parseMultipart(w, r, h.maxUpload)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer removeMultipart(form, h.logger)

	fh := firstFile(form, "photo")
	if fh == nil {
		writeError(w, h.logger, fmt.Errorf("%w: photo is required", domain.ErrValidationFailure))
		return
	}
	img, err := h.photos.FromMultipart(fh)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := f.AttachCandidate(img); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, f)
}

// HandleValidate starts scoring. With ?wait=1 the response is held until the
// attempt settles or the client goes away.
func (h *FinderHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	done, err := f.Validate()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if r.URL.Query().Get("wait") != "1" {
		h.writeSnapshot(w, http.StatusAccepted, f)
		return
	}
	select {
	case <-done:
		h.writeSnapshot(w, http.StatusOK, f)
	case <-r.Context().Done():
	}
}

func (h *FinderHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	if err := f.ProceedToContact(); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, f)
}

func (h *FinderHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	if err := f.BackToMatch(); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, f)
}

func (h *FinderHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req contactJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body: %w", domain.ErrValidationFailure, err))
		return
	}
	err := f.Submit(r.Context(), domain.FinderContact{Name: req.Name, Mobile: req.Mobile, PickupLocation: req.PickupLocation})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, f)
}

func (h *FinderHandler) HandleDismissNotice(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	f.Dismiss(chi.URLParam(r, "noticeID"))
	h.writeSnapshot(w, http.StatusOK, f)
}

func (h *FinderHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	id, err := identityFrom(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.flows.Close(id.SessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
