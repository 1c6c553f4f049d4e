package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/usecase"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PostingService is the listing side of the service.
type PostingService interface {
	CreatePosting(ctx context.Context, in usecase.CreatePostingInput) (domain.Posting, error)
	ListPostings(ctx context.Context) []domain.Posting
	GetPosting(ctx context.Context, id string) (domain.Posting, error)
}

// PhotoReader turns an uploaded multipart file into a normalized image.
type PhotoReader interface {
	FromMultipart(fh *multipart.FileHeader) (domain.Image, error)
}

type PostingHandler struct {
	postings  PostingService
	photos    PhotoReader
	maxUpload int64
	logger    *logger.Logger
}

func NewPostingHandler(postings PostingService, photos PhotoReader, maxUpload int64, log *logger.Logger) *PostingHandler {
	return &PostingHandler{postings: postings, photos: photos, maxUpload: maxUpload, logger: log.Named("posting_handler")}
}

func (h *PostingHandler) HandleListPostings(w http.ResponseWriter, r *http.Request) {
	ps := h.postings.ListPostings(r.Context())
	out := make([]postingResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPostingResponse(p))
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *PostingHandler) HandleGetPosting(w http.ResponseWriter, r *http.Request) {
	p, err := h.postings.GetPosting(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toPostingResponse(p))
}

func (h *PostingHandler) HandleCreatePosting(w http.ResponseWriter, r *http.Request) {
	id, err := identityFrom(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	form, err := parseMultipart(w, r, h.maxUpload)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer removeMultipart(form, h.logger)

	var photo domain.Image
	if fh := firstFile(form, "photo"); fh != nil {
		photo, err = h.photos.FromMultipart(fh)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	p, err := h.postings.CreatePosting(r.Context(), usecase.CreatePostingInput{
		Author:      id.Author(),
		Photo:       photo,
		Location:    r.FormValue("location"),
		Description: r.FormValue("description"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, toPostingResponse(p))
}

func parseMultipart(w http.ResponseWriter, r *http.Request, maxUpload int64) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
		return nil, fmt.Errorf("%w: multipart form: %w", domain.ErrValidationFailure, err)
	}
	return r.MultipartForm, nil
}

func removeMultipart(form *multipart.Form, log *logger.Logger) {
	if err := form.RemoveAll(); err != nil {
		log.Warn("Failed to remove multipart temp files", zap.Error(err))
	}
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if fhs := form.File[field]; len(fhs) > 0 {
		return fhs[0]
	}
	return nil
}
