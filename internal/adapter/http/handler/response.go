package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/identity"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string      `json:"error"`
	Kind  domain.Kind `json:"kind"`
}

func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", zap.Error(err))
	}
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidationFailure:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindNetworkFailure, domain.KindAccessDenied, domain.KindProviderUnavailable,
		domain.KindMalformedResponse, domain.KindModelLoadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.String("kind", string(kind)), zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.String("kind", string(kind)), zap.Error(err))
	}
	writeJSON(w, log, status, errorResponse{Error: err.Error(), Kind: kind})
}

var errNoIdentity = errors.New("request has no session identity")

func identityFrom(r *http.Request) (identity.Identity, error) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		return identity.Identity{}, errNoIdentity
	}
	return id, nil
}

type postingResponse struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	ImageURL    string `json:"imageurl"`
	Location    string `json:"location"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

func toPostingResponse(p domain.Posting) postingResponse {
	return postingResponse{
		ID:          p.ID,
		Author:      p.Author,
		ImageURL:    p.ImageURL,
		Location:    p.Location,
		Description: p.Description,
		CreatedAt:   p.DisplayDate(),
	}
}
