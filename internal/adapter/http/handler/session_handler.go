package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/identity"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

type SessionHandler struct {
	cookies identity.Cookies
	logger  *logger.Logger
}

func NewSessionHandler(cookies identity.Cookies, log *logger.Logger) *SessionHandler {
	return &SessionHandler{cookies: cookies, logger: log.Named("session_handler")}
}

type sessionResponse struct {
	Username string `json:"username"`
	SignedIn bool   `json:"signedIn"`
}

type signInRequest struct {
	Username string `json:"username"`
}

func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := identityFrom(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sessionResponse{Username: id.Username, SignedIn: id.SignedIn()})
}

func (h *SessionHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	id, err := identityFrom(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body: %w", domain.ErrValidationFailure, err))
		return
	}
	id, err = id.SignIn(req.Username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.cookies.Write(w, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("Signed in", zap.String("session_id", id.SessionID), zap.String("username", id.Username))
	writeJSON(w, h.logger, http.StatusOK, sessionResponse{Username: id.Username, SignedIn: true})
}

func (h *SessionHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	id, err := identityFrom(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	id = id.SignOut()
	if err := h.cookies.Write(w, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sessionResponse{})
}
