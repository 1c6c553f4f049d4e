package router

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/identity"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Session *handler.SessionHandler
	Posting *handler.PostingHandler
	Finder  *handler.FinderHandler
}

type Options struct {
	Cookies        identity.Cookies
	AllowedOrigins []string
	// Metrics is optional.
	Metrics        *metrics.MetricsManager
}

func New(h Handlers, opts Options, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log.Named("http")))
	r.Use(chimw.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.HTTPMiddleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(opts.Cookies, log.Named("identity")))

		SetupSessionRoutes(r, h.Session)
		SetupPostingRoutes(r, h.Posting, h.Finder)
		SetupFinderRoutes(r, h.Finder)
	})
	return r
}

func SetupSessionRoutes(r chi.Router, h *handler.SessionHandler) {
	r.Get("/api/session", h.HandleGetSession)
	r.Post("/api/session", h.HandleSignIn)
	r.Delete("/api/session", h.HandleSignOut)
}

func SetupPostingRoutes(r chi.Router, h *handler.PostingHandler, f *handler.FinderHandler) {
	r.Get("/api/postings", h.HandleListPostings)
	r.Post("/api/postings", h.HandleCreatePosting)
	r.Get("/api/postings/{id}", h.HandleGetPosting)
	r.Post("/api/postings/{id}/finder", f.HandleOpen)
}

func SetupFinderRoutes(r chi.Router, h *handler.FinderHandler) {
	r.Route("/api/finder", func(r chi.Router) {
		r.Get("/", h.HandleSnapshot)
		r.Delete("/", h.HandleClose)
		r.Post("/candidate", h.HandleCandidate)
		r.Post("/validate", h.HandleValidate)
		r.Post("/contact", h.HandleContact)
		r.Post("/contact/back", h.HandleBack)
		r.Post("/submit", h.HandleSubmit)
		r.Delete("/notices/{noticeID}", h.HandleDismissNotice)
	})
}
