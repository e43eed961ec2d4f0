package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/model/config"
	"github.com/verdant-lab/pythia/pkg/usecase"
	"github.com/verdant-lab/pythia/pkg/utils/errutil"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

type Server struct {
	router   *chi.Mux
	uc       *usecase.UseCases
	profile  *config.Profile
	adminKey string
}

type Options func(*Server)

// WithAdminKey enables the /api/admin routes, guarded by the X-Admin-Key
// header. Without a key the routes are not registered at all.
func WithAdminKey(key string) Options {
	return func(s *Server) {
		s.adminKey = key
	}
}

func WithProfile(profile *config.Profile) Options {
	return func(s *Server) {
		if profile != nil {
			s.profile = profile
		}
	}
}

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	if uc == nil {
		return nil, goerr.New("use cases are required")
	}

	r := chi.NewRouter()

	s := &Server{
		router:  r,
		uc:      uc,
		profile: config.DefaultProfile(""),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(s.uc))

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", chatHandler(s.uc))
		r.Post("/session", sessionHandler())
		r.Get("/config", configHandler(s.profile))

		if s.adminKey != "" {
			r.Route("/admin", func(r chi.Router) {
				r.Use(adminKeyMiddleware(s.adminKey))
				r.Post("/ingest", ingestHandler(s.uc))
				r.Get("/stats", statsHandler(s.uc))
			})
		}
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

// sessionHandler hands out fresh session identifiers for the chat widget
func sessionHandler() http.HandlerFunc {
	type response struct {
		SessionID string `json:"session_id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, response{SessionID: "sess_" + uuid.NewString()})
	}
}

// healthHandler reports index reachability and contents. An unreachable
// index yields 503 so load balancers can rotate the instance out.
func healthHandler(uc *usecase.UseCases) http.HandlerFunc {
	type index struct {
		Status  string `json:"status"`
		Chunks  int    `json:"chunks"`
		Sources int    `json:"sources"`
	}
	type response struct {
		Status string `json:"status"`
		Index  index  `json:"index"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := uc.Stats(r.Context())
		if err != nil {
			errutil.Handle(r.Context(), err, "health check failed")
			writeJSON(w, r, http.StatusServiceUnavailable, response{
				Status: "unhealthy",
				Index:  index{Status: "unreachable"},
			})
			return
		}

		resp := response{
			Status: "ok",
			Index: index{
				Status:  "healthy",
				Chunks:  stats.Chunks,
				Sources: len(stats.Sources),
			},
		}
		if stats.Chunks == 0 {
			resp.Status = "degraded"
			resp.Index.Status = "empty"
		}

		writeJSON(w, r, http.StatusOK, resp)
	}
}

// configHandler serves the public bootstrap settings the chat widget needs
func configHandler(profile *config.Profile) http.HandlerFunc {
	type response struct {
		BotName   string `json:"bot_name"`
		WelcomeNL string `json:"welcome_nl"`
		WelcomeEN string `json:"welcome_en"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, response{
			BotName:   profile.AssistantName,
			WelcomeNL: profile.WelcomeNL,
			WelcomeEN: profile.WelcomeEN,
		})
	}
}
