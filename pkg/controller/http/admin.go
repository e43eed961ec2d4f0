package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/verdant-lab/pythia/pkg/usecase"
	"github.com/verdant-lab/pythia/pkg/utils/async"
	"github.com/verdant-lab/pythia/pkg/utils/errutil"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

// adminKeyMiddleware guards admin routes with the X-Admin-Key header.
// Comparison is constant-time.
func adminKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-Admin-Key")
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				logging.From(r.Context()).Warn("unauthorized admin request",
					"path", r.URL.Path,
					"remote", r.RemoteAddr,
				)
				writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ingestHandler kicks off an ingestion run in the background and returns
// immediately with a run id for log correlation
func ingestHandler(uc *usecase.UseCases) http.HandlerFunc {
	type request struct {
		Refresh bool `json:"refresh"`
	}
	type response struct {
		RunID   string `json:"run_id"`
		Status  string `json:"status"`
		Refresh bool   `json:"refresh"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}

		runID := uuid.NewString()
		ctx := logging.With(r.Context(), logging.From(r.Context()).With("run_id", runID))
		logging.From(ctx).Info("ingestion run accepted", "refresh", req.Refresh)

		async.Dispatch(ctx, func(ctx context.Context) error {
			_, err := uc.Ingest(ctx, req.Refresh)
			return err
		})

		writeJSON(w, r, http.StatusAccepted, response{
			RunID:   runID,
			Status:  "accepted",
			Refresh: req.Refresh,
		})
	}
}

func statsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := uc.Stats(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, r, http.StatusOK, stats)
	}
}
