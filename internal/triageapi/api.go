// Package triageapi exposes the triage service over HTTP.
package triageapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/medai/internal/capture"
	"github.com/linnemanlabs/medai/internal/device"
	"github.com/linnemanlabs/medai/internal/triage"
)

// TriageService defines the business operations triageapi needs.
type TriageService interface {
	Submit(ctx context.Context, in *triage.SymptomInput) (*triage.Session, error)
	Get(ctx context.Context, id string) (*triage.Session, bool, error)
	List(ctx context.Context) ([]triage.Session, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Export(ctx context.Context) ([]byte, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger      log.Logger
	svc         TriageService
	sim         *device.Simulator
	transcriber capture.Transcriber
}

// New creates a new API handler. A nil transcriber means the voice-capture
// capability is reported unavailable.
func New(logger log.Logger, svc TriageService, sim *device.Simulator, transcriber capture.Transcriber) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	if sim == nil {
		panic(xerrors.New("device simulator is required"))
	}
	if transcriber == nil {
		transcriber = capture.Unavailable{}
	}
	return &API{
		logger:      logger,
		svc:         svc,
		sim:         sim,
		transcriber: transcriber,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/triage", a.handleSubmit)
		r.Get("/sessions", a.handleListSessions)
		r.Delete("/sessions", a.handleClearSessions)
		r.Get("/sessions/export", a.handleExportSessions)
		r.Get("/sessions/{id}", a.handleGetSession)
		r.Delete("/sessions/{id}", a.handleDeleteSession)
		r.Post("/device/sample", a.handleDeviceSample)
		r.Post("/transcribe", a.handleTranscribe)
	})
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error(r.Context(), err, "failed to encode response")
	}
}
