package triage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
)

// ExportFilename is the download name for the exported session document.
const ExportFilename = "medai_sessions.json"

// Notifier delivers a completed session to an external channel.
type Notifier interface {
	Send(ctx context.Context, s *Session) error
}

// Service is the business boundary for triage operations. It owns session
// creation, the bounded history, export, and notification dispatch.
type Service struct {
	store    Store
	engine   *Engine
	logger   log.Logger
	metrics  *Metrics
	notifier Notifier
}

// NewService creates a new triage service. metrics and notifier may be nil.
func NewService(store Store, engine *Engine, logger log.Logger, metrics *Metrics, notifier Notifier) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		engine:   engine,
		logger:   logger,
		metrics:  metrics,
		notifier: notifier,
	}
}

// Submit evaluates a symptom report and records the resulting session.
func (s *Service) Submit(ctx context.Context, in *SymptomInput) (*Session, error) {
	result := s.engine.Evaluate(ctx, in)

	sess := &Session{
		ID:     ulid.Make().String(),
		Input:  *in,
		Result: *result,
	}

	if err := s.store.Add(ctx, sess); err != nil {
		s.countSubmit("store_error")
		return nil, fmt.Errorf("add session: %w", err)
	}
	s.countSubmit("ok")
	s.updateStoredGauge(ctx)

	s.logger.Info(ctx, "session recorded",
		"session_id", sess.ID,
		"urgency", sess.Result.Urgency,
		"confidence", sess.Result.Confidence,
	)

	// Notify out-of-band for high-urgency results. Best effort; delivery
	// failures never surface to the caller.
	if s.notifier != nil && sess.Result.Urgency == UrgencyHigh {
		go s.notify(context.WithoutCancel(ctx), sess)
	}

	return sess, nil
}

// Get retrieves a session by ID.
func (s *Service) Get(ctx context.Context, id string) (*Session, bool, error) {
	return s.store.Get(ctx, id)
}

// List returns the session history, newest first.
func (s *Service) List(ctx context.Context) ([]Session, error) {
	return s.store.List(ctx)
}

// Delete removes a session by ID. Absent IDs are a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.updateStoredGauge(ctx)
	return nil
}

// Clear empties the history and removes persisted state.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	if s.metrics != nil {
		s.metrics.SessionsStored.Set(0)
	}
	return nil
}

// Export renders the full history as an indented JSON array. Pure read.
// An empty history exports as [].
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []Session{}
	}
	doc, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sessions: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ExportsTotal.Inc()
	}
	return doc, nil
}

func (s *Service) notify(ctx context.Context, sess *Session) {
	if err := s.notifier.Send(ctx, sess); err != nil {
		s.logger.Error(ctx, err, "notification failed", "session_id", sess.ID)
		return
	}
	s.logger.Info(ctx, "notification sent", "session_id", sess.ID, "urgency", sess.Result.Urgency)
}

func (s *Service) countSubmit(outcome string) {
	if s.metrics != nil {
		s.metrics.SubmitsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) updateStoredGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return
	}
	s.metrics.SessionsStored.Set(float64(n))
}
