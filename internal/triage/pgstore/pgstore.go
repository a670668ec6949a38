// Package pgstore provides a PostgreSQL implementation of triage.Store.
// Insertion order is tracked by a sequence column so the history reflects
// recency of insertion, not result timestamps.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/medai/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/medai/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists the session history in PostgreSQL, capped at limit rows.
type Store struct {
	pool  *pgxpool.Pool
	limit int
}

// New applies the schema and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool, limit int) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool, limit: limit}, nil
}

const sessionColumns = `id, symptom_text, device, urgency, explanation, confidence, possible, created_at`

// Add inserts a session and trims the table to the newest limit rows.
func (s *Store) Add(ctx context.Context, sess *triage.Session) error {
	ctx, span := tracer.Start(ctx, "pgstore.Add", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	deviceJSON, explanationJSON, possibleJSON, err := marshalSessionJSON(sess)
	if err != nil {
		return spanErr(span, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return spanErr(span, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is harmless

	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		sess.ID, sess.Input.Text, deviceJSON, string(sess.Result.Urgency),
		explanationJSON, sess.Result.Confidence, possibleJSON, sess.Result.CreatedAt,
	)
	if err != nil {
		return spanErr(span, fmt.Errorf("insert session: %w", err))
	}

	// Evict everything older than the newest limit rows.
	_, err = tx.Exec(ctx,
		`DELETE FROM sessions WHERE seq NOT IN (SELECT seq FROM sessions ORDER BY seq DESC LIMIT $1)`,
		s.limit,
	)
	if err != nil {
		return spanErr(span, fmt.Errorf("trim sessions: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return spanErr(span, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Get retrieves a session by ID.
func (s *Store) Get(ctx context.Context, id string) (*triage.Session, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	row := s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, spanErr(span, err)
	}
	return sess, true, nil
}

// List returns the history, newest insertion first.
func (s *Store) List(ctx context.Context) ([]triage.Session, error) {
	ctx, span := tracer.Start(ctx, "pgstore.List", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	rows, err := s.pool.Query(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY seq DESC`)
	if err != nil {
		return nil, spanErr(span, fmt.Errorf("query sessions: %w", err))
	}
	defer rows.Close()

	var sessions []triage.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, spanErr(span, err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, spanErr(span, fmt.Errorf("iterate sessions: %w", err))
	}
	return sessions, nil
}

// Count returns the number of stored sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Count", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, spanErr(span, fmt.Errorf("count sessions: %w", err))
	}
	return n, nil
}

// Delete removes a session by ID. Absent IDs are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "pgstore.Delete", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "DELETE"),
	))
	defer span.End()

	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return spanErr(span, fmt.Errorf("delete session: %w", err))
	}
	return nil
}

// Clear removes all sessions.
func (s *Store) Clear(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "pgstore.Clear", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "DELETE"),
	))
	defer span.End()

	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions`); err != nil {
		return spanErr(span, fmt.Errorf("clear sessions: %w", err))
	}
	return nil
}

func marshalSessionJSON(sess *triage.Session) (device, explanation, possible []byte, err error) {
	if sess.Input.Device != nil {
		device, err = json.Marshal(sess.Input.Device)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal device: %w", err)
		}
	}
	explanation, err = json.Marshal(sess.Result.Explanation)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal explanation: %w", err)
	}
	possible, err = json.Marshal(sess.Result.Possible)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal possible: %w", err)
	}
	return device, explanation, possible, nil
}

func scanSession(row pgx.Row) (*triage.Session, error) {
	var (
		sess            triage.Session
		urgency         string
		deviceJSON      []byte
		explanationJSON []byte
		possibleJSON    []byte
	)
	err := row.Scan(&sess.ID, &sess.Input.Text, &deviceJSON, &urgency,
		&explanationJSON, &sess.Result.Confidence, &possibleJSON, &sess.Result.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	sess.Result.Urgency = triage.Urgency(urgency)
	if len(deviceJSON) > 0 {
		var d triage.DeviceReading
		if err := json.Unmarshal(deviceJSON, &d); err != nil {
			return nil, fmt.Errorf("unmarshal device: %w", err)
		}
		sess.Input.Device = &d
	}
	if err := json.Unmarshal(explanationJSON, &sess.Result.Explanation); err != nil {
		return nil, fmt.Errorf("unmarshal explanation: %w", err)
	}
	if err := json.Unmarshal(possibleJSON, &sess.Result.Possible); err != nil {
		return nil, fmt.Errorf("unmarshal possible: %w", err)
	}
	return &sess, nil
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
