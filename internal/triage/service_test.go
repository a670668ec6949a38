package triage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// mockStore implements Store for testing.
type mockStore struct {
	mu       sync.Mutex
	sessions []Session
	addErr   error
	listErr  error
}

func (m *mockStore) Add(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.sessions = append([]Session{*s}, m.sessions...)
	return nil
}

func (m *mockStore) Get(_ context.Context, id string) (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			cp := m.sessions[i]
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (m *mockStore) List(_ context.Context) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Session, len(m.sessions))
	copy(out, m.sessions)
	return out, nil
}

func (m *mockStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions), nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = nil
	return nil
}

// mockNotifier records sent sessions and signals on delivery.
type mockNotifier struct {
	mu   sync.Mutex
	sent []*Session
	ch   chan struct{}
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{ch: make(chan struct{}, 8)}
}

func (m *mockNotifier) Send(_ context.Context, s *Session) error {
	m.mu.Lock()
	m.sent = append(m.sent, s)
	m.mu.Unlock()
	m.ch <- struct{}{}
	return nil
}

func newTestService(store Store, notifier Notifier) *Service {
	return NewService(store, newTestEngine(), log.Nop(), nil, notifier)
}

func TestSubmit_RecordsSession(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	svc := newTestService(store, nil)

	sess, err := svc.Submit(context.Background(), &SymptomInput{Text: "fever and cough"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sess.ID == "" {
		t.Error("expected a session ID")
	}
	if sess.Result.Urgency != UrgencyModerate {
		t.Errorf("urgency = %q, want %q", sess.Result.Urgency, UrgencyModerate)
	}

	got, ok, err := svc.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected recorded session to be found")
	}
	if got.Input.Text != "fever and cough" {
		t.Errorf("input text = %q, want %q", got.Input.Text, "fever and cough")
	}
}

func TestSubmit_IDsAreUniqueAndSortable(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	svc := newTestService(store, nil)

	var prev string
	for range 10 {
		sess, err := svc.Submit(context.Background(), &SymptomInput{Text: "headache"})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if sess.ID == prev {
			t.Fatalf("duplicate session ID %q", sess.ID)
		}
		if prev != "" && sess.ID < prev {
			t.Errorf("IDs not monotonically increasing: %q then %q", prev, sess.ID)
		}
		prev = sess.ID
	}
}

func TestSubmit_StoreError(t *testing.T) {
	t.Parallel()

	store := &mockStore{addErr: errors.New("disk full")}
	svc := newTestService(store, nil)

	_, err := svc.Submit(context.Background(), &SymptomInput{Text: "headache"})
	if err == nil {
		t.Fatal("expected error when store.Add fails")
	}
}

func TestSubmit_NotifiesOnHighUrgency(t *testing.T) {
	t.Parallel()

	notifier := newMockNotifier()
	svc := newTestService(&mockStore{}, notifier)

	sess, err := svc.Submit(context.Background(), &SymptomInput{Text: "crushing chest pain"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-notifier.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.sent))
	}
	if notifier.sent[0].ID != sess.ID {
		t.Errorf("notified session = %q, want %q", notifier.sent[0].ID, sess.ID)
	}
}

func TestSubmit_NoNotifyBelowHigh(t *testing.T) {
	t.Parallel()

	notifier := newMockNotifier()
	svc := newTestService(&mockStore{}, notifier)

	if _, err := svc.Submit(context.Background(), &SymptomInput{Text: "mild headache"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-notifier.ch:
		t.Fatal("low urgency should not notify")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDelete_Idempotent(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	svc := newTestService(store, nil)

	sess, err := svc.Submit(context.Background(), &SymptomInput{Text: "headache"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := svc.Delete(context.Background(), sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), sess.ID); err != nil {
		t.Fatalf("second Delete should be a no-op, got: %v", err)
	}
	if err := svc.Delete(context.Background(), "no-such-id"); err != nil {
		t.Fatalf("Delete of unknown ID should be a no-op, got: %v", err)
	}
}

func TestClear_EmptiesHistory(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	svc := newTestService(store, nil)

	for range 3 {
		if _, err := svc.Submit(context.Background(), &SymptomInput{Text: "headache"}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	if err := svc.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	sessions, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions after clear = %d, want 0", len(sessions))
	}
}

func TestExport_RoundTrip(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	svc := newTestService(store, nil)

	want := make([]string, 0, 3)
	for _, text := range []string{"fever", "chest pain", "vomiting"} {
		sess, err := svc.Submit(context.Background(), &SymptomInput{Text: text})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		want = append([]string{sess.ID}, want...)
	}

	doc, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var got []Session
	if err := json.Unmarshal(doc, &got); err != nil {
		t.Fatalf("exported document is not valid JSON: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("exported sessions = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("export[%d].ID = %q, want %q (newest first)", i, got[i].ID, id)
		}
	}

	// Export must not mutate the store.
	sessions, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("sessions after export = %d, want 3", len(sessions))
	}
}

func TestExport_EmptyHistory(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockStore{}, nil)

	doc, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if string(doc) != "[]" {
		t.Errorf("empty export = %q, want []", string(doc))
	}
}
