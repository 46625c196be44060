package router

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/veracity/internal/check"
	"github.com/ppiankov/veracity/internal/history"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/session"
)

// fakeOrigin records delivered messages and signals when a terminal one
// arrives.
type fakeOrigin struct {
	id       string
	messages chan Message
}

func newFakeOrigin(id string) *fakeOrigin {
	return &fakeOrigin{id: id, messages: make(chan Message, 16)}
}

func (o *fakeOrigin) ID() string          { return o.id }
func (o *fakeOrigin) Deliver(msg Message) { o.messages <- msg }

// waitTerminal drains messages until a terminal action arrives, returning
// the full sequence.
func (o *fakeOrigin) waitTerminal(t *testing.T) []Message {
	t.Helper()
	var got []Message
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-o.messages:
			got = append(got, msg)
			if msg.Action == ActionDisplayResults || msg.Action == ActionDisplayError {
				return got
			}
		case <-timeout:
			t.Fatalf("Timed out waiting for terminal message, got %v", got)
		}
	}
}

type fakeChecker struct {
	calls    int64
	verdicts []model.Verdict
	err      error
}

func (c *fakeChecker) Check(ctx context.Context, sentences []string) ([]model.Verdict, error) {
	atomic.AddInt64(&c.calls, 1)
	if c.err != nil {
		return nil, c.err
	}
	if c.verdicts != nil {
		return c.verdicts, nil
	}
	var out []model.Verdict
	for _, s := range sentences {
		out = append(out, model.Verdict{Sentence: s, Rating: model.RatingTrue, Severity: model.SeverityLow})
	}
	return out, nil
}

func newTestHistory(t *testing.T) *history.Store {
	t.Helper()
	return history.NewStore(filepath.Join(t.TempDir(), "history.json"), 0)
}

func TestTrigger_SuccessDeliversLoadingThenResults(t *testing.T) {
	checker := &fakeChecker{}
	store := newTestHistory(t)
	r := New(checker, store, nil)
	origin := newFakeOrigin("tab-1")
	sess := session.NewCache()

	r.Trigger(context.Background(), origin, sess, "The sky is blue. Water is dry.")
	got := origin.waitTerminal(t)

	if got[0].Action != ActionLoading {
		t.Errorf("Expected loading signal first, got %q", got[0].Action)
	}
	last := got[len(got)-1]
	if last.Action != ActionDisplayResults {
		t.Fatalf("Expected displayResults, got %q", last.Action)
	}
	if len(last.Results) != 2 {
		t.Errorf("Expected 2 verdicts, got %d", len(last.Results))
	}

	// Exactly one terminal message, nothing after it
	select {
	case extra := <-origin.messages:
		t.Errorf("Unexpected extra message after terminal: %v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTrigger_PersistsFirstVerdictOnly(t *testing.T) {
	checker := &fakeChecker{}
	store := newTestHistory(t)
	r := New(checker, store, nil)
	origin := newFakeOrigin("tab-1")

	r.Trigger(context.Background(), origin, session.NewCache(), "First claim. Second claim.")
	origin.waitTerminal(t)

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(entries))
	}
	if entries[0].Result.Sentence != "First claim." {
		t.Errorf("Expected only the first verdict persisted, got %q", entries[0].Result.Sentence)
	}
	if entries[0].Text != "First claim. Second claim." {
		t.Errorf("Expected full text persisted, got %q", entries[0].Text)
	}
}

func TestTrigger_FailureDeliversDisplayError(t *testing.T) {
	checker := &fakeChecker{err: &check.Error{Kind: check.KindUnauthorized, Status: 401, Message: "provide a valid credential."}}
	store := newTestHistory(t)
	r := New(checker, store, nil)
	origin := newFakeOrigin("tab-1")

	r.Trigger(context.Background(), origin, session.NewCache(), "Some claim.")
	got := origin.waitTerminal(t)

	last := got[len(got)-1]
	if last.Action != ActionDisplayError {
		t.Fatalf("Expected displayError, got %q", last.Action)
	}
	if last.Error != "provide a valid credential." {
		t.Errorf("Expected user-safe message, got %q", last.Error)
	}

	entries, _ := store.List()
	if len(entries) != 0 {
		t.Errorf("Expected no history entry on failure, got %d", len(entries))
	}
}

func TestTrigger_FullyCachedSkipsNetwork(t *testing.T) {
	checker := &fakeChecker{}
	r := New(checker, newTestHistory(t), nil)
	sess := session.NewCache()

	origin := newFakeOrigin("tab-1")
	r.Trigger(context.Background(), origin, sess, "A known claim.")
	origin.waitTerminal(t)

	if atomic.LoadInt64(&checker.calls) != 1 {
		t.Fatalf("Expected 1 check call, got %d", checker.calls)
	}

	// Same text again: everything is cached, no second request
	origin2 := newFakeOrigin("tab-1")
	r.Trigger(context.Background(), origin2, sess, "A known claim.")
	got := origin2.waitTerminal(t)

	if atomic.LoadInt64(&checker.calls) != 1 {
		t.Errorf("Expected cached sentences not re-requested, got %d calls", checker.calls)
	}
	last := got[len(got)-1]
	if last.Action != ActionDisplayResults || len(last.Results) != 1 {
		t.Errorf("Expected cached results delivered, got %v", last)
	}
}

func TestTrigger_HistoryFailureStillDeliversResults(t *testing.T) {
	// Point the store somewhere unwritable: the history dir path is a file.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	store := history.NewStore(filepath.Join(blocked, "history.json"), 0)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	r := New(&fakeChecker{}, store, logger)
	origin := newFakeOrigin("tab-1")

	r.Trigger(context.Background(), origin, session.NewCache(), "A claim.")
	got := origin.waitTerminal(t)

	last := got[len(got)-1]
	if last.Action != ActionDisplayResults {
		t.Errorf("Expected results delivered despite persistence failure, got %q", last.Action)
	}
}

func TestHandle_DispatchesBothInboundActions(t *testing.T) {
	for _, action := range []Action{ActionFactCheck, ActionFactCheckAPI} {
		checker := &fakeChecker{}
		r := New(checker, newTestHistory(t), nil)
		origin := newFakeOrigin("tab-1")

		r.Handle(context.Background(), origin, session.NewCache(), Message{Action: action, Text: "A claim."})
		got := origin.waitTerminal(t)

		if got[len(got)-1].Action != ActionDisplayResults {
			t.Errorf("Action %q: expected displayResults, got %q", action, got[len(got)-1].Action)
		}
	}
}

func TestHandle_IgnoresUnknownAction(t *testing.T) {
	r := New(&fakeChecker{}, newTestHistory(t), nil)
	origin := newFakeOrigin("tab-1")

	r.Handle(context.Background(), origin, session.NewCache(), Message{Action: "displayResults"})

	select {
	case msg := <-origin.messages:
		t.Errorf("Expected no message for outbound action, got %v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTrigger_ConcurrentTriggersResolveIndependently(t *testing.T) {
	checker := &fakeChecker{}
	r := New(checker, newTestHistory(t), nil)

	a := newFakeOrigin("tab-a")
	b := newFakeOrigin("tab-b")

	r.Trigger(context.Background(), a, session.NewCache(), "Claim from a.")
	r.Trigger(context.Background(), b, session.NewCache(), "Claim from b.")

	gotA := a.waitTerminal(t)
	gotB := b.waitTerminal(t)

	if gotA[len(gotA)-1].Results[0].Sentence != "Claim from a." {
		t.Errorf("Origin a got wrong results: %v", gotA)
	}
	if gotB[len(gotB)-1].Results[0].Sentence != "Claim from b." {
		t.Errorf("Origin b got wrong results: %v", gotB)
	}
	if strings.TrimSpace(gotA[len(gotA)-1].Error) != "" {
		t.Errorf("Unexpected error for origin a")
	}
}
