// Package router is the message bus between the privileged background
// context and the page context. Each trigger gets exactly one terminal
// message (displayResults or displayError), delivered asynchronously after
// the check resolves.
package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/ppiankov/veracity/internal/history"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/segment"
	"github.com/ppiankov/veracity/internal/session"
)

// Action tags a protocol message
type Action string

const (
	// Inbound
	ActionFactCheck    Action = "factCheck"    // User invoked "fact check this" on a selection
	ActionFactCheckAPI Action = "factCheckAPI" // Page context relays the selection for checking

	// Outbound
	ActionLoading        Action = "loading"
	ActionDisplayResults Action = "displayResults"
	ActionDisplayError   Action = "displayError"
)

// Message is the tagged request/response envelope crossing the context
// boundary. Control flow is this explicit protocol, never shared state.
type Message struct {
	Action  Action          `json:"action"`
	Text    string          `json:"text,omitempty"`
	Results []model.Verdict `json:"results,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Origin is the page context that triggered a check. Responses are matched
// by origin identity, not by request token: if one origin races two
// triggers, the last terminal message delivered wins in its UI.
type Origin interface {
	ID() string
	Deliver(msg Message)
}

// Checker resolves a batch of sentences to verdicts. *check.Client
// satisfies this.
type Checker interface {
	Check(ctx context.Context, sentences []string) ([]model.Verdict, error)
}

// Router coordinates triggers. It does not serialize or cancel in-flight
// checks; every trigger runs independently to completion.
type Router struct {
	checker Checker
	history *history.Store
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a router. history may be nil when persistence is disabled.
func New(checker Checker, store *history.Store, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		checker: checker,
		history: store,
		logger:  logger,
		now:     time.Now,
	}
}

// Handle dispatches an inbound protocol message for the given origin and
// session. Unknown actions are ignored.
func (r *Router) Handle(ctx context.Context, origin Origin, sess *session.Cache, msg Message) {
	switch msg.Action {
	case ActionFactCheck, ActionFactCheckAPI:
		r.Trigger(ctx, origin, sess, msg.Text)
	}
}

// Trigger starts one check for the origin's selected text. It immediately
// signals loading, then resolves the check in its own goroutine and
// delivers exactly one terminal message.
func (r *Router) Trigger(ctx context.Context, origin Origin, sess *session.Cache, text string) {
	origin.Deliver(Message{Action: ActionLoading})

	go r.resolve(ctx, origin, sess, text)
}

func (r *Router) resolve(ctx context.Context, origin Origin, sess *session.Cache, text string) {
	cleaned := segment.CleanText(text)
	sentences := segment.Split(cleaned)
	unknown := sess.FilterUnknown(sentences)

	if len(unknown) > 0 {
		verdicts, err := r.checker.Check(ctx, unknown)
		if err != nil {
			origin.Deliver(Message{
				Action: ActionDisplayError,
				Error:  err.Error(),
			})
			return
		}
		sess.InsertAll(verdicts)
	}

	results := r.collect(sess, sentences)
	r.persist(origin, cleaned, results)

	origin.Deliver(Message{
		Action:  ActionDisplayResults,
		Results: results,
	})
}

// collect gathers the cached verdicts for the triggering text, in sentence
// order, one per distinct sentence.
func (r *Router) collect(sess *session.Cache, sentences []string) []model.Verdict {
	var results []model.Verdict
	seen := make(map[string]bool)

	for _, sentence := range sentences {
		key := session.Normalize(sentence)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		if v, ok := sess.Lookup(sentence); ok {
			results = append(results, v)
		}
	}
	return results
}

// persist appends the check to history. Only the first verdict is stored.
// Persistence failures are logged and swallowed: they never block delivery
// of the terminal message.
func (r *Router) persist(origin Origin, text string, results []model.Verdict) {
	if r.history == nil || len(results) == 0 {
		return
	}

	err := r.history.Append(history.Entry{
		Text:      text,
		Result:    results[0],
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		r.logger.Error("persist check", "origin", origin.ID(), "err", err)
	}
}
