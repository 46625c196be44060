// Package server implements the checking service the coordinator talks to:
// an anonymous rate-limited endpoint, a credentialed endpoint, and a
// per-sentence verdict cache in front of the model.
package server

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/ppiankov/veracity/internal/cache"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/segment"
)

// Handler implements all HTTP endpoints
type Handler struct {
	checker      Checker
	verdicts     *cache.Verdicts // nil when caching is disabled
	apiKeys      map[string]bool
	freeLimiter  *Limiter
	memberLimit  *Limiter
	maxSentences int
}

// Options configures a Handler
type Options struct {
	Checker      Checker
	Verdicts     *cache.Verdicts
	APIKeys      []string
	FreeRate     float64
	FreeBurst    int
	MemberRate   float64
	MemberBurst  int
	MaxSentences int
}

// New creates a Handler
func New(opts Options) *Handler {
	keys := make(map[string]bool, len(opts.APIKeys))
	for _, k := range opts.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	maxSentences := opts.MaxSentences
	if maxSentences <= 0 {
		maxSentences = 50
	}

	return &Handler{
		checker:      opts.Checker,
		verdicts:     opts.Verdicts,
		apiKeys:      keys,
		freeLimiter:  NewLimiter(opts.FreeRate, opts.FreeBurst),
		memberLimit:  NewLimiter(opts.MemberRate, opts.MemberBurst),
		maxSentences: maxSentences,
	}
}

// Register mounts routes on the given mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /check-free", h.checkFree)
	mux.HandleFunc("POST /check", h.checkMember)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// checkFree serves anonymous clients under the free per-client quota
func (h *Handler) checkFree(w http.ResponseWriter, r *http.Request) {
	if !h.freeLimiter.Allow(clientKey(r)) {
		writeErr(w, http.StatusTooManyRequests, "free check limit reached; sign in for a higher quota")
		return
	}
	h.check(w, r)
}

// checkMember serves credentialed clients at the member quota
func (h *Handler) checkMember(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("x-api-key")
	if key == "" || !h.apiKeys[key] {
		writeErr(w, http.StatusUnauthorized, "missing or invalid API key")
		return
	}
	if !h.memberLimit.Allow(key) {
		writeErr(w, http.StatusTooManyRequests, "check limit reached; try again shortly")
		return
	}
	h.check(w, r)
}

type checkRequest struct {
	Text string `json:"text"`
}

// check is the shared checking path: validate input, split into sentences,
// answer from the verdict cache, send only misses to the model.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, `invalid input: provide a "text" field`)
		return
	}
	defer func() { _ = r.Body.Close() }()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeErr(w, http.StatusBadRequest, `invalid input: "text" must be a non-empty string`)
		return
	}

	sentences := segment.Split(segment.CleanText(text))
	if len(sentences) > h.maxSentences {
		sentences = sentences[:h.maxSentences]
	}

	results := make([]model.Verdict, 0, len(sentences))
	var misses []string
	seen := make(map[string]bool)
	cached := 0

	for _, sentence := range sentences {
		trimmed := strings.TrimSpace(sentence)
		key := strings.ToLower(trimmed)
		if trimmed == "" || seen[key] {
			continue
		}
		seen[key] = true

		if h.verdicts != nil {
			if v, found := h.verdicts.Get(trimmed); found {
				results = append(results, v)
				cached++
				continue
			}
		}
		misses = append(misses, trimmed)
	}

	if len(misses) > 0 {
		checked, err := h.checker.CheckSentences(r.Context(), misses)
		if err != nil {
			slog.Error("check sentences", "count", len(misses), "err", err)
			writeErr(w, http.StatusInternalServerError, "an unexpected error occurred while processing your request")
			return
		}

		for _, v := range checked {
			if h.verdicts != nil {
				if err := h.verdicts.Put(v); err != nil {
					slog.Warn("cache verdict", "err", err)
				}
			}
			results = append(results, v)
		}
	}

	slog.Info("check", "sentences", len(sentences), "cached", cached, "checked", len(misses))
	writeJSON(w, http.StatusOK, results)
}

// clientKey identifies an anonymous client by remote address
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
