package check

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/util"
)

// LimitNotifier is invoked once per rate-limited response so the UI layer
// can surface a "limit reached" notice. The error is still returned; the
// notifier is a side channel, not a replacement.
type LimitNotifier func()

// Client owns the round trip to the checking service. It issues exactly one
// POST per Check call and classifies the response by status code. Dedup of
// already-answered sentences belongs to the session cache above it, not
// here: identical calls produce independent requests.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	userAgent  string
	maxBytes   int64
	onLimit    LimitNotifier
}

// Options configures a Client
type Options struct {
	Endpoint   string
	APIKey     string // Sent as x-api-key when non-empty
	UserAgent  string
	Timeout    time.Duration
	MaxBytes   int64
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
	OnLimit    LimitNotifier
}

// NewClient creates a check client for the given endpoint
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 2_000_000
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		endpoint:  opts.Endpoint,
		apiKey:    opts.APIKey,
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		onLimit:   opts.OnLimit,
	}
}

type checkRequest struct {
	Text string `json:"text"`
}

// Check sends the not-yet-cached sentences to the checking service and
// returns their verdicts. On failure the returned error is always a
// *check.Error.
func (c *Client) Check(ctx context.Context, sentences []string) ([]model.Verdict, error) {
	if len(sentences) == 0 {
		return nil, &Error{
			Kind:    KindBadRequest,
			Message: "the server could not understand the request.",
		}
	}

	payload, err := json.Marshal(checkRequest{Text: strings.Join(sentences, " ")})
	if err != nil {
		return nil, &Error{
			Kind:    KindBadRequest,
			Message: "the server could not understand the request.",
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{
			Kind:    KindNetworkError,
			Message: "could not reach the checking service. Please try again.",
		}
	}

	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{
			Kind:    KindNetworkError,
			Message: "could not reach the checking service. Please try again.",
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		cerr := classify(resp.StatusCode)
		if cerr.Kind == KindRateLimited && c.onLimit != nil {
			c.onLimit()
		}
		return nil, cerr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, &Error{
			Kind:    KindNetworkError,
			Message: "could not reach the checking service. Please try again.",
		}
	}

	var verdicts []model.Verdict
	if err := json.Unmarshal(body, &verdicts); err != nil {
		return nil, &Error{
			Kind:    KindServerError,
			Status:  resp.StatusCode,
			Message: "the server returned an unreadable response.",
		}
	}

	return verdicts, nil
}
