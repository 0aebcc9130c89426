package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	userAgent       = "crack/0.1"
	maxResponseSize = 8 << 20
)

// Options configures a Client. Zero values fall back to sensible defaults.
type Options struct {
	BaseURL           string
	Timeout           time.Duration // bound on a constrained query
	FallbackTimeout   time.Duration // bound on the unconstrained retry
	RequestsPerSecond float64
}

// Client talks to the Scryfall REST API.
// Random draws are never cached; only SetCards results are, by the caller.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	timeout         time.Duration
	fallbackTimeout time.Duration
	limiter         *rate.Limiter
	logger          *slog.Logger
}

func NewClient(httpClient *http.Client, opts Options, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.scryfall.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.FallbackTimeout <= 0 {
		opts.FallbackTimeout = 5 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		httpClient:      httpClient,
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		timeout:         opts.Timeout,
		fallbackTimeout: opts.FallbackTimeout,
		limiter:         rate.NewLimiter(limit, 1),
		logger:          logger,
	}
}

// Random issues a single constrained random-card query bounded by the
// request timeout. Any failure, including an error-shaped payload, is
// returned as an *APIError.
func (c *Client) Random(ctx context.Context, cons Constraints) (*Card, error) {
	return c.random(ctx, BuildQuery(cons), c.timeout)
}

// FetchConstrainedRandomCard returns a random card matching cons. When the
// constrained query fails it falls back once to an unconstrained random card
// with its own, shorter timeout. It returns nil when both attempts fail and
// never returns an error.
func (c *Client) FetchConstrainedRandomCard(ctx context.Context, cons Constraints) *Card {
	query := BuildQuery(cons)
	card, err := c.random(ctx, query, c.timeout)
	if err == nil {
		return card
	}
	c.logger.WarnContext(ctx, "constrained random card failed, falling back to any card",
		"query", query, "error", err)

	if ctx.Err() != nil {
		return nil
	}

	card, err = c.random(ctx, "", c.fallbackTimeout)
	if err != nil {
		c.logger.WarnContext(ctx, "fallback random card failed", "error", err)
		return nil
	}
	return card
}

func (c *Client) random(ctx context.Context, query string, timeout time.Duration) (*Card, error) {
	endpoint := c.baseURL + "/cards/random"
	if query != "" {
		endpoint += "?q=" + url.QueryEscape(query)
	}

	var card Card
	if err := c.get(ctx, endpoint, timeout, &card); err != nil {
		return nil, err
	}
	if card.Object != "card" {
		return nil, &APIError{Kind: KindNotACard, Message: fmt.Sprintf("unexpected object %q", card.Object)}
	}
	return &card, nil
}

// SetCards returns every print in a set, following pagination.
func (c *Client) SetCards(ctx context.Context, setCode string) ([]Card, error) {
	query := BuildQuery(Constraints{SetCode: setCode})
	next := c.baseURL + "/cards/search?unique=prints&order=set&q=" + url.QueryEscape(query)

	var cards []Card
	for next != "" {
		var page list
		if err := c.get(ctx, next, c.timeout, &page); err != nil {
			return nil, fmt.Errorf("failed to list set %s: %w", setCode, err)
		}
		cards = append(cards, page.Data...)

		next = ""
		if page.HasMore {
			next = page.NextPage
		}
	}

	if cards == nil {
		cards = []Card{}
	}
	return cards, nil
}

// get performs one rate-limited GET bounded by timeout and decodes the body
// into out. Error-shaped payloads and non-2xx statuses become *APIError.
func (c *Client) get(ctx context.Context, endpoint string, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return &APIError{Kind: KindRateLimit, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &APIError{Kind: KindTransport, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return classifyTransportError(err)
	}

	var probe errorObject
	if err := json.Unmarshal(body, &probe); err == nil && probe.Object == "error" {
		return &APIError{
			Kind:       KindProvider,
			StatusCode: resp.StatusCode,
			Code:       probe.Code,
			Message:    probe.Details,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Kind: KindStatus, StatusCode: resp.StatusCode, Message: truncate(string(body), 200)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Kind: KindDecode, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: KindTimeout, Err: err}
	}
	return &APIError{Kind: KindTransport, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
