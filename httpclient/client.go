package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hr-session/apierr"
	internalerrors "github.com/jrsteele09/go-hr-session/internal/errors"
	"github.com/jrsteele09/go-hr-session/internal/metrics"
	"github.com/jrsteele09/go-hr-session/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 1 << 20
	requestIDHeader = "X-Request-ID"
)

// TokenReader is the read side of the credential store.
type TokenReader interface {
	Read(ctx context.Context) (*token.Pair, error)
}

// Client sends JSON requests to the HR API. Every failure it returns is an
// *apierr.Error.
type Client struct {
	baseURL    string
	tokens     TokenReader
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client (transport, timeout, ...).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, tokens TokenReader, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrapf(internalerrors.ErrInvalidBaseURL, "[httpclient.New] %q", baseURL)
	}
	if tokens == nil {
		return nil, errors.New("[httpclient.New] token reader is required")
	}

	c := &Client{
		baseURL:    u.String(),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

// Do sends in (JSON encoded, if not nil) and decodes a 2xx body into out (if
// not nil). The bearer token is read from the credential store for this
// request only; with no stored token the Authorization header is left off.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	requestID := uuid.New().String()
	logger := c.logger.With().Str("method", method).Str("path", path).Str("request_id", requestID).Logger()

	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return c.fail(logger, err)
	}
	req.Header.Set(requestIDHeader, requestID)

	pair, err := c.tokens.Read(ctx)
	if err != nil {
		return c.fail(logger, errors.Wrap(err, "[Client.Do] read credentials"))
	}
	if pair != nil && pair.AccessToken != "" {
		pair.OAuth2().SetAuthHeader(req)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(logger, &apierr.TransportError{Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return c.fail(logger, &apierr.TransportError{Err: err})
	}
	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(started)).Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(logger, &apierr.ResponseError{StatusCode: resp.StatusCode, Body: body})
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return c.fail(logger, errors.Wrapf(internalerrors.ErrUndecodableReply, "[Client.Do] %v", err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.newRequest] encode request body")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.newRequest]")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// fail is the single point where raw failures become classified errors.
func (c *Client) fail(logger zerolog.Logger, err error) error {
	classified := apierr.New(err)
	c.metrics.RequestFailed(string(classified.Info.Code))
	logger.Warn().Err(err).Str("code", string(classified.Info.Code)).Msg("api request failed")
	return classified
}
