// Package api is the HTTP/JSON client for the Spiritual Journey remote store.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"journey-cli/internal/logging"
)

const tracerName = "journey-cli/internal/api"

// TokenSource supplies the bearer credential for authenticated calls.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource for a fixed credential.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client wraps http.Client with the remote store's routes.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
	Logger  *log.Logger
}

func New(baseURL string, timeout time.Duration, tokens TokenSource, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Tokens:  tokens,
		Logger:  logging.OrDiscard(logger),
	}
}

// WithTokens returns a shallow copy that authenticates with tokens.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	cp := *c
	cp.Tokens = tokens
	return &cp
}

type request struct {
	method string
	// route is the templated path used for span names ("/boards/{id}").
	route string
	path  string
	body  any
	// raw, when set, is sent as-is with contentType.
	raw         io.Reader
	contentType string
	out         any
}

func (c *Client) token() string {
	if c.Tokens == nil {
		return ""
	}
	return strings.TrimSpace(c.Tokens.Token())
}

func (c *Client) do(ctx context.Context, r request) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, r.method+" "+r.route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("http.route", r.route),
		),
	)
	start := time.Now()
	status := 0
	defer func() {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		c.logger().WithFields(log.Fields{
			"method":   r.method,
			"route":    r.route,
			"status":   status,
			"total_ms": float64(time.Since(start)) / float64(time.Millisecond),
		}).Debug("api.request")
	}()

	var body io.Reader
	contentType := r.contentType
	switch {
	case r.raw != nil:
		body = r.raw
	case r.body != nil:
		b, err := sonic.ConfigStd.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", r.route, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.BaseURL+r.path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &StatusError{
			Method: r.method,
			Path:   r.path,
			Status: resp.StatusCode,
			Detail: parseDetail(raw),
		}
	}
	if r.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformed, r.method, r.path, err)
	}
	return nil
}

func (c *Client) logger() *log.Logger {
	return logging.OrDiscard(c.Logger)
}

// parseDetail extracts the server message from {"detail": "..."} or {"detail": [{"msg": "..."}]}.
func parseDetail(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var env map[string]any
	if err := sonic.ConfigStd.Unmarshal(raw, &env); err != nil {
		return strings.TrimSpace(string(raw))
	}
	switch d := env["detail"].(type) {
	case string:
		return d
	case []any:
		msgs := make([]string, 0, len(d))
		for _, x := range d {
			m, ok := x.(map[string]any)
			if !ok {
				continue
			}
			if msg, ok := m["msg"].(string); ok && msg != "" {
				msgs = append(msgs, msg)
			}
		}
		if len(msgs) > 0 {
			return msgs[0]
		}
	case nil:
		if msg, ok := env["message"].(string); ok {
			return msg
		}
	}
	return strings.TrimSpace(string(raw))
}

// IsUnauthorized reports whether err is a 401 from the remote store.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
