// Package backend is the HTTP client for the Krishi REST backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/pkg/metrics"
	"github.com/krishisahayak/krishi/internal/pkg/telemetry"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5001/api"

var (
	// ErrUnavailable wraps transport failures: the backend could not be reached.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrInvalidResponse wraps a successful response whose body is not JSON.
	ErrInvalidResponse = errors.New("backend returned invalid JSON")
)

// RequestError is returned for every non-2xx response.
type RequestError struct {
	Op      string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "HTTP error! status: " + strconv.Itoa(e.Status)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the backend on behalf of one session. Calls are single-shot:
// there are no retries and deadlines come from the caller's context.
type Client struct {
	baseURL string
	http    *http.Client
	session *domain.AuthSession
}

var _ ports.Backend = (*Client)(nil)

// New creates a Client. A nil or unauthenticated session sends no
// Authorization header.
func New(cfg Config, session *domain.AuthSession) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: base, http: hc, session: session}
}

// Factory returns a ports.BackendFactory sharing cfg across sessions.
func Factory(cfg Config) ports.BackendFactory {
	return func(session *domain.AuthSession) ports.Backend {
		return New(cfg, session)
	}
}

// do sends one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	ctx, span := otel.Tracer(telemetry.TracerBackend).Start(ctx, telemetry.SpanBackendPrefix+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	)

	start := time.Now()
	status, err := c.roundTrip(ctx, op, method, path, body, out)
	metrics.BackendDuration.WithLabelValues(op, statusLabel(status)).Observe(time.Since(start).Seconds())

	if status > 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.session.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &envelope)
		return resp.StatusCode, &RequestError{Op: op, Status: resp.StatusCode, Message: envelope.Error}
	}

	if !json.Valid(raw) {
		return resp.StatusCode, fmt.Errorf("%s: %w", op, ErrInvalidResponse)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: %w: %v", op, ErrInvalidResponse, err)
		}
	}
	return resp.StatusCode, nil
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
