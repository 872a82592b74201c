package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/parkclient/internal/client/events"
	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/dmitrijs2005/parkclient/internal/common"
	"github.com/dmitrijs2005/parkclient/internal/logging"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultAPIPrefix = "/api/v1"

	tracerName   = "github.com/dmitrijs2005/parkclient/internal/client/client"
	maxErrorBody = 1 << 20
)

// TokenStore is the part of the credential store the transport needs: it
// reads the token for every request and clears everything on a 401.
type TokenStore interface {
	GetToken(ctx context.Context) (token string, ok bool, err error)
	Clear(ctx context.Context) error
}

type Config struct {
	// ServerURL is scheme://host[:port] of the backend.
	ServerURL string
	APIPrefix string
	Role      models.Role
	Timeout   time.Duration
	Breaker   BreakerConfig
}

type HTTPClient struct {
	serverURL string
	rolePath  string
	role      models.Role

	http    *http.Client
	store   TokenStore
	events  events.Publisher
	breaker *gobreaker.CircuitBreaker[*http.Response]
	metrics *Metrics
	log     logging.Logger
	tracer  trace.Tracer
}

type Option func(*HTTPClient)

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

// WithTracerProvider makes the client create its spans from tp instead of
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *HTTPClient) { c.tracer = tp.Tracer(tracerName) }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.http.Transport = rt }
}

// New builds the transport. store and pub are required: without them the
// 401 handling could not work.
func New(cfg Config, store TokenStore, pub events.Publisher, opts ...Option) (*HTTPClient, error) {
	if store == nil || pub == nil {
		return nil, errors.New("client: token store and event publisher are required")
	}
	if _, err := models.ParseRole(string(cfg.Role)); err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("client: server url %q must be http(s)://host[:port]", cfg.ServerURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")

	if cfg.Breaker == (BreakerConfig{}) {
		cfg.Breaker = DefaultBreakerConfig()
	}

	c := &HTTPClient{
		serverURL: strings.TrimRight(u.String(), "/"),
		rolePath:  prefix + "/" + string(cfg.Role),
		role:      cfg.Role,
		http:      &http.Client{Timeout: cfg.Timeout},
		store:     store,
		events:    pub,
		log:       logging.Nop(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(c)
	}
	c.breaker = c.newBreaker("parkclient-"+string(cfg.Role), cfg.Breaker)

	return c, nil
}

// Role is the app role this client speaks for.
func (c *HTTPClient) Role() models.Role {
	return c.role
}

func (c *HTTPClient) roleURL(rel string) string {
	return c.serverURL + c.rolePath + "/" + strings.TrimLeft(rel, "/")
}

func (c *HTTPClient) rootURL(rel string) string {
	return c.serverURL + "/" + strings.TrimLeft(rel, "/")
}

// do runs one request through both interception points. in is sent as JSON
// when non-nil; a 2xx body is decoded into out when out is non-nil.
func (c *HTTPClient) do(ctx context.Context, method, target string, in, out any) (err error) {
	req, err := c.newRequest(ctx, method, target, in)
	if err != nil {
		return err
	}

	ctx, span := c.tracer.Start(ctx, method+" "+req.URL.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", req.URL.Path),
		))
	defer func() {
		c.metrics.observe(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.send(req)
	})
	if err != nil {
		return c.transportFailure(ctx, req, err, time.Since(start))
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.log.Debug(ctx, "request finished",
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(common.RequestIDHeaderName),
		"elapsed", time.Since(start),
	)

	return c.handleResponse(ctx, resp, out)
}

func (c *HTTPClient) newRequest(ctx context.Context, method, target string, in any) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	return req, nil
}

// authorize is the outbound interceptor.
func (c *HTTPClient) authorize(ctx context.Context, req *http.Request) error {
	token, ok, err := c.store.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("read session token: %w", err)
	}
	if ok {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	return nil
}

// send performs the exchange inside the breaker. Only transport failures
// and 5xx responses count against it.
func (c *HTTPClient) send(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		defer func() { _ = resp.Body.Close() }()
		return nil, statusError(resp)
	}
	return resp, nil
}

func (c *HTTPClient) transportFailure(ctx context.Context, req *http.Request, err error, elapsed time.Duration) error {
	var ae *APIError
	if errors.As(err, &ae) {
		c.log.Warn(ctx, "server error",
			"method", req.Method, "path", req.URL.Path, "status", ae.Status,
			"request_id", req.Header.Get(common.RequestIDHeaderName))
		return ae
	}

	if isBreakerRejection(err) {
		c.log.Debug(ctx, "request rejected by open circuit breaker",
			"method", req.Method, "path", req.URL.Path)
		return networkError(err)
	}

	c.log.Debug(ctx, "request failed",
		"method", req.Method, "path", req.URL.Path, "elapsed", elapsed, "error", err)
	return networkError(err)
}

// handleResponse is the inbound interceptor for responses that reached us.
func (c *HTTPClient) handleResponse(ctx context.Context, resp *http.Response, out any) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return decodeBody(resp.Body, out)
	}

	apiErr := statusError(resp)
	if apiErr.Kind == KindUnauthorized {
		c.invalidate(ctx)
	}
	return apiErr
}

// invalidate clears the stored session and tells the session owner. Both
// steps tolerate repetition, so concurrent 401s need no coordination.
func (c *HTTPClient) invalidate(ctx context.Context) {
	c.log.Info(ctx, "session rejected by server, signing out")

	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		c.log.Error(ctx, "clear credentials after 401", "error", err)
	}
	c.metrics.invalidated()
	c.events.Publish(events.ReasonUnauthorized)
}

func statusError(resp *http.Response) *APIError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	ae := &APIError{
		Kind:   kindForStatus(resp.StatusCode),
		Status: resp.StatusCode,
	}
	if err != nil {
		ae.Err = fmt.Errorf("read error body: %w", err)
		return ae
	}
	ae.Detail = parseDetail(body)
	return ae
}

func decodeBody(r io.Reader, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}
