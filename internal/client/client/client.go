package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

const (
	DefaultTimeout = 30 * time.Second

	TunnelHeader = "Bypass-Tunnel-Reminder"
)

// TokenSource yields the token for the next request; "" means none.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Response is a successful answer.
type Response struct {
	Status int
	Data   json.RawMessage
}

// HTTPClient is the shared request pipeline. It is safe for concurrent use.
type HTTPClient struct {
	http   *resty.Client
	tokens TokenSource
	log    logging.Logger
}

type Option func(*HTTPClient)

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.SetTimeout(d) }
}

// WithTransport swaps the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.http.SetTransport(rt) }
}

// New builds a client rooted at baseURL. tokens may be nil for a client
// that never authenticates.
func New(baseURL string, tokens TokenSource, log logging.Logger, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(DefaultTimeout).
			SetHeader(TunnelHeader, "true").
			SetHeader("Accept", "application/json"),
		tokens: tokens,
		log:    log.With("component", "http"),
	}

	c.http.OnBeforeRequest(c.authorize)
	c.http.SetPreRequestHook(setContentLength)

	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL reports the address requests are resolved against.
func (c *HTTPClient) BaseURL() string {
	return c.http.BaseURL
}

type ctxKey int

const (
	skipAuthKey ctxKey = iota
	contentLengthKey
)

type requestOptions struct {
	skipAuth bool
	query    map[string]string
}

type RequestOption func(*requestOptions)

// WithoutAuth sends the request without a bearer token even if one exists.
func WithoutAuth() RequestOption {
	return func(o *requestOptions) { o.skipAuth = true }
}

func WithQuery(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = make(map[string]string)
		}
		o.query[key] = value
	}
}

// authorize reads the token right before the request leaves. A store
// failure is logged and the request goes out unauthenticated.
func (c *HTTPClient) authorize(_ *resty.Client, r *resty.Request) error {
	ctx := r.Context()
	if skip, _ := ctx.Value(skipAuthKey).(bool); skip || c.tokens == nil {
		return nil
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		c.log.Warn(ctx, "token unavailable, sending unauthenticated", "error", err)
		return nil
	}
	if token != "" {
		r.SetAuthToken(token)
	}
	return nil
}

func setContentLength(_ *resty.Client, r *http.Request) error {
	if n, ok := r.Context().Value(contentLengthKey).(int64); ok && n >= 0 {
		r.ContentLength = n
	}
	return nil
}

func (c *HTTPClient) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, opts)
}

func (c *HTTPClient) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, opts)
}

func (c *HTTPClient) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body, opts)
}

func (c *HTTPClient) request(ctx context.Context, opts []RequestOption) *resty.Request {
	var ro requestOptions
	for _, o := range opts {
		o(&ro)
	}
	if ro.skipAuth {
		ctx = context.WithValue(ctx, skipAuthKey, true)
	}

	req := c.http.R().SetContext(ctx)
	if len(ro.query) > 0 {
		req.SetQueryParams(ro.query)
	}
	return req
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, opts []RequestOption) (*Response, error) {
	req := c.request(ctx, opts)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	return c.result(ctx, method, path, resp, err)
}

func (c *HTTPClient) result(ctx context.Context, method, path string, resp *resty.Response, err error) (*Response, error) {
	if err != nil {
		err = classify(ctx, err)
		c.log.Debug(ctx, "request failed", "method", method, "path", path, "error", err)
		return nil, err
	}

	c.log.Debug(ctx, "request done", "method", method, "path", path, "status", resp.StatusCode(), "took", resp.Time())

	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), resp.Body())
	}
	return &Response{Status: resp.StatusCode(), Data: json.RawMessage(resp.Body())}, nil
}
