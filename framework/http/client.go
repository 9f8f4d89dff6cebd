package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"resty.dev/v3"
)

var (
	// ErrResponseStatus is returned for a non-2xx reply unless
	// IgnoreHTTPErrors is set.
	ErrResponseStatus = errors.New("http: error status in response")
	// ErrInvalidCredentials is returned for basic auth with an empty part.
	ErrInvalidCredentials = errors.New("http: basic auth credentials are invalid")
)

// Client sends outbound requests and returns their Resource. Redirects are
// not followed.
//
//	client := gohttp.NewClient(30*time.Second, "")
//	res, err := client.GetContent(ctx, "https://example.com/api/users")
type Client struct {
	rc *resty.Client
}

// NewClient builds a Client. An empty baseURL leaves URLs as given.
func NewClient(timeout time.Duration, baseURL string) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.NoRedirectPolicy())
	if baseURL != "" {
		rc.SetBaseURL(baseURL)
	}
	return &Client{rc: rc}
}

// RequestOption adjusts one outbound request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	headers          map[string]string
	username         string
	password         string
	basicAuth        bool
	ignoreHTTPErrors bool
}

// WithHeaders adds request headers.
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			o.headers[k] = v
		}
	}
}

// WithBasicAuth sends basic credentials. Both parts must be non-empty.
func WithBasicAuth(username, password string) RequestOption {
	return func(o *requestOptions) {
		o.username, o.password, o.basicAuth = username, password, true
	}
}

// IgnoreHTTPErrors returns non-2xx replies as a Resource instead of an error.
func IgnoreHTTPErrors() RequestOption {
	return func(o *requestOptions) { o.ignoreHTTPErrors = true }
}

func (c *Client) GetContent(ctx context.Context, url string, opts ...RequestOption) (*Resource, error) {
	return c.MakeRequest(ctx, MethodGet, url, nil, opts...)
}

func (c *Client) DeleteContent(ctx context.Context, url string, data any, opts ...RequestOption) (*Resource, error) {
	return c.MakeRequest(ctx, MethodDelete, url, data, opts...)
}

func (c *Client) PatchContent(ctx context.Context, url string, data any, opts ...RequestOption) (*Resource, error) {
	return c.MakeRequest(ctx, MethodPatch, url, data, opts...)
}

func (c *Client) PostContent(ctx context.Context, url string, data any, opts ...RequestOption) (*Resource, error) {
	return c.MakeRequest(ctx, MethodPost, url, data, opts...)
}

func (c *Client) PutContent(ctx context.Context, url string, data any, opts ...RequestOption) (*Resource, error) {
	return c.MakeRequest(ctx, MethodPut, url, data, opts...)
}

// MakeRequest sends data with method. A *Form is sent url-encoded, strings
// and byte slices as they are, anything else as JSON. GET sends no body.
func (c *Client) MakeRequest(ctx context.Context, method Method, url string, data any, opts ...RequestOption) (*Resource, error) {
	o := requestOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	req := c.rc.R().SetContext(ctx)
	if len(o.headers) > 0 {
		req.SetHeaders(o.headers)
	}
	if o.basicAuth {
		if o.username == "" || o.password == "" {
			return nil, ErrInvalidCredentials
		}
		req.SetBasicAuth(o.username, o.password)
	}
	if method != MethodGet && data != nil {
		switch body := data.(type) {
		case *Form:
			req.SetFormData(body.ToPostFields())
		case string, []byte:
			req.SetBody(body)
		default:
			req.SetHeader("Content-Type", "application/json").SetBody(body)
		}
	}

	resp, err := req.Execute(method.Upper(), url)
	if err != nil {
		return nil, fmt.Errorf("http: %s %s: %w", method.Upper(), url, err)
	}
	code := resp.StatusCode()
	if !o.ignoreHTTPErrors && (code < http.StatusOK || code >= http.StatusMultipleChoices) {
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrResponseStatus, method.Upper(), url, code)
	}
	return NewResource(resp.String(), resp.Header(), code, url), nil
}
