package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/km-arc/simple-structure/framework/tool"
)

// ErrAlreadySent is returned by a second Send.
var ErrAlreadySent = errors.New("http: response already sent")

// Response collects status, headers, cookies and content until Send writes
// them. Composite content is sent as JSON, anything else as text.
type Response struct {
	Headers http.Header

	cookies    []*http.Cookie
	statusCode int
	content    any
	sent       bool
}

// NewResponse returns a 200 response that is not cached by clients.
func NewResponse() *Response {
	res := &Response{Headers: make(http.Header), statusCode: http.StatusOK}
	res.Headers.Set("Cache-Control", "no-cache, must-revalidate")
	res.Headers.Set("Expires", time.Now().UTC().Format(http.TimeFormat))
	return res
}

// StatusText is the reason phrase of code.
func StatusText(code int) string { return http.StatusText(code) }

func (res *Response) SetStatusCode(code int) *Response {
	res.statusCode = code
	return res
}

func (res *Response) StatusCode() int { return res.statusCode }

func (res *Response) SetContent(content any) *Response {
	res.content = content
	return res
}

func (res *Response) Content() any { return res.content }

// SetHeader sets a header, replacing previous values.
func (res *Response) SetHeader(name, value string) *Response {
	res.Headers.Set(name, value)
	return res
}

// SetCookie queues a cookie. Path defaults to "/" and HttpOnly to true
// when the cookie is built with NewCookie.
func (res *Response) SetCookie(c *http.Cookie) *Response {
	res.cookies = append(res.cookies, c)
	return res
}

// NewCookie returns a cookie with the default path and HttpOnly set.
func NewCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{Name: name, Value: value, Path: "/", Expires: expires, HttpOnly: true}
}

// Cookies returns the queued cookies that have not expired.
func (res *Response) Cookies() map[string]string {
	now := time.Now()
	out := make(map[string]string, len(res.cookies))
	for _, c := range res.cookies {
		if c.Expires.IsZero() || c.Expires.After(now) {
			out[c.Name] = c.Value
		}
	}
	return out
}

// ── Shortcuts ────────────────────────────────────────────────────────────────

// JSON sets status and composite content.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) *Response {
	res.Headers.Set("Content-Type", "application/json")
	return res.SetStatusCode(status).SetContent(data)
}

// Success is 200 {"data": v}.
func (res *Response) Success(v any) *Response {
	return res.JSON(http.StatusOK, envelope{"data": v})
}

// Created is 201 {"data": v}.
func (res *Response) Created(v any) *Response {
	return res.JSON(http.StatusCreated, envelope{"data": v})
}

// NoContent is 204 with no body.
func (res *Response) NoContent() *Response {
	return res.SetStatusCode(http.StatusNoContent).SetContent(nil)
}

// Redirect points the client at url with 302, or 301 when permanent.
func (res *Response) Redirect(url string, permanent bool) *Response {
	res.Headers.Set("Location", url)
	if permanent {
		return res.SetStatusCode(http.StatusMovedPermanently)
	}
	return res.SetStatusCode(http.StatusFound)
}

// ── Sending ──────────────────────────────────────────────────────────────────

// Sent reports whether Send has run.
func (res *Response) Sent() bool { return res.sent }

// Send writes the response to w. It succeeds once; later calls return
// ErrAlreadySent without writing. Content that cannot be encoded is sent
// as an empty 500.
func (res *Response) Send(w http.ResponseWriter) error {
	if res.sent {
		return ErrAlreadySent
	}
	res.sent = true

	body, err := res.Body()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return err
	}
	for name, values := range res.Headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	for _, c := range res.cookies {
		http.SetCookie(w, c)
	}
	w.WriteHeader(res.statusCode)
	if res.statusCode == http.StatusNoContent || len(body) == 0 {
		return nil
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("http: write body: %w", err)
	}
	return nil
}

// Body renders the content and sets Content-Type to match it.
func (res *Response) Body() ([]byte, error) {
	switch c := res.content.(type) {
	case nil:
		res.defaultContentType()
		return nil, nil
	case string:
		res.defaultContentType()
		return []byte(c), nil
	case []byte:
		res.defaultContentType()
		return c, nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		res.defaultContentType()
		return []byte(tool.ParseString(c, 0)), nil
	default:
		res.Headers.Set("Content-Type", "application/json")
		body, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("http: encode content: %w", err)
		}
		return body, nil
	}
}

func (res *Response) defaultContentType() {
	if res.Headers.Get("Content-Type") == "" {
		res.Headers.Set("Content-Type", "text/plain")
	}
}

type envelope map[string]any
