package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gohttp "github.com/km-arc/simple-structure/framework/http"
	"github.com/km-arc/simple-structure/framework/tool"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func send(t *testing.T, res *gohttp.Response) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	if err := res.Send(rr); err != nil {
		t.Fatalf("Send: %v", err)
	}
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	return m
}

// ── Defaults ─────────────────────────────────────────────────────────────────

func TestResponse_Defaults(t *testing.T) {
	rr := send(t, gohttp.NewResponse())

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-cache, must-revalidate" {
		t.Errorf("Cache-Control: got %q", got)
	}
	if rr.Header().Get("Expires") == "" {
		t.Error("missing Expires header")
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type: got %q want text/plain", ct)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("body: got %q want empty", rr.Body.String())
	}
}

// ── Content ──────────────────────────────────────────────────────────────────

func TestResponse_ScalarContent(t *testing.T) {
	cases := []struct {
		content any
		want    string
	}{
		{"hello", "hello"},
		{42, "42"},
		{1.5, "1.5"},
		{true, "1"},
	}
	for _, tc := range cases {
		rr := send(t, gohttp.NewResponse().SetContent(tc.content))
		if rr.Body.String() != tc.want {
			t.Errorf("content %v: got %q want %q", tc.content, rr.Body.String(), tc.want)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "text/plain" {
			t.Errorf("content %v: Content-Type %q", tc.content, ct)
		}
	}
}

func TestResponse_KeepsExplicitContentType(t *testing.T) {
	res := gohttp.NewResponse().SetHeader("Content-Type", "text/html").SetContent("<p>hi</p>")
	rr := send(t, res)
	if ct := rr.Header().Get("Content-Type"); ct != "text/html" {
		t.Errorf("Content-Type: got %q want text/html", ct)
	}
}

func TestResponse_CompositeContent(t *testing.T) {
	rr := send(t, gohttp.NewResponse().SetStatusCode(http.StatusTeapot).SetContent(map[string]any{"key": "val"}))

	if rr.Code != http.StatusTeapot {
		t.Errorf("status: got %d want 418", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q want application/json", ct)
	}
	if m := decodeJSON(t, rr); m["key"] != "val" {
		t.Errorf("body: got %v", m)
	}
}

func TestResponse_UnpaginatedPaginator(t *testing.T) {
	rr := send(t, gohttp.NewResponse().SetContent(tool.NewPaginator([]any{1, 2}, 1, 0)))
	if got := rr.Body.String(); got != "[1,2]" {
		t.Errorf("body: got %q want [1,2]", got)
	}
}

// ── Shortcuts ────────────────────────────────────────────────────────────────

func TestResponse_Success(t *testing.T) {
	rr := send(t, gohttp.NewResponse().Success(map[string]any{"id": 1}))

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	data, ok := decodeJSON(t, rr)["data"].(map[string]any)
	if !ok || data["id"] != float64(1) {
		t.Errorf("data envelope: got %v", data)
	}
}

func TestResponse_Created(t *testing.T) {
	rr := send(t, gohttp.NewResponse().Created(map[string]any{"id": 2}))
	if rr.Code != http.StatusCreated {
		t.Errorf("status: got %d want 201", rr.Code)
	}
}

func TestResponse_NoContent(t *testing.T) {
	rr := send(t, gohttp.NewResponse().SetContent("x").NoContent())
	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d want 204", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("body: got %q want empty", rr.Body.String())
	}
}

func TestResponse_Redirect(t *testing.T) {
	rr := send(t, gohttp.NewResponse().Redirect("/dashboard", false))
	if rr.Code != http.StatusFound {
		t.Errorf("status: got %d want 302", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location: got %q", loc)
	}

	rr = send(t, gohttp.NewResponse().Redirect("/new", true))
	if rr.Code != http.StatusMovedPermanently {
		t.Errorf("status: got %d want 301", rr.Code)
	}
}

func TestResponse_Cookies(t *testing.T) {
	res := gohttp.NewResponse().
		SetCookie(gohttp.NewCookie("SID", "s1", time.Time{})).
		SetCookie(gohttp.NewCookie("old", "x", time.Now().Add(-time.Hour)))

	if got := res.Cookies(); len(got) != 1 || got["SID"] != "s1" {
		t.Errorf("Cookies: got %v", got)
	}
	rr := send(t, res)
	if got := len(rr.Result().Cookies()); got != 2 {
		t.Errorf("Set-Cookie headers: got %d want 2", got)
	}
}

// ── Send once ────────────────────────────────────────────────────────────────

func TestResponse_SendOnce(t *testing.T) {
	res := gohttp.NewResponse().SetContent("once")
	rr := send(t, res)
	if !res.Sent() {
		t.Error("Sent should report true")
	}

	err := res.Send(rr)
	if !errors.Is(err, gohttp.ErrAlreadySent) {
		t.Errorf("second Send: got %v want ErrAlreadySent", err)
	}
	if rr.Body.String() != "once" {
		t.Errorf("body written twice: %q", rr.Body.String())
	}
}

func TestResponse_SendUnencodableContent(t *testing.T) {
	res := gohttp.NewResponse().SetContent(map[string]any{"ch": make(chan int)})
	rr := httptest.NewRecorder()

	if err := res.Send(rr); err == nil {
		t.Fatal("Send: expected an encoding error")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d want 500", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("body: got %q want empty", rr.Body.String())
	}
}

// ── Errors ───────────────────────────────────────────────────────────────────

func TestWebError(t *testing.T) {
	cases := []struct {
		err  *gohttp.WebError
		code int
		msg  string
	}{
		{gohttp.BadRequest(), 400, "Bad Request"},
		{gohttp.Unauthorized(), 401, "Unauthorized"},
		{gohttp.NotFound(), 404, "Not Found"},
		{gohttp.NotFound("no user"), 404, "no user"},
		{gohttp.Internal(nil), 500, "Internal Server Error"},
	}
	for _, tc := range cases {
		if tc.err.Code != tc.code || tc.err.Error() != tc.msg {
			t.Errorf("got %d %q want %d %q", tc.err.Code, tc.err.Error(), tc.code, tc.msg)
		}
	}
}

func TestAsWebError(t *testing.T) {
	cause := errors.New("db down")

	if got := gohttp.AsWebError(cause, false); got.Code != 500 || got.Message != "Internal Server Error" {
		t.Errorf("hidden: got %d %q", got.Code, got.Message)
	}
	if got := gohttp.AsWebError(cause, true); got.Message != "db down" || !errors.Is(got, cause) {
		t.Errorf("exposed: got %q", got.Message)
	}

	nf := gohttp.NotFound()
	wrapped := errors.Join(errors.New("ctx"), nf)
	if got := gohttp.AsWebError(wrapped, false); got != nf {
		t.Errorf("wrapped: got %v want the NotFound error", got)
	}
}
