package app_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/simple-structure/framework/app"
	"github.com/km-arc/simple-structure/framework/config"
	"github.com/km-arc/simple-structure/framework/container"
	gohttp "github.com/km-arc/simple-structure/framework/http"
	"github.com/km-arc/simple-structure/framework/providers"
	"github.com/km-arc/simple-structure/framework/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func quiet() app.Option {
	return app.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func newApp(t *testing.T, dev bool) *app.Bootstrap {
	t.Helper()
	b := app.New(t.TempDir(), quiet())
	b.Container().SetParam("isDev", dev)
	return b
}

func do(t *testing.T, b *app.Bootstrap, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	b.ServeHTTP(rr, req)
	return rr
}

func text(body string) routing.Handler {
	return func(_ *container.Container, res *gohttp.Response, _ *gohttp.Request, _ ...any) error {
		res.SetContent(body)
		return nil
	}
}

// ── Not found ─────────────────────────────────────────────────────────────────

func TestBootstrap_NotFoundInDevelopment(t *testing.T) {
	b := newApp(t, true)
	b.Get("/users", text("users"))

	rr := do(t, b, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestBootstrap_NotFoundInProduction(t *testing.T) {
	b := newApp(t, false)

	rr := do(t, b, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestBootstrap_WithoutIsDevIsProduction(t *testing.T) {
	b := app.New(".", quiet())

	rr := do(t, b, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, rr.Body.String())
}

// ── Matching ──────────────────────────────────────────────────────────────────

func TestBootstrap_TypedVars(t *testing.T) {
	b := newApp(t, true)
	b.Get("/users/{id:int}/posts/{slug}", func(_ *container.Container, res *gohttp.Response, _ *gohttp.Request, vars ...any) error {
		res.Success(map[string]any{"id": vars[0], "slug": vars[1]})
		return nil
	})

	rr := do(t, b, http.MethodGet, "/users/42/posts/hello/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"id":42,"slug":"hello"}}`, rr.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, b, http.MethodGet, "/users/04/posts/hello").Code)
	assert.Equal(t, http.StatusNotFound, do(t, b, http.MethodGet, "/users/abc/posts/hello").Code)
}

func TestBootstrap_FirstMatchWins(t *testing.T) {
	b := newApp(t, false)
	b.Get("/items/{id}", text("generic"))
	b.Get("/items/{id:int}", text("numeric"))

	rr := do(t, b, http.MethodGet, "/items/7")
	assert.Equal(t, "generic", rr.Body.String())
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
}

func TestBootstrap_MethodMustMatch(t *testing.T) {
	b := newApp(t, false)
	b.Post("/items", text("created"))

	assert.Equal(t, http.StatusNotFound, do(t, b, http.MethodGet, "/items").Code)
	assert.Equal(t, "created", do(t, b, http.MethodPost, "/items").Body.String())
}

func TestBootstrap_Verbs(t *testing.T) {
	b := newApp(t, false)
	b.Get("/v", text("get")).
		Post("/v", text("post")).
		Put("/v", text("put")).
		Patch("/v", text("patch")).
		Delete("/v", text("delete")).
		Options("/v", text("options"))

	for method, want := range map[string]string{
		http.MethodGet:     "get",
		http.MethodPost:    "post",
		http.MethodPut:     "put",
		http.MethodPatch:   "patch",
		http.MethodDelete:  "delete",
		http.MethodOptions: "options",
	} {
		assert.Equal(t, want, do(t, b, method, "/v").Body.String(), method)
	}
	assert.Len(t, b.Actions(), 6)
}

func TestBootstrap_DefineActionErrors(t *testing.T) {
	b := newApp(t, false)

	assert.Error(t, b.DefineAction("head", "/x", text("x")))
	assert.ErrorIs(t, b.DefineAction(gohttp.MethodGet, "/x", nil), routing.ErrNilHandler)
	assert.Panics(t, func() { b.Get("/x", nil) })
	assert.Empty(t, b.Actions())
}

// ── OPTIONS ───────────────────────────────────────────────────────────────────

func allowHeader(_ *container.Container, res *gohttp.Response, _ *gohttp.Request, actions []*routing.Action) error {
	methods := make([]string, 0, len(actions))
	for _, a := range actions {
		methods = append(methods, a.Method().Upper())
	}
	res.SetHeader("Allow", strings.Join(methods, ", ")).NoContent()
	return nil
}

func TestBootstrap_OptionsActionWinsOverAllOptions(t *testing.T) {
	b := newApp(t, false)
	b.Get("/items", text("list"))
	b.Options("/items", text("exact"))
	b.DefineAllOptionsActions(allowHeader)

	rr := do(t, b, http.MethodOptions, "/items")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "exact", rr.Body.String())
}

func TestBootstrap_AllOptionsReceivesPathMatches(t *testing.T) {
	b := newApp(t, false)
	b.Get("/items/{id:int}", text("show"))
	b.Delete("/items/{id:int}", text("delete"))
	b.Get("/other", text("other"))
	b.DefineAllOptionsActions(allowHeader)

	rr := do(t, b, http.MethodOptions, "/items/3")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "GET, DELETE", rr.Header().Get("Allow"))

	assert.Equal(t, http.StatusNotFound, do(t, b, http.MethodOptions, "/nothing").Code)
}

func TestBootstrap_OptionsWithoutAllOptionsHandler(t *testing.T) {
	b := newApp(t, false)
	b.Get("/items", text("list"))

	assert.Equal(t, http.StatusNotFound, do(t, b, http.MethodOptions, "/items").Code)
}

// ── Errors ────────────────────────────────────────────────────────────────────

func failWith(err error) routing.Handler {
	return func(_ *container.Container, res *gohttp.Response, _ *gohttp.Request, _ ...any) error {
		res.SetContent("partial")
		return err
	}
}

func TestBootstrap_WebErrorKeepsItsCode(t *testing.T) {
	b := newApp(t, true)
	b.Get("/secret", failWith(gohttp.Unauthorized()))
	b.Get("/bad", failWith(gohttp.BadRequest("name is required")))

	rr := do(t, b, http.MethodGet, "/secret")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rr.Body.String())

	rr = do(t, b, http.MethodGet, "/bad")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"name is required"}`, rr.Body.String())
}

func TestBootstrap_InternalErrorMessageOnlyInDevelopment(t *testing.T) {
	dev := newApp(t, true)
	dev.Get("/boom", failWith(errors.New("database is down")))
	rr := do(t, dev, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"database is down"}`, rr.Body.String())

	prod := newApp(t, false)
	prod.Get("/boom", failWith(errors.New("database is down")))
	rr = do(t, prod, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestBootstrap_EmptyInternalErrorUsesStatusText(t *testing.T) {
	b := newApp(t, true)
	b.Get("/boom", failWith(errors.New("")))

	rr := do(t, b, http.MethodGet, "/boom")
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
}

func TestBootstrap_PanicBecomesInternalError(t *testing.T) {
	b := newApp(t, false)
	b.Get("/panic", func(_ *container.Container, _ *gohttp.Response, _ *gohttp.Request, _ ...any) error {
		panic("unexpected")
	})

	assert.Equal(t, http.StatusInternalServerError, do(t, b, http.MethodGet, "/panic").Code)
}

func TestBootstrap_UnencodableContentIsInternalError(t *testing.T) {
	unencodable := func(_ *container.Container, res *gohttp.Response, _ *gohttp.Request, _ ...any) error {
		res.Success(map[string]any{"ch": make(chan int)})
		return nil
	}

	prod := newApp(t, false)
	prod.Get("/chan", unencodable)
	rr := do(t, prod, http.MethodGet, "/chan")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, rr.Body.String())

	dev := newApp(t, true)
	dev.Get("/chan", unencodable)
	rr = do(t, dev, http.MethodGet, "/chan")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "unsupported type")

	handled := newApp(t, false)
	handled.Get("/chan", unencodable)
	handled.DefineErrors(func(_ *container.Container, res *gohttp.Response, _ *gohttp.Request, err *gohttp.WebError) error {
		res.SetContent(map[string]any{"code": err.Code})
		return nil
	})
	rr = do(t, handled, http.MethodGet, "/chan")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"code":500}`, rr.Body.String())
}

func TestBootstrap_ErrorHandler(t *testing.T) {
	b := newApp(t, false)
	b.Get("/missing-user", failWith(gohttp.NotFound("user not found")))

	var seen *gohttp.WebError
	b.DefineErrors(func(_ *container.Container, res *gohttp.Response, req *gohttp.Request, err *gohttp.WebError) error {
		seen = err
		assert.Equal(t, err.Code, res.StatusCode())
		res.SetContent(map[string]any{"code": err.Code, "message": err.Message, "path": req.Path()})
		return nil
	})

	rr := do(t, b, http.MethodGet, "/missing-user")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"code":404,"message":"user not found","path":"/missing-user"}`, rr.Body.String())
	require.NotNil(t, seen)

	rr = do(t, b, http.MethodGet, "/nowhere")
	assert.JSONEq(t, `{"code":404,"message":"Not Found","path":"/nowhere"}`, rr.Body.String())
}

// ── Container ─────────────────────────────────────────────────────────────────

type greeter struct{ greeting string }

func TestBootstrap_HandlersResolveFromContainer(t *testing.T) {
	b := newApp(t, false)
	require.NoError(t, b.Define(func(c *container.Container) error {
		c.SetParam("greeting", "hello")
		return c.SetObject("greeter", container.Constructor(func(args ...any) (any, error) {
			s, err := container.Arg[string](args, 0)
			return &greeter{greeting: s}, err
		}), container.Refs("greeting"))
	}))
	b.Get("/greet/{name}", func(c *container.Container, res *gohttp.Response, _ *gohttp.Request, vars ...any) error {
		g, err := container.Resolve[*greeter](c, "greeter")
		if err != nil {
			return err
		}
		res.SetContent(g.greeting + " " + vars[0].(string))
		return nil
	})

	assert.Equal(t, "hello ada", do(t, b, http.MethodGet, "/greet/ada").Body.String())
}

func TestBootstrap_EachRequestHasItsOwnContainer(t *testing.T) {
	b := newApp(t, false)
	b.DefineOnRequest(func(c *container.Container) error {
		return c.SetObject("counter", container.Factory(func(_ ...any) (any, error) {
			n := 0
			return &n, nil
		}), nil)
	})
	b.Get("/count", func(c *container.Container, res *gohttp.Response, req *gohttp.Request, _ ...any) error {
		n := container.MustGet[*int](c, "counter")
		*n++
		assert.Same(t, req, container.MustGet[*gohttp.Request](c, "request"))
		assert.Same(t, res, container.MustGet[*gohttp.Response](c, "response"))
		res.SetContent(*n)
		return nil
	})

	assert.Equal(t, "1", do(t, b, http.MethodGet, "/count").Body.String())
	assert.Equal(t, "1", do(t, b, http.MethodGet, "/count").Body.String())
	assert.False(t, b.Container().Has("request"))
	assert.False(t, b.Container().Has("counter"))
}

func TestBootstrap_OnRequestErrorFailsRequest(t *testing.T) {
	b := newApp(t, true)
	b.DefineOnRequest(func(_ *container.Container) error { return gohttp.Unauthorized("token expired") })
	b.Get("/x", text("x"))

	rr := do(t, b, http.MethodGet, "/x")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"token expired"}`, rr.Body.String())
}

func TestBootstrap_BaseDirAndDefinitions(t *testing.T) {
	b := app.New("/srv/app", quiet())
	c := b.Container()

	assert.Equal(t, "/srv/app", container.MustGet[string](c, "baseDir"))
	v, err := c.Create("action", "get", "/x", text("x"))
	require.NoError(t, err)
	assert.Equal(t, "GET /x", v.(*routing.Action).String())

	r1, err := c.Create("response")
	require.NoError(t, err)
	r2, err := c.Create("response")
	require.NoError(t, err)
	assert.NotSame(t, r1, r2)
}

func TestBootstrap_Dispatch(t *testing.T) {
	b := newApp(t, false)
	b.Put("/users/{id:int}", func(_ *container.Container, res *gohttp.Response, req *gohttp.Request, vars ...any) error {
		res.JSON(http.StatusAccepted, map[string]any{"id": vars[0], "name": req.Params.String("name", "")})
		return nil
	})

	res := b.Dispatch(gohttp.NewRequest(gohttp.RawRequestInput{
		Method:     "PUT",
		RequestURI: "/users/5?name=ada",
		Query:      map[string]any{"name": "ada"},
	}))
	assert.Equal(t, http.StatusAccepted, res.StatusCode())
	assert.Equal(t, map[string]any{"id": 5, "name": "ada"}, res.Content())
	assert.False(t, res.Sent())
}

func TestBootstrap_ResponseDefinitionSetsDefaults(t *testing.T) {
	b := newApp(t, true)
	require.NoError(t, b.Define(func(c *container.Container) error {
		return c.SetObject("response", container.Factory(func(_ ...any) (any, error) {
			return gohttp.NewResponse().SetHeader("X-Frame-Options", "DENY"), nil
		}), nil)
	}))
	b.Get("/x", text("x"))

	assert.Equal(t, "DENY", do(t, b, http.MethodGet, "/x").Header().Get("X-Frame-Options"))
	assert.Equal(t, "DENY", do(t, b, http.MethodGet, "/missing").Header().Get("X-Frame-Options"))
}

func TestBootstrap_BrokenResponseDefinition(t *testing.T) {
	b := newApp(t, true)
	require.NoError(t, b.Define(func(c *container.Container) error {
		return c.SetObject("response", container.Factory(func(_ ...any) (any, error) {
			return "not a response", nil
		}), nil)
	}))
	b.Get("/x", text("x"))

	rr := do(t, b, http.MethodGet, "/x")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "not *http.Response")
}

// ── Providers ─────────────────────────────────────────────────────────────────

func TestBootstrap_BootUsesProvidedLogger(t *testing.T) {
	var buf bytes.Buffer
	b := app.New(".")
	require.NoError(t, b.Register(&providers.ConfigServiceProvider{Config: &config.Config{
		App: config.AppConfig{Name: "test", Debug: true},
		Log: config.LogConfig{Level: "info", Format: "json"},
	}}))
	require.NoError(t, b.Register(&providers.LogServiceProvider{Writer: &buf}))
	require.NoError(t, b.Boot())

	rr := do(t, b, http.MethodGet, "/missing")
	assert.JSONEq(t, `{"error":"Not Found"}`, rr.Body.String(), "isDev comes from the config")
	assert.Contains(t, buf.String(), `"msg":"request rejected"`)
	assert.Contains(t, buf.String(), `"path":"/missing"`)
}

func TestBootstrap_ConcurrentRequestsShareDeferredClient(t *testing.T) {
	b := newApp(t, false)
	require.NoError(t, b.Register(&providers.ConfigServiceProvider{Config: &config.Config{
		HTTP: config.HTTPConfig{ClientTimeout: time.Second},
	}}))
	require.NoError(t, b.Register(&providers.HTTPClientServiceProvider{}))
	require.NoError(t, b.Boot())
	b.Get("/client", func(c *container.Container, res *gohttp.Response, _ *gohttp.Request, _ ...any) error {
		client, err := container.Resolve[*gohttp.Client](c, "httpClient")
		if err != nil {
			return err
		}
		res.SetContent(fmt.Sprintf("%p", client))
		return nil
	})

	const n = 32
	bodies := make([]string, n)
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rr := httptest.NewRecorder()
			b.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/client", nil))
			bodies[i], codes[i] = rr.Body.String(), rr.Code
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.Equal(t, http.StatusOK, codes[i])
		assert.Equal(t, bodies[0], bodies[i], "request %d", i)
	}
}
