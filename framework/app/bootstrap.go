package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/km-arc/simple-structure/framework/container"
	"github.com/km-arc/simple-structure/framework/ctxlog"
	gohttp "github.com/km-arc/simple-structure/framework/http"
	"github.com/km-arc/simple-structure/framework/routing"
)

// OptionsHandler answers an OPTIONS request for a path that other methods
// are registered on. actions are those matching the path, in registration
// order.
type OptionsHandler func(c *container.Container, res *gohttp.Response, req *gohttp.Request, actions []*routing.Action) error

// ErrorHandler formats the response of a failed request. The status code is
// already set from err.Code when it runs.
type ErrorHandler func(c *container.Container, res *gohttp.Response, req *gohttp.Request, err *gohttp.WebError) error

// Bootstrap owns the application container and the registered actions, and
// runs the request cycle.
//
// Container names bound by New:
//   - "container" → the container itself (re-bound to each request's fork)
//   - "baseDir"   → the base directory given to New
//   - "action"    → definition building *routing.Action from (method, path, handler)
//   - "response"  → definition building a fresh *gohttp.Response; each
//     request's response comes from it, so overriding it sets defaults
//
// Each request runs on a fork of the container holding the params
// "request" and "response". "isDev", when bound, makes error bodies carry
// their message.
type Bootstrap struct {
	container *container.Container
	providers *container.ProviderRegistry

	actions    []*routing.Action
	onRequest  []func(*container.Container) error
	allOptions OptionsHandler
	onError    ErrorHandler

	logger    *slog.Logger
	loggerSet bool
	tracer    trace.Tracer
}

// Option configures a Bootstrap.
type Option func(*Bootstrap)

// WithLogger sets the logger. Without it the "logger" definition is used
// once booted, and slog.Default before that.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bootstrap) {
		b.logger = logger
		b.loggerSet = true
	}
}

// WithTracer sets the tracer of the dispatch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Bootstrap) { b.tracer = tracer }
}

// New creates a Bootstrap rooted at baseDir.
//
//	b := app.New(".")
//	b.Get("/users/{id:int}", showUser)
//	http.ListenAndServe(":8000", b)
func New(baseDir string, opts ...Option) *Bootstrap {
	c := container.New()
	b := &Bootstrap{
		container: c,
		providers: container.NewProviderRegistry(c),
		logger:    slog.Default(),
		tracer:    otel.Tracer("framework/app"),
	}
	for _, opt := range opts {
		opt(b)
	}

	c.SetParam("baseDir", baseDir)
	// Both targets are non-nil, registration cannot fail.
	_ = c.SetObject("action", routing.ActionTarget, nil)
	_ = c.SetObject("response", container.Factory(func(_ ...any) (any, error) {
		return gohttp.NewResponse(), nil
	}), nil)
	return b
}

// Container returns the application container.
func (b *Bootstrap) Container() *container.Container { return b.container }

// Providers returns the provider registry.
func (b *Bootstrap) Providers() *container.ProviderRegistry { return b.providers }

// Actions returns the registered actions in registration order.
func (b *Bootstrap) Actions() []*routing.Action {
	return append([]*routing.Action(nil), b.actions...)
}

// Logger returns the logger used by the request cycle.
func (b *Bootstrap) Logger() *slog.Logger { return b.logger }

// ── Definition ────────────────────────────────────────────────────────────────

// Define runs fn against the application container right away.
func (b *Bootstrap) Define(fn func(c *container.Container) error) error {
	return fn(b.container)
}

// DefineOnRequest runs fn against every request's container before its
// action is looked up. An error fails the request.
func (b *Bootstrap) DefineOnRequest(fn func(c *container.Container) error) *Bootstrap {
	b.onRequest = append(b.onRequest, fn)
	return b
}

// DefineAction registers an action built by the "action" definition.
// Actions are tried in the order they are defined.
func (b *Bootstrap) DefineAction(method gohttp.Method, path string, h routing.Handler) error {
	v, err := b.container.Create("action", method, path, h)
	if err != nil {
		return err
	}
	action, ok := v.(*routing.Action)
	if !ok {
		return fmt.Errorf("app: \"action\" built %T, not *routing.Action", v)
	}
	b.actions = append(b.actions, action)
	return nil
}

// DefineAllOptionsActions sets the handler of OPTIONS requests that no
// OPTIONS action matches.
func (b *Bootstrap) DefineAllOptionsActions(fn OptionsHandler) *Bootstrap {
	b.allOptions = fn
	return b
}

// DefineErrors sets the handler formatting failed requests.
func (b *Bootstrap) DefineErrors(fn ErrorHandler) *Bootstrap {
	b.onError = fn
	return b
}

// ── Verb shorthands ───────────────────────────────────────────────────────────

func (b *Bootstrap) Get(path string, h routing.Handler) *Bootstrap {
	return b.mustDefine(gohttp.MethodGet, path, h)
}
func (b *Bootstrap) Post(path string, h routing.Handler) *Bootstrap {
	return b.mustDefine(gohttp.MethodPost, path, h)
}
func (b *Bootstrap) Put(path string, h routing.Handler) *Bootstrap {
	return b.mustDefine(gohttp.MethodPut, path, h)
}
func (b *Bootstrap) Patch(path string, h routing.Handler) *Bootstrap {
	return b.mustDefine(gohttp.MethodPatch, path, h)
}
func (b *Bootstrap) Delete(path string, h routing.Handler) *Bootstrap {
	return b.mustDefine(gohttp.MethodDelete, path, h)
}
func (b *Bootstrap) Options(path string, h routing.Handler) *Bootstrap {
	return b.mustDefine(gohttp.MethodOptions, path, h)
}

func (b *Bootstrap) mustDefine(method gohttp.Method, path string, h routing.Handler) *Bootstrap {
	if err := b.DefineAction(method, path, h); err != nil {
		panic(fmt.Sprintf("app: define %s %s: %v", method.Upper(), path, err))
	}
	return b
}

// ── Providers ─────────────────────────────────────────────────────────────────

// Register adds a service provider to the application container.
func (b *Bootstrap) Register(provider container.ServiceProvider) error {
	return b.providers.Register(provider)
}

// Boot boots the registered providers. A "logger" bound by them replaces
// the default logger unless WithLogger was given.
func (b *Bootstrap) Boot() error {
	if err := b.providers.Boot(); err != nil {
		return err
	}
	if !b.loggerSet && b.container.Has("logger") {
		logger, err := container.Resolve[*slog.Logger](b.container, "logger")
		if err != nil {
			return err
		}
		b.logger = logger
	}
	return nil
}

// ── Request cycle ─────────────────────────────────────────────────────────────

// Dispatch runs one request on its own fork of the container and returns
// the response to send. Handler errors, panics and content that cannot be
// encoded end up in the response.
func (b *Bootstrap) Dispatch(req *gohttp.Request) *gohttp.Response {
	ctx, span := b.tracer.Start(req.Context(), "bootstrap.dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method().Upper()),
			attribute.String("url.path", req.Path()),
		),
	)
	defer span.End()

	logger := b.logger.With(
		slog.String("method", req.Method().Upper()),
		slog.String("path", req.Path()),
	)
	if id := middleware.GetReqID(ctx); id != "" {
		logger = logger.With(slog.String("request_id", id))
	}
	req = req.WithContext(ctxlog.WithLogger(ctx, logger))

	c := b.container.Fork()
	res, err := newResponse(c)
	c.SetParam("request", req)
	c.SetParam("response", res)

	if err == nil {
		err = b.handle(c, res, req, span)
	}
	if err != nil {
		b.fail(c, res, req, err, span)
	}
	if _, err := res.Body(); err != nil {
		res.Headers.Del("Content-Type")
		b.fail(c, res, req, err, span)
		if _, err := res.Body(); err != nil {
			res.SetContent(nil)
		}
	}
	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode()))
	return res
}

// newResponse builds the request's response from the "response"
// definition. On failure a plain response is returned with the error.
func newResponse(c *container.Container) (*gohttp.Response, error) {
	v, err := c.Create("response")
	if err != nil {
		return gohttp.NewResponse(), err
	}
	res, ok := v.(*gohttp.Response)
	if !ok || res == nil {
		return gohttp.NewResponse(), fmt.Errorf("app: \"response\" built %T, not *http.Response", v)
	}
	return res, nil
}

func (b *Bootstrap) handle(c *container.Container, res *gohttp.Response, req *gohttp.Request, span trace.Span) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("app: panic: %v", r)
		}
	}()

	for _, fn := range b.onRequest {
		if err := fn(c); err != nil {
			return err
		}
	}

	if handled, err := b.handleOptions(c, res, req, span); handled {
		return err
	}

	for _, action := range b.actions {
		if vars, ok := action.Match(req); ok {
			b.matched(req, action, span)
			return action.Execute(c, res, req, vars)
		}
	}
	return gohttp.NotFound()
}

// handleOptions gives an OPTIONS action for the path precedence over the
// all-options handler, which only runs when some action matches the path.
func (b *Bootstrap) handleOptions(c *container.Container, res *gohttp.Response, req *gohttp.Request, span trace.Span) (bool, error) {
	if !req.IsOptions() || b.allOptions == nil {
		return false, nil
	}

	var matched []*routing.Action
	for _, action := range b.actions {
		vars, ok := action.MatchPath(req.Path())
		if !ok {
			continue
		}
		if action.HasMatchedMethod(req) {
			b.matched(req, action, span)
			return true, action.Execute(c, res, req, vars)
		}
		matched = append(matched, action)
	}
	if len(matched) == 0 {
		return false, nil
	}

	span.SetAttributes(attribute.Int("app.options.actions", len(matched)))
	ctxlog.FromContext(req.Context()).DebugContext(req.Context(), "all-options handler", slog.Int("actions", len(matched)))
	return true, b.allOptions(c, res, req, matched)
}

func (b *Bootstrap) matched(req *gohttp.Request, action *routing.Action, span trace.Span) {
	span.SetAttributes(attribute.String("http.route", action.Path()))
	ctxlog.FromContext(req.Context()).DebugContext(req.Context(), "action matched", slog.String("action", action.String()))
}

// fail turns err into the response. Errors that are not web errors become
// internal errors whose message is only kept in development.
func (b *Bootstrap) fail(c *container.Container, res *gohttp.Response, req *gohttp.Request, err error, span trace.Span) {
	ctx := req.Context()
	logger := ctxlog.FromContext(ctx)
	isDev := b.isDev(c)
	web := gohttp.AsWebError(err, isDev)

	if web.Code >= http.StatusInternalServerError {
		span.RecordError(err)
		span.SetStatus(codes.Error, web.Message)
		logger.ErrorContext(ctx, "request failed", slog.Int("status", web.Code), slog.String("error", err.Error()))
	} else {
		logger.InfoContext(ctx, "request rejected", slog.Int("status", web.Code), slog.String("error", web.Message))
	}

	res.SetStatusCode(web.Code).SetContent(nil)
	switch {
	case b.onError != nil:
		if cbErr := b.onError(c, res, req, web); cbErr != nil {
			logger.ErrorContext(ctx, "error handler failed", slog.String("error", cbErr.Error()))
		}
	case isDev:
		res.SetContent(map[string]any{"error": web.Message})
	}
}

func (b *Bootstrap) isDev(c *container.Container) bool {
	if !c.Has("isDev") {
		return false
	}
	v, err := c.Get("isDev")
	if err != nil {
		return false
	}
	dev, _ := v.(bool)
	return dev
}

// ServeHTTP dispatches r and writes the response. A request whose body
// cannot be read is answered with 400.
func (b *Bootstrap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var res *gohttp.Response
	req, err := gohttp.FromHTTP(r)
	if err != nil {
		b.logger.InfoContext(r.Context(), "bad request", slog.String("error", err.Error()))
		res = gohttp.NewResponse().SetStatusCode(http.StatusBadRequest)
		if b.isDev(b.container.Fork()) {
			res.SetContent(map[string]any{"error": gohttp.StatusText(http.StatusBadRequest)})
		}
	} else {
		res = b.Dispatch(req)
	}
	if err := res.Send(w); err != nil {
		b.logger.ErrorContext(r.Context(), "send response", slog.String("error", err.Error()))
	}
}
