package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/km-arc/simple-structure/framework/tool"
)

const maxMemory = 32 << 20 // 32 MB

const (
	ProtocolHTTP  = "http"
	ProtocolHTTPS = "https"
)

// RawRequestInput is everything a Request is built from. The server
// adapter fills it from *http.Request; tests can fill it by hand.
type RawRequestInput struct {
	Context    context.Context
	Method     string
	Host       string
	RequestURI string
	HTTPS      bool
	// Headers are keyed by lower-cased name.
	Headers    map[string]string
	Query      map[string]any
	Form       map[string]any
	Cookies    map[string]any
	Files      map[string]any
	Body       []byte
	RemoteAddr string
}

// InputFromHTTP reads r into a RawRequestInput. The body is consumed.
func InputFromHTTP(r *http.Request) (RawRequestInput, error) {
	in := RawRequestInput{
		Context:    r.Context(),
		Method:     r.Method,
		Host:       r.Host,
		RequestURI: r.URL.RequestURI(),
		HTTPS:      r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), ProtocolHTTPS),
		Headers:    make(map[string]string, len(r.Header)),
		Query:      valuesToParams(r.URL.Query()),
		Form:       map[string]any{},
		Cookies:    map[string]any{},
		Files:      map[string]any{},
		RemoteAddr: r.RemoteAddr,
	}
	for name, values := range r.Header {
		in.Headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	for _, c := range r.Cookies() {
		in.Cookies[c.Name] = c.Value
	}
	if r.Body == nil {
		return in, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMemory))
	if err != nil {
		return in, fmt.Errorf("http: read body: %w", err)
	}
	in.Body = body

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "multipart/form-data"):
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return in, fmt.Errorf("http: parse multipart form: %w", err)
		}
		in.Form = valuesToParams(r.MultipartForm.Value)
		in.Files = filesToParams(r.MultipartForm.File)
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return in, fmt.Errorf("http: parse form: %w", err)
		}
		in.Form = valuesToParams(values)
	}
	return in, nil
}

// valuesToParams keeps single values as strings. Repeated keys and keys
// written as "name[]" become lists.
func valuesToParams(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, vals := range values {
		name, isList := strings.CutSuffix(key, "[]")
		if !isList && len(vals) == 1 {
			out[name] = vals[0]
			continue
		}
		list := make([]any, len(vals))
		for i, v := range vals {
			list[i] = v
		}
		out[name] = list
	}
	return out
}

func filesToParams(files map[string][]*multipart.FileHeader) map[string]any {
	out := make(map[string]any, len(files))
	for key, headers := range files {
		name, isList := strings.CutSuffix(key, "[]")
		if !isList && len(headers) == 1 {
			out[name] = headers[0]
			continue
		}
		list := make([]any, len(headers))
		for i, h := range headers {
			list[i] = h
		}
		out[name] = list
	}
	return out
}

// ── Request ──────────────────────────────────────────────────────────────────

// Request is an inbound request with its inputs exposed as parameter packs.
// Params falls back from Form to Query.
type Request struct {
	Headers *tool.ParamPack
	Query   *tool.ParamPack
	Form    *tool.ParamPack
	Params  *tool.ParamPack
	Cookies *tool.ParamPack
	Files   *tool.ParamPack

	ctx        context.Context
	method     Method
	protocol   string
	domain     string
	path       string
	body       []byte
	remoteAddr string
}

// NewRequest builds a Request from in.
func NewRequest(in RawRequestInput) *Request {
	headers := make(map[string]any, len(in.Headers))
	for name, value := range in.Headers {
		headers[strings.ToLower(name)] = value
	}
	req := &Request{
		Headers:    tool.NewParamPack(headers),
		Query:      tool.NewParamPack(in.Query),
		Form:       tool.NewParamPack(in.Form),
		Cookies:    tool.NewParamPack(in.Cookies),
		Files:      tool.NewParamPack(in.Files),
		ctx:        in.Context,
		method:     ParseMethod(in.Method),
		protocol:   ProtocolHTTP,
		domain:     in.Host,
		path:       cleanPath(in.RequestURI),
		body:       in.Body,
		remoteAddr: in.RemoteAddr,
	}
	if req.ctx == nil {
		req.ctx = context.Background()
	}
	if in.HTTPS {
		req.protocol = ProtocolHTTPS
	}
	req.Params = tool.NewParamPack(nil).AddParent(req.Form).AddParent(req.Query)
	return req
}

// FromHTTP is InputFromHTTP followed by NewRequest.
func FromHTTP(r *http.Request) (*Request, error) {
	in, err := InputFromHTTP(r)
	if err != nil {
		return nil, err
	}
	return NewRequest(in), nil
}

func cleanPath(uri string) string {
	path, _, _ := strings.Cut(uri, "?")
	return strings.TrimRight(path, "/")
}

// Context returns the request context.
func (req *Request) Context() context.Context { return req.ctx }

// WithContext returns a shallow copy of req using ctx.
func (req *Request) WithContext(ctx context.Context) *Request {
	clone := *req
	clone.ctx = ctx
	return &clone
}

// ── Method ───────────────────────────────────────────────────────────────────

func (req *Request) Method() Method  { return req.method }
func (req *Request) IsDelete() bool  { return req.method == MethodDelete }
func (req *Request) IsGet() bool     { return req.method == MethodGet }
func (req *Request) IsOptions() bool { return req.method == MethodOptions }
func (req *Request) IsPatch() bool   { return req.method == MethodPatch }
func (req *Request) IsPost() bool    { return req.method == MethodPost }
func (req *Request) IsPut() bool     { return req.method == MethodPut }

// ── Address ──────────────────────────────────────────────────────────────────

// Path is the request path without query string or trailing slash, so the
// root path is "".
func (req *Request) Path() string { return req.path }

// Protocol is "http" or "https".
func (req *Request) Protocol() string { return req.protocol }

// Domain is the host the request was addressed to.
func (req *Request) Domain() string { return req.domain }

// PageAddress returns "protocol://domain". A valid protocol argument
// replaces the request's own.
func (req *Request) PageAddress(protocol ...string) string {
	p := req.protocol
	if len(protocol) > 0 && isValidProtocol(protocol[0]) {
		p = protocol[0]
	}
	return p + "://" + req.domain
}

func isValidProtocol(p string) bool {
	return p == ProtocolHTTP || p == ProtocolHTTPS
}

// URLOption changes how URL builders render.
type URLOption func(*urlOptions)

type urlOptions struct {
	prefix   string
	absolute bool
	escape   bool
}

// Absolute prefixes the URL with the page address. A protocol argument
// overrides the request's protocol.
func Absolute(protocol ...string) URLOption {
	return func(o *urlOptions) {
		o.absolute = true
		if len(protocol) > 0 && isValidProtocol(protocol[0]) {
			o.prefix = protocol[0]
		}
	}
}

// WithPrefix prefixes the URL with an arbitrary address.
func WithPrefix(prefix string) URLOption {
	return func(o *urlOptions) { o.prefix, o.absolute = prefix, false }
}

// HTMLEscaped joins query parameters with "&amp;".
func HTMLEscaped() URLOption {
	return func(o *urlOptions) { o.escape = true }
}

// URL builds path with params as its query string. An empty path is "/".
// Keys are sorted; nil values are dropped; maps and slices nest as
// key[sub]=value.
//
//	req.URL("/users", map[string]any{"page": 2}, gohttp.Absolute())
//	// "https://example.com/users?page=2"
func (req *Request) URL(path string, params map[string]any, opts ...URLOption) string {
	o := urlOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if path == "" {
		path = "/"
	}
	switch {
	case o.absolute && o.prefix != "":
		path = req.PageAddress(o.prefix) + path
	case o.absolute:
		path = req.PageAddress() + path
	case o.prefix != "":
		path = o.prefix + path
	}

	joint := "&"
	if o.escape {
		joint = "&amp;"
	}
	if qs := queryString(params, joint); qs != "" {
		return path + "?" + qs
	}
	return path
}

// CurrentURL rebuilds the current path with the current query merged with
// add, minus the names in remove.
func (req *Request) CurrentURL(add map[string]any, remove []string, opts ...URLOption) string {
	params := req.Query.Pack()
	for k, v := range add {
		params[k] = v
	}
	for _, name := range remove {
		delete(params, name)
	}
	return req.URL(req.path, params, opts...)
}

// CurrentURLWithOnly rebuilds the current path keeping only the query
// names in keep, plus add.
func (req *Request) CurrentURLWithOnly(keep []string, add map[string]any, opts ...URLOption) string {
	params := make(map[string]any, len(keep)+len(add))
	for _, name := range keep {
		if v, ok := req.Query.Lookup(name); ok {
			params[name] = v
		}
	}
	for k, v := range add {
		params[k] = v
	}
	return req.URL(req.path, params, opts...)
}

// URLWithCurrentParams builds path with params plus the current query
// values of names. Unless overwrite is set, params win over current values.
func (req *Request) URLWithCurrentParams(path string, params map[string]any, names []string, overwrite bool, opts ...URLOption) string {
	merged := make(map[string]any, len(params)+len(names))
	for k, v := range params {
		merged[k] = v
	}
	for _, name := range names {
		v, ok := req.Query.Lookup(name)
		if !ok {
			continue
		}
		if _, taken := merged[name]; overwrite || !taken || merged[name] == nil {
			merged[name] = v
		}
	}
	return req.URL(path, merged, opts...)
}

func queryString(params map[string]any, joint string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = appendParam(parts, url.QueryEscape(k), params[k], joint)
	}
	return strings.Join(parts, joint)
}

func appendParam(parts []string, key string, v any, joint string) []string {
	switch t := v.(type) {
	case nil:
		return parts
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = appendParam(parts, key+"["+url.QueryEscape(k)+"]", t[k], joint)
		}
		return parts
	case []any:
		for i, item := range t {
			parts = appendParam(parts, fmt.Sprintf("%s[%d]", key, i), item, joint)
		}
		return parts
	case []string:
		for i, item := range t {
			parts = append(parts, fmt.Sprintf("%s[%d]=%s", key, i, url.QueryEscape(item)))
		}
		return parts
	default:
		return append(parts, key+"="+url.QueryEscape(tool.ParseString(v, 0)))
	}
}

// ── Content ──────────────────────────────────────────────────────────────────

// Content returns the raw body.
func (req *Request) Content() string { return string(req.body) }

// ContentJSON decodes the body into v.
func (req *Request) ContentJSON(v any) error {
	if len(req.body) == 0 {
		return BadRequest("Empty request body")
	}
	if err := json.Unmarshal(req.body, v); err != nil {
		return BadRequest().Wrap(err)
	}
	return nil
}

// ContentParams exposes a JSON object body as a parameter pack. Any other
// body gives an empty pack.
func (req *Request) ContentParams() *tool.ParamPack {
	var params map[string]any
	_ = json.Unmarshal(req.body, &params)
	return tool.NewParamPack(params)
}

// ── Client ───────────────────────────────────────────────────────────────────

// Header returns a header value by case-insensitive name.
func (req *Request) Header(name string) string {
	return req.Headers.String(strings.ToLower(name), "")
}

// IP returns the client address from Client-Ip, then X-Forwarded-For, then
// the connection's remote address.
func (req *Request) IP() string {
	if ip := req.Header("Client-Ip"); ip != "" {
		return ip
	}
	if ip := req.Header("X-Forwarded-For"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(req.remoteAddr); err == nil {
		return host
	}
	return req.remoteAddr
}

// IsAjax reports whether the request was sent with X-Requested-With:
// XMLHttpRequest.
func (req *Request) IsAjax() bool {
	return strings.EqualFold(req.Header("X-Requested-With"), "xmlhttprequest")
}

// BearerToken extracts the token from Authorization: Bearer <token>.
func (req *Request) BearerToken() string {
	token, ok := strings.CutPrefix(req.Header("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}

// File returns an uploaded file by field name.
func (req *Request) File(name string) (*multipart.FileHeader, bool) {
	fh, ok := req.Files.Get(name, nil).(*multipart.FileHeader)
	return fh, ok
}
