package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/km-arc/simple-structure/framework/tool"
)

// Resource is the result of an outbound request. Header names are
// lower-cased; repeated headers hold a list.
type Resource struct {
	Headers *tool.ParamPack

	content    string
	statusCode int
	url        string
}

// NewResource wraps a fetched body.
func NewResource(content string, headers http.Header, statusCode int, url string) *Resource {
	params := make(map[string]any, len(headers))
	for name, values := range headers {
		name = strings.ToLower(name)
		if len(values) == 1 {
			params[name] = values[0]
			continue
		}
		list := make([]any, len(values))
		for i, v := range values {
			list[i] = v
		}
		params[name] = list
	}
	return &Resource{
		Headers:    tool.NewParamPack(params),
		content:    content,
		statusCode: statusCode,
		url:        url,
	}
}

func (r *Resource) Content() string { return r.content }

func (r *Resource) StatusCode() int { return r.statusCode }

func (r *Resource) URL() string { return r.url }

// ContentJSON decodes the body into v.
func (r *Resource) ContentJSON(v any) error {
	return json.Unmarshal([]byte(r.content), v)
}

// ContentParams exposes a JSON object body as a parameter pack.
func (r *Resource) ContentParams() *tool.ParamPack {
	var params map[string]any
	_ = json.Unmarshal([]byte(r.content), &params)
	return tool.NewParamPack(params)
}
