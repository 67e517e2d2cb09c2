package http

import (
	"net/http"
	"net/url"
	"strings"
)

// RequestIDHeader carries the per-request ID the probe assigns and the
// fixture logs.
const RequestIDHeader = "X-Request-Id"

// Request represents an HTTP request
type Request struct {
	Method      string
	Path        string
	QueryParams url.Values
	Headers     map[string]string
}

// NewRequest creates a new HTTP request
func NewRequest(method, path string) *Request {
	return &Request{
		Method:      strings.ToUpper(method),
		Path:        path,
		QueryParams: make(url.Values),
		Headers:     make(map[string]string),
	}
}

// WithHeader adds a header to the request
func (r *Request) WithHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

// WithQueryParam adds a query parameter to the request
func (r *Request) WithQueryParam(key, value string) *Request {
	r.QueryParams.Add(key, value)
	return r
}

// Build constructs an http.Request from the Request
func (r *Request) Build(baseURL string) (*http.Request, error) {
	reqURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	// A path may carry its own query string.
	path := r.Path
	rawQuery := ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, rawQuery = path[:i], path[i+1:]
	}

	if reqURL.Path == "" {
		reqURL.Path = path
	} else {
		reqURL.Path = strings.TrimRight(reqURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	}
	if reqURL.Path == "" {
		reqURL.Path = "/"
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	for key, values := range reqURL.Query() {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	for key, values := range r.QueryParams {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequest(r.Method, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
