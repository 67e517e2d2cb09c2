package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"
)

// Client represents an HTTP client with customizable options
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a new HTTP client with the given options
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		headers: make(map[string]string),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithBaseURL sets the base URL for the client
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the timeout for the client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHeader adds a header to the client
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// Timeout returns the client-side timeout applied to every request
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close drops idle connections held by the client
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// RequestError is returned when no response was received. Elapsed is how
// long the client waited before giving up.
type RequestError struct {
	Method  string
	URL     string
	Elapsed time.Duration
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s failed after %s: %v", e.Method, e.URL, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request gave up because a deadline fired
func (e *RequestError) Timeout() bool {
	return IsTimeout(e.Err)
}

// IsTimeout reports whether err is a client-side timeout or deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Do executes an HTTP request and returns the response with timing information
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.Build(c.baseURL)
	if err != nil {
		return nil, err
	}

	for key, value := range c.headers {
		if _, ok := req.Headers[key]; !ok {
			httpReq.Header.Set(key, value)
		}
	}

	timing := TimingInfo{
		StartTime: time.Now(),
	}

	var connectStart, wroteRequest time.Time
	trace := &httptrace.ClientTrace{
		ConnectStart: func(network, addr string) {
			connectStart = time.Now()
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil && !connectStart.IsZero() {
				timing.TCPConnectTime = time.Since(connectStart)
			}
		},
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			wroteRequest = time.Now()
		},
		GotFirstResponseByte: func() {
			// The stall happens between the request being written and the
			// first byte coming back.
			from := wroteRequest
			if from.IsZero() {
				from = timing.StartTime
			}
			timing.TimeToFirstByte = time.Since(from)
		},
	}

	httpReq = httpReq.WithContext(httptrace.WithClientTrace(ctx, trace))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RequestError{
			Method:  httpReq.Method,
			URL:     httpReq.URL.String(),
			Elapsed: time.Since(timing.StartTime),
			Err:     err,
		}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &RequestError{
			Method:  httpReq.Method,
			URL:     httpReq.URL.String(),
			Elapsed: time.Since(timing.StartTime),
			Err:     fmt.Errorf("reading body: %w", err),
		}
	}
	timing.TotalTime = time.Since(timing.StartTime)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Proto:      httpResp.Proto,
		Headers:    httpResp.Header,
		Body:       body,
		Timing:     timing,
	}, nil
}
