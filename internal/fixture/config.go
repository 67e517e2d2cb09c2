// Package fixture implements the delayed responder: an HTTP server that
// accepts GET and HEAD on every path, stalls for a fixed delay and then
// answers with a fixed status, content type and body.
//
// It exists to simulate a slow upstream so that a caller's own timeout
// handling can be exercised.
package fixture

import (
	"net/http"
	"time"
)

const (
	// DefaultAddr listens on all interfaces.
	DefaultAddr = ":8897"
	// DefaultDelay is how long every request stalls.
	DefaultDelay = 100 * time.Second
	// DefaultStatusCode is 202 Accepted.
	DefaultStatusCode = http.StatusAccepted
	// DefaultContentType is the only header the handler sets.
	DefaultContentType = "text/html"
)

// DefaultBody is written after the delay.
var DefaultBody = []byte("Accepted")

// Config describes the fixture's fixed behavior.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// Delay applies to every GET and HEAD request. Zero is allowed and
	// means no stall.
	Delay time.Duration
	// StatusCode is the response status after the delay.
	StatusCode int
	// ContentType is sent as the Content-Type header.
	ContentType string
	// Body is written for GET requests.
	Body []byte
	// HeadBody writes Body for HEAD requests too, on a raw HTTP/1.0
	// response over the hijacked connection. net/http never sends a body
	// for HEAD, so this is the only way to reproduce callers that depend
	// on it.
	HeadBody bool
}

// DefaultConfig returns the fixture's standard behavior: port 8897,
// 100 second delay, 202 text/html "Accepted".
func DefaultConfig() Config {
	return Config{
		Addr:        DefaultAddr,
		Delay:       DefaultDelay,
		StatusCode:  DefaultStatusCode,
		ContentType: DefaultContentType,
		Body:        append([]byte(nil), DefaultBody...),
	}
}

// withDefaults fills unset fields. Delay is left alone because zero is a
// valid delay.
func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.StatusCode == 0 {
		c.StatusCode = DefaultStatusCode
	}
	if c.ContentType == "" {
		c.ContentType = DefaultContentType
	}
	if c.Body == nil {
		c.Body = append([]byte(nil), DefaultBody...)
	}
	return c
}
