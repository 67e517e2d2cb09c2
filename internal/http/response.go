package http

import (
	"net/http"
	"time"
)

// TimingInfo holds the phases of a request that matter when talking to a
// slow upstream.
type TimingInfo struct {
	StartTime       time.Time
	TCPConnectTime  time.Duration
	TimeToFirstByte time.Duration
	TotalTime       time.Duration
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Headers    http.Header
	Body       []byte
	Timing     TimingInfo
}

// GetBodyAsString returns the response body as a string
func (r *Response) GetBodyAsString() string {
	return string(r.Body)
}

// GetHeader returns the value of the specified header
func (r *Response) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// IsSuccess returns true if the response status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// GetTimeToFirstByteMillis returns the wait for the first response byte
func (r *Response) GetTimeToFirstByteMillis() int64 {
	return r.Timing.TimeToFirstByte.Milliseconds()
}

// GetTotalTimeMillis returns the total request time in milliseconds
func (r *Response) GetTotalTimeMillis() int64 {
	return r.Timing.TotalTime.Milliseconds()
}
