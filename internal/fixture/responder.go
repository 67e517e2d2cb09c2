package fixture

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wesleyorama2/stallserver/internal/output"
)

const (
	requestIDHeader = "X-Request-Id"
	allowedMethods  = "GET, HEAD"
)

// State is the responder's coarse state.
type State int

const (
	// Idle means no request is being handled.
	Idle State = iota
	// HandlingDelayed means at least one request is stalling or writing.
	HandlingDelayed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case HandlingDelayed:
		return "handling-delayed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type options struct {
	sleeper Sleeper
	logger  *output.Logger
	startup io.Writer
}

// Option configures a Responder or Server
type Option func(*options)

// WithSleeper replaces the wall-clock sleep.
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		o.sleeper = s
	}
}

// WithLogger sets where request and write-failure lines go.
func WithLogger(l *output.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStartupWriter sets where the "Server started" line is printed.
// Defaults to stdout.
func WithStartupWriter(w io.Writer) Option {
	return func(o *options) {
		o.startup = w
	}
}

func buildOptions(opts []Option) options {
	o := options{
		sleeper: RealSleeper,
		logger:  output.DefaultLogger(),
		startup: os.Stdout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sleeper == nil {
		o.sleeper = RealSleeper
	}
	if o.logger == nil {
		o.logger = output.Discard()
	}
	if o.startup == nil {
		o.startup = io.Discard
	}
	return o
}

// Responder stalls and then writes the configured response. It does not
// look at the method; Routes restricts it to GET and HEAD.
type Responder struct {
	cfg     Config
	sleeper Sleeper
	logger  *output.Logger

	inFlight atomic.Int64
	served   atomic.Int64
}

// NewResponder creates a responder for cfg. Unset fields take defaults.
func NewResponder(cfg Config, opts ...Option) *Responder {
	o := buildOptions(opts)
	return newResponder(cfg.withDefaults(), o)
}

func newResponder(cfg Config, o options) *Responder {
	return &Responder{
		cfg:     cfg,
		sleeper: o.sleeper,
		logger:  o.logger,
	}
}

// Routes returns the wildcard route: GET and HEAD on every path reach the
// responder untouched, everything else gets 405. Paths are not cleaned, so
// "//x" or "/a/../b" stall like any other path.
func (r *Responder) Routes() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet, http.MethodHead:
			r.ServeHTTP(w, req)
		default:
			w.Header().Set("Allow", allowedMethods)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})
}

// ServeHTTP implements http.Handler
func (r *Responder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.inFlight.Add(1)
	defer r.inFlight.Add(-1)

	id := req.Header.Get(requestIDHeader)
	if id == "" {
		id = uuid.New().String()
	}

	start := time.Now()
	r.sleeper.Sleep(r.cfg.Delay)

	if err := req.Context().Err(); err != nil {
		r.logger.Warnf("%s %s: client went away after %s: %v (id %s)", req.Method, req.URL.Path, time.Since(start).Round(time.Millisecond), err, id)
	}

	var err error
	if req.Method == http.MethodHead && r.cfg.HeadBody {
		err = r.writeRawHead(w)
	} else {
		err = r.write(w, req)
	}
	r.served.Add(1)

	if err != nil {
		r.logger.Warnf("%s %s: write failed: %v (id %s)", req.Method, req.URL.Path, err, id)
		return
	}
	r.logger.Infof("%s %s -> %d after %s (id %s)", req.Method, req.URL.Path, r.cfg.StatusCode, time.Since(start).Round(time.Millisecond), id)
}

func (r *Responder) write(w http.ResponseWriter, req *http.Request) error {
	w.Header().Set("Content-Type", r.cfg.ContentType)
	w.WriteHeader(r.cfg.StatusCode)

	if req.Method == http.MethodHead {
		return nil
	}
	_, err := w.Write(r.cfg.Body)
	return err
}

// writeRawHead writes an HTTP/1.0 response with a body on the hijacked
// connection and closes it.
func (r *Responder) writeRawHead(w http.ResponseWriter) error {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return fmt.Errorf("response writer %T cannot be hijacked", w)
	}

	conn, buf, err := hj.Hijack()
	if err != nil {
		return fmt.Errorf("hijack: %w", err)
	}
	defer conn.Close()

	fmt.Fprintf(buf, "HTTP/1.0 %d %s\r\n", r.cfg.StatusCode, http.StatusText(r.cfg.StatusCode))
	fmt.Fprintf(buf, "Date: %s\r\n", time.Now().UTC().Format(http.TimeFormat))
	fmt.Fprintf(buf, "Content-type: %s\r\n\r\n", r.cfg.ContentType)
	if _, err := buf.Write(r.cfg.Body); err != nil {
		return err
	}
	return buf.Flush()
}

// State reports Idle or HandlingDelayed.
func (r *Responder) State() State {
	if r.inFlight.Load() > 0 {
		return HandlingDelayed
	}
	return Idle
}

// InFlight is the number of requests currently stalling or writing.
func (r *Responder) InFlight() int {
	return int(r.inFlight.Load())
}

// Served is the number of responses attempted so far, successful or not.
func (r *Responder) Served() int64 {
	return r.served.Load()
}
