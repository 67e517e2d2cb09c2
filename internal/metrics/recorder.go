// Package metrics aggregates probe latencies in an HDR histogram.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// histogramMin is 1 microsecond.
	histogramMin     = 1
	// histogramMax is 1 hour in microseconds, well above the fixture's
	// default 100s stall.
	histogramMax     = 3600000000
	histogramSigFigs = 3
)

// Recorder collects latencies keyed by outcome. It is safe for concurrent
// use; hdrhistogram itself is not, so every access holds mu.
type Recorder struct {
	mu       sync.Mutex
	hist     *hdrhistogram.Histogram
	outcomes map[string]int64
	start    time.Time
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		hist:     hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		outcomes: make(map[string]int64),
		start:    time.Now(),
	}
}

// Record adds one request's latency under outcome.
func (r *Recorder) Record(d time.Duration, outcome string) {
	micros := d.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_ = r.hist.RecordValue(micros)
	r.outcomes[outcome]++
}

// Snapshot returns the current totals.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcomes := make(map[string]int64, len(r.outcomes))
	for k, v := range r.outcomes {
		outcomes[k] = v
	}

	return Snapshot{
		Total:    r.hist.TotalCount(),
		Outcomes: outcomes,
		Latency:  latencyStats(r.hist),
		Elapsed:  time.Since(r.start),
	}
}

// Reset clears everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hist.Reset()
	r.outcomes = make(map[string]int64)
	r.start = time.Now()
}

func latencyStats(h *hdrhistogram.Histogram) LatencyStats {
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }

	return LatencyStats{
		Min:  us(h.Min()),
		Max:  us(h.Max()),
		Mean: time.Duration(h.Mean() * float64(time.Microsecond)),
		P50:  us(h.ValueAtQuantile(50)),
		P90:  us(h.ValueAtQuantile(90)),
		P99:  us(h.ValueAtQuantile(99)),
	}
}

// Snapshot is a point-in-time view of a Recorder.
type Snapshot struct {
	Total    int64            `json:"total" yaml:"total"`
	Outcomes map[string]int64 `json:"outcomes" yaml:"outcomes"`
	Latency  LatencyStats     `json:"latency" yaml:"latency"`
	Elapsed  time.Duration    `json:"elapsed" yaml:"elapsed"`
}

// OutcomeNames returns the recorded outcome names in sorted order.
func (s Snapshot) OutcomeNames() []string {
	names := make([]string, 0, len(s.Outcomes))
	for name := range s.Outcomes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LatencyStats contains latency statistics.
type LatencyStats struct {
	Min  time.Duration `json:"min" yaml:"min"`
	Max  time.Duration `json:"max" yaml:"max"`
	Mean time.Duration `json:"mean" yaml:"mean"`
	P50  time.Duration `json:"p50" yaml:"p50"`
	P90  time.Duration `json:"p90" yaml:"p90"`
	P99  time.Duration `json:"p99" yaml:"p99"`
}
