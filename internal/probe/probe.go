// Package probe plays the caller's side of the fixture: it sends requests
// with a client-side timeout and records whether the timeout fired or the
// delayed response arrived.
package probe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wesleyorama2/stallserver/internal/config"
	"github.com/wesleyorama2/stallserver/internal/http"
	"github.com/wesleyorama2/stallserver/internal/metrics"
)

// Result is one request's observation.
type Result struct {
	Step       string         `json:"step" yaml:"step"`
	RequestID  string         `json:"requestId" yaml:"requestId"`
	Method     string         `json:"method" yaml:"method"`
	URL        string         `json:"url" yaml:"url"`
	StatusCode int            `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	Body       string         `json:"body,omitempty" yaml:"body,omitempty"`
	Elapsed    time.Duration  `json:"elapsed" yaml:"elapsed"`
	Outcome    config.Outcome `json:"outcome" yaml:"outcome"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// StepReport aggregates the results of one plan step.
type StepReport struct {
	Name         string           `json:"name" yaml:"name"`
	Method       string           `json:"method" yaml:"method"`
	Path         string           `json:"path" yaml:"path"`
	Timeout      time.Duration    `json:"timeout" yaml:"timeout"`
	Expected     config.Outcome   `json:"expected" yaml:"expected"`
	ExpectStatus int              `json:"expectStatus" yaml:"expectStatus"`
	Passed       bool             `json:"passed" yaml:"passed"`
	Results      []Result         `json:"results" yaml:"results"`
	Metrics      metrics.Snapshot `json:"metrics" yaml:"metrics"`
}

// Report is the outcome of a whole plan.
type Report struct {
	Target    string           `json:"target" yaml:"target"`
	Passed    bool             `json:"passed" yaml:"passed"`
	Steps     []StepReport     `json:"steps" yaml:"steps"`
	Summary   metrics.Snapshot `json:"summary" yaml:"summary"`
	StartTime time.Time        `json:"startTime" yaml:"startTime"`
	Duration  time.Duration    `json:"duration" yaml:"duration"`
}

// FailedSteps returns the names of steps that did not pass.
func (r *Report) FailedSteps() []string {
	var names []string
	for _, step := range r.Steps {
		if !step.Passed {
			names = append(names, step.Name)
		}
	}
	return names
}

// Observer is called once per finished request, from the request's own
// goroutine.
type Observer func(Result)

type options struct {
	observer Observer
}

// Option configures Run
type Option func(*options)

// WithObserver streams every result as it finishes.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// Classify maps a response or error to an outcome.
func Classify(resp *http.Response, err error, expectStatus int) config.Outcome {
	switch {
	case err != nil && http.IsTimeout(err):
		return config.OutcomeTimedOut
	case err != nil:
		return config.OutcomeFailed
	case resp.StatusCode == expectStatus:
		return config.OutcomeResponded
	default:
		return config.OutcomeUnexpected
	}
}

// Run executes every step of a validated plan in order. Steps run one after
// another; the requests inside a step run concurrently. If ctx is cancelled
// between steps the partial report is returned with ctx.Err().
func Run(ctx context.Context, plan *config.Plan, opts ...Option) (*Report, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	report := &Report{
		Target:    plan.Target,
		Passed:    true,
		StartTime: time.Now(),
	}
	summary := metrics.NewRecorder()

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			report.Passed = false
			report.Summary = summary.Snapshot()
			report.Duration = time.Since(report.StartTime)
			return report, err
		}

		stepReport, err := runStep(ctx, plan, step, summary, o.observer)
		if err != nil {
			return nil, err
		}

		report.Steps = append(report.Steps, *stepReport)
		if !stepReport.Passed {
			report.Passed = false
		}
	}

	report.Summary = summary.Snapshot()
	report.Duration = time.Since(report.StartTime)
	return report, nil
}

func runStep(ctx context.Context, plan *config.Plan, step config.Step, summary *metrics.Recorder, observer Observer) (*StepReport, error) {
	timeout, err := step.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", step.Name, err)
	}

	clientOpts := []http.ClientOption{
		http.WithBaseURL(plan.Target),
		http.WithTimeout(timeout),
	}
	for key, value := range plan.Headers {
		clientOpts = append(clientOpts, http.WithHeader(key, value))
	}
	client := http.NewClient(clientOpts...)
	defer client.Close()

	recorder := metrics.NewRecorder()
	results := make([]Result, step.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < step.Concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			result := probeOnce(ctx, client, step)
			results[i] = result

			recorder.Record(result.Elapsed, string(result.Outcome))
			summary.Record(result.Elapsed, string(result.Outcome))
			if observer != nil {
				observer(result)
			}
		}(i)
	}
	wg.Wait()

	passed := true
	for _, result := range results {
		if result.Outcome != step.Expect.Outcome {
			passed = false
			break
		}
	}

	return &StepReport{
		Name:         step.Name,
		Method:       step.Method,
		Path:         step.Path,
		Timeout:      timeout,
		Expected:     step.Expect.Outcome,
		ExpectStatus: step.Expect.Status,
		Passed:       passed,
		Results:      results,
		Metrics:      recorder.Snapshot(),
	}, nil
}

func probeOnce(ctx context.Context, client *http.Client, step config.Step) Result {
	id := uuid.New().String()
	req := http.NewRequest(step.Method, step.Path).WithHeader(http.RequestIDHeader, id)

	start := time.Now()
	resp, err := client.Do(ctx, req)
	elapsed := time.Since(start)

	result := Result{
		Step:      step.Name,
		RequestID: id,
		Method:    req.Method,
		URL:       strings.TrimRight(client.BaseURL(), "/") + step.Path,
		Elapsed:   elapsed,
		Outcome:   Classify(resp, err, step.Expect.Status),
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Body = resp.GetBodyAsString()
	result.Elapsed = resp.Timing.TotalTime
	return result
}
