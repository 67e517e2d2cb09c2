package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a plan validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return "invalid plan: " + e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("invalid plan: %d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(path, message string) {
	e.Errors = append(e.Errors, ValidationError{Path: path, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

const maxConcurrency = 1000

// Validate checks a defaulted plan. It returns nil or *ValidationErrors.
func (p *Plan) Validate() error {
	errs := &ValidationErrors{}

	target, err := url.Parse(p.Target)
	if err != nil || target.Host == "" {
		errs.Add("target", fmt.Sprintf("invalid target URL: %s", p.Target))
	} else if target.Scheme != "http" && target.Scheme != "https" {
		errs.Add("target", fmt.Sprintf("unsupported scheme: %s", target.Scheme))
	}

	if len(p.Steps) == 0 {
		errs.Add("steps", "at least one step is required")
	}

	names := make(map[string]int)
	for i, step := range p.Steps {
		prefix := fmt.Sprintf("steps[%d]", i)

		if prev, ok := names[step.Name]; ok {
			errs.Add(prefix+".name", fmt.Sprintf("duplicate step name %q (also steps[%d])", step.Name, prev))
		} else {
			names[step.Name] = i
		}

		validateStep(prefix, step, errs)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateStep(prefix string, step Step, errs *ValidationErrors) {
	if step.Method == "" || strings.ToUpper(step.Method) != step.Method {
		errs.Add(prefix+".method", fmt.Sprintf("invalid method: %s", step.Method))
	}

	if !strings.HasPrefix(step.Path, "/") {
		errs.Add(prefix+".path", "path must start with /")
	}

	timeout, err := step.TimeoutDuration()
	switch {
	case err != nil:
		errs.Add(prefix+".timeout", err.Error())
	case timeout <= 0:
		errs.Add(prefix+".timeout", "timeout must be positive")
	}

	if step.Concurrency < 1 {
		errs.Add(prefix+".concurrency", "concurrency must be at least 1")
	}
	if step.Concurrency > maxConcurrency {
		errs.Add(prefix+".concurrency", fmt.Sprintf("concurrency cannot exceed %d", maxConcurrency))
	}

	if _, err := ParseOutcome(string(step.Expect.Outcome)); err != nil {
		errs.Add(prefix+".expect.outcome", err.Error())
	}
	if step.Expect.Status < 100 || step.Expect.Status > 599 {
		errs.Add(prefix+".expect.status", fmt.Sprintf("invalid status code: %d", step.Expect.Status))
	}
}
