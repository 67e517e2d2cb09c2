package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Outcome classifies what a caller observed for one request.
type Outcome string

const (
	// OutcomeResponded means a response with the expected status arrived.
	OutcomeResponded Outcome = "responded"
	// OutcomeTimedOut means the caller's own timeout fired first.
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeUnexpected means a response arrived with another status.
	OutcomeUnexpected Outcome = "unexpected"
	// OutcomeFailed means the request failed for a reason other than a timeout.
	OutcomeFailed Outcome = "failed"
)

// Outcomes lists every valid outcome.
var Outcomes = []Outcome{OutcomeResponded, OutcomeTimedOut, OutcomeUnexpected, OutcomeFailed}

// ParseOutcome validates s as an outcome name.
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range Outcomes {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown outcome %q (want one of responded, timed_out, unexpected, failed)", s)
}

const (
	// DefaultTarget is where the fixture listens by default.
	DefaultTarget = "http://localhost:8897"
	// DefaultTimeout is the caller-side timeout when a step sets none.
	DefaultTimeout = "5s"
	// DefaultStatus is what a delayed response is expected to carry.
	DefaultStatus = 202
)

// Plan is a sequence of probe steps against one target.
type Plan struct {
	Target  string            `json:"target,omitempty" yaml:"target,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Steps   []Step            `json:"steps" yaml:"steps"`
}

// Step fires Concurrency identical requests at once.
type Step struct {
	Name        string      `json:"name" yaml:"name"`
	Method      string      `json:"method,omitempty" yaml:"method,omitempty"`
	Path        string      `json:"path,omitempty" yaml:"path,omitempty"`
	Timeout     string      `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Concurrency int         `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	Expect      Expectation `json:"expect,omitempty" yaml:"expect,omitempty"`
}

// Expectation is what every request in a step must observe.
type Expectation struct {
	Outcome Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Status  int     `json:"status,omitempty" yaml:"status,omitempty"`
}

// TimeoutDuration parses the step timeout.
func (s Step) TimeoutDuration() (time.Duration, error) {
	return ParseDurationString(s.Timeout)
}

// LoadPlan loads a probe plan from a file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//
// Anything else is read as YAML.
func LoadPlan(path string) (*Plan, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("plan file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading plan file: %w", err)
	}

	return ParsePlan(data, path)
}

// ParsePlan decodes, schema-checks, defaults and validates plan data.
func ParsePlan(data []byte, path string) (*Plan, error) {
	doc, err := decodeDocument(data, path)
	if err != nil {
		return nil, err
	}

	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("error normalizing plan: %w", err)
	}

	var plan Plan
	if err := json.Unmarshal(normalized, &plan); err != nil {
		return nil, fmt.Errorf("error parsing plan: %w", err)
	}

	ApplyDefaults(&plan)

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return &plan, nil
}

// decodeDocument turns YAML or JSON into plain JSON-compatible values so
// both formats go through the same schema check.
func decodeDocument(data []byte, path string) (interface{}, error) {
	var doc interface{}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON plan: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML plan: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse plan (unknown format %s): %w", ext, err)
		}
	}

	// Round-trip through JSON so numbers become float64 and mappings become
	// map[string]interface{}, which is what the schema validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("plan is not a JSON-compatible document: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("plan is not a JSON-compatible document: %w", err)
	}
	return out, nil
}

// ApplyDefaults fills unset plan and step fields.
func ApplyDefaults(plan *Plan) {
	if plan.Target == "" {
		plan.Target = DefaultTarget
	}

	for i := range plan.Steps {
		step := &plan.Steps[i]
		if step.Name == "" {
			step.Name = fmt.Sprintf("step_%d", i+1)
		}
		if step.Method == "" {
			step.Method = "GET"
		}
		step.Method = strings.ToUpper(step.Method)
		if step.Path == "" {
			step.Path = "/"
		}
		if step.Timeout == "" {
			step.Timeout = DefaultTimeout
		}
		if step.Concurrency == 0 {
			step.Concurrency = 1
		}
		if step.Expect.Outcome == "" {
			step.Expect.Outcome = OutcomeTimedOut
		}
		if step.Expect.Status == 0 {
			step.Expect.Status = DefaultStatus
		}
	}
}

// ParseDurationString parses a duration string with support for common formats.
//
// Supported formats:
//   - Standard Go duration: "30s", "2m", "1h30m", "500ms"
//   - Seconds as integer: "30" (treated as 30 seconds)
func ParseDurationString(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	var seconds int
	var rest string
	if n, _ := fmt.Sscanf(s, "%d%s", &seconds, &rest); n == 1 {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}
