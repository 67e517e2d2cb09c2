package config

import (
	"errors"
	"strings"
	"testing"
)

func validPlan() *Plan {
	plan := &Plan{
		Target: "http://localhost:8897",
		Steps: []Step{
			{Name: "times out", Timeout: "1s"},
		},
	}
	ApplyDefaults(plan)
	return plan
}

func TestPlan_Validate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(p *Plan)
		wantPaths  []string
		wantErrors bool
	}{
		{
			name:   "valid plan",
			mutate: func(p *Plan) {},
		},
		{
			name:       "no steps",
			mutate:     func(p *Plan) { p.Steps = nil },
			wantPaths:  []string{"steps"},
			wantErrors: true,
		},
		{
			name:       "bad target",
			mutate:     func(p *Plan) { p.Target = "localhost" },
			wantPaths:  []string{"target"},
			wantErrors: true,
		},
		{
			name:       "unsupported scheme",
			mutate:     func(p *Plan) { p.Target = "ftp://localhost:8897" },
			wantPaths:  []string{"target"},
			wantErrors: true,
		},
		{
			name:       "lowercase method",
			mutate:     func(p *Plan) { p.Steps[0].Method = "get" },
			wantPaths:  []string{"steps[0].method"},
			wantErrors: true,
		},
		{
			name:       "relative path",
			mutate:     func(p *Plan) { p.Steps[0].Path = "slow" },
			wantPaths:  []string{"steps[0].path"},
			wantErrors: true,
		},
		{
			name:       "zero timeout",
			mutate:     func(p *Plan) { p.Steps[0].Timeout = "0s" },
			wantPaths:  []string{"steps[0].timeout"},
			wantErrors: true,
		},
		{
			name:       "concurrency too high",
			mutate:     func(p *Plan) { p.Steps[0].Concurrency = 1001 },
			wantPaths:  []string{"steps[0].concurrency"},
			wantErrors: true,
		},
		{
			name:       "negative concurrency",
			mutate:     func(p *Plan) { p.Steps[0].Concurrency = -1 },
			wantPaths:  []string{"steps[0].concurrency"},
			wantErrors: true,
		},
		{
			name:       "bad status",
			mutate:     func(p *Plan) { p.Steps[0].Expect.Status = 42 },
			wantPaths:  []string{"steps[0].expect.status"},
			wantErrors: true,
		},
		{
			name: "duplicate names",
			mutate: func(p *Plan) {
				p.Steps = append(p.Steps, p.Steps[0])
			},
			wantPaths:  []string{"steps[1].name"},
			wantErrors: true,
		},
		{
			name: "multiple errors",
			mutate: func(p *Plan) {
				p.Steps[0].Timeout = "never"
				p.Steps[0].Expect.Outcome = "eventually"
			},
			wantPaths:  []string{"steps[0].timeout", "steps[0].expect.outcome"},
			wantErrors: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := validPlan()
			tt.mutate(plan)

			err := plan.Validate()
			if !tt.wantErrors {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}

			var verrs *ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error = %T, want *ValidationErrors", err)
			}
			if len(verrs.Errors) != len(tt.wantPaths) {
				t.Fatalf("Validate() got %d errors (%v), want %d", len(verrs.Errors), verrs, len(tt.wantPaths))
			}
			for i, path := range tt.wantPaths {
				if verrs.Errors[i].Path != path {
					t.Errorf("error[%d].Path = %s, want %s", i, verrs.Errors[i].Path, path)
				}
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := &ValidationErrors{}
	if errs.Error() != "no validation errors" {
		t.Errorf("empty Error() = %q", errs.Error())
	}

	errs.Add("steps[0].timeout", "timeout must be positive")
	if got := errs.Error(); got != "invalid plan: steps[0].timeout: timeout must be positive" {
		t.Errorf("single Error() = %q", got)
	}

	errs.Add("target", "invalid target URL: x")
	got := errs.Error()
	if !strings.HasPrefix(got, "invalid plan: 2 validation errors:") {
		t.Errorf("multi Error() = %q", got)
	}
	if !strings.Contains(got, "  2. target: invalid target URL: x") {
		t.Errorf("multi Error() missing second entry: %q", got)
	}
}
