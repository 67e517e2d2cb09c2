package output

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/stallserver/internal/config"
	"github.com/wesleyorama2/stallserver/internal/metrics"
	"github.com/wesleyorama2/stallserver/internal/probe"
)

func sampleReport() *probe.Report {
	timedOut := probe.Result{
		Step:    "gives up",
		Method:  "GET",
		URL:     "http://localhost:8897/",
		Elapsed: 2 * time.Second,
		Outcome: config.OutcomeTimedOut,
		Error:   "context deadline exceeded",
	}
	responded := probe.Result{
		Step:       "waits",
		Method:     "HEAD",
		URL:        "http://localhost:8897/",
		StatusCode: 202,
		Elapsed:    100 * time.Second,
		Outcome:    config.OutcomeResponded,
	}

	return &probe.Report{
		Target: "http://localhost:8897",
		Passed: false,
		Steps: []probe.StepReport{
			{
				Name:         "gives up",
				Method:       "GET",
				Path:         "/",
				Timeout:      2 * time.Second,
				Expected:     config.OutcomeTimedOut,
				ExpectStatus: 202,
				Passed:       true,
				Results:      []probe.Result{timedOut},
				Metrics:      metrics.Snapshot{Total: 1, Outcomes: map[string]int64{"timed_out": 1}},
			},
			{
				Name:         "waits",
				Method:       "HEAD",
				Path:         "/",
				Timeout:      5 * time.Second,
				Expected:     config.OutcomeTimedOut,
				ExpectStatus: 202,
				Passed:       false,
				Results:      []probe.Result{responded},
				Metrics:      metrics.Snapshot{Total: 1, Outcomes: map[string]int64{"responded": 1}},
			},
		},
		Summary:  metrics.Snapshot{Total: 2, Outcomes: map[string]int64{"timed_out": 1, "responded": 1}},
		Duration: 102 * time.Second,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "yml", want: FormatYAML},
		{in: "junit", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetFormatter(t *testing.T) {
	assert.IsType(t, &Formatter{}, GetFormatter(FormatText, false, true))
	assert.IsType(t, &JSONFormatter{}, GetFormatter(FormatJSON, false, true))
	assert.IsType(t, &YAMLFormatter{}, GetFormatter(FormatYAML, false, true))
}

func TestJSONFormatter_FormatReport(t *testing.T) {
	f := &JSONFormatter{Pretty: true}

	out, err := f.FormatReport(sampleReport())
	require.NoError(t, err)
	require.True(t, gjson.Valid(out))

	assert.Equal(t, "http://localhost:8897", gjson.Get(out, "target").String())
	assert.False(t, gjson.Get(out, "passed").Bool())
	assert.Equal(t, int64(2), gjson.Get(out, "steps.#").Int())
	assert.Equal(t, "timed_out", gjson.Get(out, "steps.0.results.0.outcome").String())
	assert.Equal(t, int64(202), gjson.Get(out, "steps.1.results.0.statusCode").Int())
	assert.Equal(t, int64(1), gjson.Get(out, "summary.outcomes.responded").Int())
	assert.False(t, gjson.Get(out, "steps.1.results.0.error").Exists())

	assert.Empty(t, f.FormatResult(probe.Result{}))
}

func TestJSONFormatter_Compact(t *testing.T) {
	out, err := (&JSONFormatter{}).FormatReport(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestYAMLFormatter_FormatReport(t *testing.T) {
	out, err := (&YAMLFormatter{}).FormatReport(sampleReport())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "http://localhost:8897", decoded["target"])
	assert.Equal(t, false, decoded["passed"])

	steps, ok := decoded["steps"].([]interface{})
	require.True(t, ok)
	assert.Len(t, steps, 2)
}

func TestFormatter_FormatResult(t *testing.T) {
	f := NewFormatter(false, true)

	line := f.FormatResult(probe.Result{
		Method:     "GET",
		URL:        "http://localhost:8897/",
		StatusCode: 202,
		Elapsed:    1500 * time.Millisecond,
		Outcome:    config.OutcomeResponded,
		Body:       "Accepted",
	})
	assert.Equal(t, "◀ GET http://localhost:8897/ 202 responded after 1500ms\n", line)

	verbose := NewFormatter(true, true).FormatResult(probe.Result{
		Method:  "GET",
		URL:     "http://localhost:8897/",
		Elapsed: 2 * time.Second,
		Outcome: config.OutcomeTimedOut,
		Error:   "deadline exceeded",
	})
	assert.Contains(t, verbose, "timed_out after 2000ms")
	assert.Contains(t, verbose, "  Error: deadline exceeded\n")
}

func TestFormatter_FormatReport(t *testing.T) {
	out, err := NewFormatter(true, true).FormatReport(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, out, "Target: http://localhost:8897\n")
	assert.Contains(t, out, "✓ gives up: GET /, timeout 2s, expected timed_out\n")
	assert.Contains(t, out, "✗ waits: HEAD /, timeout 5s, expected timed_out\n")
	assert.Contains(t, out, "    timed_out  1\n")
	assert.Contains(t, out, "latency    min")
	assert.True(t, strings.HasSuffix(out, "1/2 steps passed, 2 requests in 102000ms\n"), out)
}
