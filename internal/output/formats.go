package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/stallserver/internal/config"
	"github.com/wesleyorama2/stallserver/internal/probe"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// FormatProvider renders probe results
type FormatProvider interface {
	FormatResult(result probe.Result) string
	FormatReport(report *probe.Report) (string, error)
}

// GetFormatter returns a formatter for the specified format
func GetFormatter(format OutputFormat, verbose, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return NewFormatter(verbose, noColor)
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// FormatResult returns nothing; the JSON document is emitted once by FormatReport.
func (f *JSONFormatter) FormatResult(result probe.Result) string {
	return ""
}

// FormatReport formats a report as JSON
func (f *JSONFormatter) FormatReport(report *probe.Report) (string, error) {
	var out []byte
	var err error
	if f.Pretty {
		out, err = json.MarshalIndent(report, "", "  ")
	} else {
		out, err = json.Marshal(report)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(out) + "\n", nil
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct{}

// FormatResult returns nothing; the YAML document is emitted once by FormatReport.
func (f *YAMLFormatter) FormatResult(result probe.Result) string {
	return ""
}

// FormatReport formats a report as YAML
func (f *YAMLFormatter) FormatReport(report *probe.Report) (string, error) {
	out, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(out), nil
}

// Formatter is the human-readable text formatter
type Formatter struct {
	Verbose bool
	NoColor bool
	scheme  *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		scheme:  scheme,
	}
}

// FormatResult formats one finished request as a single line
func (f *Formatter) FormatResult(result probe.Result) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("◀ %s %s ", f.scheme.Method.Sprint(result.Method), f.scheme.URL.Sprint(result.URL)))
	if result.StatusCode != 0 {
		buf.WriteString(f.scheme.StatusColor(result.StatusCode).Sprintf("%d", result.StatusCode))
		buf.WriteString(" ")
	}
	buf.WriteString(fmt.Sprintf("%s after %s\n", f.outcome(result.Outcome), millis(result.Elapsed)))

	if f.Verbose && result.Error != "" {
		buf.WriteString(fmt.Sprintf("  Error: %s\n", result.Error))
	}
	if f.Verbose && result.Body != "" {
		buf.WriteString(fmt.Sprintf("  Body: %s\n", result.Body))
	}

	return buf.String()
}

// FormatReport formats the per-step summary
func (f *Formatter) FormatReport(report *probe.Report) (string, error) {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("Target: %s\n", f.scheme.URL.Sprint(report.Target)))

	for _, step := range report.Steps {
		icon := SuccessIcon(f.NoColor)
		if !step.Passed {
			icon = ErrorIcon(f.NoColor)
		}
		buf.WriteString(fmt.Sprintf("%s %s: %s %s, timeout %s, expected %s\n",
			icon,
			f.scheme.Highlight.Sprint(step.Name),
			step.Method, step.Path,
			step.Timeout,
			step.Expected))

		for _, name := range step.Metrics.OutcomeNames() {
			buf.WriteString(fmt.Sprintf("    %-10s %d\n", name, step.Metrics.Outcomes[name]))
		}
		if f.Verbose {
			lat := step.Metrics.Latency
			buf.WriteString(fmt.Sprintf("    latency    min %s  p50 %s  p90 %s  p99 %s  max %s\n",
				millis(lat.Min), millis(lat.P50), millis(lat.P90), millis(lat.P99), millis(lat.Max)))
		}
	}

	passed := 0
	for _, step := range report.Steps {
		if step.Passed {
			passed++
		}
	}

	summary := fmt.Sprintf("%d/%d steps passed, %d requests in %s", passed, len(report.Steps), report.Summary.Total, millis(report.Duration))
	if report.Passed {
		buf.WriteString(f.scheme.Success.Sprint(summary))
	} else {
		buf.WriteString(f.scheme.Error.Sprint(summary))
	}
	buf.WriteString("\n")

	return buf.String(), nil
}

func (f *Formatter) outcome(o config.Outcome) string {
	switch o {
	case config.OutcomeResponded:
		return f.scheme.Success.Sprint(o)
	case config.OutcomeTimedOut:
		return f.scheme.Warning.Sprint(o)
	default:
		return f.scheme.Error.Sprint(o)
	}
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}
