package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/stallserver/internal/config"
	"github.com/wesleyorama2/stallserver/internal/output"
	"github.com/wesleyorama2/stallserver/internal/probe"
)

// errProbeFailed is returned when at least one step saw the wrong outcome.
var errProbeFailed = errors.New("probe failed")

// stepFlags only apply to the single step built without --plan.
var stepFlags = []string{"method", "timeout", "concurrency", "expect", "expect-status"}

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [URL]",
		Short: "Call a stalling server with a client timeout and report what happened",
		Long: `probe plays the caller. It sends requests with its own timeout and checks
that each one ends the expected way: timed_out (the default), responded,
unexpected or failed.

Without --plan a single step is built from the flags. With --plan the steps
come from a YAML or JSON file and URL, if given, replaces the plan target.
--method, --timeout, --concurrency, --expect and --expect-status describe
that single step and are rejected together with --plan.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := planFromFlags(cmd, args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runProbe(ctx, cmd, plan)
		},
	}

	cmd.Flags().StringP("plan", "p", "", "Probe plan file (YAML or JSON)")
	cmd.Flags().StringP("method", "X", "GET", "HTTP method")
	cmd.Flags().DurationP("timeout", "t", 5*time.Second, "Client-side timeout per request")
	cmd.Flags().IntP("concurrency", "c", 1, "Requests fired at once")
	cmd.Flags().String("expect", string(config.OutcomeTimedOut), "Expected outcome: responded, timed_out, unexpected or failed")
	cmd.Flags().Int("expect-status", config.DefaultStatus, "Status code that counts as responded")
	cmd.Flags().StringArrayP("header", "H", []string{}, "HTTP headers to include (can be used multiple times)")
	cmd.Flags().StringP("format", "f", "text", "Output format: text, json or yaml")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")

	return cmd
}

// planFromFlags loads --plan or builds a one-step plan from the flags.
func planFromFlags(cmd *cobra.Command, args []string) (*config.Plan, error) {
	planPath, _ := cmd.Flags().GetString("plan")
	headers, _ := cmd.Flags().GetStringArray("header")

	var plan *config.Plan
	if planPath != "" {
		for _, name := range stepFlags {
			if cmd.Flags().Changed(name) {
				return nil, fmt.Errorf("--%s cannot be combined with --plan, set it in the plan file", name)
			}
		}

		loaded, err := config.LoadPlan(planPath)
		if err != nil {
			return nil, err
		}
		plan = loaded
		if len(args) == 1 {
			base, _ := parseURL(args[0])
			plan.Target = base
		}
	} else {
		method, _ := cmd.Flags().GetString("method")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		expect, _ := cmd.Flags().GetString("expect")
		expectStatus, _ := cmd.Flags().GetInt("expect-status")

		outcome, err := config.ParseOutcome(expect)
		if err != nil {
			return nil, err
		}

		target := config.DefaultTarget
		if len(args) == 1 {
			target = args[0]
		}
		base, path := parseURL(target)

		plan = &config.Plan{
			Target: base,
			Steps: []config.Step{{
				Name:        fmt.Sprintf("%s %s", strings.ToUpper(method), path),
				Method:      method,
				Path:        path,
				Timeout:     timeout.String(),
				Concurrency: concurrency,
				Expect:      config.Expectation{Outcome: outcome, Status: expectStatus},
			}},
		}
		config.ApplyDefaults(plan)
	}

	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid header %q, want Name: value", header)
		}
		if plan.Headers == nil {
			plan.Headers = make(map[string]string)
		}
		plan.Headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

func runProbe(ctx context.Context, cmd *cobra.Command, plan *config.Plan) error {
	formatName, _ := cmd.Flags().GetString("format")
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")

	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	noColor = output.ShouldDisableColor(noColor, out)
	formatter := output.GetFormatter(format, verbose, noColor)

	var mu sync.Mutex
	observer := func(result probe.Result) {
		line := formatter.FormatResult(result)
		if line == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		io.WriteString(out, line)
	}

	report, runErr := probe.Run(ctx, plan, probe.WithObserver(observer))
	if report == nil {
		return runErr
	}

	rendered, err := formatter.FormatReport(report)
	if err != nil {
		return err
	}
	io.WriteString(out, rendered)

	if runErr != nil {
		return runErr
	}
	if !report.Passed {
		return fmt.Errorf("%w: %s", errProbeFailed, strings.Join(report.FailedSteps(), ", "))
	}
	return nil
}

// parseURL splits a URL into base URL and path
func parseURL(fullURL string) (string, string) {
	if !strings.HasPrefix(fullURL, "http://") && !strings.HasPrefix(fullURL, "https://") {
		fullURL = "http://" + fullURL
	}

	parsedURL, err := url.Parse(fullURL)
	if err != nil {
		return fullURL, "/"
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	if parsedURL.User != nil {
		baseURL = fmt.Sprintf("%s://%s@%s", parsedURL.Scheme, parsedURL.User.String(), parsedURL.Host)
	}

	path := parsedURL.Path
	if path == "" {
		path = "/"
	}
	if parsedURL.RawQuery != "" {
		path = path + "?" + parsedURL.RawQuery
	}

	return baseURL, path
}
