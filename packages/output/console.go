package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/abdul-hamid-achik/charspec/packages/scenario"
	"github.com/fatih/color"
)

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *scenario.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Running against: "+result.BaseURL))

	var feature scenario.Feature
	for _, r := range result.Results {
		if r.Skipped && r.SkipReason == "filtered out" && !f.verbose {
			continue
		}
		if r.Feature != feature {
			feature = r.Feature
			fmt.Fprintf(f.writer, "\n %s\n", bold(string(feature)))
		}

		if r.Skipped {
			fmt.Fprintf(f.writer, "  %s %s", yellow("-"), r.Name)
			if r.SkipReason != "" && r.SkipReason != "filtered out" {
				fmt.Fprintf(f.writer, " (%s)", r.SkipReason)
			}
			fmt.Fprintf(f.writer, "\n")
			continue
		}

		symbol := green("✓")
		if !r.Passed {
			symbol = red("✗")
		}
		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))

		if f.verbose && r.Story != "" {
			fmt.Fprintf(f.writer, "    %s\n", r.Story)
		}

		if !r.Passed {
			failed := 0
			for _, a := range r.Assertions {
				if a.Passed {
					continue
				}
				failed++
				fmt.Fprintf(f.writer, "    %s %s %s\n", red("→"), a.Subject, a.Operator)
				if a.Expected != nil || a.Actual != nil {
					fmt.Fprintf(f.writer, "      Expected: %s\n", formatValue(a.Expected, 100))
					fmt.Fprintf(f.writer, "      Actual:   %s\n", formatValue(a.Actual, 100))
				}
				if a.Message != "" {
					fmt.Fprintf(f.writer, "      %s\n", a.Message)
				}
			}
			if r.Error != nil && failed == 0 {
				fmt.Fprintf(f.writer, "    %s %s\n", red(fmt.Sprintf("[%s]", r.Kind)), r.Error)
			}
		}

		if (f.verbose || !r.Passed) && len(r.Attachments) > 0 {
			fmt.Fprintf(f.writer, "    Attachments:\n")
			for _, a := range r.Attachments {
				fmt.Fprintf(f.writer, "      %s (%s, %d bytes)\n", a.Label, a.MediaType, len(a.Payload))
			}
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Scenarios: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	total := result.Passed + result.Failed + result.Skipped
	fmt.Fprintf(f.writer, "%d total\n", total)
	fmt.Fprintf(f.writer, "Time:      %dms\n", result.Duration.Milliseconds())

	if lat := result.Latency; lat.Requests > 0 {
		fmt.Fprintf(f.writer, "Requests:  %d (p50 %s, p95 %s, p99 %s)\n", lat.Requests, lat.P50, lat.P95, lat.P99)
		if f.verbose {
			protocols := make([]string, 0, len(lat.ByProtocol))
			for name := range lat.ByProtocol {
				protocols = append(protocols, name)
			}
			sort.Strings(protocols)
			for _, name := range protocols {
				p := lat.ByProtocol[name]
				fmt.Fprintf(f.writer, "  %-8s %d (p50 %s, p95 %s, p99 %s)\n", name, p.Requests, p.P50, p.P95, p.P99)
			}
		}
	}
	fmt.Fprintf(f.writer, "Run:       %s\n", result.RunID)
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("charspec"), version)
}
