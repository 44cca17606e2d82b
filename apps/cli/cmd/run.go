package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/charspec/packages/core/config"
	"github.com/abdul-hamid-achik/charspec/packages/output"
	"github.com/abdul-hamid-achik/charspec/packages/scenario"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the built-in scenarios",
	Long: `Run the REST, GraphQL and cross-protocol scenarios against a catalog.

Examples:
  charspec run
  charspec run --base-url http://localhost:3000
  charspec run --feature rest --tags smoke
  charspec run --name "REST and GraphQL agree*" -v
  charspec run --parallel --concurrency 4 -o junit --output-file report.xml
  charspec run --ids 1,2,183 --attach-dir ./attachments`,
	Args: cobra.NoArgs,
	RunE: runCommand,
}

var (
	configFlag      string
	featureFlag     []string
	nameFlag        string
	tagsFlag        string
	verboseFlag     int // 0=off, 1=-v, 2=-vv logs every request
	bailFlag        bool
	timeoutFlag     time.Duration
	noColorFlag     bool
	outputFlag      string
	outputFileFlag  string
	parallelFlag    bool
	concurrencyFlag int
	rateLimitFlag   float64
	baseURLFlag     string
	attachDirFlag   string
	idsFlag         []int
	missingIDFlag   int
	statusFlag      string
	pageFlag        int
)

func init() {
	// Core flags
	runCmd.Flags().StringVar(&configFlag, "config", "", "Path to config file (default: charspec.yaml in the working directory)")
	runCmd.Flags().StringVar(&baseURLFlag, "base-url", "", "Catalog base URL (env: CHARSPEC_BASE_URL)")
	runCmd.Flags().StringSliceVarP(&featureFlag, "feature", "f", nil, "Run only these features: rest, graphql, cross")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only scenarios matching name pattern")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", "", "Run only scenarios with specified tags (comma-separated)")

	// Output flags
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v, -vv to log every request)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output (env: CHARSPEC_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output format: console, json, junit, tap (env: CHARSPEC_REPORTERS)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", "", "Write output to file (default: stdout)")
	runCmd.Flags().StringVar(&attachDirFlag, "attach-dir", "", "Also write attachments under this directory (env: CHARSPEC_ATTACH_DIR)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", false, "Stop on first failure (env: CHARSPEC_BAIL)")
	runCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Request timeout (e.g., 30s, 1m) (env: CHARSPEC_TIMEOUT)")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", false, "Run scenarios in parallel (env: CHARSPEC_PARALLEL)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", 0, "Number of concurrent scenarios when running in parallel (env: CHARSPEC_CONCURRENCY)")
	runCmd.Flags().Float64Var(&rateLimitFlag, "rate-limit", 0, "Maximum requests per second, 0 for unlimited (env: CHARSPEC_RATE_LIMIT)")

	// Scenario inputs
	runCmd.Flags().IntSliceVar(&idsFlag, "ids", nil, "Character ids compared across protocols (env: CHARSPEC_CHARACTER_IDS)")
	runCmd.Flags().IntVar(&missingIDFlag, "missing-id", 0, "Id expected not to exist (env: CHARSPEC_MISSING_ID)")
	runCmd.Flags().StringVar(&statusFlag, "status", "", "Status used by the pagination scenarios (env: CHARSPEC_FILTER_STATUS)")
	runCmd.Flags().IntVar(&pageFlag, "page", 0, "Page used by the pagination scenarios (env: CHARSPEC_FILTER_PAGE)")
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *scenario.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// flagOverrides collects the flags the user actually set so they can be
// merged over file and environment settings.
func flagOverrides(cmd *cobra.Command) *config.Config {
	flags := cmd.Flags()
	o := &config.Config{}

	if flags.Changed("base-url") {
		o.BaseURL = baseURLFlag
	}
	if flags.Changed("timeout") {
		o.Timeout = timeoutFlag
	}
	if flags.Changed("concurrency") {
		o.Concurrency = concurrencyFlag
	}
	if flags.Changed("rate-limit") {
		o.RateLimit = rateLimitFlag
	}
	if flags.Changed("output") {
		o.Reporters = []string{strings.ToLower(outputFlag)}
	}
	if flags.Changed("attach-dir") {
		o.AttachDir = attachDirFlag
	}
	if flags.Changed("ids") {
		o.CharacterIDs = idsFlag
	}
	if flags.Changed("missing-id") {
		o.MissingID = missingIDFlag
	}
	if flags.Changed("status") {
		o.FilterStatus = statusFlag
	}
	if flags.Changed("page") {
		o.FilterPage = pageFlag
	}
	if flags.Changed("parallel") {
		o.Parallel = config.BoolPtr(parallelFlag)
	}
	if flags.Changed("bail") {
		o.Bail = config.BoolPtr(bailFlag)
	}
	if flags.Changed("no-color") {
		o.NoColor = config.BoolPtr(noColorFlag)
	}
	if verboseFlag > 0 {
		o.Verbose = config.BoolPtr(true)
	}

	return o
}

func newFormatter(reporter string, w io.Writer, cfg *config.Config) (Formatter, error) {
	switch reporter {
	case "json":
		opts := []output.JSONOption{}
		if w != nil {
			opts = append(opts, output.JSONWithWriter(w))
		}
		return output.NewJSONFormatter(opts...), nil
	case "junit":
		opts := []output.JUnitOption{}
		if w != nil {
			opts = append(opts, output.JUnitWithWriter(w))
		}
		return output.NewJUnitFormatter(opts...), nil
	case "tap":
		opts := []output.TAPOption{}
		if w != nil {
			opts = append(opts, output.TAPWithWriter(w))
		}
		return output.NewTAPFormatter(opts...), nil
	case "console", "":
		consoleOpts := []output.ConsoleOption{
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
		}
		if w != nil {
			consoleOpts = append(consoleOpts, output.WithWriter(w))
		}
		return output.NewConsoleFormatter(consoleOpts...), nil
	}
	return nil, fmt.Errorf("unknown output format %q", reporter)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runCommand(cmd *cobra.Command, args []string) error {
	// Load config from file and environment, then apply CLI overrides
	fileConfig, err := config.Load(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	cfg := fileConfig.Merge(flagOverrides(cmd))
	if err := cfg.Validate(); err != nil {
		return withExitCode(ExitConfigError, err)
	}

	var features []scenario.Feature
	for _, name := range featureFlag {
		f, err := scenario.ParseFeature(strings.TrimSpace(name))
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		features = append(features, f)
	}

	// Setup output writer
	var outWriter io.Writer = cmd.OutOrStdout()
	path := outputFileFlag
	if path != "" && cfg.OutputDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(cfg.OutputDir, path)
	}
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("cannot create output directory: %w", err)
			}
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		outWriter = f
	}

	reporter := "console"
	if len(cfg.Reporters) > 0 {
		reporter = cfg.Reporters[0]
	}
	formatter, err := newFormatter(reporter, outWriter, cfg)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	formatter.FormatHeader(version)

	runnerCfg := &scenario.Config{
		BaseURL:     cfg.BaseURL,
		Verbose:     verboseFlag >= 2,
		Timeout:     cfg.Timeout,
		Bail:        cfg.GetBail(),
		NameFilter:  nameFlag,
		TagsFilter:  splitList(tagsFlag),
		Features:    features,
		Parallel:    cfg.GetParallel(),
		Concurrency: cfg.Concurrency,
		RateLimit:   cfg.RateLimit,
		Headers:     cfg.Headers,
		AttachDir:   cfg.AttachDir,
	}
	r := scenario.NewRunner(runnerCfg)
	start := time.Now()
	result := r.Run(cmd.Context(), scenario.Builtin(paramsFromConfig(cfg)))
	formatter.FormatResult(result)

	// Flush output for formatters that accumulate results
	if flushable, ok := formatter.(Flushable); ok {
		if err := flushable.Flush(time.Since(start)); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}

	if code := resultExitCode(result); code != ExitSuccess {
		return withExitCode(code, nil)
	}
	return nil
}

// resultExitCode returns ExitNetworkError when the catalog could not be
// reached at all, ExitTestFailure for any other failure.
func resultExitCode(result *scenario.RunResult) int {
	if result.Failed == 0 {
		return ExitSuccess
	}
	for _, r := range result.Results {
		if !r.Skipped && !r.Passed && r.Kind != scenario.KindTransport {
			return ExitTestFailure
		}
	}
	return ExitNetworkError
}
