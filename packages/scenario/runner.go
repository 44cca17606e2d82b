package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/charspec/packages/assertions"
	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/http"
	"github.com/abdul-hamid-achik/charspec/packages/report"
	"github.com/abdul-hamid-achik/charspec/packages/verify"
	"github.com/google/uuid"
)

const (
	// DefaultConcurrency is the default number of concurrent scenarios in parallel mode
	DefaultConcurrency = 5
)

type Runner struct {
	client  *http.Client
	catalog *catalog.Client
	metrics *Metrics
	config  *Config
	runID   string
}

type Config struct {
	BaseURL     string
	Verbose     bool
	Timeout     time.Duration
	Bail        bool
	NameFilter  string
	TagsFilter  []string
	Features    []Feature
	Parallel    bool
	Concurrency int
	RateLimit   float64
	Headers     map[string]string
	// AttachDir, when set, also writes every attachment under
	// <AttachDir>/<run id>/<scenario slug>/.
	AttachDir string
	Warn      report.WarnFunc
	Logf      http.LogFunc
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = catalog.DefaultBaseURL
	}
	if cfg.Warn == nil {
		cfg.Warn = report.StderrWarn
	}

	metrics := NewMetrics()
	clientOpts := []http.ClientOption{http.WithObserver(metrics.Observe)}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
	}
	if cfg.RateLimit > 0 {
		clientOpts = append(clientOpts, http.WithRateLimit(cfg.RateLimit))
	}
	if len(cfg.Headers) > 0 {
		clientOpts = append(clientOpts, http.WithDefaultHeaders(cfg.Headers))
	}
	if cfg.Verbose {
		logf := cfg.Logf
		if logf == nil {
			logf = func(format string, args ...any) {
				fmt.Fprintf(os.Stderr, format+"\n", args...)
			}
		}
		clientOpts = append(clientOpts, http.WithLogger(logf))
	}

	client := http.NewClient(clientOpts...)
	return &Runner{
		client:  client,
		catalog: catalog.NewClient(cfg.BaseURL, client),
		metrics: metrics,
		config:  cfg,
		runID:   uuid.NewString(),
	}
}

// RunID identifies this runner's output, including its attachment directory.
func (r *Runner) RunID() string {
	return r.runID
}

// FailureKind classifies why a scenario failed.
type FailureKind string

const (
	KindNone      FailureKind = ""
	KindAssertion FailureKind = "assertion"
	KindStatus    FailureKind = "status"
	KindProtocol  FailureKind = "protocol"
	KindTransport FailureKind = "transport"
	KindPanic     FailureKind = "panic"
)

// Classify maps a scenario error onto a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return KindNone
	}
	var ae *assertions.AssertionError
	var se *catalog.StatusError
	var pe *verify.ProtocolError
	switch {
	case errors.As(err, &ae):
		return KindAssertion
	case errors.As(err, &se):
		return KindStatus
	case errors.As(err, &pe):
		return KindProtocol
	default:
		return KindTransport
	}
}

type RunResult struct {
	RunID    string
	BaseURL  string
	Results  []*ScenarioResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
	Latency  LatencySummary
}

type ScenarioResult struct {
	Name        string
	Feature     Feature
	Story       string
	Tags        []string
	Passed      bool
	Skipped     bool
	SkipReason  string
	Duration    time.Duration
	Assertions  []*assertions.Result
	Attachments []report.Attachment
	Error       error
	Kind        FailureKind
}

// Run executes every scenario that passes the configured filters. Filtered
// scenarios are reported as skipped.
func (r *Runner) Run(ctx context.Context, scenarios []*Scenario) *RunResult {
	start := time.Now()
	result := &RunResult{
		RunID:   r.runID,
		BaseURL: r.config.BaseURL,
	}

	var selected []*Scenario
	for _, s := range scenarios {
		if !r.shouldRun(s) {
			result.Results = append(result.Results, &ScenarioResult{
				Name:       s.Name,
				Feature:    s.Feature,
				Story:      s.Story,
				Tags:       s.Tags,
				Skipped:    true,
				SkipReason: "filtered out",
			})
			result.Skipped++
			continue
		}
		selected = append(selected, s)
	}

	if r.config.Parallel {
		for _, sr := range r.runParallel(ctx, selected) {
			result.Results = append(result.Results, sr)
			if sr.Passed {
				result.Passed++
			} else {
				result.Failed++
			}
		}
	} else {
		for i, s := range selected {
			sr := r.runScenario(ctx, s)
			result.Results = append(result.Results, sr)
			if sr.Passed {
				result.Passed++
				continue
			}
			result.Failed++
			if r.config.Bail {
				for _, rest := range selected[i+1:] {
					result.Results = append(result.Results, &ScenarioResult{
						Name:       rest.Name,
						Feature:    rest.Feature,
						Story:      rest.Story,
						Tags:       rest.Tags,
						Skipped:    true,
						SkipReason: "bail after failure",
					})
					result.Skipped++
				}
				break
			}
		}
	}

	result.Duration = time.Since(start)
	result.Latency = r.metrics.Summary()
	return result
}

func (r *Runner) runParallel(ctx context.Context, scenarios []*Scenario) []*ScenarioResult {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*ScenarioResult, len(scenarios))
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, s := range scenarios {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, sc *Scenario) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = r.runScenario(ctx, sc)
		}(i, s)
	}

	wg.Wait()
	return results
}

func (r *Runner) shouldRun(s *Scenario) bool {
	if len(r.config.Features) > 0 {
		found := false
		for _, f := range r.config.Features {
			if f == s.Feature {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if r.config.NameFilter != "" && !matchesPattern(s.Name, r.config.NameFilter) {
		return false
	}

	if len(r.config.TagsFilter) > 0 && !hasAnyTag(s.Tags, r.config.TagsFilter) {
		return false
	}

	return true
}

func (r *Runner) sinkFor(s *Scenario) (*report.MemorySink, report.Sink) {
	mem := report.NewMemorySink()
	var sink report.Sink = mem
	if r.config.AttachDir != "" {
		dir := filepath.Join(r.config.AttachDir, r.runID, report.Slug(s.Name))
		sink = report.Multi{mem, report.NewDirSink(dir, report.WithWarnFunc(r.config.Warn))}
	}
	return mem, report.Guard(sink, r.config.Warn)
}

func (r *Runner) runScenario(ctx context.Context, s *Scenario) (result *ScenarioResult) {
	result = &ScenarioResult{
		Name:    s.Name,
		Feature: s.Feature,
		Story:   s.Story,
		Tags:    s.Tags,
	}

	mem, sink := r.sinkFor(s)
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			result.Error = fmt.Errorf("scenario panicked: %v", p)
			result.Kind = KindPanic
			result.Passed = false
		}
		result.Duration = time.Since(start)
		result.Attachments = mem.Items()
	}()

	batch, err := s.Run(ctx, verify.New(r.catalog, sink))
	if batch != nil {
		result.Assertions = batch.Results()
	}

	var se *catalog.StatusError
	if errors.As(err, &se) {
		sink.Attach(report.Text(fmt.Sprintf("Unexpected %d from %s %s", se.Actual, se.Method, se.URL), se.Body))
	}

	result.Error = err
	result.Kind = Classify(err)
	result.Passed = err == nil && (batch == nil || batch.Passed())
	return result
}
