package scenario

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/charspec/packages/assertions"
	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	chttp "github.com/abdul-hamid-achik/charspec/packages/http"
	"github.com/abdul-hamid-achik/charspec/packages/mock"
	"github.com/abdul-hamid-achik/charspec/packages/report"
	"github.com/abdul-hamid-achik/charspec/packages/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockURL(t *testing.T, opts ...mock.Option) string {
	t.Helper()
	srv := httptest.NewServer(mock.NewServer(opts...).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestNewRunner(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		r := NewRunner(nil)
		assert.NotNil(t, r)
		assert.Equal(t, catalog.DefaultBaseURL, r.config.BaseURL)
		assert.NotEmpty(t, r.RunID())
	})

	t.Run("with custom config", func(t *testing.T) {
		r := NewRunner(&Config{BaseURL: "http://localhost:1", Parallel: true, Concurrency: 10})
		assert.Equal(t, "http://localhost:1", r.catalog.BaseURL())
		assert.True(t, r.config.Parallel)
	})
}

func TestRunner_BuiltinAgainstMock(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			r := NewRunner(&Config{BaseURL: mockURL(t), Parallel: parallel, Concurrency: 3})
			scenarios := Builtin(DefaultParams())

			result := r.Run(context.Background(), scenarios)

			for _, sr := range result.Results {
				assert.True(t, sr.Passed, "%s: %v", sr.Name, sr.Error)
			}
			assert.Equal(t, len(scenarios), result.Passed)
			assert.Equal(t, 0, result.Failed)
			assert.Equal(t, r.RunID(), result.RunID)
			assert.Greater(t, result.Latency.Requests, int64(0))
			assert.Contains(t, result.Latency.ByProtocol, "REST")
			assert.Contains(t, result.Latency.ByProtocol, "GraphQL")
		})
	}
}

func TestRunner_Filters(t *testing.T) {
	scenarios := Builtin(DefaultParams())

	tests := []struct {
		name     string
		cfg      Config
		wantRun  int
		wantSkip int
	}{
		{name: "feature rest", cfg: Config{Features: []Feature{FeatureREST}}, wantRun: 4, wantSkip: len(scenarios) - 4},
		{name: "feature graphql", cfg: Config{Features: []Feature{FeatureGraphQL}}, wantRun: 3, wantSkip: len(scenarios) - 3},
		{name: "name prefix", cfg: Config{NameFilter: "REST and GraphQL agree*"}, wantRun: 5, wantSkip: len(scenarios) - 5},
		{name: "tag", cfg: Config{TagsFilter: []string{"negative"}}, wantRun: 3, wantSkip: len(scenarios) - 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.BaseURL = mockURL(t)
			result := NewRunner(&cfg).Run(context.Background(), scenarios)
			assert.Equal(t, tt.wantRun, result.Passed+result.Failed)
			assert.Equal(t, tt.wantSkip, result.Skipped)
		})
	}
}

func TestRunner_ReportsComparatorMismatch(t *testing.T) {
	url := mockURL(t, mock.WithGraphQLRewrite(func(c *catalog.Character) {
		if c.ID == 3 {
			c.Episode = c.Episode[:2]
		}
	}))
	r := NewRunner(&Config{BaseURL: url, Features: []Feature{FeatureCross}, NameFilter: "*id=3"})

	result := r.Run(context.Background(), Builtin(DefaultParams()))
	require.Equal(t, 1, result.Failed)

	var failed *ScenarioResult
	for _, sr := range result.Results {
		if !sr.Skipped {
			failed = sr
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, KindAssertion, failed.Kind)
	assert.Contains(t, failed.Error.Error(), "episodeCount")

	labels := make([]string, 0, len(failed.Attachments))
	for _, a := range failed.Attachments {
		labels = append(labels, a.Label)
	}
	assert.Contains(t, labels, "REST response for id=3")
	assert.Contains(t, labels, "GraphQL response for id=3")
	assert.Contains(t, labels, "REST vs GraphQL diff for id=3")
}

func TestRunner_Bail(t *testing.T) {
	var calls atomic.Int32
	failing := func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
		calls.Add(1)
		b := assertions.NewBatch("x")
		b.Fail("always", "nope")
		return b, b.Err()
	}
	scenarios := []*Scenario{
		{Name: "a", Feature: FeatureREST, Run: failing},
		{Name: "b", Feature: FeatureREST, Run: failing},
		{Name: "c", Feature: FeatureREST, Run: failing},
	}

	result := NewRunner(&Config{Bail: true}).Run(context.Background(), scenarios)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, "bail after failure", result.Results[2].SkipReason)
}

func TestRunner_ParallelRespectsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	slow := func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return assertions.NewBatch("ok"), nil
	}

	var scenarios []*Scenario
	for i := 0; i < 8; i++ {
		scenarios = append(scenarios, &Scenario{Name: fmt.Sprintf("s%d", i), Feature: FeatureCross, Run: slow})
	}

	result := NewRunner(&Config{Parallel: true, Concurrency: 2}).Run(context.Background(), scenarios)
	assert.Equal(t, 8, result.Passed)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunner_RecoversPanic(t *testing.T) {
	scenarios := []*Scenario{{
		Name:    "boom",
		Feature: FeatureREST,
		Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
			panic("kaboom")
		},
	}}

	result := NewRunner(nil).Run(context.Background(), scenarios)
	require.Len(t, result.Results, 1)
	assert.False(t, result.Results[0].Passed)
	assert.Equal(t, KindPanic, result.Results[0].Kind)
	assert.Contains(t, result.Results[0].Error.Error(), "kaboom")
}

func TestRunner_AttachDir(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(&Config{BaseURL: mockURL(t), AttachDir: dir, NameFilter: "Get character by id"})

	result := r.Run(context.Background(), Builtin(DefaultParams()))
	require.Equal(t, 1, result.Passed)

	scenarioDir := filepath.Join(dir, r.RunID(), report.Slug("Get character by id"))
	entries, err := os.ReadDir(scenarioDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "01-"))
}

func TestRunner_StatusErrorAttachesBody(t *testing.T) {
	scenarios := []*Scenario{{
		Name:    "status",
		Feature: FeatureREST,
		Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
			return nil, fmt.Errorf("wrapped: %w", &catalog.StatusError{Method: "GET", URL: "http://x/api/character/1", Expected: []int{200}, Actual: 500, Body: "down"})
		},
	}}

	result := NewRunner(nil).Run(context.Background(), scenarios)
	sr := result.Results[0]
	assert.Equal(t, KindStatus, sr.Kind)
	require.Len(t, sr.Attachments, 1)
	assert.Equal(t, "down", sr.Attachments[0].Payload)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want FailureKind
	}{
		{nil, KindNone},
		{&assertions.AssertionError{Batch: "b"}, KindAssertion},
		{fmt.Errorf("x: %w", &catalog.StatusError{}), KindStatus},
		{&verify.ProtocolError{Raw: "[]"}, KindProtocol},
		{errors.New("connection refused"), KindTransport},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err))
	}
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		name, pattern string
		want          bool
	}{
		{"Get character by id", "", true},
		{"Get character by id", "Get character by id", true},
		{"Get character by id", "Get*", true},
		{"Get character by id", "*by id", true},
		{"Get character by id", "*character*", true},
		{"Get character by id", "*graphql*", false},
		{"Get character by id", "Filter*", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesPattern(tt.name, tt.pattern), "%s ~ %s", tt.name, tt.pattern)
	}
}

func TestParseFeature(t *testing.T) {
	f, err := ParseFeature("GraphQL")
	require.NoError(t, err)
	assert.Equal(t, FeatureGraphQL, f)

	_, err = ParseFeature("soap")
	assert.Error(t, err)
}

func TestBuiltin_Inventory(t *testing.T) {
	p := DefaultParams()
	scenarios := Builtin(p)

	counts := map[Feature]int{}
	names := map[string]bool{}
	for _, s := range scenarios {
		counts[s.Feature]++
		assert.False(t, names[s.Name], "duplicate %q", s.Name)
		names[s.Name] = true
		assert.NotEmpty(t, s.Story)
		assert.NotNil(t, s.Run)
	}
	assert.Equal(t, 4, counts[FeatureREST])
	assert.Equal(t, 3, counts[FeatureGraphQL])
	assert.Equal(t, len(p.CharacterIDs)+3, counts[FeatureCross])
}

func TestMetrics_Summary(t *testing.T) {
	m := NewMetrics()
	assert.Zero(t, m.Summary().P50)
	assert.Empty(t, m.Summary().ByProtocol)

	m.Observe(&chttp.Response{URL: "http://x/api/character/1", StatusCode: 200, Duration: 10 * time.Millisecond})
	m.Observe(&chttp.Response{URL: "http://x/api/character/2", StatusCode: 503, Duration: 30 * time.Millisecond})
	m.Observe(&chttp.Response{URL: "http://x/graphql", StatusCode: 200, Duration: 20 * time.Millisecond})

	s := m.Summary()
	assert.Equal(t, int64(3), s.Requests)
	assert.Equal(t, int64(1), s.Errors)
	assert.InDelta(t, float64(10*time.Millisecond), float64(s.Min), float64(time.Millisecond))
	assert.InDelta(t, float64(30*time.Millisecond), float64(s.Max), float64(time.Millisecond))
	assert.Equal(t, int64(2), s.ByProtocol["REST"].Requests)
	assert.Equal(t, int64(1), s.ByProtocol["GraphQL"].Requests)
}
