package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/core/config"
	"github.com/abdul-hamid-achik/charspec/packages/mock"
	"github.com/abdul-hamid-achik/charspec/packages/output"
	"github.com/abdul-hamid-achik/charspec/packages/scenario"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mockURL(t *testing.T, opts ...mock.Option) string {
	t.Helper()
	srv := httptest.NewServer(mock.NewServer(opts...).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "charspec version dev")
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "rest:")
	assert.Contains(t, out, "graphql:")
	assert.Contains(t, out, "cross:")
	assert.Contains(t, out, "  - REST and GraphQL agree for id=4")
	assert.Contains(t, out, "tags: parity")
}

func TestRunCommand_JSONAgainstMock(t *testing.T) {
	out, err := execute(t, "run", "--base-url", mockURL(t), "-o", "json", "--no-color")
	require.NoError(t, err)

	var report output.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 0, report.Summary.Failed)
	assert.Equal(t, len(scenario.Builtin(scenario.DefaultParams())), report.Summary.Passed)
	assert.NotEmpty(t, report.RunID)
}

func TestRunCommand_FailureExitCode(t *testing.T) {
	url := mockURL(t, mock.WithGraphQLRewrite(func(c *catalog.Character) {
		c.Status = "Dead"
	}))

	_, err := execute(t, "run", "--base-url", url, "--feature", "cross", "--no-color", "--ids", "1")
	require.Error(t, err)
	assert.Equal(t, ExitTestFailure, exitCode(err))
}

func TestRunCommand_NetworkExitCode(t *testing.T) {
	srv := httptest.NewServer(mock.NewServer().Handler())
	url := srv.URL
	srv.Close()

	_, err := execute(t, "run", "--base-url", url, "--feature", "rest", "--no-color", "--timeout", "2s")
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, exitCode(err))
}

func TestRunCommand_ConfigErrors(t *testing.T) {
	t.Run("invalid base url", func(t *testing.T) {
		_, err := execute(t, "run", "--base-url", "ftp://example.com")
		require.Error(t, err)
		assert.Equal(t, ExitConfigError, exitCode(err))
	})

	t.Run("unreadable config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "charspec.yaml")
		require.NoError(t, os.WriteFile(path, []byte("characterIds: nope\n"), 0644))

		_, err := execute(t, "run", "--config", path)
		require.Error(t, err)
		assert.Equal(t, ExitConfigError, exitCode(err))
	})
}

func TestRunCommand_UsageErrors(t *testing.T) {
	_, err := execute(t, "run", "--feature", "soap")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestRunCommand_OutputFileFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "charspec.yaml")
	content := "baseUrl: " + mockURL(t) + "\nreporters: [junit]\noutputDir: " + filepath.Join(dir, "reports") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	_, err := execute(t, "run", "--config", cfgPath, "--feature", "rest", "--output-file", "out.xml")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "reports", "out.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<testsuite name="charspec.rest"`)
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charspec.yaml")

	out, err := execute(t, "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created: "+path)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = execute(t, "init", "--path", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use --force to overwrite")

	require.NoError(t, os.WriteFile(path, []byte("repeat: 9\n"), 0644))
	_, err = execute(t, "init", "--path", path, "--force")
	require.NoError(t, err)
	cfg, err = config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Repeat, cfg.Repeat)
}

func TestMockCommand_BadCharactersFile(t *testing.T) {
	_, err := execute(t, "mock", "--characters", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading characters")
}

func TestResultExitCode(t *testing.T) {
	tests := []struct {
		name    string
		results []*scenario.ScenarioResult
		want    int
	}{
		{"all passed", []*scenario.ScenarioResult{{Passed: true}}, ExitSuccess},
		{"assertion failure", []*scenario.ScenarioResult{{Kind: scenario.KindAssertion}, {Kind: scenario.KindTransport}}, ExitTestFailure},
		{"only transport", []*scenario.ScenarioResult{{Kind: scenario.KindTransport}, {Skipped: true}}, ExitNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &scenario.RunResult{Results: tt.results}
			for _, r := range tt.results {
				if !r.Passed && !r.Skipped {
					result.Failed++
				}
			}
			assert.Equal(t, tt.want, resultExitCode(result))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitUsageError, exitCode(errors.New("unknown flag")))
	assert.Equal(t, ExitConfigError, exitCode(withExitCode(ExitConfigError, errors.New("bad"))))
}
