package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/charspec/packages/core/config"
	"github.com/abdul-hamid-achik/charspec/packages/scenario"
	"github.com/spf13/cobra"
)

var listConfigFlag string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in scenarios",
	Long: `List every scenario grouped by feature, with its story and tags.
Scenario names depend on the configured character ids.

Examples:
  charspec list
  charspec list --config ci.yaml`,
	Args: cobra.NoArgs,
	RunE: listCommand,
}

func init() {
	listCmd.Flags().StringVar(&listConfigFlag, "config", "", "Path to config file")
}

func listCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(listConfigFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	scenarios := scenario.Builtin(paramsFromConfig(cfg))
	out := cmd.OutOrStdout()
	for _, feature := range scenario.Features {
		fmt.Fprintf(out, "\n%s:\n", feature)
		for _, s := range scenarios {
			if s.Feature != feature {
				continue
			}
			fmt.Fprintf(out, "  - %s\n", s.Name)
			fmt.Fprintf(out, "    %s\n", s.Story)
			if len(s.Tags) > 0 {
				fmt.Fprintf(out, "    tags: %s\n", strings.Join(s.Tags, ", "))
			}
		}
	}

	return nil
}

func paramsFromConfig(cfg *config.Config) scenario.Params {
	return scenario.Params{
		CharacterIDs: cfg.CharacterIDs,
		MissingID:    cfg.MissingID,
		FilterStatus: cfg.FilterStatus,
		FilterPage:   cfg.FilterPage,
		KnownID:      cfg.KnownID,
		KnownName:    cfg.KnownName,
		Repeat:       cfg.Repeat,
	}
}
