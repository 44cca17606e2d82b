package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/charspec/packages/mock"
	"github.com/spf13/cobra"
)

var (
	mockPortFlag          int
	mockDelayFlag         string
	mockVerboseFlag       bool
	mockGraphQLErrorsFlag bool
	mockCharactersFlag    string
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Start an in-memory character catalog",
	Long: `Start an HTTP server that serves a small fixed set of characters over
the same REST and GraphQL routes as the public catalog.

The mock server:
- Serves GET /api/character/{id} and GET /api/character?status=&page=
- Answers POST /graphql for character and characters queries
- Can report unknown GraphQL ids as errors instead of a null character
- Can serve characters loaded from a JSON file
- Can add artificial delays to simulate network latency

Examples:
  charspec mock
  charspec mock --port 3000 --delay 100ms
  charspec mock --graphql-errors --verbose
  charspec mock --characters fixtures/characters.json
  charspec run --base-url http://localhost:3000`,
	Args: cobra.NoArgs,
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "p", 3000, "Port to run the mock server on")
	mockCmd.Flags().StringVarP(&mockDelayFlag, "delay", "d", "0", "Delay to add to all responses (e.g., 100ms, 1s)")
	mockCmd.Flags().BoolVarP(&mockVerboseFlag, "verbose", "v", false, "Enable verbose logging")
	mockCmd.Flags().BoolVar(&mockGraphQLErrorsFlag, "graphql-errors", false, "Answer unknown GraphQL ids with an errors array")
	mockCmd.Flags().StringVar(&mockCharactersFlag, "characters", "", "JSON file with the characters to serve")
}

func mockCommand(cmd *cobra.Command, args []string) error {
	// Parse delay
	var delay time.Duration
	if mockDelayFlag != "0" {
		var err error
		delay, err = time.ParseDuration(mockDelayFlag)
		if err != nil {
			return fmt.Errorf("invalid delay value %q: %w", mockDelayFlag, err)
		}
	}

	opts := []mock.Option{
		mock.WithPort(mockPortFlag),
		mock.WithDelay(delay),
		mock.WithVerbose(mockVerboseFlag),
		mock.WithGraphQLNotFoundErrors(mockGraphQLErrorsFlag),
	}
	if mockCharactersFlag != "" {
		store, err := mock.LoadStore(mockCharactersFlag)
		if err != nil {
			return err
		}
		opts = append(opts, mock.WithStore(store))
	}
	server := mock.NewServer(opts...)

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d routes\n", len(server.Routes()))

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down mock server...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return server.StartWithContext(ctx)
}
