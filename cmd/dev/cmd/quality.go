package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func qualityCmd(use, short, what string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := run(); err != nil {
				return fmt.Errorf("failed to run %s: %w", what, err)
			}
			return nil
		},
	}
}

// TestCmd runs unit tests; the bus backends are exercised through fakes.
func TestCmd() *cobra.Command {
	return qualityCmd("test", "Run unit tests", "tests", test.Test)
}

func LintCmd() *cobra.Command {
	return qualityCmd("lint", "Run linting", "linting", test.Lint)
}

// IntegrationTestCmd runs the tests that need a sensor on a real bus.
func IntegrationTestCmd() *cobra.Command {
	return qualityCmd("integration-test", "Run tests against attached hardware", "integration testing", test.Integ)
}
