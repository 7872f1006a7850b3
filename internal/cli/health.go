package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/roster/internal/api/response"
	"github.com/mcoot/roster/internal/client"
	"github.com/mcoot/roster/internal/dependencies/clock"
)

const healthPollInterval = 250 * time.Millisecond

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Check server health.

With --wait, unreachable or failing servers are polled until they answer
or the wait runs out, which suits start-up scripts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := waitHealthy(cmd, clock.New(), wait)
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep retrying transient failures for up to this long")

	return cmd
}

func waitHealthy(cmd *cobra.Command, clk clock.Clock, wait time.Duration) (*response.Health, error) {
	ctx := cmd.Context()
	deadline := clk.Now().Add(wait)

	for {
		result, err := apiClient.Health(ctx)
		if err == nil || !client.IsTransient(err) {
			return result, err
		}
		if !clk.Now().Before(deadline) {
			if wait > 0 {
				return nil, fmt.Errorf("server not healthy after %s: %w", wait, err)
			}
			return nil, err
		}

		diagnostics(cmd).Debug("server not ready", slog.Any("error", err))
		select {
		case <-clk.After(healthPollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
