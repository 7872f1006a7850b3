package cli

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mcoot/roster/internal/client"
	"github.com/mcoot/roster/internal/model"
)

var errWatchDone = errors.New("watch limit reached")

func newWatchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream roster changes as they happen",
		Long: `Connect to the server's change feed and print every change.

Events include:
  - team:created, team:updated, team:deleted
  - player:created, player:updated, player:deleted
  - config:updated

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := eventLogger(cmd.OutOrStdout(), cfg.Output)
			seen := 0

			err := apiClient.StreamEvents(ctx, func(e client.StreamEvent) error {
				if !logEvent(logger, e) {
					return nil
				}
				seen++
				if limit > 0 && seen >= limit {
					return errWatchDone
				}
				return nil
			})
			if errors.Is(err, errWatchDone) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Exit after this many changes (0 streams forever)")

	return cmd
}

// eventLogger writes JSON lines with --output json and a human-readable console otherwise
func eventLogger(out io.Writer, format string) zerolog.Logger {
	if format == OutputJSON {
		return zerolog.New(out).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()
}

// logEvent prints one stream event and reports whether it was a roster change
func logEvent(logger zerolog.Logger, e client.StreamEvent) bool {
	if e.Name == "connected" {
		logger.Info().Msg("connected to change feed")
		return false
	}

	var event struct {
		Type      model.EventType `json:"type"`
		Timestamp time.Time       `json:"timestamp"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal([]byte(e.Data), &event); err != nil {
		logger.Warn().Str("event", e.Name).Err(err).Msg("unreadable event")
		return false
	}

	entry := logger.Info().Time("changed_at", event.Timestamp)
	if len(event.Payload) > 0 {
		entry = entry.RawJSON("payload", event.Payload)
	}
	entry.Msg(string(event.Type))
	return true
}
