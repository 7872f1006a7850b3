package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/roster/internal/cache"
	"github.com/mcoot/roster/internal/dependencies/clock"
)

// loadCache mirrors the server's roster so writes can be checked before they are sent.
// Transient load failures are retried before giving up.
func loadCache(cmd *cobra.Command) (*cache.Manager, error) {
	cacheCfg := cache.DefaultConfig()
	cacheCfg.RequestTimeout = cfg.Timeout

	m := cache.New(apiClient, clock.New(), diagnostics(cmd).With("component", "cache"), cacheCfg)

	if err := m.Initialize(cmd.Context()); err != nil && m.State() != cache.StateRetrying {
		m.Close()
		return nil, fmt.Errorf("load roster: %w", err)
	}
	if err := m.WaitReady(cmd.Context()); err != nil {
		m.Close()
		return nil, err
	}
	if err := m.LastError(); err != nil {
		m.Close()
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return m, nil
}
