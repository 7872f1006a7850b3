package blob

import (
	"context"
	"fmt"

	"github.com/mcoot/roster/internal/dependencies/clock"
)

// Config selects and configures a blob backend
type Config struct {
	Driver Driver
	// Root is the directory for the fs driver
	Root string
	S3   S3Config
}

// Open constructs the configured blob store
func Open(ctx context.Context, cfg Config, clk clock.Clock) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(clk), nil
	case DriverFilesystem, "":
		return NewFS(cfg.Root, clk)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver: %q", cfg.Driver)
	}
}
