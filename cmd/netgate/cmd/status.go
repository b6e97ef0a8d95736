package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-drift/netgate/cmd/netgate/internal/config"
	"github.com/go-drift/netgate/pkg/host"
	"github.com/go-drift/netgate/pkg/permission"
)

// statusTimeout bounds the one-shot query so the command cannot hang on an
// unresponsive shell.
const statusTimeout = 10 * time.Second

func init() {
	RegisterCommand(&Command{
		Name:  "status",
		Short: "Print the current permission state",
		Long: `Connect to the shell's bridge endpoint, perform one permission query,
and print the observed state.

"unknown" means the shell could not answer: the permission capability is
missing or the query failed.`,
		Usage: "netgate status",
		Run:   runStatus,
	})
}

func runStatus(args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := config.Resolve(cwd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	bridge, err := host.Dial(ctx, cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to shell at %s: %w", cfg.Endpoint, err)
	}
	defer bridge.Close()
	host.SetBridge(bridge)

	oracle := permission.NewChannelOracle(cfg.Permission)
	state := oracle.Query(ctx)

	fmt.Printf("%s: %s\n", cfg.Permission, state)
	return nil
}
