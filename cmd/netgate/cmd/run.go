package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-drift/netgate/cmd/netgate/internal/config"
	"github.com/go-drift/netgate/pkg/host"
	"github.com/go-drift/netgate/pkg/overlay"
	"github.com/go-drift/netgate/pkg/page"
	"github.com/go-drift/netgate/pkg/permission"
	"github.com/go-drift/netgate/pkg/probe"
	"github.com/go-drift/netgate/pkg/watch"
)

func init() {
	RegisterCommand(&Command{
		Name:  "run",
		Short: "Watch the permission and gate the page",
		Long: `Connect to the shell's bridge endpoint and watch the local network
permission until interrupted.

While the permission is undecided, the page is blocked behind an overlay
and a local-network probe provokes the native prompt. Once the user grants
or denies, the overlay is removed. Settings come from netgate.yaml in the
current directory, with defaults applied when absent.`,
		Usage: "netgate run",
		Run:   runRun,
	})
}

func runRun(args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := config.Resolve(cwd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge, err := host.Dial(ctx, cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to shell at %s: %w", cfg.Endpoint, err)
	}
	defer bridge.Close()
	host.SetBridge(bridge)

	blocker := overlay.NewBlocker(page.NewController())
	if err := blocker.EnsureStyles(); err != nil {
		return fmt.Errorf("failed to inject overlay styles: %w", err)
	}
	if err := blocker.EnsureDialog(); err != nil {
		return fmt.Errorf("failed to inject overlay dialog: %w", err)
	}

	watcher := watch.New(
		permission.NewChannelOracle(cfg.Permission),
		blocker,
		probe.NewProber(cfg.ProbeURL),
		watch.Options{
			Interval: cfg.Interval,
			WarmUp:   cfg.WarmUp,
		},
	)

	watch.RegisterControl(watcher)

	// Shell pushes shorten reaction latency; the authoritative read still
	// happens through the oracle on the next tick.
	unsubscribe := permission.Listen(cfg.Permission, func(permission.Change) {
		watcher.Tick(ctx)
	})
	defer unsubscribe()

	fmt.Printf("netgate: watching %q every %s (session %s)\n",
		cfg.Permission, cfg.Interval, watcher.Session().ID())

	watcher.Run(ctx)
	return nil
}
