// Command passctl drives the sponsor pass dashboard from a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/charlesng35/sponsorpass/internal/app"
	"github.com/charlesng35/sponsorpass/internal/partnerships"
	"github.com/charlesng35/sponsorpass/internal/state"
	"github.com/charlesng35/sponsorpass/pkg/logger"
)

const programName = "passctl"

// serviceFactory builds the upstream client for a loaded configuration.
type serviceFactory func(cfg *app.Config) (partnerships.Service, error)

type cli struct {
	configPath string
	logLevel   string
	newService serviceFactory

	dashboard *state.Dashboard
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(newPartnershipsService)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newPartnershipsService(cfg *app.Config) (partnerships.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return partnerships.NewClient(partnerships.Options{
		BaseURL:  cfg.Partnerships.BaseURL,
		APIToken: cfg.Partnerships.APIToken,
		Timeout:  cfg.Partnerships.Timeout,
	})
}

func newRootCommand(newService serviceFactory) *cobra.Command {
	c := &cli{newService: newService}

	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Manage sponsor passes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	rootCmd.PersistentFlags().
		StringVar(&c.configPath, "config", "", "path to config file or directory")
	rootCmd.PersistentFlags().
		StringVar(&c.logLevel, "log-level", "error", "log level written to stderr (empty disables logging)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return c.setup(cmd.Context())
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	}

	// Subcommands
	rootCmd.AddCommand(c.sponsorsCommand())
	rootCmd.AddCommand(c.passesCommand())
	rootCmd.AddCommand(c.createCommand())
	rootCmd.AddCommand(c.revokeCommand())

	return rootCmd
}

// setup loads configuration and performs the initial dashboard load shared by every command.
func (c *cli) setup(ctx context.Context) error {
	cfg, err := app.LoadConfigPath(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if c.logLevel != "" {
		if err := app.ConfigureLogging(c.logLevel); err != nil {
			return fmt.Errorf("configure logging: %w", err)
		}
	}

	opts, err := cfg.DashboardOptions()
	if err != nil {
		return fmt.Errorf("dashboard options: %w", err)
	}

	service, err := c.newService(cfg)
	if err != nil {
		return err
	}
	if service == nil {
		return errors.New("no partnerships service configured")
	}

	c.dashboard = state.NewDashboard(service, opts)
	return c.dashboard.Init(ctx)
}
