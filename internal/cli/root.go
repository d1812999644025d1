package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/clanboard/internal/adapters/repository"
	"github.com/okian/clanboard/internal/config"
	"github.com/okian/clanboard/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	driver     string
	dsn        string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "clanctl",
		Short:         "Assess clan leadership from stored roster data",
		Long:          "clanctl seeds roster data, runs leadership assessments and prints stored runs against the configured store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file (overrides "+config.EnvPrefix+"CONFIG)")
	cmd.PersistentFlags().StringVar(&g.driver, "store-driver", "", "Store driver: memory, sqlite or postgres")
	cmd.PersistentFlags().StringVar(&g.dsn, "store-dsn", "", "Store data source name")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMigrateCmd(g))
	cmd.AddCommand(newSeedCmd(g))
	cmd.AddCommand(newAssessCmd(g))
	cmd.AddCommand(newLatestCmd(g))
	cmd.AddCommand(newShowCmd(g))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the command line until ctx is cancelled.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show clanctl version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "clanctl %s (%s)\n", version, commit)
			return nil
		},
	}
}

// load resolves configuration, applies flag overrides and points logging at
// stderr so command output stays parseable.
func (g *globals) load(cmd *cobra.Command) (*config.Config, error) {
	if g.configPath != "" {
		if err := os.Setenv(config.EnvPrefix+"CONFIG", g.configPath); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("store-driver") {
		cfg.StoreDriver = g.driver
	}
	if cmd.Flags().Changed("store-dsn") {
		cfg.StoreDSN = g.dsn
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logger.InitWithWriter(cmd.ErrOrStderr(), cfg.LogJSON); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config, opts ...repository.Option) (repository.Store, error) {
	opts = append([]repository.Option{repository.WithLogger(logger.Named("store"))}, opts...)
	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.StoreDSN, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	return store, nil
}
