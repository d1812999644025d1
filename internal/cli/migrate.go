package cli

import (
	"fmt"

	"github.com/okian/clanboard/internal/adapters/repository"
	"github.com/okian/clanboard/internal/config"
	"github.com/okian/clanboard/pkg/logger"
	"github.com/spf13/cobra"
)

func newMigrateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if cfg.StoreDriver == config.DriverMemory {
				return fmt.Errorf("%w: migrate", ErrMemoryStore)
			}

			ctx := cmd.Context()
			store, err := repository.OpenSQL(ctx, cfg.StoreDriver, cfg.StoreDSN,
				repository.WithLogger(logger.Named("store")), repository.WithoutMigrations())
			if err != nil {
				return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
			}
			defer store.Close()

			version, err := store.Migrate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}
