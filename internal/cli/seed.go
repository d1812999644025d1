package cli

import (
	"fmt"

	"github.com/okian/clanboard/internal/config"
	"github.com/okian/clanboard/internal/domain/clantag"
	"github.com/okian/clanboard/internal/seed"
	"github.com/spf13/cobra"
)

func newSeedCmd(g *globals) *cobra.Command {
	var (
		file     string
		generate int
		clan     string
		randSeed uint64
		days     int
		wars     int
		weekends int
		dump     bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load roster, timeline, war and raid data into the store",
		Long: "Seed the store from a YAML fixture (--file) or from a synthetic clan (--generate N --clan TAG). " +
			"With --dump the fixture is printed as YAML instead of stored.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (file == "") == (generate == 0) {
				return fmt.Errorf("%w: exactly one of --file or --generate is required", ErrInvalidFlag)
			}

			var (
				f   seed.Fixture
				err error
			)
			if file != "" {
				f, err = seed.Load(file)
				if err != nil {
					return err
				}
			} else {
				tag, err := clantag.Parse(clan)
				if err != nil {
					return fmt.Errorf("%w: --clan %q", ErrInvalidFlag, clan)
				}
				opts := []seed.GeneratorOption{seed.WithMembers(generate), seed.WithHistory(days, wars, weekends)}
				if cmd.Flags().Changed("rand-seed") {
					opts = append(opts, seed.WithSeed(randSeed))
				}
				f = seed.NewGenerator(tag, opts...).Generate()
			}

			if dump {
				out, err := seed.Marshal(f)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}

			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if cfg.StoreDriver == config.DriverMemory {
				return fmt.Errorf("%w: seed (use --dump to print the fixture)", ErrMemoryStore)
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := seed.Apply(cmd.Context(), store, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d snapshot(s) with %d members, %d timeline rows, %d war records, %d raid records\n",
				counts.Snapshots, counts.Members, counts.Timeline, counts.Wars, counts.Raids)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML fixture to load")
	cmd.Flags().IntVar(&generate, "generate", 0, "Generate a synthetic roster of N members")
	cmd.Flags().StringVar(&clan, "clan", "", "Clan tag for generated data")
	cmd.Flags().Uint64Var(&randSeed, "rand-seed", 0, "Seed for deterministic generation")
	cmd.Flags().IntVar(&days, "days", 14, "Timeline days to generate")
	cmd.Flags().IntVar(&wars, "wars", 6, "Wars to generate")
	cmd.Flags().IntVar(&weekends, "weekends", 4, "Raid weekends to generate")
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the fixture as YAML instead of storing it")

	return cmd
}
