package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/clanboard/internal/adapters/repository"
	service "github.com/okian/clanboard/internal/app"
	"github.com/okian/clanboard/internal/config"
	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/internal/seed"
	"github.com/okian/clanboard/pkg/logger"
	"github.com/spf13/cobra"
)

func newAssessCmd(g *globals) *cobra.Command {
	var (
		clan     string
		runType  string
		force    bool
		weights  string
		output   string
		seedFile string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Run a leadership assessment for a clan",
		Long: "Score every member of the clan's latest roster snapshot, store the run and print it. " +
			"With the memory store pass --seed to load a fixture first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			req := model.AssessmentRequest{ClanTag: clan, RunType: model.RunType(runType), Force: force}
			if weights != "" {
				w, err := parseWeights(weights)
				if err != nil {
					return err
				}
				req.Weights = &w
			}

			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if seedFile != "" {
				f, err := seed.Load(seedFile)
				if err != nil {
					return err
				}
				if _, err := seed.Apply(ctx, store, f); err != nil {
					return err
				}
			}

			resp, err := newService(cfg, store).RunAssessment(ctx, req)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, resp)
		},
	}

	cmd.Flags().StringVar(&clan, "clan", "", "Clan tag to assess")
	cmd.Flags().StringVar(&runType, "run-type", string(model.RunManual), "Run type: auto, manual or on-demand")
	cmd.Flags().BoolVar(&force, "force", false, "Recompute even when a fresh auto run exists")
	cmd.Flags().StringVar(&weights, "weights", "", "Pillar weights as war,social,reliability")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or json")
	cmd.Flags().StringVar(&seedFile, "seed", "", "YAML fixture applied before assessing")
	_ = cmd.MarkFlagRequired("clan")

	return cmd
}

func newService(cfg *config.Config, store repository.Store) *service.Service {
	opts := append(service.FromConfig(cfg), service.WithLogger(logger.Named("service")))
	return service.New(store, opts...)
}

// parseWeights reads "war,social,reliability".
func parseWeights(s string) (model.Weights, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return model.Weights{}, fmt.Errorf("%w: --weights wants war,social,reliability, got %q", ErrInvalidFlag, s)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.Weights{}, fmt.Errorf("%w: --weights %q: %w", ErrInvalidFlag, s, err)
		}
		vals[i] = v
	}
	return model.Weights{War: vals[0], Social: vals[1], Reliability: vals[2]}, nil
}
