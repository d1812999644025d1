package cli

import (
	"github.com/okian/clanboard/internal/domain/model"
	"github.com/spf13/cobra"
)

func newLatestCmd(g *globals) *cobra.Command {
	var (
		clan    string
		runType string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the latest complete assessment of a clan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			resp, err := newService(cfg, store).LatestAssessment(cmd.Context(), clan, model.RunType(runType))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, resp)
		},
	}

	cmd.Flags().StringVar(&clan, "clan", "", "Clan tag")
	cmd.Flags().StringVar(&runType, "run-type", "", "Only consider runs of this type")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or json")
	_ = cmd.MarkFlagRequired("clan")

	return cmd
}

func newShowCmd(g *globals) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print one stored assessment run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			resp, err := newService(cfg, store).Assessment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, resp)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or json")
	return cmd
}
