package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/parkagent/core/model"
	"github.com/kilianp07/parkagent/infra/catalog"
)

var decideFlags struct {
	urgency   string
	providers string
	overPct   float64
	budget    float64
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Pick a provider with the static policy",
	Args:  cobra.NoArgs,
	RunE:  runDecide,
}

func init() {
	f := decideCmd.Flags()
	f.StringVarP(&decideFlags.urgency, "urgency", "u", "normal", "low, normal or high")
	f.StringVarP(&decideFlags.providers, "providers", "p", "", "provider file used instead of the catalog")
	f.Float64Var(&decideFlags.overPct, "max-over-market", 0, "allowed fraction above the market mean")
	f.Float64Var(&decideFlags.budget, "budget", 0, "single transaction budget")
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, _ []string) error {
	providers, err := loadProviders(decideFlags.providers)
	if err != nil {
		return err
	}
	svc, closeFn, err := newService()
	if err != nil {
		return err
	}
	defer closeFn()

	opts := svc.StaticOptions(model.ParseUrgency(decideFlags.urgency))
	if cmd.Flags().Changed("max-over-market") {
		opts.MaxOverMarketPct = decideFlags.overPct
	}
	if cmd.Flags().Changed("budget") {
		opts.MaxSingleTxBudget = decideFlags.budget
	}
	out, err := svc.Decide(commandContext(cmd), providers, opts)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

// loadProviders returns nil for an empty path so the service falls back to
// its catalog.
func loadProviders(path string) ([]model.Provider, error) {
	if path == "" {
		return nil, nil
	}
	providers, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("providers: %w", err)
	}
	return providers, nil
}
