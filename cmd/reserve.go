package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/parkagent/core/model"
)

var reserveUrgency string

var reserveCmd = &cobra.Command{
	Use:   "reserve",
	Short: "Pick a provider from the catalog and pay for the spot",
	Args:  cobra.NoArgs,
	RunE:  runReserve,
}

func init() {
	reserveCmd.Flags().StringVarP(&reserveUrgency, "urgency", "u", "normal", "low, normal or high")
	rootCmd.AddCommand(reserveCmd)
}

func runReserve(cmd *cobra.Command, _ []string) error {
	svc, closeFn, err := newService()
	if err != nil {
		return err
	}
	defer closeFn()

	out, err := svc.Reserve(commandContext(cmd), model.ParseUrgency(reserveUrgency))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}
