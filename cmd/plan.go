package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/parkagent/core/model"
)

var planFlags struct {
	scenario  model.Scenario
	urgency   string
	deadline  float64
	kwh       float64
	hours     float64
	providers string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Pick a provider for a trip with travel, charging and deadline constraints",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&planFlags.scenario.Current, "from", "", "current location")
	f.StringVar(&planFlags.scenario.Destination, "to", "", "destination")
	f.StringVarP(&planFlags.urgency, "urgency", "u", "normal", "low, normal or high")
	f.Float64Var(&planFlags.deadline, "deadline", 0, "latest arrival in minutes, unset for none")
	f.BoolVar(&planFlags.scenario.NeedCharging, "charge", false, "require a charger")
	f.Float64Var(&planFlags.kwh, "kwh", 0, "energy to charge, unset for the configured default")
	f.Float64Var(&planFlags.hours, "hours", 0, "parking duration in hours, unset for the configured default")
	f.StringVarP(&planFlags.providers, "providers", "p", "", "provider file used instead of the catalog")
	_ = planCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	providers, err := loadProviders(planFlags.providers)
	if err != nil {
		return err
	}
	svc, closeFn, err := newService()
	if err != nil {
		return err
	}
	defer closeFn()

	out, err := svc.Plan(commandContext(cmd), planScenario(cmd), providers)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

// planScenario builds the scenario from the flags. Numeric flags the user did
// not pass stay nil so the engine can tell them apart from an explicit zero.
func planScenario(cmd *cobra.Command) model.Scenario {
	sc := planFlags.scenario
	sc.Urgency = model.ParseUrgency(planFlags.urgency)
	f := cmd.Flags()
	if f.Changed("deadline") {
		sc.DeadlineMin = model.Float(planFlags.deadline)
	}
	if f.Changed("kwh") {
		sc.RequestedKWh = model.Float(planFlags.kwh)
	}
	if f.Changed("hours") {
		sc.ParkingHours = model.Float(planFlags.hours)
	}
	return sc
}
