package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/parkagent/core/audit"
	"github.com/kilianp07/parkagent/core/decision"
	"github.com/kilianp07/parkagent/pkg/export"
)

var decisionsFlags struct {
	since    time.Duration
	provider string
	mode     string
	format   string
}

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "List audited decisions",
	Args:  cobra.NoArgs,
	RunE:  runDecisions,
}

func init() {
	f := decisionsCmd.Flags()
	f.DurationVar(&decisionsFlags.since, "since", 0, "only decisions newer than this, e.g. 24h")
	f.StringVar(&decisionsFlags.provider, "provider", "", "only decisions involving this provider")
	f.StringVar(&decisionsFlags.mode, "mode", "", "static or scenario")
	f.StringVarP(&decisionsFlags.format, "format", "o", export.FormatJSON, "json or csv")
	rootCmd.AddCommand(decisionsCmd)
}

func runDecisions(cmd *cobra.Command, _ []string) error {
	q := audit.Query{ProviderID: decisionsFlags.provider}
	switch m := decision.Mode(decisionsFlags.mode); m {
	case "", decision.ModeStatic, decision.ModeScenario:
		q.Mode = m
	default:
		return fmt.Errorf("unknown mode %q", decisionsFlags.mode)
	}
	if decisionsFlags.since > 0 {
		q.Start = time.Now().Add(-decisionsFlags.since)
	}

	store, err := audit.Open(cfg.Audit)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.Query(commandContext(cmd), q)
	if err != nil {
		return err
	}
	return export.Write(cmd.OutOrStdout(), decisionsFlags.format, records)
}
