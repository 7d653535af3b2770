// Package export writes audited decisions in formats suited to offline
// analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/parkagent/core/audit"
)

// Format names accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

var csvHeader = []string{
	"id", "timestamp", "mode", "urgency", "ok", "provider_id",
	"estimated_cost", "score", "reason", "providers", "tx_hash",
}

// Write encodes records in the named format. An empty format means JSON.
func Write(w io.Writer, format string, records []audit.Record) error {
	switch format {
	case "", FormatJSON:
		return WriteJSON(w, records)
	case FormatCSV:
		return WriteCSV(w, records)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []audit.Record) error {
	if records == nil {
		records = []audit.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes one row per record. Cost and score are empty for failed
// decisions.
func WriteCSV(w io.Writer, records []audit.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		var cost, score string
		if d := r.Result.Decision; d != nil {
			cost = strconv.FormatFloat(d.EstimatedCost, 'f', -1, 64)
			score = strconv.FormatFloat(d.Score, 'f', -1, 64)
		}
		rec := []string{
			r.ID,
			r.Timestamp.UTC().Format(time.RFC3339),
			string(r.Mode),
			r.Urgency.String(),
			strconv.FormatBool(r.Result.OK),
			r.ProviderID(),
			cost,
			score,
			r.Result.Reason,
			strconv.Itoa(r.Providers),
			r.TxHash,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
