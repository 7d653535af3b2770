package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/parkagent/core/audit"
	"github.com/kilianp07/parkagent/core/decision"
	"github.com/kilianp07/parkagent/core/model"
)

var records = []audit.Record{
	{
		ID:        "d1",
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Mode:      decision.ModeStatic,
		Urgency:   model.UrgencyHigh,
		Providers: 4,
		Result: decision.Result{OK: true, Decision: &decision.Decision{
			ID: "p1", EstimatedCost: 1.2, Score: 1.335,
		}},
		TxHash: "0xabc",
	},
	{
		ID:        "d2",
		Timestamp: time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC),
		Mode:      decision.ModeScenario,
		Urgency:   model.UrgencyLow,
		Providers: 2,
		Result:    decision.Result{Reason: decision.ReasonNoCharger},
	},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	assert.Equal(t,
		"id,timestamp,mode,urgency,ok,provider_id,estimated_cost,score,reason,providers,tx_hash\n"+
			"d1,2025-03-01T12:00:00Z,static,high,true,p1,1.2,1.335,,4,0xabc\n"+
			"d2,2025-03-01T13:00:00Z,scenario,low,false,,,,No charger-capable spot available,2,\n",
		buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, "", records))
	var out []audit.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "p1", out[0].ProviderID())
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "xml", records))
}
