//go:build !no_containers

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/parkagent/app"
	"github.com/kilianp07/parkagent/config"
	"github.com/kilianp07/parkagent/infra/metrics"
	"github.com/kilianp07/parkagent/test/util"
)

const catalogYAML = `
- id: p-a1
  name: Central Garage
  providerAddress: "0x01"
  kiteCertified: true
  pricePerHour: 1.2
  queueMin: 4
  distanceKm: 0.6
  near: A
- id: p-b1
  name: Riverside Lot
  providerAddress: "0x02"
  kiteCertified: true
  pricePerHour: 0.9
  queueMin: 12
  distanceKm: 2.1
  near: B
`

func TestReservePublishesEventsOverMQTT(t *testing.T) {
	broker := util.MosquittoBroker(t)
	rec := util.Subscribe(t, broker, "parkagent/#")

	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "parking.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(catalogYAML), 0o644))

	cfg := config.Default()
	cfg.Catalog.Path = catalogPath
	cfg.Audit.Path = filepath.Join(dir, "decisions.jsonl")
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = broker
	cfg.MQTT.ClientID = "parkagent-e2e"

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	svc, err := app.New(&cfg, app.WithMetricsSink(sink))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()
	metricsSrv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer metricsSrv.Close()

	body, _ := json.Marshal(map[string]string{"urgency": "high"})
	resp, err := http.Post(srv.URL+"/reserve", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		OK       bool   `json:"ok"`
		Explorer string `json:"explorer"`
		Payment  struct {
			TxHash string `json:"tx_hash"`
		} `json:"payment"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.OK)
	assert.NotEmpty(t, out.Payment.TxHash)
	assert.Equal(t, cfg.Payment.ExplorerURL+out.Payment.TxHash, out.Explorer)

	assert.Eventually(t, func() bool {
		return rec.Count("parkagent/decisions") == 1 && rec.Count("parkagent/payments") == 1
	}, 5*time.Second, 50*time.Millisecond)

	waitCtx, cancel := context.WithTimeout(context.Background(), util.MetricTimeout)
	defer cancel()
	require.NoError(t, util.WaitForMetric(waitCtx, metricsSrv.URL, `parkagent_payments_total{outcome="ok"} 1`))
}
