package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(existing, []byte("{}"), 0o600))

	path, err := resolveConfigPath(existing, true)
	require.NoError(t, err)
	assert.Equal(t, existing, path)

	path, err = resolveConfigPath(filepath.Join(dir, "absent.yaml"), false)
	require.NoError(t, err)
	assert.Empty(t, path)

	_, err = resolveConfigPath(filepath.Join(dir, "absent.yaml"), true)
	assert.Error(t, err)

	path, err = resolveConfigPath("", true)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestDecideAndDecisionsCommands(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "parking.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`
- id: near
  providerAddress: "0x01"
  kiteCertified: true
  pricePerHour: 1.2
  queueMin: 1
- id: far
  providerAddress: "0x02"
  kiteCertified: true
  pricePerHour: 1.0
  queueMin: 30
  distanceKm: 5
`), 0o600))
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
catalog:
  path: `+catalogPath+`
audit:
  path: `+filepath.Join(dir, "audit.jsonl")+`
logging:
  level: error
  format: json
`), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"decide", "-c", cfgFile, "-u", "high"})
	require.NoError(t, rootCmd.Execute())

	var decided struct {
		DecisionID string `json:"decision_id"`
		Result     struct {
			OK       bool `json:"ok"`
			Decision struct {
				ID string `json:"id"`
			} `json:"decision"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decided))
	assert.True(t, decided.Result.OK)
	assert.Equal(t, "near", decided.Result.Decision.ID)
	assert.NotEmpty(t, decided.DecisionID)

	out.Reset()
	rootCmd.SetArgs([]string{"decisions", "-c", cfgFile, "--provider", "near"})
	require.NoError(t, rootCmd.Execute())

	var records []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, decided.DecisionID, records[0].ID)

	rootCmd.SetArgs([]string{"decisions", "-c", cfgFile, "--mode", "bogus"})
	assert.Error(t, rootCmd.Execute())
}

func TestPlanCommand_ZeroDeadlineIsEnforced(t *testing.T) {
	dir := t.TempDir()
	providersPath := filepath.Join(dir, "providers.yaml")
	require.NoError(t, os.WriteFile(providersPath, []byte(`
- id: lot
  providerAddress: "0x01"
  kiteCertified: true
  pricePerHour: 1
  near: A
`), 0o600))
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
audit:
  path: `+filepath.Join(dir, "audit.jsonl")+`
logging:
  level: error
  format: json
`), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"plan", "-c", cfgFile, "-p", providersPath, "--from", "A", "--to", "B", "--deadline", "0"})
	require.NoError(t, rootCmd.Execute())

	var planned struct {
		Result struct {
			OK         bool   `json:"ok"`
			Reason     string `json:"reason"`
			Candidates []struct {
				ID string `json:"id"`
			} `json:"candidates"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &planned))
	assert.False(t, planned.Result.OK)
	assert.Equal(t, "No feasible option meets the deadline", planned.Result.Reason)
	require.Len(t, planned.Result.Candidates, 1)
	assert.Equal(t, "lot", planned.Result.Candidates[0].ID)
}
