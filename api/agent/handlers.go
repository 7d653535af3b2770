package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/parkagent/core/audit"
	"github.com/kilianp07/parkagent/core/decision"
	"github.com/kilianp07/parkagent/core/model"
	"github.com/kilianp07/parkagent/core/reservation"
	"github.com/kilianp07/parkagent/pkg/export"
)

type reserveRequest struct {
	Urgency string `json:"urgency"`
}

type decideRequest struct {
	Urgency           string           `json:"urgency"`
	MaxOverMarketPct  *float64         `json:"max_over_market_pct"`
	MaxSingleTxBudget *float64         `json:"max_single_tx_budget"`
	Providers         []model.Provider `json:"providers"`
}

type planRequest struct {
	Scenario  model.Scenario   `json:"scenario"`
	Providers []model.Provider `json:"providers"`
}

// resultBody flattens a decision result next to ok and the decision id.
type resultBody struct {
	DecisionID string `json:"decision_id,omitempty"`
	decision.Result
}

type reserveBody struct {
	OK         bool            `json:"ok"`
	DecisionID string          `json:"decision_id"`
	Agent      decision.Result `json:"agent"`
	Payment    any             `json:"payment"`
	Explorer   string          `json:"explorer"`
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.agent.Reserve(r.Context(), model.ParseUrgency(req.Urgency))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, reservation.ErrOverBudget) {
			status = http.StatusBadRequest
		}
		s.log.Errorf("reserve failed: %v", err)
		writeError(w, status, err.Error())
		return
	}
	if !res.Result.OK {
		writeJSON(w, http.StatusBadRequest, resultBody{DecisionID: res.DecisionID, Result: res.Result})
		return
	}
	writeJSON(w, http.StatusOK, reserveBody{
		OK:         true,
		DecisionID: res.DecisionID,
		Agent:      res.Result,
		Payment:    res.Receipt,
		Explorer:   res.ExplorerURL,
	})
}

func (s *server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := s.agent.StaticOptions(model.ParseUrgency(req.Urgency))
	if req.MaxOverMarketPct != nil {
		opts.MaxOverMarketPct = *req.MaxOverMarketPct
	}
	if req.MaxSingleTxBudget != nil {
		opts.MaxSingleTxBudget = *req.MaxSingleTxBudget
	}
	out, err := s.agent.Decide(r.Context(), req.Providers, opts)
	s.writeOutcome(w, out, err)
}

func (s *server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.agent.Plan(r.Context(), req.Scenario, req.Providers)
	s.writeOutcome(w, out, err)
}

func (s *server) writeOutcome(w http.ResponseWriter, out reservation.Outcome, err error) {
	if err != nil {
		s.log.Errorf("decision failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if !out.Result.OK {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resultBody{DecisionID: out.DecisionID, Result: out.Result})
}

func (s *server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := s.agent.Decisions(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if r.URL.Query().Get("format") == export.FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if err := export.WriteCSV(w, records); err != nil {
			s.log.Errorf("write csv: %v", err)
		}
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func parseQuery(r *http.Request) (audit.Query, error) {
	v := r.URL.Query()
	q := audit.Query{ProviderID: v.Get("provider_id")}
	for _, f := range []struct {
		key string
		dst *time.Time
	}{{"start", &q.Start}, {"end", &q.End}} {
		if s := v.Get(f.key); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return q, fmt.Errorf("invalid %s: %w", f.key, err)
			}
			*f.dst = t
		}
	}
	switch m := decision.Mode(v.Get("mode")); m {
	case "", decision.ModeStatic, decision.ModeScenario:
		q.Mode = m
	default:
		return q, fmt.Errorf("invalid mode %q", m)
	}
	return q, nil
}

// decodeBody reads a JSON body. When optional is set an empty body leaves
// dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	if r.Body == nil || r.Body == http.NoBody {
		if optional {
			return nil
		}
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
