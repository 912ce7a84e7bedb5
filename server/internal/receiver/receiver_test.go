package receiver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gaswatch/gaswatch/pkg/analysis"
	"github.com/gaswatch/gaswatch/pkg/gas"
	"github.com/gaswatch/gaswatch/server/internal/alerts"
	"github.com/gaswatch/gaswatch/server/internal/analyzer"
	"github.com/gaswatch/gaswatch/server/internal/config"
	"github.com/gaswatch/gaswatch/server/internal/receiver"
	"github.com/gaswatch/gaswatch/server/internal/store"
)

func newReceiver(t *testing.T) (*receiver.Receiver, *store.Store, *alerts.Engine) {
	t.Helper()
	st := store.New(5 * time.Minute)
	an := analyzer.New(gas.Default(), gas.DefaultTolerance, "nn-158-13", nil)
	al := alerts.New(config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "noncompliant-gas", Condition: "status == noncompliant"},
	}})
	return receiver.New(an, st, al), st, al
}

func postSample(t *testing.T, rec *receiver.Receiver, target string, sample analysis.Sample) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(sample)
	if err != nil {
		t.Fatalf("marshal sample: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	rec.ServeHTTP(w, req)
	return w
}

func TestServeHTTP_StoresAnalysis(t *testing.T) {
	rec, st, _ := newReceiver(t)

	w := postSample(t, rec, "/api/v1/samples", analysis.Sample{
		SourceID:    "station-a",
		SourceType:  "prometheus",
		SampledAt:   time.Now(),
		Composition: map[string]float64{"CH4": 0.95, "CO2": 0.02, "N2": 0.03},
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202; body: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != analysis.StatusCompliant {
		t.Errorf("response status: got %q, want compliant", resp["status"])
	}

	e, ok := st.Get("station-a")
	if !ok {
		t.Fatal("store.Get: expected entry, got none")
	}
	if e.Analysis.Status != analysis.StatusCompliant {
		t.Errorf("Status: got %q, want compliant", e.Analysis.Status)
	}
	if e.Analysis.HHVKWh <= 0 {
		t.Errorf("HHVKWh: got %g, want > 0", e.Analysis.HHVKWh)
	}
}

func TestServeHTTP_MissingSourceID(t *testing.T) {
	rec, st, _ := newReceiver(t)

	w := postSample(t, rec, "/api/v1/samples", analysis.Sample{
		Composition: map[string]float64{"CH4": 1.0},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
	if st.Count() != 0 {
		t.Errorf("store.Count: got %d, want 0", st.Count())
	}
}

func TestServeHTTP_MalformedBody(t *testing.T) {
	rec, _, _ := newReceiver(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/samples", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	rec.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	rec, _, _ := newReceiver(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/samples", nil)
	w := httptest.NewRecorder()
	rec.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", w.Code)
	}
}

func TestServeHTTP_InvalidCompositionStoredAsInvalid(t *testing.T) {
	rec, st, _ := newReceiver(t)

	w := postSample(t, rec, "/api/v1/samples", analysis.Sample{
		SourceID:    "station-b",
		Composition: map[string]float64{"CH4": 0.5},
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202; body: %s", w.Code, w.Body.String())
	}

	e, ok := st.Get("station-b")
	if !ok {
		t.Fatal("store.Get: expected entry, got none")
	}
	if e.Analysis.Status != analysis.StatusInvalid {
		t.Errorf("Status: got %q, want invalid", e.Analysis.Status)
	}
	if e.Analysis.Error == "" {
		t.Error("Error: empty, want validation failure reason")
	}
}

func TestServeHTTP_UnknownProfile(t *testing.T) {
	rec, st, _ := newReceiver(t)

	w := postSample(t, rec, "/api/v1/samples?profile=no-such-standard", analysis.Sample{
		SourceID:    "station-c",
		Composition: map[string]float64{"CH4": 1.0},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
	if st.Count() != 0 {
		t.Errorf("store.Count: got %d, want 0", st.Count())
	}
}

func TestServeHTTP_ProfileSelection(t *testing.T) {
	rec, st, _ := newReceiver(t)

	// HHV ~10.51 kWh/m3: inside NN 158/13 but below the HERA 2021 minimum.
	w := postSample(t, rec, "/api/v1/samples?profile=hera-2021", analysis.Sample{
		SourceID:    "station-d",
		Composition: map[string]float64{"CH4": 0.95, "CO2": 0.02, "N2": 0.03},
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202; body: %s", w.Code, w.Body.String())
	}

	e, _ := st.Get("station-d")
	if e.Analysis.Profile != "hera-2021" {
		t.Errorf("Profile: got %q, want hera-2021", e.Analysis.Profile)
	}
	if e.Analysis.Status != analysis.StatusNoncompliant {
		t.Errorf("Status: got %q, want noncompliant", e.Analysis.Status)
	}
}

func TestServeHTTP_NoncompliantSampleFiresAlert(t *testing.T) {
	rec, _, al := newReceiver(t)

	w := postSample(t, rec, "/api/v1/samples", analysis.Sample{
		SourceID:    "station-e",
		Composition: map[string]float64{"CH4": 0.80, "CO2": 0.02, "N2": 0.18},
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202; body: %s", w.Code, w.Body.String())
	}

	active := al.Active()
	if len(active) != 1 {
		t.Fatalf("Active(): got %d alerts, want 1", len(active))
	}
	if active[0].RuleName != "noncompliant-gas" || active[0].SourceID != "station-e" {
		t.Errorf("alert: %+v", active[0])
	}
}
