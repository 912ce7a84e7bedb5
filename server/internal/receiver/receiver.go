package receiver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gaswatch/gaswatch/pkg/analysis"
	"github.com/gaswatch/gaswatch/server/internal/alerts"
	"github.com/gaswatch/gaswatch/server/internal/analyzer"
	"github.com/gaswatch/gaswatch/server/internal/store"
)

// maxBodyBytes bounds the accepted sample payload size.
const maxBodyBytes = 1 << 20

// Receiver is the HTTP ingest endpoint that accepts composition samples
// from gaswatch-agent instances. Each accepted sample is analyzed, stored,
// and fed to the alert engine.
type Receiver struct {
	analyzer *analyzer.Analyzer
	store    *store.Store
	alerts   *alerts.Engine
}

// New wires the receiver to the given analyzer, store, and alert engine.
func New(an *analyzer.Analyzer, st *store.Store, al *alerts.Engine) *Receiver {
	return &Receiver{analyzer: an, store: st, alerts: al}
}

// ServeHTTP handles POST /api/v1/samples.
// It decodes the sample, analyzes it against the profile named by the
// `profile` query parameter (the server default when absent), stores the
// result, and triggers alert evaluation. Authentication is enforced by the
// middleware in front of this handler.
func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var sample analysis.Sample
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(&sample); err != nil {
		http.Error(w, "invalid sample payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if sample.SourceID == "" {
		http.Error(w, "source_id is required", http.StatusBadRequest)
		return
	}

	out, err := r.analyzer.Analyze(&sample, req.URL.Query().Get("profile"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.store.Put(out)
	if r.alerts != nil {
		r.alerts.Evaluate(out)
	}

	slog.Debug("receiver: sample stored",
		"source_id", out.SourceID,
		"source_type", out.SourceType,
		"status", out.Status,
		"profile", out.Profile,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
		"source_id": out.SourceID,
		"status":    out.Status,
	})
}
