package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gaswatch/gaswatch/pkg/analysis"
	"github.com/gaswatch/gaswatch/pkg/quality"
	"github.com/gaswatch/gaswatch/pkg/regulatory"
	"github.com/gaswatch/gaswatch/server/internal/alerts"
	"github.com/gaswatch/gaswatch/server/internal/analyzer"
	"github.com/gaswatch/gaswatch/server/internal/store"
)

// Handler is the HTTP handler for all /api/v1/* endpoints except ingest.
// It reads analyses from the store and returns JSON responses.
type Handler struct {
	store    *store.Store
	analyzer *analyzer.Analyzer
	alerts   *alerts.Engine
	mux      *http.ServeMux
}

// New creates a Handler wired to the given store, analyzer, and alert
// engine, and registers all routes.
func New(st *store.Store, an *analyzer.Analyzer, al *alerts.Engine) http.Handler {
	h := &Handler{store: st, analyzer: an, alerts: al, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/samples", h.listSamples)
	h.mux.HandleFunc("/api/v1/samples/", h.getSample) // subtree — extracts {id}
	h.mux.HandleFunc("/api/v1/analyze", h.analyze)
	h.mux.HandleFunc("/api/v1/profiles", h.profiles)
	h.mux.HandleFunc("/api/v1/alerts", h.listAlerts)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — per-status source counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.List()
	resp := HealthResponse{SourceCount: len(entries)}
	if h.alerts != nil {
		resp.AlertCount = len(h.alerts.Active())
	}

	if len(entries) == 0 {
		resp.State = "unknown"
		jsonResp(w, http.StatusOK, resp)
		return
	}

	for _, e := range entries {
		switch e.Analysis.Status {
		case analysis.StatusCompliant:
			resp.CompliantCount++
		case analysis.StatusNoncompliant:
			resp.NoncompliantCount++
		default:
			resp.InvalidCount++
		}
	}

	if resp.NoncompliantCount > 0 || resp.InvalidCount > 0 {
		resp.State = "degraded"
	} else {
		resp.State = "ok"
	}
	jsonResp(w, http.StatusOK, resp)
}

// listSamples returns GET /api/v1/samples — all live analyses.
func (h *Handler) listSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.List()
	out := make([]SampleResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toSampleResponse(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	jsonResp(w, http.StatusOK, out)
}

// getSample returns GET /api/v1/samples/{id} — a single live analysis.
func (h *Handler) getSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/samples/")
	if id == "" {
		// Redirect bare /api/v1/samples/ to list handler.
		h.listSamples(w, r)
		return
	}

	e, ok := h.store.Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "source not found")
		return
	}
	// Exclude stale entries — treat them as not found.
	if time.Since(e.UpdatedAt) > h.store.TTL() {
		jsonErr(w, http.StatusNotFound, "source not found")
		return
	}

	jsonResp(w, http.StatusOK, toSampleResponse(e))
}

// analyze handles POST /api/v1/analyze — ad-hoc analysis of a composition
// without storing it. A composition that fails validation returns 422 with
// the reason; a profile that needs an unimplemented metric returns 501.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	out, err := h.analyzer.Analyze(&analysis.Sample{
		SampledAt:   time.Now().UTC(),
		Composition: req.Composition,
	}, req.Profile)
	if err != nil {
		if errors.Is(err, quality.ErrNotImplemented) {
			jsonErr(w, http.StatusNotImplemented, err.Error())
			return
		}
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if out.Status == analysis.StatusInvalid {
		jsonErr(w, http.StatusUnprocessableEntity, out.Error)
		return
	}

	jsonResp(w, http.StatusOK, out)
}

// profiles returns GET /api/v1/profiles — registered regulatory profiles.
func (h *Handler) profiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	all := h.analyzer.Profiles()
	out := make([]regulatory.Profile, 0, len(all))
	for _, p := range all {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	jsonResp(w, http.StatusOK, out)
}

// listAlerts returns GET /api/v1/alerts — firing and recently resolved alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []struct{}{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// snapshot returns GET /api/v1/snapshot — full JSON dump of all live analyses.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jsonResp(w, http.StatusOK, BuildSnapshot(h.store))
}

// BuildSnapshot assembles the full dump of all live analyses. Shared with
// the WebSocket hub, which broadcasts the same schema.
func BuildSnapshot(st *store.Store) SnapshotResponse {
	entries := st.List()
	samples := make([]SampleResponse, 0, len(entries))
	for _, e := range entries {
		samples = append(samples, toSampleResponse(e))
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].SourceID < samples[j].SourceID })

	return SnapshotResponse{
		Samples:     samples,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// toSampleResponse maps a store.Entry to its JSON representation.
func toSampleResponse(e *store.Entry) SampleResponse {
	return SampleResponse{
		Analysis: *e.Analysis,
		LastSeen: e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
