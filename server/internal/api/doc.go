// Package api implements the HTTP REST API for gaswatch-server.
//
// New(store, analyzer, alerts) returns an http.Handler that serves:
//
//	GET  /api/v1/health        — per-status source counts and overall state
//	GET  /api/v1/samples       — all live analyses ([]SampleResponse)
//	GET  /api/v1/samples/{id}  — single analysis; 404 if unknown or stale
//	POST /api/v1/analyze       — ad-hoc composition analysis, not stored
//	GET  /api/v1/profiles      — registered regulatory profiles
//	GET  /api/v1/alerts        — firing and recently resolved alerts
//	GET  /api/v1/snapshot      — full JSON dump: all live analyses + generated_at
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for unsupported methods
//   - Read live entries from the store (stale entries excluded from lists)
//
// POST /api/v1/analyze maps failures onto status codes: malformed JSON is
// 400, a composition that fails validation is 422, and a profile that needs
// an unimplemented metric (methane number) is 501.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
