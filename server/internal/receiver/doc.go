// Package receiver implements the HTTP ingest endpoint that accepts
// composition samples from gaswatch-agent instances.
//
// POST /api/v1/samples decodes an analysis.Sample, rejects payloads without
// a source_id (400), runs the analyzer, stores the resulting analysis, and
// hands it to the alert engine. A sample whose composition fails validation
// is still accepted and stored with status "invalid" so a misbehaving
// chromatograph stays visible. Authentication is enforced upstream by the
// middleware in package auth, so the receiver itself only performs
// structural validation.
package receiver
