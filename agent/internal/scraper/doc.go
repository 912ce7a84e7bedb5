// Package scraper provides scrapers for each supported composition source.
// Each scraper polls a sampling point and returns a ScrapeResult containing
// the raw composition (mole fractions as read, not yet validated) plus
// auxiliary line readings. The server validates and analyzes on ingest.
//
// Implemented scrapers: chromatograph Prometheus exporter (prometheus.go,
// gas_mole_fraction{component="..."} series) and plain JSON composition
// feeds (json.go). Factory: New(config.Source) returns the correct Scraper.
//
// Authentication (mTLS, API key, bearer token, basic) is handled by the
// shared authRoundTripper in base.go; individual scrapers receive a
// pre-configured *http.Client from New().
package scraper
