package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gaswatch/gaswatch/agent/internal/config"
	"github.com/gaswatch/gaswatch/pkg/gasio"
)

type jsonScraper struct {
	src    config.Source
	client *http.Client
}

// Scrape fetches a composition document from an HTTP endpoint serving the
// gasio JSON schema: {"composition": {"CH4": 0.95, ...}}.
func (s *jsonScraper) Scrape(ctx context.Context) (*ScrapeResult, error) {
	res := newResult(s.src.ID, "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.src.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("json scrape %q: build request: %w", s.src.ID, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("json scrape %q: %w", s.src.ID, err)
		slog.Warn("scraper: json fetch failed", "source", s.src.ID, "err", err)
		return res, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("json scrape %q: unexpected status %d", s.src.ID, resp.StatusCode)
		slog.Warn("scraper: json fetch failed", "source", s.src.ID, "status", resp.StatusCode)
		return res, nil
	}

	comp, err := gasio.ReadCompositionJSON(resp.Body)
	if err != nil {
		res.Err = fmt.Errorf("json scrape %q: %w", s.src.ID, err)
		slog.Warn("scraper: json decode failed", "source", s.src.ID, "err", err)
		return res, nil
	}
	res.Composition = comp

	return res, nil
}
