package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaswatch/gaswatch/agent/internal/config"
)

const compositionDoc = `{
  "composition": {
    "CH4": 0.95,
    "CO2": 0.02,
    "N2": 0.03
  }
}`

func TestJSONScraper_Scrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(compositionDoc))
	}))
	defer srv.Close()

	s := &jsonScraper{
		src:    config.Source{ID: "feed-a", Type: "json", Endpoint: srv.URL},
		client: srv.Client(),
	}

	res, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if res.Err != nil {
		t.Fatalf("res.Err = %v", res.Err)
	}
	if got := res.Composition["CH4"]; got != 0.95 {
		t.Errorf("Composition[CH4] = %v, want 0.95", got)
	}
	if len(res.Composition) != 3 {
		t.Errorf("Composition: got %d components, want 3", len(res.Composition))
	}
}

func TestJSONScraper_MissingCompositionKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"mixture": {}}`))
	}))
	defer srv.Close()

	s := &jsonScraper{
		src:    config.Source{ID: "feed-b", Type: "json", Endpoint: srv.URL},
		client: srv.Client(),
	}

	res, _ := s.Scrape(context.Background())
	if res.Err == nil {
		t.Fatal("res.Err = nil, want decode error")
	}
}

func TestJSONScraper_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := &jsonScraper{
		src:    config.Source{ID: "feed-c", Type: "json", Endpoint: srv.URL},
		client: srv.Client(),
	}

	res, _ := s.Scrape(context.Background())
	if res.Err == nil {
		t.Fatal("res.Err = nil, want status error")
	}
}

func TestJSONScraper_APIKeyHeaderSent(t *testing.T) {
	t.Setenv("FEED_API_KEY", "sekrit")

	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-feed-key")
		_, _ = w.Write([]byte(compositionDoc))
	}))
	defer srv.Close()

	src := config.Source{
		ID:       "feed-d",
		Type:     "json",
		Endpoint: srv.URL,
		Auth:     config.AuthConfig{Mode: "apikey", Header: "x-feed-key", KeyEnv: "FEED_API_KEY"},
	}
	s, err := New(src)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if res.Err != nil {
		t.Fatalf("res.Err = %v", res.Err)
	}
	if gotKey != "sekrit" {
		t.Errorf("api key header: got %q, want sekrit", gotKey)
	}
}
