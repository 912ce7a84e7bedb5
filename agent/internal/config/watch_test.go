package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiffSources(t *testing.T) {
	prev := &Config{Agent: AgentConfig{Sources: []Source{
		{ID: "station-north"},
		{ID: "station-south"},
	}}}
	next := &Config{Agent: AgentConfig{Sources: []Source{
		{ID: "station-south"},
		{ID: "station-east"},
	}}}

	added, removed := diffSources(prev, next)
	if len(added) != 1 || added[0] != "station-east" {
		t.Errorf("added = %v, want [station-east]", added)
	}
	if len(removed) != 1 || removed[0] != "station-north" {
		t.Errorf("removed = %v, want [station-north]", removed)
	}
}

func TestDiffSources_NilPrev(t *testing.T) {
	next := &Config{Agent: AgentConfig{Sources: []Source{
		{ID: "station-a"},
		{ID: "station-b"},
	}}}

	added, removed := diffSources(nil, next)
	if len(added) != 2 {
		t.Errorf("added = %v, want both sources", added)
	}
	if len(removed) != 0 {
		t.Errorf("removed = %v, want none", removed)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	initial := `
agent:
  server_endpoint: "http://localhost:8080"
  sources:
    - id: station-a
      type: prometheus
      endpoint: "http://localhost:9100/metrics"
`
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reloaded := make(chan *Config, 1)
	go func() {
		_ = Watch(ctx, path, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher time to register before touching the file.
	time.Sleep(100 * time.Millisecond)

	updated := `
agent:
  server_endpoint: "http://localhost:8080"
  sources:
    - id: station-a
      type: prometheus
      endpoint: "http://localhost:9100/metrics"
    - id: station-b
      type: json
      endpoint: "http://localhost:9200/composition"
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if len(cfg.Agent.Sources) != 2 {
			t.Errorf("reloaded sources = %d, want 2", len(cfg.Agent.Sources))
		}
	case <-ctx.Done():
		t.Fatal("onChange was not called after config write")
	}
}

func TestWatch_KeepsPreviousOnBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	initial := `
agent:
  server_endpoint: "http://localhost:8080"
  sources:
    - id: station-a
      type: prometheus
      endpoint: "http://localhost:9100/metrics"
`
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	called := make(chan struct{}, 1)
	go func() {
		_ = Watch(ctx, path, func(*Config) {
			select {
			case called <- struct{}{}:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("agent: ["), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-called:
		t.Fatal("onChange was called for a config that fails to parse")
	case <-time.After(500 * time.Millisecond):
	}
}
