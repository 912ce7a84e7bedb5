package shipper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gaswatch/gaswatch/agent/internal/config"
	"github.com/gaswatch/gaswatch/pkg/analysis"
)

// mockIngest records samples POSTed to the ingest endpoint.
type mockIngest struct {
	mu       sync.Mutex
	received []analysis.Sample
	profiles []string
	headers  []http.Header
	rejectN  int // answer the first N calls with 503
	status   int // non-zero forces this status on every call
}

func (m *mockIngest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != 0 {
		http.Error(w, "mock rejection", m.status)
		return
	}
	if m.rejectN > 0 {
		m.rejectN--
		http.Error(w, "mock outage", http.StatusServiceUnavailable)
		return
	}

	var s analysis.Sample
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m.received = append(m.received, s)
	m.profiles = append(m.profiles, r.URL.Query().Get("profile"))
	m.headers = append(m.headers, r.Header.Clone())
	w.WriteHeader(http.StatusAccepted)
}

func (m *mockIngest) samples() []analysis.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]analysis.Sample, len(m.received))
	copy(out, m.received)
	return out
}

func makeSample(id string) *analysis.Sample {
	return &analysis.Sample{
		SourceID:   id,
		SourceType: "prometheus",
		SampledAt:  time.Now(),
		Composition: map[string]float64{
			"CH4": 0.95,
			"CO2": 0.02,
			"N2":  0.03,
		},
		Extra: map[string]float64{"line_pressure_bar": 42.1},
	}
}

func agentCfg(endpoint string) config.AgentConfig {
	return config.AgentConfig{
		ServerEndpoint: endpoint,
		BufferSize:     10,
		ShipInterval:   time.Second,
	}
}

func newTestShipper(t *testing.T, cfg config.AgentConfig) *Shipper {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// --- Tests ---

func TestShipper_DeliversSample(t *testing.T) {
	srv := &mockIngest{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	s := newTestShipper(t, agentCfg(ts.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	go s.Run(ctx)

	s.Ship(makeSample("station-1"))

	waitFor(t, func() bool { return len(srv.samples()) > 0 })

	got := srv.samples()
	if len(got) != 1 {
		t.Fatalf("server received %d samples, want 1", len(got))
	}
	if got[0].SourceID != "station-1" {
		t.Errorf("SourceID = %q, want %q", got[0].SourceID, "station-1")
	}
	if got[0].Composition["CH4"] != 0.95 {
		t.Errorf("Composition[CH4] = %v, want 0.95", got[0].Composition["CH4"])
	}
}

func TestShipper_MultipleSamples(t *testing.T) {
	srv := &mockIngest{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	s := newTestShipper(t, agentCfg(ts.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	go s.Run(ctx)

	for i := 0; i < 5; i++ {
		s.Ship(makeSample("src"))
	}

	waitFor(t, func() bool { return len(srv.samples()) >= 5 })

	if got := len(srv.samples()); got != 5 {
		t.Errorf("server received %d samples, want 5", got)
	}
}

func TestShipper_ProfileQueryParam(t *testing.T) {
	srv := &mockIngest{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	cfg := agentCfg(ts.URL)
	cfg.Profile = "hera-2021"
	s := newTestShipper(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	go s.Run(ctx)

	s.Ship(makeSample("station-1"))
	waitFor(t, func() bool { return len(srv.samples()) > 0 })

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.profiles) == 0 || srv.profiles[0] != "hera-2021" {
		t.Errorf("profiles = %v, want [hera-2021]", srv.profiles)
	}
}

func TestShipper_APIKeyHeader(t *testing.T) {
	t.Setenv("GW_TEST_SHIP_KEY", "s3cret")

	srv := &mockIngest{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	cfg := agentCfg(ts.URL)
	cfg.ServerAuth = config.AuthConfig{Mode: "apikey", KeyEnv: "GW_TEST_SHIP_KEY"}
	s := newTestShipper(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	go s.Run(ctx)

	s.Ship(makeSample("station-1"))
	waitFor(t, func() bool { return len(srv.samples()) > 0 })

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.headers) == 0 {
		t.Fatal("server received no requests")
	}
	if got := srv.headers[0].Get("x-api-key"); got != "s3cret" {
		t.Errorf("x-api-key header = %q, want %q", got, "s3cret")
	}
}

func TestShipper_BufferEvictsOldest(t *testing.T) {
	// BufferSize=3; Ship 5 items while the shipper is not running.
	// Only the 3 most recent should survive.
	s := newTestShipper(t, config.AgentConfig{ServerEndpoint: "http://127.0.0.1:1", BufferSize: 3})

	for i := 0; i < 5; i++ {
		smp := makeSample("src")
		smp.Extra = map[string]float64{"seq": float64(i)}
		s.Ship(smp)
	}

	var seqs []float64
	for {
		select {
		case smp := <-s.buf:
			seqs = append(seqs, smp.Extra["seq"])
		default:
			goto done
		}
	}
done:

	if len(seqs) != 3 {
		t.Fatalf("buffer has %d items, want 3", len(seqs))
	}
	// Sequences 2, 3, 4 should remain (0 and 1 were evicted).
	for i, want := range []float64{2, 3, 4} {
		if seqs[i] != want {
			t.Errorf("seqs[%d] = %.0f, want %.0f", i, seqs[i], want)
		}
	}
}

func TestShipper_RetriesTransientFailure(t *testing.T) {
	srv := &mockIngest{rejectN: 2}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	s := newTestShipper(t, agentCfg(ts.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go s.Run(ctx)

	s.Ship(makeSample("retry-1"))

	// Two 503s then success; with 1s initial backoff this lands in a few
	// seconds.
	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if len(srv.samples()) > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	got := srv.samples()
	if len(got) != 1 {
		t.Fatalf("server received %d samples, want 1", len(got))
	}
	if got[0].SourceID != "retry-1" {
		t.Errorf("SourceID = %q, want %q", got[0].SourceID, "retry-1")
	}
}

func TestShipper_DiscardsOnPermanentError(t *testing.T) {
	srv := &mockIngest{status: http.StatusBadRequest}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	s := newTestShipper(t, agentCfg(ts.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go s.Run(ctx)

	s.Ship(makeSample("bad-1"))

	// The sample must be discarded, not requeued.
	time.Sleep(300 * time.Millisecond)
	if n := len(s.buf); n != 0 {
		t.Errorf("buffer has %d items after permanent rejection, want 0", n)
	}
	if got := len(srv.samples()); got != 0 {
		t.Errorf("server stored %d samples, want 0", got)
	}
}

func TestIngestURL(t *testing.T) {
	cfg := config.AgentConfig{ServerEndpoint: "http://gw.example:8080", Profile: "nn-158-13"}
	got, err := ingestURL(cfg)
	if err != nil {
		t.Fatalf("ingestURL: %v", err)
	}
	want := "http://gw.example:8080/api/v1/samples?profile=nn-158-13"
	if got != want {
		t.Errorf("ingestURL = %q, want %q", got, want)
	}

	cfg.Profile = ""
	got, err = ingestURL(cfg)
	if err != nil {
		t.Fatalf("ingestURL: %v", err)
	}
	want = "http://gw.example:8080/api/v1/samples"
	if got != want {
		t.Errorf("ingestURL = %q, want %q", got, want)
	}
}

func TestShipper_BackoffResets(t *testing.T) {
	b := newBackoff()
	first := b.next()
	if first > 2*time.Second {
		t.Errorf("first backoff too large: %v", first)
	}
	for i := 0; i < 10; i++ {
		b.next()
	}
	b.reset()
	after := b.next()
	if after > 2*time.Second {
		t.Errorf("backoff after reset too large: %v", after)
	}
}

func TestBackoff_NeverExceedsMax(t *testing.T) {
	b := newBackoff()
	for i := 0; i < 50; i++ {
		d := b.next()
		if d > backoffMax*2 {
			t.Errorf("backoff[%d] = %v, exceeds 2x max", i, d)
		}
	}
}

func TestShipper_GracefulShutdown(t *testing.T) {
	srv := &mockIngest{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	s := newTestShipper(t, agentCfg(ts.URL))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}
