package shipper

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gaswatch/gaswatch/agent/internal/config"
	"github.com/gaswatch/gaswatch/pkg/analysis"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
	sendTimeout       = 10 * time.Second
)

// Shipper buffers samples and ships them to gaswatch-server over HTTP.
// Ship() is non-blocking; when the buffer is full the oldest sample is
// evicted. Run() must be called in a goroutine to drain the buffer and
// handle retries.
type Shipper struct {
	cfg    config.AgentConfig
	buf    chan *analysis.Sample
	client *http.Client
	target string
}

// New creates a Shipper using the given agent config.
func New(cfg config.AgentConfig) (*Shipper, error) {
	client, err := buildClient(cfg.ServerAuth)
	if err != nil {
		return nil, fmt.Errorf("shipper: build http client: %w", err)
	}
	target, err := ingestURL(cfg)
	if err != nil {
		return nil, err
	}
	return &Shipper{
		cfg:    cfg,
		buf:    make(chan *analysis.Sample, cfg.BufferSize),
		client: client,
		target: target,
	}, nil
}

// ingestURL joins the server endpoint with the ingest path and the optional
// profile selector.
func ingestURL(cfg config.AgentConfig) (string, error) {
	u, err := url.Parse(cfg.ServerEndpoint)
	if err != nil {
		return "", fmt.Errorf("shipper: parse server endpoint %q: %w", cfg.ServerEndpoint, err)
	}
	u = u.JoinPath("/api/v1/samples")
	if cfg.Profile != "" {
		q := u.Query()
		q.Set("profile", cfg.Profile)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Ship enqueues a sample for delivery.
// If the buffer is full the oldest entry is evicted to make room.
func (s *Shipper) Ship(sample *analysis.Sample) {
	select {
	case s.buf <- sample:
	default:
		// Buffer full: drop the oldest sample, keep the newest.
		select {
		case <-s.buf:
			slog.Warn("shipper: buffer full, evicted oldest sample",
				"source", sample.SourceID, "buffer_cap", cap(s.buf))
		default:
		}
		s.buf <- sample
	}
}

// Run drains the buffer, sending samples to the server.
// It retries with exponential backoff when the server is unreachable.
// Run blocks until ctx is cancelled.
func (s *Shipper) Run(ctx context.Context) {
	bo := newBackoff()

	for {
		select {
		case <-ctx.Done():
			return

		case sample := <-s.buf:
			err := s.send(ctx, sample)
			if err == nil {
				bo.reset()
				slog.Debug("shipper: sample delivered", "source", sample.SourceID)
				continue
			}

			if isPermanent(err) {
				slog.Error("shipper: permanent send error, discarding sample",
					"source", sample.SourceID, "err", err)
				bo.reset()
				continue
			}

			// Transient failure: requeue if there is room and back off.
			select {
			case s.buf <- sample:
			default:
				// Buffer full, sample lost; the server will receive the next
				// cycle's data once it is reachable again.
			}

			wait := bo.next()
			slog.Warn("shipper: send failed, will retry",
				"endpoint", s.target, "err", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

// send POSTs one sample to the ingest endpoint.
func (s *Shipper) send(ctx context.Context, sample *analysis.Sample) error {
	body, err := json.Marshal(sample)
	if err != nil {
		return &permanentError{fmt.Errorf("marshal sample: %w", err)}
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, s.target, bytes.NewReader(body))
	if err != nil {
		return &permanentError{fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	// Inject API key header if configured.
	if s.cfg.ServerAuth.Mode == "apikey" && s.cfg.ServerAuth.KeyEnv != "" {
		header := s.cfg.ServerAuth.Header
		if header == "" {
			header = "x-api-key"
		}
		req.Header.Set(header, s.cfg.ServerAuth.Key())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("server returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))

	// 4xx means the sample itself was rejected and retrying cannot help.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return &permanentError{err}
	}
	return err
}

// permanentError marks a send failure that must not be retried.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// buildClient constructs the HTTP client for the server auth config.
// mTLS loads a client certificate; other modes use the default transport.
func buildClient(auth config.AuthConfig) (*http.Client, error) {
	if auth.Mode != "mtls" {
		return &http.Client{Timeout: sendTimeout}, nil
	}

	cert, err := tls.LoadX509KeyPair(auth.CertFile, auth.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load client cert: %w", err)
	}
	tlsCfg := &tls.Config{Certificates: []tls.Certificate{cert}}

	if auth.CAFile != "" {
		caPEM, err := os.ReadFile(auth.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no valid certs in ca file %q", auth.CAFile)
		}
		tlsCfg.RootCAs = pool
	}

	return &http.Client{
		Transport: &http.Transport{TLSClientConfig: tlsCfg},
		Timeout:   sendTimeout,
	}, nil
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// Apply plus-minus 25% jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	// Advance for next call.
	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}

func (b *backoff) reset() {
	b.current = backoffInitial
}
