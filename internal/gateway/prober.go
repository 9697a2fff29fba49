package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnreachable marks a gateway URL that did not serve the content.
var ErrUnreachable = errors.New("gateway unreachable")

const defaultProbeTimeout = 8 * time.Second

// Prober checks gateway availability with a HEAD request. No body is read.
type Prober struct {
	client *http.Client
	log    zerolog.Logger
}

// NewProber uses client for probes, or a client with an 8s timeout when nil.
func NewProber(client *http.Client, log zerolog.Logger) *Prober {
	if client == nil {
		client = &http.Client{Timeout: defaultProbeTimeout}
	}
	return &Prober{client: client, log: log}
}

// Probe returns nil when rawURL answers 2xx or 3xx.
func (p *Prober) Probe(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrUnreachable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug().Err(err).Str("url", rawURL).Msg("gateway probe failed")
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		p.log.Debug().Int("status", resp.StatusCode).Str("url", rawURL).Msg("gateway probe rejected")
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

// Settle probes id's current URL and reports each failure against the
// attempt it probed, until a host answers or the placeholder is reached.
// Concurrent Settles on one id are safe: a failure only advances the tracker
// past the host that was actually probed. It returns the URL to display.
func Settle(ctx context.Context, p *Prober, t *Tracker, id string) string {
	for {
		attempt := t.Attempt(id)
		if attempt >= t.resolver.Len() {
			return t.URL(id)
		}
		err := p.Probe(ctx, t.resolver.Resolve(id, attempt))
		if err == nil || ctx.Err() != nil {
			return t.URL(id)
		}
		t.LoadFailed(id, attempt)
	}
}
