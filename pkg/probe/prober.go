// Package probe provokes the platform's native permission prompt by
// attempting one outbound request to a local-network address. Only the
// attempt matters; the response is discarded by contract.
package probe

import (
	"context"
	"io"
	"net/http"

	"github.com/go-drift/netgate/pkg/errors"
)

// DefaultEndpoint is the local-network address probed by default. Any
// reachable or unreachable local address works; the request exists solely to
// make the platform surface its permission prompt.
const DefaultEndpoint = "http://192.168.1.1/"

// Prober fires best-effort requests at a fixed local-network address.
type Prober struct {
	// URL is the probed address. Defaults to DefaultEndpoint when empty.
	URL string

	// Client is the HTTP client used for probes. Defaults to
	// http.DefaultClient. No timeout is applied beyond the client's own;
	// the request relies on the platform's resolution.
	Client *http.Client
}

// NewProber creates a prober for the given URL. An empty url selects
// DefaultEndpoint.
func NewProber(url string) *Prober {
	return &Prober{URL: url}
}

// Provoke performs one detached best-effort request to the probe address.
// The outcome is discarded: network errors, timeouts, and panics never
// escape, and no other component's state is affected. Once started, the
// request cannot be aborted; ctx contributes values only, not cancellation.
//
// Safe to call multiple times; each call is one independent attempt.
func (p *Prober) Provoke(ctx context.Context) {
	url := p.URL
	if url == "" {
		url = DefaultEndpoint
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	go func() {
		defer errors.Recover("probe.provoke")

		req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, url, nil)
		if err != nil {
			return
		}
		resp, err := client.Do(req)
		if err != nil {
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
}
