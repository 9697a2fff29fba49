// Package gateway maps content ids to public gateway URLs. Fallback is
// deterministic: attempt k uses the k-th configured host, and once every host
// has failed the placeholder is returned.
package gateway

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultHosts is the fallback order when none is configured.
var DefaultHosts = []string{
	"gateway.pinata.cloud",
	"ipfs.io",
	"dweb.link",
	"cloudflare-ipfs.com",
}

// DefaultPlaceholder is shown once every gateway has failed.
const DefaultPlaceholder = "placeholder:unavailable"

// Resolver holds the ordered host list.
type Resolver struct {
	hosts       []string
	placeholder string
}

// NewResolver normalizes hosts with NormalizeHost and drops blanks and
// repeats, so attempt k is the k-th distinct host. config.Load rejects
// repeated gateways, which keeps that equal to the k-th configured entry. An
// empty list falls back to DefaultHosts.
func NewResolver(hosts []string, placeholder string) *Resolver {
	clean := make([]string, 0, len(hosts))
	seen := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		h = NormalizeHost(h)
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		clean = append(clean, h)
	}
	if len(clean) == 0 {
		clean = append(clean, DefaultHosts...)
	}
	placeholder = strings.TrimSpace(placeholder)
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &Resolver{hosts: clean, placeholder: placeholder}
}

// Hosts returns a copy of the host list.
func (r *Resolver) Hosts() []string {
	return append([]string(nil), r.hosts...)
}

// Len is the number of hosts, and so the highest attempt index that still
// resolves to a gateway URL plus one.
func (r *Resolver) Len() int { return len(r.hosts) }

// Placeholder returns the exhaustion placeholder.
func (r *Resolver) Placeholder() string { return r.placeholder }

// Resolve returns the URL for attempt. Negative attempts count as zero.
func (r *Resolver) Resolve(contentID string, attempt int) string {
	attempt = max(attempt, 0)
	if attempt >= len(r.hosts) {
		return r.placeholder
	}
	return fmt.Sprintf("https://%s/ipfs/%s", r.hosts[attempt], url.PathEscape(contentID))
}

// Candidates lists every gateway URL for contentID in fallback order.
func (r *Resolver) Candidates(contentID string) []string {
	out := make([]string, len(r.hosts))
	for i := range r.hosts {
		out[i] = r.Resolve(contentID, i)
	}
	return out
}

// IsPlaceholder reports whether u is the exhaustion placeholder.
func (r *Resolver) IsPlaceholder(u string) bool {
	return u == r.placeholder
}

// NormalizeHost strips scheme, path and surrounding space and lowercases the
// result. Hosts that normalize to the same string are the same gateway.
func NormalizeHost(raw string) string {
	h := strings.TrimSpace(raw)
	if h == "" {
		return ""
	}
	if strings.Contains(h, "://") {
		if u, err := url.Parse(h); err == nil {
			h = u.Host
		}
	}
	if i := strings.IndexByte(h, '/'); i >= 0 {
		h = h[:i]
	}
	return strings.ToLower(h)
}
