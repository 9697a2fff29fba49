package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Deterministic(t *testing.T) {
	r := NewResolver([]string{"a.example", "b.example", "c.example"}, "")
	for i := 0; i < 3; i++ {
		assert.Equal(t, r.Resolve("QmX", i), r.Resolve("QmX", i))
	}
	assert.Equal(t, "https://a.example/ipfs/QmX", r.Resolve("QmX", 0))
	assert.Equal(t, "https://b.example/ipfs/QmX", r.Resolve("QmX", 1))
	assert.Equal(t, "https://c.example/ipfs/QmX", r.Resolve("QmX", 2))
	assert.Equal(t, DefaultPlaceholder, r.Resolve("QmX", 3))
	assert.Equal(t, DefaultPlaceholder, r.Resolve("QmX", 99))
	assert.Equal(t, "https://a.example/ipfs/QmX", r.Resolve("QmX", -1))
}

func TestNewResolver_Normalizes(t *testing.T) {
	r := NewResolver([]string{" https://IPFS.io/ipfs/ ", "", "ipfs.io", "dweb.link/x"}, "none")
	assert.Equal(t, []string{"ipfs.io", "dweb.link"}, r.Hosts())
	assert.Equal(t, "none", r.Placeholder())

	def := NewResolver(nil, "")
	assert.Equal(t, DefaultHosts, def.Hosts())
	assert.Len(t, def.Candidates("Qm"), len(DefaultHosts))
}

func TestTracker_ExhaustsAfterEveryHost(t *testing.T) {
	r := NewResolver([]string{"a.example", "b.example", "c.example"}, "")
	tr := NewTracker(r)

	seen := []string{tr.URL("Qm1")}
	for i := 0; i < 3; i++ {
		seen = append(seen, tr.LoadFailed("Qm1", i))
	}
	assert.Equal(t, []string{
		"https://a.example/ipfs/Qm1",
		"https://b.example/ipfs/Qm1",
		"https://c.example/ipfs/Qm1",
		DefaultPlaceholder,
	}, seen)
	assert.True(t, tr.Exhausted("Qm1"))

	// Further failures stay on the placeholder.
	assert.Equal(t, DefaultPlaceholder, tr.LoadFailed("Qm1", 3))
	assert.Equal(t, 3, tr.Attempt("Qm1"))

	// Other ids are independent.
	assert.Equal(t, "https://a.example/ipfs/Qm2", tr.URL("Qm2"))

	tr.Forget("Qm1")
	assert.Equal(t, 0, tr.Attempt("Qm1"))
}

func TestTracker_ConcurrentFailuresOfOneHostAdvanceOnce(t *testing.T) {
	r := NewResolver([]string{"a", "b", "c"}, "")
	tr := NewTracker(r)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.LoadFailed("Qm", 0)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, tr.Attempt("Qm"))
}

func TestTracker_StaleFailureIsIgnored(t *testing.T) {
	r := NewResolver([]string{"a", "b", "c"}, "")
	tr := NewTracker(r)

	assert.Equal(t, "https://b/ipfs/Qm", tr.LoadFailed("Qm", 0))
	// A second report for host a arrives after the tracker moved to b.
	assert.Equal(t, "https://b/ipfs/Qm", tr.LoadFailed("Qm", 0))
	assert.Equal(t, 1, tr.Attempt("Qm"))

	// Reports for attempts not yet reached are ignored too.
	tr.LoadFailed("Qm", 2)
	assert.Equal(t, 1, tr.Attempt("Qm"))
}

func TestProber(t *testing.T) {
	var methods []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method)
		mu.Unlock()
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	p := NewProber(server.Client(), zerolog.Nop())
	require.NoError(t, p.Probe(context.Background(), server.URL+"/ipfs/ok"))
	assert.ErrorIs(t, p.Probe(context.Background(), server.URL+"/ipfs/missing"), ErrUnreachable)
	assert.ErrorIs(t, p.Probe(context.Background(), "http://127.0.0.1:0/ipfs/x"), ErrUnreachable)

	mu.Lock()
	defer mu.Unlock()
	for _, m := range methods {
		assert.Equal(t, http.MethodHead, m)
	}
}

func TestSettle_FallsThroughToPlaceholder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	host := strings.TrimPrefix(server.URL, "http://")
	r := NewResolver([]string{host, "127.0.0.1:1"}, "")
	tr := NewTracker(r)
	// Resolver always emits https; an http-only test server fails the TLS
	// handshake, which is the failure we want here.
	p := NewProber(server.Client(), zerolog.Nop())

	got := Settle(context.Background(), p, tr, "Qm")
	assert.Equal(t, DefaultPlaceholder, got)
	assert.True(t, tr.Exhausted("Qm"))
}

func TestSettle_StopsAtFirstHealthyGateway(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	host := strings.TrimPrefix(server.URL, "https://")
	r := NewResolver([]string{"127.0.0.1:1", host}, "")
	tr := NewTracker(r)
	p := NewProber(server.Client(), zerolog.Nop())

	got := Settle(context.Background(), p, tr, "Qm")
	assert.Equal(t, "https://"+host+"/ipfs/Qm", got)
	assert.Equal(t, 1, tr.Attempt("Qm"))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSettle_ConcurrentRunsKeepHealthyMiddleHost(t *testing.T) {
	// a and c fail, b serves the content; every answer is slow enough for the
	// two runs to overlap.
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		time.Sleep(50 * time.Millisecond)
		status := http.StatusBadGateway
		if r.URL.Host == "b.test" {
			status = http.StatusOK
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})
	r := NewResolver([]string{"a.test", "b.test", "c.test"}, "")
	tr := NewTracker(r)
	p := NewProber(&http.Client{Transport: transport}, zerolog.Nop())

	results := make([]string, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Settle(context.Background(), p, tr, "Qm")
		}(i)
	}
	wg.Wait()

	want := "https://b.test/ipfs/Qm"
	assert.Equal(t, []string{want, want}, results)
	assert.Equal(t, want, tr.URL("Qm"))
	assert.Equal(t, 1, tr.Attempt("Qm"))
}
