// Package agent is the long-lived offline companion of the web client:
// it precaches the application shell, intercepts GET requests with a
// network-first strategy, and routes delivered push notifications back
// into the right in-app view.
package agent

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"

	"coach-service/internal/observability"
)

// ShellDocument is the navigation fallback served when both network and
// cache miss for a page load.
const ShellDocument = "/"

// DefaultShellAssets is the precached application shell.
var DefaultShellAssets = []string{
	"/",
	"/manifest.json",
	"/icons/icon-192.png",
	"/icons/icon-512.png",
}

// Fetcher performs the upstream request. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// GatewayConfig wires a Gateway.
type GatewayConfig struct {
	Version     string
	AppOrigin   string
	APIPrefix   string
	ShellAssets []string
	Fetcher     Fetcher
	Store       *Store
}

// Gateway serves the web client with offline resilience. Requests whose
// path sits under the API prefix always bypass the cache so live API
// data is never served stale.
type Gateway struct {
	version     string
	appOrigin   string
	apiPrefix   string
	shellAssets []string
	fetcher     Fetcher
	store       *Store
	active      atomic.Bool
}

// NewGateway constructs a Gateway.
func NewGateway(cfg GatewayConfig) *Gateway {
	assets := cfg.ShellAssets
	if len(assets) == 0 {
		assets = DefaultShellAssets
	}
	store := cfg.Store
	if store == nil {
		store = NewStore()
	}
	apiPrefix := cfg.APIPrefix
	if apiPrefix == "" {
		apiPrefix = "/api/"
	}
	return &Gateway{
		version:     cfg.Version,
		appOrigin:   strings.TrimRight(cfg.AppOrigin, "/"),
		apiPrefix:   apiPrefix,
		shellAssets: assets,
		fetcher:     cfg.Fetcher,
		store:       store,
	}
}

// Version returns the active cache generation name.
func (g *Gateway) Version() string { return g.version }

// Install pre-populates the current generation with the shell assets so
// the app launches with no network. A single failed asset fails the
// install, matching an atomic shell precache.
func (g *Gateway) Install(ctx context.Context) error {
	for _, path := range g.shellAssets {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.appOrigin+path, nil)
		if err != nil {
			return err
		}
		resp, err := g.fetcher.Do(req)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		cached, err := snapshot(resp)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		if cached.Status != http.StatusOK {
			return fmt.Errorf("precache %s: status %d", path, cached.Status)
		}
		g.store.Put(g.version, path, cached)
	}
	log.Printf("offline gateway installed generation=%s assets=%d", g.version, len(g.shellAssets))
	return nil
}

// Activate rolls the cache over: every generation whose name does not
// match the current version is deleted, then the gateway starts serving
// all requests immediately.
func (g *Gateway) Activate() {
	g.store.DropOthers(g.version)
	g.active.Store(true)
	log.Printf("offline gateway activated generation=%s", g.version)
}

// Active reports whether Activate has run.
func (g *Gateway) Active() bool { return g.active.Load() }

// ServeHTTP resolves a request: API paths and non-GETs go straight to
// network; everything else is network-first with cache fallback, shell
// fallback for navigations, synthetic 503 otherwise.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || strings.HasPrefix(r.URL.Path, g.apiPrefix) {
		g.passThrough(w, r)
		return
	}

	key := r.URL.Path
	upstream, err := g.forward(r)
	if err == nil {
		cached, snapErr := snapshot(upstream)
		if snapErr == nil {
			if cached.Status == http.StatusOK {
				g.store.Put(g.version, key, cached)
			}
			observability.IncGatewayFetch("network")
			writeCached(w, cached)
			return
		}
		err = snapErr
	}

	if cached, ok := g.store.Get(g.version, key); ok {
		observability.IncGatewayFetch("cache")
		writeCached(w, cached)
		return
	}

	if isNavigation(r) {
		if shell, ok := g.store.Get(g.version, ShellDocument); ok {
			observability.IncGatewayFetch("shell")
			writeCached(w, shell)
			return
		}
	}

	log.Printf("offline gateway: %s unavailable: %v", key, err)
	observability.IncGatewayFetch("unavailable")
	http.Error(w, "offline", http.StatusServiceUnavailable)
}

func (g *Gateway) passThrough(w http.ResponseWriter, r *http.Request) {
	upstream, err := g.forward(r)
	if err != nil {
		observability.IncGatewayFetch("unavailable")
		http.Error(w, "upstream unreachable", http.StatusServiceUnavailable)
		return
	}
	defer upstream.Body.Close()
	copyHeader(w.Header(), upstream.Header)
	w.WriteHeader(upstream.StatusCode)
	_, _ = io.Copy(w, upstream.Body)
}

func (g *Gateway) forward(r *http.Request) (*http.Response, error) {
	url := g.appOrigin + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}
	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
	if err != nil {
		return nil, err
	}
	copyHeader(req.Header, r.Header)
	return g.fetcher.Do(req)
}

// snapshot drains the upstream body so the response can both be stored
// and replayed.
func snapshot(resp *http.Response) (CachedResponse, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CachedResponse{}, err
	}
	header := make(http.Header, len(resp.Header))
	copyHeader(header, resp.Header)
	return CachedResponse{Status: resp.StatusCode, Header: header, Body: body}, nil
}

func writeCached(w http.ResponseWriter, cached CachedResponse) {
	copyHeader(w.Header(), cached.Header)
	w.WriteHeader(cached.Status)
	_, _ = w.Write(cached.Body)
}

func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

// isNavigation detects page loads the way the fetch metadata headers
// expose them, falling back to the Accept header for older agents.
func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
