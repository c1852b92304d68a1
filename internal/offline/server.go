// Package offline serves the installable web shell through a cache-first
// proxy so it keeps loading when the upstream dev server is unreachable.
package offline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/storage"
)

// CacheHeader marks responses served from the cache.
const CacheHeader = "X-Ntricacid-Cache"

// Server is the cache-first proxy in front of cfg.Upstream.
type Server struct {
	cfg      config.OfflineConfig
	upstream *url.URL
	caches   *Caches
	client   *http.Client
	proxy    *httputil.ReverseProxy
	log      *logging.Logger
}

// NewServer creates a Server whose caches live in store.
func NewServer(cfg config.OfflineConfig, store storage.Store, log *logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.Nop()
	}
	u, err := url.Parse(cfg.Upstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("offline: invalid upstream %q", cfg.Upstream)
	}
	if cfg.CacheName == "" {
		return nil, fmt.Errorf("offline: cache name is required")
	}
	return &Server{
		cfg:      cfg,
		upstream: u,
		caches:   NewCaches(store),
		client:   &http.Client{Timeout: 30 * time.Second},
		proxy:    httputil.NewSingleHostReverseProxy(u),
		log:      log.WithPrefix("offline"),
	}, nil
}

// Caches exposes the underlying cache set.
func (s *Server) Caches() *Caches {
	return s.caches
}

// Install precaches every configured asset. It is all or nothing: if any
// asset cannot be fetched nothing is stored and the error is returned.
func (s *Server) Install(ctx context.Context) error {
	entries := make(map[string]Entry, len(s.cfg.Assets))
	for _, asset := range s.cfg.Assets {
		e, err := s.fetch(ctx, asset, nil)
		if err != nil {
			return fmt.Errorf("precache %s: %w", asset, err)
		}
		if e.Status != http.StatusOK {
			return fmt.Errorf("precache %s: upstream returned %d", asset, e.Status)
		}
		entries[asset] = e
	}
	if err := s.caches.PutAll(ctx, s.cfg.CacheName, entries); err != nil {
		return err
	}
	s.log.Event(logging.EventOfflineInstall, logging.F("cache", s.cfg.CacheName), logging.Count(len(entries)))
	return nil
}

// Activate deletes every cache except the current one.
func (s *Server) Activate(ctx context.Context) error {
	names, err := s.caches.Names(ctx)
	if err != nil {
		return err
	}
	dropped := 0
	for _, name := range names {
		if name == s.cfg.CacheName {
			continue
		}
		if err := s.caches.Delete(ctx, name); err != nil {
			return err
		}
		dropped++
	}
	s.log.Event(logging.EventOfflineActivate, logging.F("cache", s.cfg.CacheName), logging.Count(dropped))
	return nil
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Handle("/*", s.proxy)
	r.Get("/*", s.handleGet)
	return r
}

// handleGet answers from the cache first, then the network. Successful
// network responses are cached; navigations fall back to the offline page.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uri := r.URL.RequestURI()

	if e, ok, err := s.caches.Match(ctx, uri); err != nil {
		s.log.Warn("cache lookup failed", logging.URL(uri), logging.Error(err))
	} else if ok {
		s.log.Event(logging.EventOfflineFetch, logging.URL(uri), logging.F("source", "cache"))
		writeEntry(w, e, "hit")
		return
	}

	e, err := s.fetch(ctx, uri, r.Header)
	if err != nil {
		if isNavigation(r) {
			if page, ok, _ := s.caches.Match(ctx, s.cfg.OfflineURL); ok {
				s.log.Event(logging.EventOfflineFetch, logging.URL(uri), logging.F("source", "offline"))
				writeEntry(w, page, "offline")
				return
			}
		}
		s.log.Warn("upstream fetch failed", logging.URL(uri), logging.Error(err))
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}

	if e.Status == http.StatusOK {
		if err := s.caches.Put(ctx, s.cfg.CacheName, uri, e); err != nil {
			s.log.Warn("cache put failed", logging.URL(uri), logging.Error(err))
		}
	}
	s.log.Event(logging.EventOfflineFetch, logging.URL(uri), logging.F("source", "network"), logging.F("status", e.Status))
	writeEntry(w, e, "miss")
}

// fetch performs a GET for uri against the upstream and reads it fully.
func (s *Server) fetch(ctx context.Context, uri string, header http.Header) (Entry, error) {
	ref, err := url.Parse(uri)
	if err != nil {
		return Entry{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.upstream.ResolveReference(ref).String(), nil)
	if err != nil {
		return Entry{}, err
	}
	for _, h := range []string{"Accept", "Accept-Language", "User-Agent"} {
		if v := header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Entry{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, err
	}
	hdr := resp.Header.Clone()
	for _, h := range []string{"Connection", "Keep-Alive", "Transfer-Encoding", "Content-Length"} {
		hdr.Del(h)
	}
	return Entry{Status: resp.StatusCode, Header: hdr, Body: body}, nil
}

func writeEntry(w http.ResponseWriter, e Entry, source string) {
	for k, vs := range e.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set(CacheHeader, source)
	w.WriteHeader(e.Status)
	_, _ = io.Copy(w, bytes.NewReader(e.Body))
}

func isNavigation(r *http.Request) bool {
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// Run installs, activates and serves on cfg.Addr until ctx is done.
// A failed install is logged and serving continues.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Install(ctx); err != nil {
		s.log.Warn("precache failed", logging.Error(err))
	}
	if err := s.Activate(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.Router(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("offline server listening", logging.F("addr", s.cfg.Addr), logging.URL(s.upstream.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
