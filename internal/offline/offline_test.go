package offline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	"github.com/abdul-hamid-achik/ntricacid/internal/storage"
)

type upstream struct {
	srv  *httptest.Server
	hits atomic.Int32
	down atomic.Bool
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		if u.down.Load() {
			// Drop the connection so the client sees a network error.
			hj, ok := w.(http.Hijacker)
			if ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
				return
			}
		}
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/api/echo":
			body, _ := io.ReadAll(r.Body)
			w.Write([]byte(r.Method + ":" + string(body)))
		default:
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("asset " + r.URL.RequestURI()))
		}
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func newTestServer(t *testing.T, up *upstream, store storage.Store) *Server {
	t.Helper()
	cfg := config.DefaultConfig().Offline
	cfg.Upstream = up.srv.URL
	s, err := NewServer(cfg, store, nil)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, path string, header map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestNewServerValidates(t *testing.T) {
	cfg := config.DefaultConfig().Offline
	cfg.Upstream = "not a url"
	_, err := NewServer(cfg, storage.NewMemoryStore(), nil)
	assert.Error(t, err)

	cfg = config.DefaultConfig().Offline
	cfg.CacheName = ""
	_, err = NewServer(cfg, storage.NewMemoryStore(), nil)
	assert.Error(t, err)
}

func TestInstallPrecachesAssets(t *testing.T) {
	up := newUpstream(t)
	s := newTestServer(t, up, storage.NewMemoryStore())

	require.NoError(t, s.Install(context.Background()))
	assert.Equal(t, int32(4), up.hits.Load())

	up.down.Store(true)
	resp := get(t, s.Router(), "/manifest.json", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hit", resp.Header.Get(CacheHeader))
	assert.Equal(t, "asset /manifest.json", body(t, resp))
}

func TestInstallIsAllOrNothing(t *testing.T) {
	up := newUpstream(t)
	s := newTestServer(t, up, storage.NewMemoryStore())
	s.cfg.Assets = append(s.cfg.Assets, "/missing")

	assert.Error(t, s.Install(context.Background()))
	names, err := s.Caches().Names(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestActivateDropsOldCaches(t *testing.T) {
	up := newUpstream(t)
	store := storage.NewMemoryStore()
	s := newTestServer(t, up, store)
	ctx := context.Background()

	require.NoError(t, s.Caches().Put(ctx, "ntricacid-pwa-v13", "/old", Entry{Status: 200, Body: []byte("old")}))
	require.NoError(t, s.Install(ctx))
	require.NoError(t, s.Activate(ctx))

	names, err := s.Caches().Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ntricacid-pwa-v14"}, names)

	_, ok, err := s.Caches().Match(ctx, "/old")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchCachesSuccessfulResponses(t *testing.T) {
	up := newUpstream(t)
	s := newTestServer(t, up, storage.NewMemoryStore())
	h := s.Router()

	first := get(t, h, "/assets/app.js?v=2", nil)
	assert.Equal(t, "miss", first.Header.Get(CacheHeader))
	assert.Equal(t, "asset /assets/app.js?v=2", body(t, first))

	second := get(t, h, "/assets/app.js?v=2", nil)
	assert.Equal(t, "hit", second.Header.Get(CacheHeader))
	assert.Equal(t, "text/plain", second.Header.Get("Content-Type"))
	assert.Equal(t, int32(1), up.hits.Load())
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	up := newUpstream(t)
	s := newTestServer(t, up, storage.NewMemoryStore())
	h := s.Router()

	assert.Equal(t, http.StatusNotFound, get(t, h, "/missing", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/missing", nil).StatusCode)
	assert.Equal(t, int32(2), up.hits.Load())
}

func TestOfflineNavigationFallsBack(t *testing.T) {
	up := newUpstream(t)
	s := newTestServer(t, up, storage.NewMemoryStore())
	require.NoError(t, s.Install(context.Background()))
	up.down.Store(true)
	h := s.Router()

	nav := get(t, h, "/settings", map[string]string{"Sec-Fetch-Mode": "navigate"})
	assert.Equal(t, http.StatusOK, nav.StatusCode)
	assert.Equal(t, "offline", nav.Header.Get(CacheHeader))
	assert.Equal(t, "asset /index.html", body(t, nav))

	html := get(t, h, "/other", map[string]string{"Accept": "text/html,application/xhtml+xml"})
	assert.Equal(t, "offline", html.Header.Get(CacheHeader))

	asset := get(t, h, "/logo.png", map[string]string{"Sec-Fetch-Mode": "no-cors"})
	assert.Equal(t, http.StatusBadGateway, asset.StatusCode)
}

func TestNonGETPassesThrough(t *testing.T) {
	up := newUpstream(t)
	s := newTestServer(t, up, storage.NewMemoryStore())
	h := s.Router()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader("ping"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "POST:ping", rec.Body.String())
		assert.Empty(t, rec.Header().Get(CacheHeader))
	}
	assert.Equal(t, int32(2), up.hits.Load())
}

func TestCachesPersistInStore(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	a := NewCaches(store)
	require.NoError(t, a.Put(ctx, "v1", "/x", Entry{Status: 200, Body: []byte("x")}))
	require.NoError(t, a.Put(ctx, "v2", "/x", Entry{Status: 200, Body: []byte("newer")}))

	b := NewCaches(store)
	e, ok, err := b.Match(ctx, "/x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", string(e.Body), "match searches caches in creation order")

	require.NoError(t, b.Delete(ctx, "v1"))
	require.NoError(t, b.Delete(ctx, "never-existed"))
	e, ok, err = b.Match(ctx, "/x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "newer", string(e.Body))
}

func TestCorruptCacheIsReported(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), namesKey, []byte("{nope")))
	_, err := NewCaches(store).Names(context.Background())
	assert.Error(t, err)
}
