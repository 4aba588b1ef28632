package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/manifest"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/repository/stats"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/usecase"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router   *gin.Engine
	resolver *tile.Resolver
	dataDir  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/missing/") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "png:%s", r.URL.Path)
	}))
	t.Cleanup(up.Close)

	dataDir := t.TempDir()
	r := tile.NewResolver(dataDir, tile.Descriptors(
		up.URL+"/osm/{z}/{x}/{y}.png",
		up.URL+"/missing/{z}/{y}/{x}",
	))
	l := logger.NewNoOp()

	uc := usecase.NewTileUseCase(
		r,
		cache.NewFilesystemCache(),
		upstream.NewFetcherWithClient(up.Client(), config.Upstream{UserAgent: "test", Timeout: 5 * time.Second}, l),
		manifest.NewBuilder(r),
		stats.NewMapRecorder(),
		config.Prefetch{Workers: 2, MaxTiles: 50},
		l,
	)

	h := handler.NewHandler(validator.New(), uc)

	return &testServer{
		router:   NewRouter(h, l, false),
		resolver: r,
		dataDir:  dataDir,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/v1/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestDownloadTileRoute(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/tile/osm/3/4/5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var resp usecase.TileResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Cached)
	require.NotNil(t, resp.Path)
	assert.Equal(t, filepath.Join(s.dataDir, "tiles", "osm", "3", "4", "5.png"), *resp.Path)
	assert.Nil(t, resp.Error)

	_, env = s.do(t, http.MethodGet, "/api/v1/tile/osm/3/4/5", nil)
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.Cached)
}

func TestDownloadTileRouteUpstreamFailure(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/tile/satellite/3/4/5", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "404")

	var resp usecase.TileResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Path)
	require.NotNil(t, resp.Error)
}

func TestTileRouteRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		target string
	}{
		{"unknown layer", "/api/v1/tile/terrain/1/2/3"},
		{"non-numeric zoom", "/api/v1/tile/osm/a/2/3"},
		{"zoom overflow", "/api/v1/tile/osm/300/2/3"},
		{"negative x", "/api/v1/tile/osm/1/-2/3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestTileExistsAndPathRoutes(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/tile/osm/1/0/1/exists", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists": false}`, string(env.Data))

	w, env = s.do(t, http.MethodGet, "/api/v1/tile/satellite/7/10/20/path", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p struct {
		Path string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, filepath.Join(s.dataDir, "tiles", "satellite", "7", "20", "10.png"), p.Path)

	_, err := os.Stat(p.Path)
	assert.ErrorIs(t, err, os.ErrNotExist, "path lookups never touch disk")

	s.do(t, http.MethodGet, "/api/v1/tile/osm/1/0/1", nil)
	_, env = s.do(t, http.MethodGet, "/api/v1/tile/osm/1/0/1/exists", nil)
	assert.JSONEq(t, `{"exists": true}`, string(env.Data))
}

func TestTileImageRoute(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tile/osm/2/1/1/image", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, "png:/osm/2/1/1.png", w.Body.String())

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tile/osm/2/1/1/image", nil))
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func TestTileByURLRoute(t *testing.T) {
	s := newTestServer(t)

	target := "/api/v1/tile-by-url?url=" + url.QueryEscape("https://tile.openstreetmap.org/4/8/5.png")
	w, env := s.do(t, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp usecase.TileResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotNil(t, resp.Path)
	assert.Equal(t, filepath.Join(s.dataDir, "tiles", "osm", "4", "8", "5.png"), *resp.Path)

	w, _ = s.do(t, http.MethodGet, "/api/v1/tile-by-url?url="+url.QueryEscape("https://example.com/x"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/tile-by-url", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManifestRoute(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/manifest/satellite", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var m manifest.Manifest
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, "Satellite Imagery Tiles", m.Name)
	assert.Equal(t, 0, m.TileCount)
	assert.Contains(t, string(env.Data), `"tiles":[]`)

	w, _ = s.do(t, http.MethodGet, "/api/v1/manifest/terrain", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManifestRouteCorrupt(t *testing.T) {
	s := newTestServer(t)

	path := s.resolver.ManifestPath(tile.OSM)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	w, env := s.do(t, http.MethodGet, "/api/v1/manifest/osm", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
}

func TestPrefetchRoute(t *testing.T) {
	s := newTestServer(t)

	body := []byte(`{"north": 10, "south": -10, "east": 10, "west": -10, "min_zoom": 1, "max_zoom": 1, "layers": ["osm", "osm"]}`)
	w, env := s.do(t, http.MethodPost, "/api/v1/prefetch", body)
	require.Equal(t, http.StatusOK, w.Code)

	var res usecase.PrefetchResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, int64(4), res.Requested)
	assert.Equal(t, int64(4), res.Downloaded)
}

func TestPrefetchRouteRejects(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"north":`, http.StatusBadRequest},
		{"no layers", `{"north": 1, "south": 0, "east": 1, "west": 0, "min_zoom": 1, "max_zoom": 1, "layers": []}`, http.StatusBadRequest},
		{"unknown layer", `{"north": 1, "south": 0, "east": 1, "west": 0, "min_zoom": 1, "max_zoom": 1, "layers": ["terrain"]}`, http.StatusBadRequest},
		{"inverted zoom", `{"north": 1, "south": 0, "east": 1, "west": 0, "min_zoom": 5, "max_zoom": 1, "layers": ["osm"]}`, http.StatusBadRequest},
		{"inverted bounds", `{"north": 0, "south": 1, "east": 1, "west": 0, "min_zoom": 1, "max_zoom": 1, "layers": ["osm"]}`, http.StatusBadRequest},
		{"too large", `{"north": 60, "south": -60, "east": 120, "west": -120, "min_zoom": 0, "max_zoom": 10, "layers": ["osm"]}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodPost, "/api/v1/prefetch", []byte(tt.body))
			assert.Equal(t, tt.code, w.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestStatsRoute(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/api/v1/tile/osm/1/1/1", nil)
	s.do(t, http.MethodGet, "/api/v1/tile/osm/1/1/1", nil)

	w, env := s.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap stats.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, int64(1), snap["osm"].Downloaded)
	assert.Equal(t, int64(1), snap["osm"].Cached)
	assert.Equal(t, stats.Counters{}, snap["satellite"])
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
