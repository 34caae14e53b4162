package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"deckd/internal/clock"
	"deckd/internal/models"
	"deckd/internal/playback"
	"deckd/internal/services"
	"deckd/internal/structures"
	"deckd/internal/testutil"
)

func ptr(v float64) *float64 { return &v }

const deckDocument = `{
  "version": "2.0",
  "startTime": 1000,
  "snapshots": [
    {"kind": "start", "timestamp": 1000, "html": "<p>start</p>", "url": "https://app.example.com", "viewportWidth": 1920, "viewportHeight": 1080},
    {"kind": "click", "timestamp": 2000, "html": "<p>one</p><script>alert(1)</script>", "url": "https://app.example.com/a", "clickX": 800, "clickY": 450, "viewportWidth": 1920, "viewportHeight": 1080},
    {"kind": "click", "timestamp": 3000, "html": "<p>two</p>", "url": "https://app.example.com/b", "clickX": 100, "clickY": 100, "viewportWidth": 1920, "viewportHeight": 1080},
    {"kind": "end", "timestamp": 4000, "title": "Thanks", "ctaLink": "https://example.com/try", "viewportWidth": 1920, "viewportHeight": 1080}
  ]
}`

const singleSlideDocument = `{"version":"2.0","startTime":0,"snapshots":[{"kind":"start","timestamp":0,"html":"<p>x</p>","url":"https://a.example","viewportWidth":800,"viewportHeight":600}]}`

type fakeRasterizer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, snap models.ClickSnapshot, _ float64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png:" + snap.URL), nil
}

func (f *fakeRasterizer) Workers() int { return 1 }
func (f *fakeRasterizer) Close() error { return nil }

type fixture struct {
	api        *ApiController
	service    services.DeckServiceInterface
	cache      *testutil.MockCache
	metrics    *testutil.MockMetrics
	logger     *testutil.MockLogger
	rasterizer *fakeRasterizer
	clock      *clock.Fake
}

func testConfig() *structures.Config {
	return &structures.Config{
		Editor: structures.EditorConfig{MaxSessions: 10, SessionTTL: time.Minute, MaxDocumentSize: 1 << 20},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conf := testConfig()
	f := &fixture{
		cache:      testutil.NewMockCache(),
		metrics:    &testutil.MockMetrics{},
		logger:     &testutil.MockLogger{},
		rasterizer: &fakeRasterizer{},
		clock:      clock.NewFake(),
	}
	f.service = services.NewDeckService(conf, f.logger, f.metrics, nil, nil, f.clock)
	f.api = NewApiController(conf, f.logger, f.service, f.cache, f.metrics, playback.NewRenderer(), f.rasterizer)
	t.Cleanup(f.service.Close)
	return f
}

func (f *fixture) load(t *testing.T, doc string) string {
	t.Helper()
	id, err := f.service.Load([]byte(doc))
	require.NoError(t, err)
	return id
}

func call(handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeState(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}
