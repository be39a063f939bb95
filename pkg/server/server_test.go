package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/selsync/pkg/dispatch"
	"github.com/vango-dev/selsync/pkg/selection"
)

type fixture struct {
	model *selection.List[string]
	loop  *dispatch.Loop
	srv   *Server
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	loop := dispatch.New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()

	config := DefaultConfig()
	config.Options = []string{"a", "b", "c"}

	f := &fixture{
		model: selection.NewList[string](),
		loop:  loop,
	}
	opts = append([]Option{WithRegistry(prometheus.NewRegistry())}, opts...)
	f.srv = New(f.model, loop, config, opts...)

	t.Cleanup(func() {
		cancel()
		loop.Close()
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeSelection(t *testing.T, rec *httptest.ResponseRecorder) SelectionBody {
	t.Helper()
	var body SelectionBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)

	f.loop.Close()
	rec = f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetAndPutSelection(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SelectionBody{Items: []string{}, Count: 0}, decodeSelection(t, rec))

	rec = f.do(t, http.MethodPut, "/api/selection", `{"items":["b","a","b"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SelectionBody{Items: []string{"b", "a"}, Count: 2}, decodeSelection(t, rec))
	assert.Equal(t, []string{"b", "a"}, f.model.Items())

	rec = f.do(t, http.MethodGet, "/api/selection", "")
	assert.Equal(t, []string{"b", "a"}, decodeSelection(t, rec).Items)
}

func TestPutRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/selection", `{"items":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"E160"`)

	rec = f.do(t, http.MethodPut, "/api/selection", `{"items":["a","zzz"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"E161"`)
	assert.Contains(t, rec.Body.String(), "zzz")

	assert.Empty(t, f.model.Items())
}

func TestPutAfterDispose(t *testing.T) {
	f := newFixture(t)
	f.model.Dispose()

	rec := f.do(t, http.MethodPut, "/api/selection", `{"items":["a"]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"E001"`)
}

func TestLoopClosed(t *testing.T) {
	f := newFixture(t)
	f.loop.Close()

	rec := f.do(t, http.MethodGet, "/api/selection", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"E003"`)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)

	var refreshes atomic.Int32
	sub := f.model.OnRefresh().Subscribe(func(struct{}) { refreshes.Add(1) })
	defer sub.Dispose()

	rec := f.do(t, http.MethodPost, "/api/selection/refresh", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodGet, "/api/selection", "")
	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `selsync_http_requests_total{method="GET",route="/api/selection`)
}

func TestHubMounted(t *testing.T) {
	var hits atomic.Int32
	hub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusSwitchingProtocols)
	})
	f := newFixture(t, WithHub(hub))

	f.do(t, http.MethodGet, "/ws", "")
	assert.Equal(t, int32(1), hits.Load())

	g := newFixture(t)
	assert.Equal(t, http.StatusNotFound, g.do(t, http.MethodGet, "/ws", "").Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
