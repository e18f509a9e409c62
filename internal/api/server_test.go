package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/darshan-rambhia/poolwatch/internal/cache"
	"github.com/darshan-rambhia/poolwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *model.Snapshot {
	s := model.NewSnapshot()
	s.Add(model.StateDegraded)

	tank := model.NewPoolNode()
	tank.Counter = model.Counter{Total: 6, Online: 3, Degraded: 2}
	tank.AllocSpace = "9.07T"
	tank.TotalSpace = "10.9T"
	tank.RecordDrive("sdb", model.StateDegraded)
	tank.RecordDrive("sdc", "FAULTED")
	tank.Vdevs.Set("mirror-0", &model.Node{Counter: model.Counter{Total: 3, Online: 1, Degraded: 1}})
	tank.Vdevs.Set("logs", &model.Node{Counter: model.Counter{Total: 2, Online: 2}})
	s.Vdevs.Set("tank", tank)
	return s
}

func newTestServer(t *testing.T) (*Server, *cache.Cache) {
	t.Helper()
	c := cache.New()
	c.Replace(testSnapshot(), time.Now())
	return NewServer("127.0.0.1:0", c), c
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestQueryValues(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"pool online", "/vdevs/tank/online", `3`},
		{"root total", "/total", `1`},
		{"space string", "/vdevs/tank/alloc_space", `"9.07T"`},
		{"drive list", "/vdevs/tank/offline_drives", `["sdc"]`},
		{"group", "/vdevs/tank/vdevs/mirror-0", `{"total":3,"online":1,"degraded":1}`},
		{"repeated slashes", "//vdevs///tank//degraded", `2`},
		{"trailing slash", "/vdevs/tank/total/", `6`},
		{"query string ignored", "/vdevs/tank/total?pretty=1", `6`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestQueryRootPreservesOrder(t *testing.T) {
	srv, _ := newTestServer(t)
	w := get(t, srv.Handler(), "/")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Less(t, strings.Index(body, `"mirror-0"`), strings.Index(body, `"logs"`))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Contains(t, decoded, "vdevs")
}

func TestQueryNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, path := range []string{
		"/nope",
		"/vdevs/backup",
		"/total/x",
		"/vdevs/tank/offline_drives/0",
		"/vdevs/tank/vdevs/logs/vdevs",
		"//_ping",
	} {
		w := get(t, h, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Empty(t, w.Body.String(), path)
	}
}

func TestPing(t *testing.T) {
	srv := NewServer("127.0.0.1:0", cache.New())
	for _, path := range []string{"/_ping", "/_ping?check=1"} {
		w := get(t, srv.Handler(), path)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	}
}

func TestQueryBeforeFirstPoll(t *testing.T) {
	srv := NewServer("127.0.0.1:0", cache.New())
	h := srv.Handler()

	w := get(t, h, "/vdevs")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, h, "/vdevs/tank").Code)
}

func TestQuerySeesReplacedSnapshot(t *testing.T) {
	srv, c := newTestServer(t)
	h := srv.Handler()
	assert.JSONEq(t, `3`, get(t, h, "/vdevs/tank/online").Body.String())

	next := testSnapshot()
	tank, _ := next.Pool("tank")
	tank.Online = 4
	c.Replace(next, time.Now())
	assert.JSONEq(t, `4`, get(t, h, "/vdevs/tank/online").Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/total", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
}

func TestUnencodableValueIs500(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	writeJSON(w, r, map[string]any{"bad": make(chan int)})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRunServesUntilCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := cache.New()
	c.Replace(testSnapshot(), time.Now())
	srv := NewServer(addr, c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "//vdevs//tank/online")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "3", body)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
