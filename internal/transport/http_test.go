package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"mvc-server/internal/component"
	"mvc-server/internal/config"
	"mvc-server/internal/dispatch"
	"mvc-server/internal/metrics"
)

type calc struct{}

func (c *calc) Add(w http.ResponseWriter, a, b int) {
	_, _ = fmt.Fprintf(w, "%d+%d=%d", a, b, a+b)
}

func (c *calc) Join(w http.ResponseWriter, tags string) {
	_, _ = io.WriteString(w, tags)
}

type frameCounter struct {
	mu       sync.Mutex
	outcomes []string
}

func (f *frameCounter) ObserveFrame(outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
}

func newApp(t *testing.T, contextPath string) *dispatch.Server {
	t.Helper()
	cat := component.NewCatalog()
	cat.Register(component.Descriptor{
		Package: "calc",
		Name:    "Calc",
		Role:    component.RoleController,
		Path:    "/calc",
		New:     func() any { return &calc{} },
		Handlers: []component.HandlerMarker{
			{Method: "Add", Path: "/add", Params: []string{"a", "b"}},
			{Method: "Join", Path: "/join", Params: []string{"tags"}},
		},
	})
	app, err := dispatch.Bootstrap(&config.AppConfig{ScanPackage: "calc", ContextPath: contextPath}, cat,
		dispatch.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func newHTTPServer(t *testing.T, frames FrameObserver) *httptest.Server {
	t.Helper()
	mux, err := NewRouter(newApp(t, ""), RouterOptions{
		WebsocketPath: "/ws",
		Frames:        frames,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestRouterServesGetAndPost(t *testing.T) {
	srv := newHTTPServer(t, nil)

	resp, err := http.Get(srv.URL + "/calc/add?a=3&b=4")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(dispatch.TraceHeader))
	assert.Equal(t, "3+4=7", readBody(t, resp))

	resp, err = http.PostForm(srv.URL+"/calc/add", url.Values{"a": {"10"}, "b": {"-2"}})
	require.NoError(t, err)
	assert.Equal(t, "10+-2=8", readBody(t, resp))

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "404 Not Found!!!", readBody(t, resp))
}

func TestRouterKeepsTraceID(t *testing.T) {
	srv := newHTTPServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/calc/add?a=1&b=1", nil)
	require.NoError(t, err)
	req.Header.Set(dispatch.TraceHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, "abc-123", resp.Header.Get(dispatch.TraceHeader))
}

func TestRouterRejectsOtherMethods(t *testing.T) {
	srv := newHTTPServer(t, nil)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/calc/add?a=1&b=1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouterRejectsWebsocketPathCollision(t *testing.T) {
	_, err := NewRouter(newApp(t, ""), RouterOptions{WebsocketPath: "//calc/add"})
	assert.ErrorIs(t, err, ErrPathCollision)

	_, err = NewRouter(newApp(t, "/app"), RouterOptions{WebsocketPath: "/app/calc/join"})
	assert.ErrorIs(t, err, ErrPathCollision)
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWebsocketTextFrames(t *testing.T) {
	frames := &frameCounter{}
	srv := newHTTPServer(t, frames)
	conn := dialWS(t, srv)

	req, err := structpb.NewStruct(map[string]any{
		"id":     "1",
		"path":   "/calc/add",
		"params": map[string]any{"a": "3", "b": 4},
	})
	require.NoError(t, err)
	data, err := protojson.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	var reply structpb.Struct
	require.NoError(t, protojson.Unmarshal(data, &reply))
	assert.Equal(t, map[string]any{"id": "1", "status": 200.0, "body": "3+4=7"}, reply.AsMap())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, protojson.Unmarshal(data, &reply))
	assert.Equal(t, 400.0, reply.AsMap()["status"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"2","path":"/missing"}`)))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, protojson.Unmarshal(data, &reply))
	assert.Equal(t, map[string]any{"id": "2", "status": 404.0, "body": "404 Not Found!!!"}, reply.AsMap())

	frames.mu.Lock()
	defer frames.mu.Unlock()
	assert.Equal(t, []string{FrameDispatched, FrameRejected, FrameDispatched}, frames.outcomes)
}

func TestWebsocketBinaryFrames(t *testing.T) {
	srv := newHTTPServer(t, nil)
	conn := dialWS(t, srv)

	req, err := structpb.NewStruct(map[string]any{
		"id":     "b1",
		"path":   "/calc/join",
		"params": map[string]any{"tags": []any{"x", "y"}},
	})
	require.NoError(t, err)
	data, err := proto.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))

	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	var reply structpb.Struct
	require.NoError(t, proto.Unmarshal(data, &reply))
	assert.Equal(t, map[string]any{"id": "b1", "status": 200.0, "body": "x,y"}, reply.AsMap())
}

func TestAdminRouter(t *testing.T) {
	app := newApp(t, "")
	m := metrics.New()
	m.ObserveDispatch("/calc/add", "invoked", 0)

	healthy := true
	admin := NewAdminRouter(AdminOptions{
		Metrics: m.Handler(),
		Routes:  app.Routes,
		Health: func(ctx context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("redis down")
		},
		Logger: zaptest.NewLogger(t),
	})

	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	healthy = false
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis down")

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/routes", nil))
	var routes []routeListing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routes))
	assert.Equal(t, []routeListing{
		{Path: "/calc/add", Handler: "Calc.Add", Bean: "calc", Params: []string{"a", "b"}},
		{Path: "/calc/join", Handler: "Calc.Join", Bean: "calc", Params: []string{"tags"}},
	}, routes)

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `mvc_dispatch_requests_total{route="/calc/add",state="invoked"} 1`)
}

func TestServeListenerStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(ctx, ln.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "up")
	}))

	done := make(chan error, 1)
	go func() { done <- ServeListener(ctx, srv, ln, zaptest.NewLogger(t)) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	assert.Equal(t, "up", readBody(t, resp))

	cancel()
	require.NoError(t, <-done)
}
