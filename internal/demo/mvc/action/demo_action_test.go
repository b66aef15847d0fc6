package action_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mvc-server/internal/component"
	"mvc-server/internal/config"
	"mvc-server/internal/db"
	"mvc-server/internal/dispatch"
	"mvc-server/internal/protocol"

	_ "mvc-server/internal/demo/mvc/action"
	_ "mvc-server/internal/demo/service"
	"mvc-server/internal/demo/store"
)

func bootstrap(t *testing.T, opts ...dispatch.Option) *dispatch.Server {
	t.Helper()
	opts = append([]dispatch.Option{dispatch.WithLogger(zaptest.NewLogger(t))}, opts...)
	cfg := &config.AppConfig{ScanPackage: "demo", StrictWiring: true}
	s, err := dispatch.Bootstrap(cfg, component.Default, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func get(s *dispatch.Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Dispatcher().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDemoRoutes(t *testing.T) {
	s := bootstrap(t)

	var paths []string
	for _, r := range s.Routes() {
		paths = append(paths, r.Path+" "+r.HandlerRef())
	}
	assert.Equal(t, []string{
		"/demo/add DemoAction.Add",
		"/demo/forget DemoAction.Forget",
		"/demo/query DemoAction.Query",
		"/demo/remove DemoAction.Remove",
		"/demo/top DemoAction.Top",
		"/demo/visits DemoAction.Visits",
	}, paths)
}

func TestDemoScenario(t *testing.T) {
	s := bootstrap(t)

	rec := get(s, "/demo/add?a=3&b=4")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3+4=7", rec.Body.String())

	rec = get(s, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, protocol.NotFoundBody, rec.Body.String())

	rec = get(s, "/demo/add?a=x&b=4")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "500 Exception, Detail: ")

	rec = get(s, "/demo/query?name=Ann")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "My name is Ann", rec.Body.String())

	rec = get(s, "/demo/remove?id=9")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestDemoCountsVisitsInMemory(t *testing.T) {
	s := bootstrap(t)

	get(s, "/demo/query?name=Ann")
	get(s, "/demo/query?name=Ann")

	rec := get(s, "/demo/visits?name=Ann")
	assert.Equal(t, "Ann visited 2 times", rec.Body.String())

	bean, ok := s.Beans().Bean("visitCounter")
	require.True(t, ok)
	assert.Equal(t, "memory", bean.(*store.VisitCounter).Backend())
}

func TestDemoTopAndForget(t *testing.T) {
	s := bootstrap(t)

	get(s, "/demo/query?name=Ann")
	get(s, "/demo/query?name=Bob")
	get(s, "/demo/query?name=Bob")
	get(s, "/demo/query?name=Cid")

	rec := get(s, "/demo/top?n=2")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bob 2\nAnn 1\n", rec.Body.String())

	rec = get(s, "/demo/forget?name=Bob")
	assert.Equal(t, "Bob forgotten", rec.Body.String())
	rec = get(s, "/demo/forget?name=Bob")
	assert.Equal(t, "Bob was never counted", rec.Body.String())

	rec = get(s, "/demo/top?n=5")
	assert.Equal(t, "Ann 1\nCid 1\n", rec.Body.String())

	rec = get(s, "/demo/top")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDemoCountsVisitsInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := db.NewRedisClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := bootstrap(t, dispatch.WithBean("redisClient", client))

	get(s, "/demo/query?name=Bob")
	rec := get(s, "/demo/visits?name=Bob")
	assert.Equal(t, "Bob visited 1 times", rec.Body.String())

	score, err := mr.ZScore(db.VisitRankKey(""), "Bob")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	mr.SetError("READONLY")
	rec = get(s, "/demo/query?name=Bob")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "record visit")
}
