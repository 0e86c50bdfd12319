package appbuilder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsc-digital-identity/zk-compliance/pkg/appbuilder"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rabbitmq"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rest"
)

type testConfigJson struct {
	Port   uint16                  `json:"port"`
	Logger logger.LoggerConfigJson `json:"logger"`
}

type testConfig struct {
	port   uint16
	logger logger.LoggerConfig
}

func (j testConfigJson) ConvertToDomain() testConfig {
	return testConfig{port: j.Port, logger: j.Logger.ConvertToDomain()}
}

func (c testConfig) GetLoggerConfig() logger.LoggerConfig         { return c.logger }
func (c testConfig) GetRabbitmqConfig() rabbitmq.RabbitmqConfig { return rabbitmq.RabbitmqConfig{} }
func (c testConfig) GetRestApiPort() uint16                     { return c.port }

type worker struct{ started chan struct{} }

func (w worker) GetServiceName() string { return "TestWorker" }

func (w worker) StartService(ctx context.Context) error {
	close(w.started)
	<-ctx.Done()
	return ctx.Err()
}

func builder(t *testing.T) appbuilder.AppBuilderInterface[testConfigJson, testConfig] {
	t.Helper()
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port":8081,"logger":{"log_level":1}}`), 0o600))

	return appbuilder.New[testConfigJson, testConfig]().
		InitLogger(logger.GlobalLoggerConfig{Args: []logger.LoggerArg{{Key: "service", Value: "test"}}}).
		LoadConfig(path)
}

func TestRoutesAndMiddlewares(t *testing.T) {
	b := builder(t)
	assert.Equal(t, uint16(8081), b.GetConfig().GetRestApiPort())

	app := b.
		AddMiddlewares(rest.NewMiddleware("api", func(c *gin.Context) { c.Header("X-Node", "compliance") })).
		AddGinRoutes(
			rest.NewRoute(rest.GET, "api", "/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") }),
			rest.NewRoute(rest.DELETE, "api", "/things/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) }),
			rest.NewRoute(rest.GET, "health", "", func(c *gin.Context) { c.Status(http.StatusOK) }),
		).
		InitGinRouter().
		Build().(*appbuilder.Application)
	assert.Equal(t, "0.0.0.0:8081", app.Addr)

	rec := httptest.NewRecorder()
	app.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, "compliance", rec.Header().Get("X-Node"))

	rec = httptest.NewRecorder()
	app.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/things/7", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	app.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Node"))
}

func TestApplicationStartStops(t *testing.T) {
	w := worker{started: make(chan struct{})}
	app := builder(t).AddWorkerServices(w).InitGinRouter().Build().(*appbuilder.Application)
	app.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	select {
	case <-w.started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker not started")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("application did not stop")
	}
}

func TestWithOptionRunsInOrder(t *testing.T) {
	var order []string
	b := builder(t).
		WithOption(func(a appbuilder.AppBuilderInterface[testConfigJson, testConfig]) {
			order = append(order, "first")
			a.AddGinRoutes(rest.NewRoute(rest.GET, "api", "ping", func(c *gin.Context) { c.Status(http.StatusOK) }))
		}).
		WithOption(func(appbuilder.AppBuilderInterface[testConfigJson, testConfig]) {
			order = append(order, "second")
		})
	assert.Equal(t, []string{"first", "second"}, order)

	app := b.InitGinRouter().Build().(*appbuilder.Application)
	rec := httptest.NewRecorder()
	app.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
