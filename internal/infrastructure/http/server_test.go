package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mrops-br/products-catalog-api/internal/app/service"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	return newLoggingTestServer(t, mutate, io.Discard)
}

// newLoggingTestServer writes every application log record to logs as JSON
func newLoggingTestServer(t *testing.T, mutate func(*config.Config), logs io.Writer) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0", ShutdownTimeout: time.Second},
		OTLP:   config.OTLPConfig{ServiceName: "products-api", Environment: "test"},
		HTTP:   config.HTTPConfig{CORSAllowedOrigins: "*", RateLimit: 100},
	}
	if mutate != nil {
		mutate(cfg)
	}

	telem, err := telemetry.NewNoOpTelemetry(&cfg.OTLP)
	require.NoError(t, err)
	t.Cleanup(func() { _ = telem.Shutdown(context.Background()) })

	logger := telemetry.NewLogger(logs, &cfg.OTLP)
	tracer := telem.TracerProvider.Tracer("products-api")
	meter := telem.MeterProvider.Meter("products-api")

	repo := memory.NewProductRepository(tracer, logger)
	svc := service.NewProductService(repo, tracer, meter, logger)
	srv := NewServer(cfg, handler.NewProductHandler(svc, logger), logger, telem)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/health")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, _ := get(t, ts.URL+"/api/products")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/products", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.HTTP.RateLimit = 2 })

	for range 2 {
		resp, _ := get(t, ts.URL+"/health")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, _ := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/products", "application/json", strings.NewReader(`{"name":"Widget"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := get(t, ts.URL+"/metrics")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "products_created_total")
	assert.Contains(t, body, "http_server_request_duration")
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, _ := get(t, ts.URL+"/api/orders")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) records(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	var records []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for scanner.Scan() {
		var record map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		records = append(records, record)
	}
	return records
}

func TestLogsCarryRoutePattern(t *testing.T) {
	var logs lockedBuffer
	ts := newLoggingTestServer(t, nil, &logs)

	resp, _ := get(t, ts.URL+"/api/products/abc123")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var found bool
	for _, record := range logs.records(t) {
		if record["msg"] != "Product not found" {
			continue
		}
		found = true
		assert.Equal(t, "/api/products/{id}", record["http.route"])
		assert.Equal(t, "abc123", record["product_id"])
	}
	assert.True(t, found, "service did not log the missing product")
}
