package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"payments-portal/cmd/server/testutil"
	"payments-portal/internal/clients/intents"
	"payments-portal/internal/config"
	"payments-portal/internal/logger"
	"payments-portal/internal/services/payments"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory payments.Repository.
type memRepo struct {
	mu   sync.Mutex
	byID map[string]*payments.Payment
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[string]*payments.Payment)}
}

func (r *memRepo) Create(_ context.Context, p *payments.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.byID[p.ID.Hex()] = &cp
	return nil
}

func (r *memRepo) Update(_ context.Context, p *payments.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID.Hex()]; !ok {
		return payments.ErrPaymentNotFound
	}
	cp := *p
	r.byID[p.ID.Hex()] = &cp
	return nil
}

func (r *memRepo) FindByIntentID(_ context.Context, intentID string) (*payments.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.PaymentIntentID == intentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, payments.ErrPaymentNotFound
}

func (r *memRepo) List(_ context.Context) ([]*payments.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*payments.Payment, 0, len(r.byID))
	for _, p := range r.byID {
		cp := *p
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func testConfig() config.Config {
	return config.Config{
		LogLevel:               "error",
		LogFormat:              "text",
		PublishableKey:         "pk_test_router",
		StreamTokenSecret:      "router-test-secret-with-32-chars!",
		StreamTokenTTLSec:      60,
		WSMaxSessionSec:        60,
		WSOutboxBuffer:         8,
		CreateIntentRatePerMin: 100,
		CORSAllowOrigins:       "*",
		RouteMetricsEnabled:    true,
	}
}

func newTestApp(t *testing.T, cfg config.Config) (*fiber.App, *memRepo) {
	t.Helper()

	_, err := logger.Init(cfg)
	require.NoError(t, err)

	repo := newMemRepo()
	app := newApp(cfg, routerDeps{
		repo:     repo,
		provider: intents.NewLocal(logger.L()),
		ping:     func(context.Context) error { return nil },
		registry: prometheus.NewRegistry(),
	})
	return app, repo
}

func doJSON(t *testing.T, app *fiber.App, method, url string, body any, out any) int {
	t.Helper()

	resp, err := app.Test(testutil.CreateJSONRequest(method, url, body))
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestPaymentFlow(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	var created payments.CreateIntentResponse
	status := doJSON(t, app, "POST", "/api/payments/create-intent", map[string]any{
		"orderId":     "<b>ORD-77</b>",
		"amountCents": "12.5 <i>dollars</i>",
		"currency":    "USD",
		"email":       "buyer@example.com",
	}, &created)
	require.Equal(t, 200, status)
	assert.True(t, strings.HasPrefix(created.PaymentIntentID, "pi_"))
	assert.NotEmpty(t, created.ClientSecret)
	assert.NotEmpty(t, created.StreamToken)

	var ack payments.RecordResultResponse
	status = doJSON(t, app, "POST", "/api/payments/record-result", map[string]any{
		"paymentIntentId": created.PaymentIntentID,
		"status":          "failed",
		"error":           "<script>alert(1)</script>Card declined",
	}, &ack)
	require.Equal(t, 200, status)
	assert.True(t, ack.OK)

	var list []payments.Payment
	status = doJSON(t, app, "GET", "/get-all-payments", nil, &list)
	require.Equal(t, 200, status)
	require.Len(t, list, 1)
	assert.Equal(t, "ORD-77", list[0].OrderID)
	assert.Equal(t, int64(13), list[0].AmountCents)
	assert.Equal(t, "usd", list[0].Currency)
	assert.Equal(t, payments.StatusFailed, list[0].Status)
	assert.Equal(t, "Card declined", list[0].LastError)
}

func TestRecordResultUnknownIntent(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	var body map[string]string
	status := doJSON(t, app, "POST", "/api/payments/record-result", map[string]any{
		"paymentIntentId": "pi_nope",
		"status":          "succeeded",
	}, &body)
	assert.Equal(t, 404, status)
	assert.Equal(t, payments.ErrPaymentNotFound.Error(), body["error"])
}

func TestCreateIntentRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.CreateIntentRatePerMin = 1
	app, _ := newTestApp(t, cfg)

	body := map[string]any{"orderId": "o", "amountCents": 100, "currency": "usd"}
	assert.Equal(t, 200, doJSON(t, app, "POST", "/api/payments/create-intent", body, nil))
	assert.Equal(t, 429, doJSON(t, app, "POST", "/api/payments/create-intent", body, nil))
}

func TestPublicConfigRoute(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	var body map[string]string
	require.Equal(t, 200, doJSON(t, app, "GET", "/api/config", nil, &body))
	assert.Equal(t, "pk_test_router", body["publishableKey"])
}

func TestSecurityHeadersOnEveryRoute(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	for _, path := range []string{"/healthz", "/api/config", "/get-all-payments", "/does-not-exist"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'self'", path)
		assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"), path)
		assert.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"), path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	body := map[string]any{"orderId": "o", "amountCents": 100, "currency": "usd"}
	require.Equal(t, 200, doJSON(t, app, "POST", "/api/payments/create-intent", body, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "payments_intents_created_total 1")
	assert.Contains(t, text, "payments_stream_subscribers 0")
	assert.Contains(t, text, `http_requests_total{method="POST",path="/api/payments/create-intent",status="2xx"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.RouteMetricsEnabled = false
	app, _ := newTestApp(t, cfg)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestSwaggerDocs(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	resp, err := app.Test(httptest.NewRequest("GET", "/docs/doc.json", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "/api/payments/create-intent")
}

func TestSPAFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spa</html>"), 0o600))

	cfg := testConfig()
	cfg.StaticDir = dir
	app, _ := newTestApp(t, cfg)

	for _, path := range []string{"/", "/checkout/success"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode, path)
		raw, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(raw), "spa", path)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/api/unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRequestLoggingConfig(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected bool
	}{
		{"request logging disabled", "false", false},
		{"request logging enabled", "true", true},
		{"default value (no env var)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(config.ResetCache)

			if tt.envValue != "" {
				t.Setenv("REQUEST_LOGGING_ENABLED", tt.envValue)
			}
			// DEV_MODE bypasses the STREAM_TOKEN_SECRET requirement
			t.Setenv("DEV_MODE", "true")

			config.ResetCache()
			cfg, err := config.Load()
			require.NoError(t, err)

			assert.Equal(t, tt.expected, cfg.RequestLoggingEnabled)
		})
	}
}
