//go:build e2e

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"payments-portal/internal/config"
	"payments-portal/internal/services/payments"
)

const (
	createIntentEndpoint = "/api/payments/create-intent"
	recordResultEndpoint = "/api/payments/record-result"
	listPaymentsEndpoint = "/get-all-payments"
	streamEndpoint       = "/ws/payments/stream"

	e2eStreamSecret = "test-e2e-stream-secret-with-32-plus-characters"
	e2eDatabase     = "payments_e2e"

	maxServerLog = 64 << 10
)

// TestEnvironment is a running server backed by a throwaway MongoDB.
type TestEnvironment struct {
	BaseURL string
	Client  *http.Client
}

// cappedBuffer keeps the first max bytes written and silently discards the
// rest, so a chatty server can never block on a full stderr pipe.
type cappedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// randomPort reserves a free loopback port for the server under test.
func randomPort() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	_, port, err := net.SplitHostPort(l.Addr().String())
	return port, err
}

// startMongo runs a single-node MongoDB container and returns its URI.
func startMongo(ctx context.Context, t *testing.T) string {
	t.Helper()
	t.Log("starting MongoDB container")

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:8.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor: wait.ForExec([]string{"mongosh", "--quiet", "--eval", "db.adminCommand('ping')"}).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	endpoint, err := c.PortEndpoint(ctx, "27017/tcp", "mongodb")
	require.NoError(t, err)
	return endpoint + "/"
}

// serverProcess is the payments server running as a child process.
type serverProcess struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stderr *cappedBuffer
}

// startServer launches BIN_SERVER when set, otherwise `go run ./cmd/server`.
func startServer(ctx context.Context, t *testing.T, port, mongoURI string, extraEnv map[string]string) *serverProcess {
	t.Helper()

	srvCtx, cancel := context.WithCancel(ctx)
	var cmd *exec.Cmd
	if bin := os.Getenv("BIN_SERVER"); bin != "" {
		cmd = exec.CommandContext(srvCtx, bin)
	} else {
		cmd = exec.CommandContext(srvCtx, "go", "run", "./cmd/server")
		cmd.Dir = "../"
	}
	// own process group so `go run` and its child die together
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	env := map[string]string{
		"APP_PORT":                port,
		"MONGO_URI":               mongoURI,
		"MONGO_DB_NAME":           e2eDatabase,
		"STREAM_TOKEN_SECRET":     e2eStreamSecret,
		"LOG_LEVEL":               "info",
		"REQUEST_LOGGING_ENABLED": "false",
		"STATIC_DIR":              "./does-not-exist",
	}
	for k, v := range extraEnv {
		env[k] = v
	}
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stderr := &cappedBuffer{max: maxServerLog}
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr

	t.Logf("launching server on :%s", port)
	if err := cmd.Start(); err != nil {
		cancel()
		require.NoError(t, err)
	}
	return &serverProcess{cmd: cmd, cancel: cancel, stderr: stderr}
}

// stop kills the whole process group and waits for the pipes to drain.
func (s *serverProcess) stop(t *testing.T) {
	t.Helper()
	s.cancel()
	if pgid, err := syscall.Getpgid(s.cmd.Process.Pid); err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	}

	done := make(chan struct{})
	go func() {
		_ = s.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = s.cmd.Process.Kill()
		<-done
	}

	if out := s.stderr.String(); out != "" {
		t.Logf("server stderr:\n%s", out)
	}
}

// waitHealthy polls /healthz until it answers 200 or timeout elapses.
func waitHealthy(baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("server never became healthy at %s", baseURL)
}

// httpJSON sends payload as JSON and returns the raw response.
func httpJSON(method, url string, payload any, headers map[string]string) (*http.Response, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return (&http.Client{Timeout: 5 * time.Second}).Do(req)
}

// SetupTestEnvironment starts MongoDB and the server with default settings.
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	return SetupTestEnvironmentWithEnv(t, nil)
}

// SetupTestEnvironmentWithEnv is SetupTestEnvironment with extra server env.
func SetupTestEnvironmentWithEnv(t *testing.T, extraEnv map[string]string) *TestEnvironment {
	t.Helper()
	config.ResetCache()
	t.Cleanup(config.ResetCache)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	mongoURI := startMongo(ctx, t)

	port, err := randomPort()
	require.NoError(t, err)
	srv := startServer(ctx, t, port, mongoURI, extraEnv)
	t.Cleanup(func() { srv.stop(t) })

	baseURL := "http://127.0.0.1:" + port
	require.NoError(t, waitHealthy(baseURL, 30*time.Second))

	return &TestEnvironment{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// createIntent posts a create-intent body and decodes the 200 response.
func createIntent(t *testing.T, c *http.Client, baseURL string, body any) payments.CreateIntentResponse {
	t.Helper()
	status, raw := doJSONPost(t, c, baseURL+createIntentEndpoint, body)
	require.Equal(t, http.StatusOK, status, "create-intent: %s", raw)

	var out payments.CreateIntentResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	require.NotEmpty(t, out.PaymentIntentID)
	return out
}

// recordResult posts a record-result body and asserts the status code.
func recordResult(t *testing.T, c *http.Client, baseURL, intentID, status, msg string, want int) {
	t.Helper()
	got, raw := doJSONPost(t, c, baseURL+recordResultEndpoint, map[string]string{
		"paymentIntentId": intentID,
		"status":          status,
		"error":           msg,
	})
	require.Equal(t, want, got, "record-result: %s", raw)
}

// listPayments fetches every stored payment, newest first.
func listPayments(t *testing.T, c *http.Client, baseURL string) []payments.Payment {
	t.Helper()
	resp, err := c.Get(baseURL + listPaymentsEndpoint)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []payments.Payment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func doJSONPost(t *testing.T, c *http.Client, url string, body any) (int, []byte) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("failed to close response body: %v", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}
