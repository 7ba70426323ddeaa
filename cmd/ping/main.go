// cmd/ping/main.go
//
// Container health probe for the payments server:
//   HEALTHCHECK CMD ["/ping"]
//
// Exits 0 when /healthz answers {"status":"ok"}; otherwise a non-zero code
// that tells which step failed.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort          = 8080
	healthEndpoint       = "/healthz"
	expectedHealthStatus = "ok"

	codeRequestFailed     = 2
	codeBadHTTPStatus     = 3
	codeDecodeError       = 4
	codeReportedUnhealthy = 5
)

// healthResp mirrors { "status": "ok" } or { "status": "down", "error": "..." }.
type healthResp struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type probeError struct {
	code int
	err  error
}

func (e *probeError) Error() string { return e.err.Error() }

func main() {
	url := flag.String("url", "", "health URL (default http://localhost:$APP_PORT/healthz)")
	timeout := flag.Duration("timeout", time.Second, "request timeout")
	flag.Parse()

	target := *url
	if target == "" {
		target = fmt.Sprintf("http://localhost:%d%s", detectPort(), healthEndpoint)
	}

	if err := probe(&http.Client{Timeout: *timeout}, target); err != nil {
		log.Print(err)
		var pe *probeError
		if errors.As(err, &pe) {
			os.Exit(pe.code)
		}
		os.Exit(1)
	}
	log.Printf("service healthy at %s", target)
}

func probe(client *http.Client, url string) error {
	resp, err := client.Get(url)
	if err != nil {
		return &probeError{codeRequestFailed, fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	var h healthResp
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		return &probeError{codeDecodeError, fmt.Errorf("decode error: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &probeError{codeBadHTTPStatus, fmt.Errorf("unexpected HTTP status %d: %s", resp.StatusCode, h.Error)}
	}
	if h.Status != "" && h.Status != expectedHealthStatus {
		return &probeError{codeReportedUnhealthy, fmt.Errorf("service reported unhealthy: %q", h.Status)}
	}
	return nil
}

// detectPort parses APP_PORT and falls back to defaultPort.
func detectPort() int {
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
			return p
		}
	}
	return defaultPort
}
