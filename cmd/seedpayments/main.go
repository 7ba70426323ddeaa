// cmd/seedpayments/main.go
//
// Fills a running server with demo payments. Inputs are deliberately dirty
// (markup, units, padded currencies) so the list shows what the sanitizer did.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	baseURL   = flag.String("url", env("API_BASE_URL", "http://localhost:8080"), "Server base URL")
	nPayments = flag.Int("n", envInt("COUNT", 50), "How many payments to create")
	seed      = flag.Int64("seed", 0, "Fake data seed (0 = time based)")
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}

var client = &http.Client{Timeout: 10 * time.Second}

func postJSON(path string, body any, out any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	resp, err := client.Post(*baseURL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%s: %d %s", path, resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: decode: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

func main() {
	flag.Parse()

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	faker := gofakeit.New(s)

	fmt.Printf("Seeding %d payments on %s (seed=%d)\n", *nPayments, *baseURL, s)

	counts := map[string]int{}
	for i := 1; i <= *nPayments; i++ {
		outcome, err := seedOne(faker)
		if err != nil {
			fmt.Fprintln(os.Stderr, "FATAL:", err)
			os.Exit(1)
		}
		counts[outcome]++

		if i%10 == 0 || i == *nPayments {
			fmt.Printf("  … %d/%d\n", i, *nPayments)
		}
	}

	fmt.Printf("done: %v\n", counts)
}

// createWithBackoff waits out the create-intent rate limiter instead of failing.
func createWithBackoff(body, out any) error {
	for attempt := 0; ; attempt++ {
		status, err := postJSON("/api/payments/create-intent", body, out)
		if status != http.StatusTooManyRequests || attempt >= 5 {
			return err
		}
		fmt.Println("  rate limited, waiting 15s")
		time.Sleep(15 * time.Second)
	}
}

func seedOne(faker *gofakeit.Faker) (string, error) {
	var created struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := createWithBackoff(fakeIntent(faker), &created); err != nil {
		return "", err
	}

	result := fakeResult(faker, created.PaymentIntentID)
	if _, err := postJSON("/api/payments/record-result", result, nil); err != nil {
		return "", err
	}
	return result["status"], nil
}
