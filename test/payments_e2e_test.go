//go:build e2e

package test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payments-portal/internal/services/payments"
)

func TestPaymentLifecycleE2E(t *testing.T) {
	env := SetupTestEnvironment(t)

	t.Log("Step 1: create an intent from messy form input")
	created := createIntent(t, env.Client, env.BaseURL, map[string]any{
		"orderId":     "  <b>ORD</b>-1042 ",
		"amountCents": "<i>1999</i> cents",
		"currency":    " USD ",
		"email":       "buyer@example.com",
	})
	assert.True(t, strings.HasPrefix(created.PaymentIntentID, "pi_"))
	assert.Contains(t, created.ClientSecret, created.PaymentIntentID+"_secret_")
	require.NotEmpty(t, created.StreamToken)

	t.Log("Step 2: stored payment is sanitized and pending")
	list := listPayments(t, env.Client, env.BaseURL)
	require.Len(t, list, 1)
	p := list[0]
	assert.Equal(t, created.PaymentID, p.ID.Hex())
	assert.Equal(t, "ORD -1042", p.OrderID)
	assert.Equal(t, int64(1999), p.AmountCents)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, payments.StatusPending, p.Status)

	t.Log("Step 3: watch the stream and record a failure")
	wsURL := "ws" + strings.TrimPrefix(env.BaseURL, "http") + streamEndpoint +
		"?token=" + url.QueryEscape(created.StreamToken)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	// the upgrade completes before the subscription is registered
	time.Sleep(200 * time.Millisecond)

	recordResult(t, env.Client, env.BaseURL, created.PaymentIntentID,
		"requires_payment_method", "", http.StatusOK)
	recordResult(t, env.Client, env.BaseURL, created.PaymentIntentID,
		"failed", `<img src=x onerror=alert(1)>Card "declined"`, http.StatusOK)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var last payments.PaymentEvent
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.ReadJSON(&last))
		assert.Equal(t, "status", last.Type)
	}
	require.NotNil(t, last.Payment)
	assert.Equal(t, payments.StatusFailed, last.Payment.Status)
	assert.Equal(t, `Card "declined"`, last.Payment.LastError)

	t.Log("Step 4: a later success clears the error")
	recordResult(t, env.Client, env.BaseURL, created.PaymentIntentID,
		"succeeded", "", http.StatusOK)
	list = listPayments(t, env.Client, env.BaseURL)
	require.Len(t, list, 1)
	assert.Equal(t, payments.StatusSucceeded, list[0].Status)
	assert.Empty(t, list[0].LastError)
}

func TestCreateIntentRejectsUnusableInputE2E(t *testing.T) {
	env := SetupTestEnvironment(t)

	steps := []HTTPJSONStep{
		{
			Name:   "amount made of markup only",
			Method: http.MethodPost,
			URL:    createIntentEndpoint,
			Body: map[string]any{
				"orderId": "ORD-1", "amountCents": "<script>42</script>", "currency": "usd",
			},
			ExpectedStatus: http.StatusBadRequest,
			Validator:      ErrorMessageValidator("Amount"),
		},
		{
			Name:   "order id made of markup only",
			Method: http.MethodPost,
			URL:    createIntentEndpoint,
			Body: map[string]any{
				"orderId": "<br/>", "amountCents": 100, "currency": "usd",
			},
			ExpectedStatus: http.StatusBadRequest,
			Validator:      FieldsPresentValidator("error"),
		},
		{
			Name:   "unknown intent",
			Method: http.MethodPost,
			URL:    recordResultEndpoint,
			Body: map[string]any{
				"paymentIntentId": "pi_missing", "status": "succeeded",
			},
			ExpectedStatus: http.StatusNotFound,
			Validator:      FieldsPresentValidator("error"),
		},
	}
	ExecuteHTTPJSONSteps(t, steps, env.BaseURL)

	assert.Empty(t, listPayments(t, env.Client, env.BaseURL))
}

func TestStreamRejectsBadTokenE2E(t *testing.T) {
	env := SetupTestEnvironment(t)

	wsURL := "ws" + strings.TrimPrefix(env.BaseURL, "http") + streamEndpoint + "?token=nope"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
