package payments

import (
	"encoding/json"
	"io"
	"testing"

	"payments-portal/cmd/server/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type testHTTP struct {
	t   *testing.T
	app *fiber.App
}

// do sends body and decodes a flat JSON object response.
func (h *testHTTP) do(method, url, body string) (int, map[string]any) {
	h.t.Helper()

	var payload any
	if body != "" {
		payload = body
	}
	resp, err := h.app.Test(testutil.CreateJSONRequest(method, url, payload))
	require.NoError(h.t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)

	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}
