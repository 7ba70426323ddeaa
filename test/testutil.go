//go:build e2e

package test

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPJSONStep is one request of a table driven e2e scenario.
type HTTPJSONStep struct {
	Name           string
	Method         string
	URL            string
	Body           any
	Headers        map[string]string
	ExpectedStatus int
	Validator      func(*testing.T, map[string]any)
}

// ExecuteHTTPJSONStep runs step against baseURL and returns the decoded body.
func ExecuteHTTPJSONStep(t *testing.T, step HTTPJSONStep, baseURL string) map[string]any {
	t.Helper()
	t.Logf("step: %s", step.Name)

	resp, err := httpJSON(step.Method, baseURL+step.URL, step.Body, step.Headers)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, step.ExpectedStatus, resp.StatusCode, "%s: %s", step.Name, raw)

	var respData map[string]any
	require.NoError(t, json.Unmarshal(raw, &respData), "%s: body is not a JSON object", step.Name)

	if step.Validator != nil {
		step.Validator(t, respData)
	}
	return respData
}

// ExecuteHTTPJSONSteps runs steps in order and stops at the first failure.
func ExecuteHTTPJSONSteps(t *testing.T, steps []HTTPJSONStep, baseURL string) []map[string]any {
	t.Helper()
	results := make([]map[string]any, 0, len(steps))
	for _, step := range steps {
		results = append(results, ExecuteHTTPJSONStep(t, step, baseURL))
	}
	return results
}

// FieldsPresentValidator checks that every named field is present and non-empty
func FieldsPresentValidator(expectedFields ...string) func(*testing.T, map[string]any) {
	return func(t *testing.T, respData map[string]any) {
		t.Helper()
		for _, field := range expectedFields {
			value, exists := respData[field]
			require.True(t, exists, "Expected field %s to exist in response", field)
			require.NotEmpty(t, value, "Expected field %s to not be empty", field)
		}
	}
}

// ErrorMessageValidator validates that an error response contains expected message content
func ErrorMessageValidator(expectedSubstring string) func(*testing.T, map[string]any) {
	return func(t *testing.T, respData map[string]any) {
		t.Helper()
		errorMsg, exists := respData["error"]
		require.True(t, exists, "Expected error field to exist in response")
		assert.Contains(t, errorMsg.(string), expectedSubstring,
			"Expected error message to contain '%s', but got: %s", expectedSubstring, errorMsg)
	}
}

// StringField safely extracts a string field from response data
func StringField(t *testing.T, respData map[string]any, fieldName string) string {
	t.Helper()
	v, exists := respData[fieldName]
	require.True(t, exists, "Expected %s field to exist in response", fieldName)
	str, ok := v.(string)
	require.True(t, ok, "Expected %s to be a string", fieldName)
	require.NotEmpty(t, str, "Expected %s to not be empty", fieldName)
	return str
}
