package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the API response wrapper with a raw data field.
type Envelope struct {
	Success   bool            `json:"success"`
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
	Meta      *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

// DecodeEnvelope parses the recorded response body.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Failed to parse response: %s", w.Body.String())
	return env
}

// DecodeData parses the envelope's data field into T.
func DecodeData[T any](t *testing.T, env Envelope) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), "Failed to parse data: %s", string(env.Data))
	return v
}

// AssertSuccessResponse asserts a successful envelope with status.
func AssertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder, status int) Envelope {
	t.Helper()

	env := DecodeEnvelope(t, w)
	assert.Equal(t, status, w.Code, w.Body.String())
	assert.True(t, env.Success, "Expected success to be true")
	assert.Empty(t, env.Error, "Expected no error code")
	return env
}

// AssertErrorResponse asserts a failed envelope with status and error code.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, status int, code string) Envelope {
	t.Helper()

	env := DecodeEnvelope(t, w)
	assert.Equal(t, status, w.Code, w.Body.String())
	assert.False(t, env.Success, "Expected success to be false")
	assert.Equal(t, code, env.Error, "Unexpected error code")
	assert.Equal(t, status, env.Code)
	return env
}

// ToJSONReader converts a value to a JSON io.Reader.
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
