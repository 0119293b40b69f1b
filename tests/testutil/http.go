package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is the response wrapper every JSON endpoint returns
type Envelope[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data"`
	Error   *APIError `json:"error"`
}

// APIError is the error member of an Envelope
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// ReportBody is the data member of a keyed-layout report response
type ReportBody struct {
	Type   string `json:"type"`
	Report struct {
		Columns      []string         `json:"columns"`
		Data         []map[string]any `json:"data"`
		TotalRecords int              `json:"totalRecords"`
		Empty        bool             `json:"empty"`
	} `json:"report"`
}

// Column collects one column of a keyed report
func (b ReportBody) Column(name string) []any {
	out := make([]any, 0, len(b.Report.Data))
	for _, row := range b.Report.Data {
		out = append(out, row[name])
	}
	return out
}

// Serve runs one request through h
func Serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

// Decode parses a JSON envelope, failing the test on malformed bodies
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) Envelope[T] {
	t.Helper()

	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// AssertError checks the status and error code of a failed request
func AssertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, w.Code, w.Body.String())
	env := Decode[json.RawMessage](t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, code, env.Error.Code)
}
