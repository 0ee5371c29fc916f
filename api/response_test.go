package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	NewResponse().Set("ticket_id", 7).Set("status", "open").Created(rec)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, map[string]any{"success": true, "ticket_id": 7.0, "status": "open"}, decode(t, rec))
}

func TestSuccessFieldCannotOverride(t *testing.T) {
	rec := httptest.NewRecorder()
	NewResponse().Set("success", false).Ok(rec)
	require.Equal(t, true, decode(t, rec)["success"])
}

func TestErrorEnvelope(t *testing.T) {
	testcases := []struct {
		name    string
		send    func(*Response, http.ResponseWriter)
		status  int
		message string
	}{
		{"bad request", (*Response).BadRequest, http.StatusBadRequest, "Bad Request"},
		{"unauthorized", (*Response).Unauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"forbidden", (*Response).Forbidden, http.StatusForbidden, "Forbidden"},
		{"not found", (*Response).NotFound, http.StatusNotFound, "Not Found"},
		{"method not allowed", (*Response).MethodNotAllowed, http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"conflict", (*Response).Conflict, http.StatusConflict, "Conflict"},
		{"too many requests", (*Response).TooManyRequests, http.StatusTooManyRequests, "Too Many Requests"},
		{"internal", (*Response).InternalServerError, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.send(NewResponse().Set("ignored", 1), rec)
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, map[string]any{"error": tc.message}, decode(t, rec))
		})
	}

	rec := httptest.NewRecorder()
	NewResponse().SetError("title is required").BadRequest(rec)
	require.Equal(t, map[string]any{"error": "title is required"}, decode(t, rec))
}
