package api

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope of every API response: either
// {"success": true, <fields>...} or {"error": "<message>"}.
type Response struct {
	fields  map[string]any
	message string
	failed  bool
}

// NewResponse creates an empty successful response.
func NewResponse() *Response {
	return &Response{fields: make(map[string]any)}
}

// Set adds a top level field to a successful response.
func (rsp *Response) Set(key string, value any) *Response {
	if rsp.fields == nil {
		rsp.fields = make(map[string]any)
	}
	rsp.fields[key] = value
	return rsp
}

// SetError turns the response into an error response.
func (rsp *Response) SetError(message string) *Response {
	rsp.fields = nil
	rsp.message = message
	rsp.failed = true
	return rsp
}

// Error message, empty for successful responses.
func (rsp *Response) Error() string {
	return rsp.message
}

// MarshalJSON - implementation of the json.Marshaler interface
func (rsp *Response) MarshalJSON() ([]byte, error) {
	if rsp.failed {
		return json.Marshal(map[string]string{"error": rsp.message})
	}
	out := make(map[string]any, len(rsp.fields)+1)
	for key, value := range rsp.fields {
		out[key] = value
	}
	out["success"] = true
	return json.Marshal(out)
}

// Send writes the response with the given status code
func (rsp *Response) Send(w http.ResponseWriter, status int) {
	if status >= http.StatusBadRequest && !rsp.failed {
		rsp.SetError(http.StatusText(status))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rsp)
}

// Send success response to client
func (rsp *Response) Ok(w http.ResponseWriter) {
	rsp.Send(w, http.StatusOK)
}

// Send created response to client
func (rsp *Response) Created(w http.ResponseWriter) {
	rsp.Send(w, http.StatusCreated)
}

// Send error response to client
func (rsp *Response) BadRequest(w http.ResponseWriter) {
	rsp.Send(w, http.StatusBadRequest)
}

// Send error response to client
func (rsp *Response) Unauthorized(w http.ResponseWriter) {
	rsp.Send(w, http.StatusUnauthorized)
}

// Send error response to client
func (rsp *Response) Forbidden(w http.ResponseWriter) {
	rsp.Send(w, http.StatusForbidden)
}

// Send error response to client
func (rsp *Response) NotFound(w http.ResponseWriter) {
	rsp.Send(w, http.StatusNotFound)
}

// Send error response to client
func (rsp *Response) MethodNotAllowed(w http.ResponseWriter) {
	rsp.Send(w, http.StatusMethodNotAllowed)
}

// Send error response to client
func (rsp *Response) Conflict(w http.ResponseWriter) {
	rsp.Send(w, http.StatusConflict)
}

// Send error response to client
func (rsp *Response) TooManyRequests(w http.ResponseWriter) {
	rsp.Send(w, http.StatusTooManyRequests)
}

// Send error response to client
func (rsp *Response) InternalServerError(w http.ResponseWriter) {
	rsp.Send(w, http.StatusInternalServerError)
}
