// Package httpx holds the HTTP plumbing shared by every service: the router
// middleware stack, JSON responses, and the health endpoint.
package httpx

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as the response body with the given status. Encoding errors
// after the header is written cannot be reported to the client and are dropped.
func JSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes {"error": message}.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, struct {
		Error string `json:"error"`
	}{Error: message})
}

// NoContent answers 204 for mutations that return no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
