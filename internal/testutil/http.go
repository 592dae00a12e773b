// Package testutil serves canned I/O Events API responses to tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
)

// NewJSONServer creates an httptest server from a callback to keep integration tests concise.
func NewJSONServer(handler func(http.ResponseWriter, *http.Request)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(handler))
}

// WriteJSON encodes body as the response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/hal+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// HALPage builds one page of a HAL collection with items under
// _embedded[key]. An empty next omits the next link.
func HALPage(key string, items any, self string, next string) map[string]any {
	links := map[string]any{}
	if self != "" {
		links["self"] = map[string]string{"href": self}
	}
	if next != "" {
		links["next"] = map[string]string{"href": next}
	}
	return map[string]any{
		"_embedded": map[string]any{key: items},
		"_links":    links,
	}
}
