package http

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.json
var openAPISpec []byte

// ServeOpenAPISpec serves the OpenAPI JSON specification
func ServeOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(openAPISpec)
}
