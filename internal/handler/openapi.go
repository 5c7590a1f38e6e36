package handler

import (
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIHandler serves the API specification. The document is marshaled
// once at construction since the surface never changes at runtime.
type OpenAPIHandler struct {
	spec []byte
}

// NewOpenAPIHandler creates an OpenAPIHandler for the given document.
func NewOpenAPIHandler(doc *openapi3.T) *OpenAPIHandler {
	spec, err := json.Marshal(doc)
	if err != nil {
		spec = []byte(`{"error":"failed to render openapi spec"}`)
	}
	return &OpenAPIHandler{spec: spec}
}

// ServeSpec writes the OpenAPI document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(h.spec)
}
