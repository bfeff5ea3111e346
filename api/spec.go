package api

import (
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed api.yaml
var rawSpec []byte

// RawSpec returns the OpenAPI document as served to clients.
func RawSpec() []byte {
	return rawSpec
}

// GetSwagger parses the embedded OpenAPI document and resolves its references.
// Callers validate it with doc.Validate.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("error loading OpenAPI document: %w", err)
	}

	return doc, nil
}
