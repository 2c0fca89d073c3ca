package swagger

import _ "embed"

//go:embed openapi.yaml
var document []byte

// Document returns the embedded OpenAPI 3 description of the HTTP API.
func Document() []byte {
	return document
}
