package openapi

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// MarshalYAML renders doc as block-style YAML.
func MarshalYAML(doc *openapi3.T) ([]byte, error) {
	b, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("openapi: encode document: %w", err)
	}
	var n yaml.Node
	if err := yaml.Unmarshal(b, &n); err != nil {
		return nil, fmt.Errorf("openapi: reencode document: %w", err)
	}
	plain(&n)
	return yaml.Marshal(&n)
}

// plain drops the flow and quoting styles JSON input leaves on n; the encoder
// still quotes scalars whose tag would change.
func plain(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		plain(c)
	}
}
