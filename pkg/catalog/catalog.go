// Package catalog loads the document collection the research agent searches.
// Catalogs are YAML files validated against a JSON Schema before decoding.
package catalog

import (
	_ "embed"
	"encoding/json"
	"os"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/huddle/pkg/model"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoCatalog []byte

//go:embed schema.json
var schemaJSON []byte

var (
	ErrInvalidCatalog = goerr.New("invalid catalog")
)

// Catalog is an ordered document collection
type Catalog struct {
	Documents []model.Document `json:"documents" yaml:"documents"`
}

// Default returns the built-in demo catalog
func Default() (*Catalog, error) {
	c, err := Parse(demoCatalog)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse built-in catalog")
	}
	return c, nil
}

// Load reads and validates a catalog file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read catalog file", goerr.V("path", path))
	}

	c, err := Parse(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse catalog file", goerr.V("path", path))
	}
	return c, nil
}

// Parse validates YAML catalog data and decodes it
func Parse(data []byte) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(ErrInvalidCatalog, "failed to decode YAML", goerr.V("error", err.Error()))
	}

	// Round trip through JSON so the validator sees JSON value types
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidCatalog, "catalog is not representable as JSON", goerr.V("error", err.Error()))
	}
	var instance any
	if err := json.Unmarshal(jsonData, &instance); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal catalog JSON")
	}

	resolved, err := catalogSchema()
	if err != nil {
		return nil, err
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, goerr.Wrap(ErrInvalidCatalog, "schema validation failed", goerr.V("error", err.Error()))
	}

	var c Catalog
	if err := json.Unmarshal(jsonData, &c); err != nil {
		return nil, goerr.Wrap(err, "failed to decode catalog")
	}
	for i := range c.Documents {
		if c.Documents[i].Tags == nil {
			c.Documents[i].Tags = []string{}
		}
	}

	return &c, nil
}

// catalogSchema resolves the embedded schema on first use
var catalogSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal catalog schema")
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve catalog schema")
	}
	return resolved, nil
})
