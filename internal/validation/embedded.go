package validation

import (
	"embed"
	"fmt"
	"strings"
)

// Default schema documents shipped with the binary. Deployments that mount a
// schema directory override these; the documents stay data either way.
//
//go:embed schemas/*.json
var embeddedSchemas embed.FS

// DefaultSchemas parses the embedded schema documents.
func DefaultSchemas() ([]Schema, error) {
	entries, err := embeddedSchemas.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schemas: %w", err)
	}

	var schemas []Schema
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := embeddedSchemas.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded schema %s: %w", entry.Name(), err)
		}
		schema, err := ParseSchema(raw)
		if err != nil {
			return nil, fmt.Errorf("embedded schema %s: %w", entry.Name(), err)
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}
