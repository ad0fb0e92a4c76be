package versioning

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/manifest.schema.json
var manifestSchemaJSON string

var manifestSchema = jsonschema.MustCompileString(
	"manifest.schema.json", manifestSchemaJSON)

// ValidateDocument checks a manifest document against the manifest
// JSON schema. An invalid document must never be exported.
func ValidateDocument(doc *ManifestDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to reparse manifest: %w", err)
	}

	if err := manifestSchema.Validate(v); err != nil {
		return fmt.Errorf("manifest failed schema validation: %w", err)
	}
	return nil
}
