package oracle

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateAgainst checks a raw oracle payload against a JSON Schema.
// Returns a *SchemaViolationError when the instance does not conform.
func ValidateAgainst(schemaName, schemaJSON string, raw json.RawMessage) error {
	var schemaDoc any
	if err := json.Unmarshal([]byte(schemaJSON), &schemaDoc); err != nil {
		return fmt.Errorf("validate %s: schema is not valid JSON: %w", schemaName, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaName+".json", schemaDoc); err != nil {
		return fmt.Errorf("validate %s: %w", schemaName, err)
	}
	sch, err := c.Compile(schemaName + ".json")
	if err != nil {
		return fmt.Errorf("validate %s: %w", schemaName, err)
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return &SchemaViolationError{SchemaName: schemaName, Cause: fmt.Errorf("not valid JSON: %w", err)}
	}
	if err := sch.Validate(instance); err != nil {
		return &SchemaViolationError{SchemaName: schemaName, Cause: err}
	}
	return nil
}
