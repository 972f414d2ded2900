// Package contracts implements the Canon Contract Reader's schema gate and
// the tabular Contract Validator that runs ahead of it. The JSON Schema
// gate satisfies policy.SchemaValidator; a failed compile or a failed
// validation is always a hard error, never a skipped check.
package contracts

import (
	"fmt"
	"strings"

	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaGate compiles one JSON Schema document and validates canon
// documents against it. It implements policy.SchemaValidator.
type SchemaGate struct {
	schema *jsonschema.Schema
}

// NewSchemaGate compiles schemaJSON under the given resource id. A bad
// schema document fails closed at construction time rather than at the
// first Validate call.
func NewSchemaGate(resourceID, schemaJSON string) (*SchemaGate, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	url := fmt.Sprintf("https://hpfa.schemas.local/canon/%s.schema.json", resourceID)
	if err := c.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
		return nil, pipeerr.Wrap(pipeerr.RegistryInvalid, err, "contracts: schema resource load failed").With("resource_id", resourceID)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.RegistryInvalid, err, "contracts: schema compile failed").With("resource_id", resourceID)
	}
	return &SchemaGate{schema: compiled}, nil
}

// Validate implements policy.SchemaValidator.
func (g *SchemaGate) Validate(doc map[string]any) error {
	if g.schema == nil {
		return pipeerr.New(pipeerr.RegistryInvalid, "contracts: schema gate has no compiled schema")
	}
	if err := g.schema.Validate(doc); err != nil {
		return pipeerr.Wrap(pipeerr.SchemaConstraintFailed, err, "contracts: document failed schema validation")
	}
	return nil
}
