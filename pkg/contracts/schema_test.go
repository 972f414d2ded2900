package contracts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const eventSchema = `{
  "type": "object",
  "required": ["epistemic_status"],
  "properties": {
    "epistemic_status": {"type": "string", "minLength": 1}
  }
}`

func TestSchemaGateAcceptsValidDocument(t *testing.T) {
	g, err := NewSchemaGate("event", eventSchema)
	require.NoError(t, err)
	require.NoError(t, g.Validate(map[string]any{"epistemic_status": "FACT"}))
}

func TestSchemaGateRejectsMissingRequiredField(t *testing.T) {
	g, err := NewSchemaGate("event", eventSchema)
	require.NoError(t, err)
	err = g.Validate(map[string]any{})
	require.Error(t, err)
}

func TestNewSchemaGateFailsClosedOnBadSchema(t *testing.T) {
	_, err := NewSchemaGate("bad", `{"type": "not-a-type"`)
	require.Error(t, err)
}
