package policy

import (
	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
)

// SchemaValidator is the pluggable validation gate the Canon Contract
// Reader runs first. Implementations must raise (return a non-nil error)
// on any invalid document; they must never silently repair one. The JSON
// Schema-backed implementation lives in pkg/contracts.
type SchemaValidator interface {
	Validate(doc map[string]any) error
}

// ReadResult is the outcome of running a document through the reader.
type ReadResult struct {
	Decision     Decision
	Status       epistemic.Status
	Lossy        bool
	AssumptionID string
}

// Read performs, in order: schema validation, epistemic-metadata
// extraction, then the policy decision. epistemic_status is mandatory and
// non-empty; its absence is itself a HARD_FAIL rather than a schema error,
// since a document can be schema-valid in every other respect and still
// omit the one field the reader exists to interpret.
func Read(validator SchemaValidator, doc map[string]any) (ReadResult, error) {
	if validator != nil {
		if err := validator.Validate(doc); err != nil {
			return ReadResult{}, pipeerr.Wrap(pipeerr.SchemaConstraintFailed, err, "canon document failed schema validation")
		}
	}

	rawStatus, _ := doc["epistemic_status"].(string)
	if rawStatus == "" {
		return ReadResult{Decision: DecisionHardFail}, pipeerr.New(pipeerr.EpistemicStatusUnknown, "epistemic_status missing or empty")
	}

	lossy, _ := doc["lossy_mapping"].(bool)
	override, _ := doc["human_override"].(bool)
	assumptionID, _ := doc["assumption_id"].(string)

	allowed := AllowedStatusSet()
	decision := Decide(Input{
		Status:        epistemic.Status(rawStatus),
		Lossy:         lossy,
		HumanOverride: override,
		AssumptionID:  assumptionID,
	}, allowed)

	res := ReadResult{
		Decision:     decision,
		Status:       epistemic.Status(rawStatus),
		Lossy:        lossy,
		AssumptionID: assumptionID,
	}
	if decision == DecisionHardFail {
		return res, pipeerr.New(pipeerr.EpistemicHardFail, "epistemic policy hard-failed the document")
	}
	return res, nil
}
