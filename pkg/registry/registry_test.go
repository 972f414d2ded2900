package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testRegistryYAML = `
schema_version: "1.0"
actions:
  PASS:
    aliases: ["short pass", "Pass-ball"]
    possession_effect: CONTINUE
    allowed_states: [CONTROLLED]
    fail_closed_default: UNVALIDATED
    status: core
  RESTART_KICKOFF:
    aliases: ["kick off", "kickoff"]
    possession_effect: START
    allowed_states: [DEAD_BALL]
    fail_closed_default: UNVALIDATED
    status: core
  GK_SAVE:
    aliases: ["goalkeeper save", "gk save"]
    possession_effect: NEUTRAL
    allowed_states: [CONTESTED, CONTROLLED]
    fail_closed_default: UNVALIDATED
    status: aurelia
`

func TestLoadAndResolve(t *testing.T) {
	reg, err := Load(strings.NewReader(testRegistryYAML))
	require.NoError(t, err)
	require.Equal(t, "1.0", reg.SchemaVersion)

	id, _, status := reg.Resolve("Short Pass", nil)
	require.Equal(t, "PASS", id)
	require.Equal(t, ResolutionValid, status)
}

func TestResolveUnknownDoesNotError(t *testing.T) {
	reg, err := Load(strings.NewReader(testRegistryYAML))
	require.NoError(t, err)

	id, quals, status := reg.Resolve("totally unknown thing", nil)
	require.Equal(t, UnknownActionID, id)
	require.Empty(t, quals)
	require.Equal(t, ResolutionUnvalidated, status)
}

func TestResolveGKSaveDefaultsGkHoldsFalse(t *testing.T) {
	reg, err := Load(strings.NewReader(testRegistryYAML))
	require.NoError(t, err)

	_, quals, _ := reg.Resolve("gk save", nil)
	require.Equal(t, "false", quals["gk_holds"])

	_, quals2, _ := reg.Resolve("gk save", map[string]string{"gk_holds": "true"})
	require.Equal(t, "true", quals2["gk_holds"])
}

func TestLoadRejectsAliasCollision(t *testing.T) {
	doc := `
schema_version: "1.0"
actions:
  PASS:
    aliases: ["kick"]
    possession_effect: CONTINUE
    allowed_states: [CONTROLLED]
    fail_closed_default: UNVALIDATED
    status: core
  SHOT:
    aliases: ["kick"]
    possession_effect: END
    allowed_states: [CONTROLLED]
    fail_closed_default: UNVALIDATED
    status: core
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
}

func TestLoadRejectsNonUpperSnakeKey(t *testing.T) {
	doc := `
schema_version: "1.0"
actions:
  passAction:
    aliases: []
    possession_effect: CONTINUE
    allowed_states: [CONTROLLED]
    fail_closed_default: UNVALIDATED
    status: core
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
}

func TestLoadRejectsEmptyAllowedStates(t *testing.T) {
	doc := `
schema_version: "1.0"
actions:
  PASS:
    aliases: []
    possession_effect: CONTINUE
    allowed_states: []
    fail_closed_default: UNVALIDATED
    status: core
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
}

func TestCheckIntegrityPasses(t *testing.T) {
	reg, err := Load(strings.NewReader(testRegistryYAML))
	require.NoError(t, err)

	rep := CheckIntegrity(reg, testRegistryYAML, []string{"competitorbrand"})
	require.True(t, rep.Passed())
}

func TestCheckIntegrityFlagsForbiddenKeyword(t *testing.T) {
	reg, err := Load(strings.NewReader(testRegistryYAML))
	require.NoError(t, err)

	rep := CheckIntegrity(reg, testRegistryYAML+"\n# gk save", []string{"gk save"})
	require.False(t, rep.Passed())
}

func TestNormalizeAliasUnicodeAware(t *testing.T) {
	require.Equal(t, "pass_ball", NormalizeAlias("  Pass-Ball  "))
	require.Equal(t, "pass_ball", NormalizeAlias("pass/ball"))
	require.Equal(t, "kickoff", NormalizeAlias("Kickoff!!!"))
	require.Equal(t, NormalizeAlias("CAFÉ"), NormalizeAlias("café"))
}
