package canonical

import (
	"testing"

	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
	"github.com/stretchr/testify/require"
)

func TestValidID(t *testing.T) {
	require.True(t, ValidID("team-42"))
	require.False(t, ValidID(""))
	require.False(t, ValidID(" team "))
}

func TestNewOptionalID(t *testing.T) {
	id, ok := NewOptionalID("player_7")
	require.True(t, ok)
	require.True(t, id.Present)

	_, ok = NewOptionalID("")
	require.False(t, ok)
}

func TestHasIdentity(t *testing.T) {
	e := &CanonEvent{}
	require.False(t, e.HasIdentity())

	e.TeamID, _ = NewOptionalID("team-1")
	require.False(t, e.HasIdentity(), "team_id alone is not enough; player_id is also required")

	e.PlayerID, _ = NewOptionalID("player-1")
	require.True(t, e.HasIdentity())
}

func TestCanonicalBytesDeterministic(t *testing.T) {
	e := &CanonEvent{
		EventID:   "evt-1",
		EventType: epistemic.EventPass,
		Outcome:   epistemic.OutcomeSuccess,
		Epistemic: epistemic.StatusFact,
		Timestamp: 12.5,
	}
	a, err := e.CanonicalBytes()
	require.NoError(t, err)
	b, err := e.CanonicalBytes()
	require.NoError(t, err)
	require.Equal(t, a, b)

	h1, err := e.ComputeHash()
	require.NoError(t, err)
	require.Len(t, h1, 64)
}
