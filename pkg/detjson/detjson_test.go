package detjson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalSortsKeys(t *testing.T) {
	out, err := Marshal(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	require.Equal(t, `{"a":2,"b":1}`, string(out))
}

func TestMarshalIsDeterministicAcrossCalls(t *testing.T) {
	v := map[string]any{
		"z": []any{1, 2, 3},
		"a": map[string]any{"y": true, "x": nil},
	}
	a, err := Marshal(v)
	require.NoError(t, err)
	b, err := Marshal(v)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestMarshalDoesNotEscapeHTML(t *testing.T) {
	out, err := Marshal(map[string]any{"msg": "<b>&</b>"})
	require.NoError(t, err)
	require.Contains(t, string(out), "<b>&</b>")
}

func TestEncodeBoundedFailsClosedWhenTooLarge(t *testing.T) {
	big := map[string]any{}
	for i := 0; i < 1000; i++ {
		big[string(rune('a'+(i%26)))+string(rune('A'+(i/26)))] = "some reasonably long value to pad size"
	}
	_, err := EncodeBounded(big, 64)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestMarshalRejectsNonFiniteFloat(t *testing.T) {
	_, err := Marshal(map[string]any{"x": 1.0 / zero()})
	require.Error(t, err)
}

func zero() float64 { return 0 }
