package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHashBytesIsDeterministic(t *testing.T) {
	a := HashBytes([]byte("hello"))
	b := HashBytes([]byte("hello"))
	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestVerifyPassesOnMatchingManifest(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "a.json", "content-a")
	hash := HashBytes([]byte("content-a"))

	m := Manifest{Algo: "sha256", Version: "v1", Files: map[string]string{"a.json": hash}}
	res, err := Verify(m, dir)
	require.NoError(t, err)
	require.True(t, res.OK)
}

func TestVerifyFailsOnMismatch(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "a.json", "content-a")

	m := Manifest{Algo: "sha256", Version: "v1", Files: map[string]string{"a.json": "deadbeef"}}
	res, err := Verify(m, dir)
	require.Error(t, err)
	require.False(t, res.OK)
	require.Len(t, res.Mismatched, 1)
}

func TestVerifyFailsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{Algo: "sha256", Version: "v1", Files: map[string]string{"missing.json": "deadbeef"}}
	res, err := Verify(m, dir)
	require.Error(t, err)
	require.Contains(t, res.Missing, "missing.json")
}

func TestVerifyFailsClosedOnUnsupportedAlgo(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{Algo: "md5", Version: "v1", Files: map[string]string{}}
	_, err := Verify(m, dir)
	require.Error(t, err)
}
