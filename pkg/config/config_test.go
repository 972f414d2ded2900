package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadBaseOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.json", `{"psm":{"cooldown_ms":250},"registry_path":"registry.yaml"}`)

	b, err := Load(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.Equal(t, 250, b.MustInt("psm.cooldown_ms", 0))
	require.Equal(t, "registry.yaml", b.MustString("registry_path", ""))
}

func TestLoadEnvOverlayWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.json", `{"psm":{"cooldown_ms":250,"keep":"base"}}`)
	writeFile(t, dir, "prod.json", `{"psm":{"cooldown_ms":500}}`)

	b, err := Load(context.Background(), dir, Options{Env: "prod"})
	require.NoError(t, err)
	require.Equal(t, 500, b.MustInt("psm.cooldown_ms", 0))
	require.Equal(t, "base", b.MustString("psm.keep", ""))
}

func TestLoadEnvironmentVariableOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.json", `{"psm":{"cooldown_ms":250}}`)

	b, err := Load(context.Background(), dir, Options{
		EnvPrefix: "HPFA_",
		Environ:   []string{"HPFA_PSM__COOLDOWN_MS=900", "UNRELATED=1"},
	})
	require.NoError(t, err)
	require.Equal(t, 900, b.MustInt("psm.cooldown_ms", 0))
}

func TestLoadRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.json", `{"a":1}`)

	_, err := Load(context.Background(), dir, Options{MaxFileBytes: 2})
	require.Error(t, err)
}

func TestLoadRejectsTrailingContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.json", `{"a":1} garbage`)

	_, err := Load(context.Background(), dir, Options{})
	require.Error(t, err)
}

func TestCanonicalJSONIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.json", `{"b":2,"a":1}`)

	b, err := Load(context.Background(), dir, Options{})
	require.NoError(t, err)

	out1, err := b.CanonicalJSON()
	require.NoError(t, err)
	out2, err := b.CanonicalJSON()
	require.NoError(t, err)
	require.Equal(t, out1, out2)
	require.Equal(t, `{"a":1,"b":2}`, string(out1))
}
