package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
prompt: "doug> "
pretty: true
prelude:
  answer: 42
  half: 0.5
log:
  level: debug
  development: true
`))
	require.NoError(t, err)
	assert.Equal(t, "doug> ", cfg.Prompt)
	assert.True(t, cfg.Pretty)
	assert.Equal(t, map[string]float64{"answer": 42, "half": 0.5}, cfg.Prelude)
	assert.Equal(t, LogConfig{Level: "debug", Development: true}, cfg.Log)
}

func TestDecodeEmptyGivesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("promt: oops\n"))
	assert.Error(t, err)
}

func TestDecodeRejectsBadPrelude(t *testing.T) {
	_, err := Decode(strings.NewReader("prelude:\n  x: notanumber\n"))
	assert.Error(t, err)
}

func TestLoadPrefersProjectFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".doug"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".doug", "config.yaml"), []byte("prompt: user\n"), 0o644))

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectFile), []byte("prompt: project\n"), 0o644))

	cfg, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, "project", cfg.Prompt)
	assert.Equal(t, filepath.Join(project, ProjectFile), cfg.Path)
}

func TestLoadFallsBackToUserFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".doug"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".doug", "config.yaml"), []byte("prompt: user\n"), 0o644))

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "user", cfg.Prompt)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompt, cfg.Prompt)
	assert.Empty(t, cfg.Path)
}

func TestLoadMalformedProjectFileIsAnError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectFile), []byte("prompt: [\n"), 0o644))

	_, err := Load(project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ProjectFile)
}
