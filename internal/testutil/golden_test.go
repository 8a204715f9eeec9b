package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDiagnostics(t *testing.T) {
	diags, err := DecodeDiagnostics(`{"code":"E_TYPE","message":"m"}` + "\n")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "E_TYPE", diags[0]["code"])

	diags, err = DecodeDiagnostics(`[{"code":"E_LEX"},{"code":"E_PARSE"}]`)
	require.NoError(t, err)
	assert.Len(t, diags, 2)

	_, err = DecodeDiagnostics("error[E_LEX]: nope")
	assert.Error(t, err)
}

func TestIsSubset(t *testing.T) {
	actual := map[string]any{
		"code": "E_UNDECLARED",
		"span": map[string]any{"startLine": 1.0, "startCol": 3.0},
	}
	assert.True(t, IsSubset(map[string]any{"code": "E_UNDECLARED"}, actual))
	assert.True(t, IsSubset(map[string]any{"span": map[string]any{"startCol": 3.0}}, actual))
	assert.False(t, IsSubset(map[string]any{"code": "E_TYPE"}, actual))
	assert.False(t, IsSubset(map[string]any{"hint": "x"}, actual))
}

func TestResolveArgs(t *testing.T) {
	got := ResolveArgs("dir", []string{"run", "--json", "program.doug", "-"})
	assert.Equal(t, []string{"run", "--json", filepath.Join("dir", "program.doug"), "-"}, got)
}
