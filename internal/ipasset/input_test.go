package ipasset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseAssetType(t *testing.T) {
	tests := []struct {
		in   string
		want AssetType
	}{
		{"STORY", 1},
		{"character", 2},
		{" Art ", 3},
		{"GROUP", 4},
		{"LOCATION", 5},
		{"ITEM", 6},
	}
	for _, tt := range tests {
		got, err := ParseAssetType(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseAssetType("VEHICLE")
	require.Error(t, err)
	assert.Equal(t, "CHARACTER", AssetTypeCharacter.String())
}

func TestLoadEntries(t *testing.T) {
	want := []Entry{
		{Name: "Hero", Description: "a tale", MediaURL: "https://media/hero.png", Type: "CHARACTER"},
		{Name: "Castle", Description: "a place", MediaURL: "https://media/castle.png", Type: "LOCATION"},
	}

	jsonPath := writeFile(t, "assets.json", `[
		{"name": "Hero", "description": "a tale", "mediaUrl": "https://media/hero.png", "type": "CHARACTER"},
		{"name": "Castle", "description": "a place", "mediaUrl": "https://media/castle.png", "type": "LOCATION"}
	]`)
	entries, err := LoadEntries(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, want, entries)

	yamlPath := writeFile(t, "assets.yml", `
- name: Hero
  description: a tale
  mediaUrl: https://media/hero.png
  type: CHARACTER
- name: Castle
  description: a place
  mediaUrl: https://media/castle.png
  type: LOCATION
`)
	entries, err = LoadEntries(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, want, entries)
}

func TestLoadEntriesRejectsInvalidEntries(t *testing.T) {
	path := writeFile(t, "assets.json", `[
		{"name": "Hero", "type": "CHARACTER"},
		{"name": "", "type": "CHARACTER"},
		{"name": "Car", "type": "VEHICLE"}
	]`)

	_, err := LoadEntries(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1: name is required")
	assert.Contains(t, err.Error(), "entry 2: unknown ip asset type 'VEHICLE'")
	assert.NotContains(t, err.Error(), "entry 0")
}

func TestStatePath(t *testing.T) {
	assert.Equal(t, "data/assets.json.state.json", StatePath("data/assets.json", ""))
	assert.Equal(t, "run.json", StatePath("data/assets.json", "run.json"))
}
