package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeStoryName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase passthrough", "midnight", "midnight"},
		{"uppercase is lowered", "Midnight", "midnight"},
		{"spaces become underscores", "The Long Night", "the_long_night"},
		{"hyphens become underscores", "long-night", "long_night"},
		{"special characters are dropped", "night! (draft #2)", "night_draft_2"},
		{"consecutive separators collapse", "the  --  night", "the_night"},
		{"empty falls back to default", "", "default"},
		{"only special characters fall back", "!!!", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeStoryName(tt.input))
		})
	}
}

func TestGenerateCollectionName(t *testing.T) {
	assert.Equal(t, "saga_the_long_night", GenerateCollectionName("The Long Night"))
}

func TestSQLitePathForStory(t *testing.T) {
	path := SQLitePathForStory("/base", "The Long Night")
	assert.Equal(t, filepath.Join("/base", ".saga", "stories", "the_long_night", "story.db"), path)
}

func TestLoad(t *testing.T) {
	t.Run("missing config reports a helpful error", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file not found")
	})

	t.Run("defaults apply under a partial file", func(t *testing.T) {
		base := t.TempDir()
		dir := filepath.Join(base, DefaultConfigDir)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("qdrant:\n  host: qdrant.example\n"), 0644))

		cfg, err := Load(base)
		require.NoError(t, err)

		assert.Equal(t, "qdrant.example", cfg.Qdrant.Host)
		assert.Equal(t, 6334, cfg.Qdrant.Port)
		assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	})

	t.Run("env vars fill missing keys", func(t *testing.T) {
		base := t.TempDir()
		require.NoError(t, WriteDefault(base))
		t.Setenv("OPENAI_API_KEY", "sk-test")

		cfg, err := Load(base)
		require.NoError(t, err)

		assert.Equal(t, "sk-test", cfg.LLM.APIKey)
		assert.Equal(t, "sk-test", cfg.Embedder.APIKey)
	})
}

func TestWriteDefault(t *testing.T) {
	base := t.TempDir()

	require.NoError(t, WriteDefault(base))
	assert.True(t, Exists(base))

	// Second write refuses to clobber
	assert.Error(t, WriteDefault(base))

	// The file may hold API keys, so it is owner-only
	info, err := os.Stat(filepath.Join(base, DefaultConfigDir, DefaultConfigFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWrite(t *testing.T) {
	base := t.TempDir()

	cfg := Default()
	cfg.Qdrant.Host = "qdrant.example"
	require.NoError(t, Write(base, cfg))

	loaded, err := Load(base)
	require.NoError(t, err)
	assert.Equal(t, "qdrant.example", loaded.Qdrant.Host)
}

func TestStoriesConfig(t *testing.T) {
	base := t.TempDir()

	t.Run("missing file loads empty", func(t *testing.T) {
		cfg, err := LoadStories(base)
		require.NoError(t, err)
		assert.Empty(t, cfg.Stories)
	})

	t.Run("round trip", func(t *testing.T) {
		cfg := &StoriesConfig{}
		cfg.Add("midnight", StoryEntry{Collection: "saga_midnight", Description: "a heist"})
		require.NoError(t, cfg.Save(base))

		loaded, err := LoadStories(base)
		require.NoError(t, err)

		require.True(t, loaded.Exists("midnight"))
		collection, err := loaded.GetCollection("midnight")
		require.NoError(t, err)
		assert.Equal(t, "saga_midnight", collection)
	})

	t.Run("unknown story lists available", func(t *testing.T) {
		loaded, err := LoadStories(base)
		require.NoError(t, err)

		_, err = loaded.Get("nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "midnight")
	})
}
