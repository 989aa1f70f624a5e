package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content. The qdrant
// collection here is only a fallback: each story registered in stories.yaml
// carries its own saga_<name> collection.
const DefaultConfigYAML = `# Saga configuration.
#
# This file holds shared infrastructure settings. Story data lives under
# .saga/stories/<name>/story.db, and the story registry next to this file
# in stories.yaml.

llm:
  provider: openai
  model: gpt-4o-mini
  # api_key: your-api-key (or set OPENAI_API_KEY env var)

embedder:
  provider: openai
  model: text-embedding-3-small
  # api_key: your-api-key (or set OPENAI_API_KEY env var)

qdrant:
  host: localhost
  port: 6334
  # Fallback collection; stories get their own saga_<name> collection.
  collection: saga_snippets
  # api_key: your-api-key (for Qdrant Cloud)
`

// WriteDefault creates the .saga directory and writes a default config file.
// It refuses to overwrite an existing config.
func WriteDefault(basePath string) error {
	configFile, err := ensureConfigDir(basePath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	return writeConfigFile(configFile, []byte(DefaultConfigYAML))
}

// Write writes the given config to the config file, replacing any existing
// content.
func Write(basePath string, cfg *Config) error {
	configFile, err := ensureConfigDir(basePath)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return writeConfigFile(configFile, data)
}

// ensureConfigDir creates the .saga directory and returns the config file
// path inside it.
func ensureConfigDir(basePath string) (string, error) {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return filepath.Join(configDir, DefaultConfigFile), nil
}

// writeConfigFile writes the config with owner-only permissions, since the
// file may hold API keys.
func writeConfigFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
