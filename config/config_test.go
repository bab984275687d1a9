package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{Use: "xcoder"}
	InitFlags(rootCmd)
	return rootCmd
}

func TestLoadConfigs_DefaultsWithoutFile(t *testing.T) {
	viper.Reset()
	cfg := LoadConfigs(newRootCmd(), t.TempDir())

	assert.Equal(t, "project-file.txt", cfg.ProjectFile)
	assert.Equal(t, "dracula", cfg.Theme)
	assert.True(t, cfg.EnableCache)
	require.NotNil(t, cfg.AIProviderConfig)
	assert.Equal(t, "gemini", cfg.AIProviderConfig.Provider)
	assert.Equal(t, 30, cfg.AIProviderConfig.TimeoutSeconds)
}

func TestLoadConfigs_ReadsYamlFile(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	content := "project_file: docs/plan.txt\nai_provider_config:\n  provider: ollama\n  model: llama3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xcoder-config.yaml"), []byte(content), 0644))

	cfg := LoadConfigs(newRootCmd(), dir)

	assert.Equal(t, "docs/plan.txt", cfg.ProjectFile)
	assert.Equal(t, "ollama", cfg.AIProviderConfig.Provider)
	assert.Equal(t, "llama3", cfg.AIProviderConfig.Model)
	// Unset keys keep their defaults.
	assert.Equal(t, "dracula", cfg.Theme)
}

func TestLoadConfigs_DotEnvProvidesApiKey(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=test-key\n"), 0644))
	t.Setenv("GEMINI_API_KEY", "")
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))

	cfg := LoadConfigs(newRootCmd(), dir)

	assert.Equal(t, "test-key", cfg.AIProviderConfig.ApiKey)
}

func TestGetConfigFileType(t *testing.T) {
	assert.Equal(t, "json", GetConfigFileType("settings.json"))
	assert.Equal(t, "yaml", GetConfigFileType("settings.yaml"))
	assert.Equal(t, "yaml", GetConfigFileType("settings.yml"))
	assert.Equal(t, "", GetConfigFileType("settings.toml"))
}
