package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_OpenAIConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("OPENAI_API_KEY", "sk-test")
	os.Setenv("OPENAI_MODEL", "gpt-4o")
	os.Setenv("OPENAI_MAX_RETRIES", "5")
	os.Setenv("OPENAI_TEMPERATURE", "0.7")
	defer func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("OPENAI_MODEL")
		os.Unsetenv("OPENAI_MAX_RETRIES")
		os.Unsetenv("OPENAI_TEMPERATURE")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 5, cfg.OpenAI.MaxRetries)
	assert.Equal(t, 0.7, cfg.OpenAI.Temperature)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("OPENAI_MODEL")
	os.Unsetenv("PROTOCOL_REFERENCE_PATH")
	os.Unsetenv("EGFR_CONTRAINDICATION_THRESHOLD")
	os.Unsetenv("BATCH_INPUT_PATH")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "gpt-4-turbo-preview", cfg.OpenAI.Model)
	assert.Equal(t, 3, cfg.OpenAI.MaxRetries)
	assert.Equal(t, "data/protocol_reference.csv", cfg.Reference.Path)
	assert.Equal(t, 300, cfg.Reference.CacheTTLSeconds)
	assert.Equal(t, float64(30), cfg.Policy.EGFRContraindicationThreshold)
	assert.Equal(t, "data/input.csv", cfg.Batch.InputPath)
	assert.Equal(t, "data/output.csv", cfg.Batch.OutputPath)
}

func TestLoad_PolicyThresholdOverride(t *testing.T) {
	os.Setenv("EGFR_CONTRAINDICATION_THRESHOLD", "45")
	defer os.Unsetenv("EGFR_CONTRAINDICATION_THRESHOLD")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, float64(45), cfg.Policy.EGFRContraindicationThreshold)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	os.Setenv("REFERENCE_CACHE_TTL_SECONDS", "not-a-number")
	defer os.Unsetenv("REFERENCE_CACHE_TTL_SECONDS")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 300, cfg.Reference.CacheTTLSeconds)
}
