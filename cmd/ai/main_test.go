package main

import (
	"testing"

	"ecg-pomodoro/internal/config"
	"ecg-pomodoro/internal/predict"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePredictor(t *testing.T) {
	t.Run("NoKeyUsesRule", func(t *testing.T) {
		p, err := createPredictor(config.AiConfig{Provider: config.ProviderGemini})
		require.NoError(t, err)
		assert.IsType(t, &predict.RuleBased{}, p)
	})

	t.Run("GeminiKey", func(t *testing.T) {
		p, err := createPredictor(config.AiConfig{Provider: config.ProviderGemini, GoogleAPIKey: "key"})
		require.NoError(t, err)
		assert.IsType(t, &predict.ExternalModel{}, p)
	})

	t.Run("OpenAIKey", func(t *testing.T) {
		p, err := createPredictor(config.AiConfig{Provider: config.ProviderOpenAI, OpenAIAPIKey: "sk-test"})
		require.NoError(t, err)
		assert.IsType(t, &predict.ExternalModel{}, p)
	})

	t.Run("OpenAIProviderIgnoresGeminiKey", func(t *testing.T) {
		p, err := createPredictor(config.AiConfig{Provider: config.ProviderOpenAI, GeminiAPIKey: "key"})
		require.NoError(t, err)
		assert.IsType(t, &predict.RuleBased{}, p)
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		_, err := createPredictor(config.AiConfig{Provider: "bedrock"})
		assert.Error(t, err)
	})
}
