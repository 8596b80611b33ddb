package main

import (
	"fmt"
	"log"
	"log/slog"

	"ecg-pomodoro/cmd"
	"ecg-pomodoro/internal/api"
	"ecg-pomodoro/internal/config"
	"ecg-pomodoro/internal/llm"
	"ecg-pomodoro/internal/predict"
)

// createPredictor picks the external model when the selected provider has a
// key configured and the heart-rate rule otherwise.
func createPredictor(cfg config.AiConfig) (predict.Predictor, error) {
	var model llm.LLM
	switch cfg.Provider {
	case config.ProviderGemini:
		if key := cfg.GeminiKey(); key != "" {
			model = llm.NewGemini(key, cfg.GeminiModel, cfg.GeminiBaseURL)
		}
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey != "" {
			model = llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		}
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER '%s', expected '%s' or '%s'", cfg.Provider, config.ProviderGemini, config.ProviderOpenAI)
	}

	if model == nil {
		slog.Warn("no API key configured for external model, using rule based predictor", "provider", cfg.Provider)
		return predict.NewRuleBased(), nil
	}

	slog.Info("using external model predictor", "provider", cfg.Provider, "model", model.Model(), "timeout", cfg.Timeout)
	return predict.NewExternalModel(model, cfg.Timeout), nil
}

func main() {
	log.Println("Starting AI service...")

	cmd.LoadEnvFile()

	cfg, err := config.Load[config.AiConfig]()
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	predictor, err := createPredictor(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize predictor: %v", err)
	}

	m := cmd.NewMetrics(cfg.ServerConfig, "ai")
	r := cmd.NewRouter(cfg.ServerConfig, m)

	api.NewAiService(predictor, m).AddRoutes(r)

	cmd.RunServer("AI service", cfg.Port, r)
}
