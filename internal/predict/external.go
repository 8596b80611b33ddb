package predict

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ecg-pomodoro/internal/llm"
	"ecg-pomodoro/pkg/api"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	externalModelVersion = "1.0.0"
	maxRawReplyChars     = 200
)

// ExternalModel asks a generative model for the classification and degrades
// to the heart-rate rule whenever the model cannot be reached or answers
// with something unusable.
type ExternalModel struct {
	llm     llm.LLM
	timeout time.Duration
}

func NewExternalModel(model llm.LLM, timeout time.Duration) *ExternalModel {
	return &ExternalModel{llm: model, timeout: timeout}
}

func (e *ExternalModel) Predict(ctx context.Context, features api.EcgFeatures) (pred api.AiPrediction) {
	defer func() {
		if r := recover(); r != nil {
			pred = e.fallback(ctx, features, fmt.Errorf("panic during prediction: %v", r))
		}
	}()

	prompt, err := BuildPrompt(features)
	if err != nil {
		return e.fallback(ctx, features, fmt.Errorf("error building prompt: %w", err))
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	reply, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		return e.fallback(ctx, features, err)
	}

	meanHr := features.HrvTime.MeanHrBpm
	explain := &api.Explain{MeanHrBpm: &meanHr}

	var label string
	if parsed, ok := ParseReply(reply); ok {
		label = parsed.Classification
		explain.Suggestions = parsed.Suggestions
		explain.Concerns = parsed.Concerns
	} else {
		slog.Warn("unparseable model reply, using heart rate rule for label", "model", e.llm.Model(), "request_id", middleware.GetReqID(ctx))
		label = ClassifyHeartRate(meanHr)
		explain.Suggestions = []string{truncate(reply, maxRawReplyChars)}
		explain.Concerns = []string{}
	}

	return api.AiPrediction{
		SchemaVersion: api.PredictionSchemaVersion,
		SegmentId:     features.SegmentId,
		Model:         api.ModelInfo{Name: e.llm.Model(), Version: externalModelVersion},
		Label:         label,
		Probabilities: Probabilities(label),
		Explain:       explain,
	}
}

func (e *ExternalModel) fallback(ctx context.Context, features api.EcgFeatures, err error) api.AiPrediction {
	slog.Warn("external model failed, falling back to rule", "model", e.llm.Model(), "error", err, "request_id", middleware.GetReqID(ctx))
	pred := rulePrediction(features, FallbackModelName)
	pred.Explain.Error = err.Error()
	return pred
}
