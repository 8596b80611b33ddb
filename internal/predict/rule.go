package predict

import (
	"context"

	"ecg-pomodoro/pkg/api"
)

const (
	RuleModelName     = "rule_stub"
	FallbackModelName = "rule_fallback"
	ruleModelVersion  = "0.0.1"
)

type RuleBased struct{}

func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

func (r *RuleBased) Predict(_ context.Context, features api.EcgFeatures) api.AiPrediction {
	return rulePrediction(features, RuleModelName)
}

func rulePrediction(features api.EcgFeatures, modelName string) api.AiPrediction {
	label := ClassifyHeartRate(features.HrvTime.MeanHrBpm)
	return api.AiPrediction{
		SchemaVersion: api.PredictionSchemaVersion,
		SegmentId:     features.SegmentId,
		Model:         api.ModelInfo{Name: modelName, Version: ruleModelVersion},
		Label:         label,
		Probabilities: Probabilities(label),
		Explain:       &api.Explain{Used: []string{meanHrFeature}},
	}
}
