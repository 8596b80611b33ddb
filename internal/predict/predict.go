// Package predict classifies ECG feature summaries into focus/stress.
package predict

import (
	"context"

	"ecg-pomodoro/pkg/api"
)

const StressThresholdBpm = 90.0

const meanHrFeature = "hrv_time.mean_hr_bpm"

type Predictor interface {
	// Predict never fails: strategies that depend on remote services fall
	// back to the heart-rate rule instead of returning an error.
	Predict(ctx context.Context, features api.EcgFeatures) api.AiPrediction
}

// ClassifyHeartRate applies the fixed threshold rule.
func ClassifyHeartRate(meanHrBpm float64) string {
	if meanHrBpm >= StressThresholdBpm {
		return api.LabelStress
	}
	return api.LabelFocus
}

// Probabilities returns the two-point distribution for a label. Labels other
// than stress get the focus-side pair.
func Probabilities(label string) map[string]float64 {
	if label == api.LabelStress {
		return map[string]float64{api.LabelFocus: 0.2, api.LabelStress: 0.8}
	}
	return map[string]float64{api.LabelFocus: 0.8, api.LabelStress: 0.2}
}
