package api

import (
	"log/slog"
	"net/http"
	"time"

	"ecg-pomodoro/internal/metrics"
	"ecg-pomodoro/internal/predict"
	"ecg-pomodoro/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type AiService struct {
	predictor predict.Predictor
	metrics   *metrics.Metrics
}

func NewAiService(predictor predict.Predictor, m *metrics.Metrics) *AiService {
	return &AiService{predictor: predictor, metrics: m}
}

func (s *AiService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(Health))
	r.Route("/ai", func(r chi.Router) {
		r.Post("/predict", RestHandler(s.Predict))
	})
}

func (s *AiService) Predict(r *http.Request) (any, error) {
	features, err := ParseRequest[api.EcgFeatures](r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pred := s.predictor.Predict(r.Context(), features)
	elapsed := time.Since(start)

	s.metrics.ObservePrediction(pred.Model.Name, pred.Label, pred.Model.Name == predict.FallbackModelName, elapsed)
	slog.Debug("prediction", "segment_id", pred.SegmentId, "model", pred.Model.Name, "label", pred.Label, "elapsed", elapsed, "request_id", middleware.GetReqID(r.Context()))

	return pred, nil
}
