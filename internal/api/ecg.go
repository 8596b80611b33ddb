package api

import (
	"net/http"
	"time"

	"ecg-pomodoro/internal/ecg"
	"ecg-pomodoro/internal/metrics"
	"ecg-pomodoro/pkg/api"

	"github.com/go-chi/chi/v5"
)

type EcgService struct {
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewEcgService(m *metrics.Metrics) *EcgService {
	return &EcgService{metrics: m, now: time.Now}
}

func (s *EcgService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(Health))
	r.Route("/ecg", func(r chi.Router) {
		r.Post("/features", RestHandler(s.Features))
		r.Get("/demo", RestHandler(s.DemoSegment))
	})
}

func Health(r *http.Request) (any, error) {
	return api.HealthResponse{Ok: true}, nil
}

func (s *EcgService) Features(r *http.Request) (any, error) {
	segment, err := ParseRequest[api.EcgSegment](r)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveSegment(len(segment.Samples))

	return ecg.DeriveFeatures(segment), nil
}

func (s *EcgService) DemoSegment(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.DemoSegmentParams](r)
	if err != nil {
		return nil, err
	}

	return ecg.DemoSegment(params.RateHz, params.Seconds, s.now()), nil
}
