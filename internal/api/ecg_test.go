package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	backend "ecg-pomodoro/internal/api"
	"ecg-pomodoro/internal/metrics"
	"ecg-pomodoro/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ecgRouter() chi.Router {
	router := chi.NewRouter()
	backend.NewEcgService(metrics.New("ecg")).AddRoutes(router)
	return router
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeValidation(t *testing.T, rec *httptest.ResponseRecorder) []api.FieldError {
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "recieved response: "+rec.Body.String())
	var res api.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Detail)
	return res.Detail
}

func segmentBody(t *testing.T, n, rate int) string {
	samples := make([][]float64, n)
	for i := range samples {
		samples[i] = []float64{30000}
	}
	body, err := json.Marshal(api.EcgSegment{
		SchemaVersion:   api.SegmentSchemaVersion,
		SegmentId:       "demo_1700000000000",
		SamplingRateHz:  rate,
		StartTimeUnixMs: 1700000000000,
		Channels:        []api.Channel{{Name: "ECG", Unit: "adc", Lead: "CH1"}},
		Samples:         samples,
	})
	require.NoError(t, err)
	return string(body)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	ecgRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())
}

func TestEcgFeatures(t *testing.T) {
	rec := post(ecgRouter(), "/ecg/features", segmentBody(t, 1400, 700))

	require.Equal(t, http.StatusOK, rec.Code, "recieved response: "+rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"schema_version": "ecg-feat/v1",
		"segment_id": "demo_1700000000000",
		"quality": {"signal_ok": true, "missing_ratio": 0.0, "notes": ["stub"]},
		"rpeaks": {"indices": [350, 1050], "method": "stub"},
		"hrv_time": {"mean_hr_bpm": 60.0, "rmssd_ms": 0.0, "sdnn_ms": 0.0}
	}`, rec.Body.String())
}

func TestEcgFeaturesEmptySegment(t *testing.T) {
	body := `{"segment_id": "empty", "sampling_rate_hz": 250, "start_time_unix_ms": 0, "channels": [], "samples": []}`
	rec := post(ecgRouter(), "/ecg/features", body)

	require.Equal(t, http.StatusOK, rec.Code, "recieved response: "+rec.Body.String())
	var features api.EcgFeatures
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &features))
	assert.Equal(t, "empty", features.SegmentId)
	assert.Empty(t, features.RPeaks.Indices)
	assert.Equal(t, 0.0, features.HrvTime.MeanHrBpm)
	assert.Contains(t, rec.Body.String(), `"indices":[]`)
}

func TestEcgFeaturesValidation(t *testing.T) {
	router := ecgRouter()

	t.Run("MissingSamplingRate", func(t *testing.T) {
		body := `{"segment_id": "s", "start_time_unix_ms": 1, "channels": [{"name": "ECG", "unit": "adc"}], "samples": [[1]]}`
		detail := decodeValidation(t, post(router, "/ecg/features", body))

		require.Len(t, detail, 1)
		assert.Equal(t, []any{"body", "sampling_rate_hz"}, detail[0].Loc)
		assert.Equal(t, "value_error.missing", detail[0].Type)
	})

	t.Run("ZeroSamplingRate", func(t *testing.T) {
		detail := decodeValidation(t, post(router, "/ecg/features", segmentBody(t, 10, 0)))

		require.Len(t, detail, 1)
		assert.Equal(t, []any{"body", "sampling_rate_hz"}, detail[0].Loc)
		assert.Equal(t, "value_error.number.not_ge", detail[0].Type)
	})

	t.Run("EveryMissingFieldReported", func(t *testing.T) {
		body := `{"sampling_rate_hz": 700, "start_time_unix_ms": 1, "channels": [{"name": "ECG"}, {"unit": "mV", "name": null}], "samples": []}`
		detail := decodeValidation(t, post(router, "/ecg/features", body))

		locs := make([][]any, len(detail))
		for i, d := range detail {
			locs[i] = d.Loc
		}
		assert.ElementsMatch(t, [][]any{
			{"body", "segment_id"},
			{"body", "channels", 0.0, "unit"},
			{"body", "channels", 1.0, "name"},
		}, locs)
	})

	t.Run("WrongType", func(t *testing.T) {
		body := `{"segment_id": "s", "sampling_rate_hz": "fast", "start_time_unix_ms": 1, "channels": [], "samples": []}`
		detail := decodeValidation(t, post(router, "/ecg/features", body))

		require.Len(t, detail, 1)
		assert.Equal(t, []any{"body", "sampling_rate_hz"}, detail[0].Loc)
		assert.Equal(t, "type_error", detail[0].Type)
	})

	t.Run("MissingFieldAndOutOfRange", func(t *testing.T) {
		body := `{"sampling_rate_hz": 0, "start_time_unix_ms": 1, "channels": [{"name": "ECG", "unit": "adc"}], "samples": [[1]]}`
		detail := decodeValidation(t, post(router, "/ecg/features", body))

		require.Len(t, detail, 2, "recieved detail: %+v", detail)
		assert.ElementsMatch(t, []string{"value_error.missing", "value_error.number.not_ge"}, []string{detail[0].Type, detail[1].Type})
		assert.ElementsMatch(t, [][]any{{"body", "segment_id"}, {"body", "sampling_rate_hz"}}, [][]any{detail[0].Loc, detail[1].Loc})
	})

	t.Run("SeveralWrongTypes", func(t *testing.T) {
		body := `{"segment_id": 5, "sampling_rate_hz": "fast", "start_time_unix_ms": "x", "channels": [], "samples": []}`
		detail := decodeValidation(t, post(router, "/ecg/features", body))

		locs := make([][]any, len(detail))
		for i, d := range detail {
			locs[i] = d.Loc
			assert.Equal(t, "type_error", d.Type)
		}
		assert.ElementsMatch(t, [][]any{
			{"body", "segment_id"},
			{"body", "sampling_rate_hz"},
			{"body", "start_time_unix_ms"},
		}, locs)
	})

	t.Run("MissingChannelsSkipsRowWidth", func(t *testing.T) {
		body := `{"segment_id": "s", "sampling_rate_hz": 2, "start_time_unix_ms": 1, "samples": [[1], [2]]}`
		detail := decodeValidation(t, post(router, "/ecg/features", body))

		require.Len(t, detail, 1)
		assert.Equal(t, []any{"body", "channels"}, detail[0].Loc)
	})

	t.Run("TooLarge", func(t *testing.T) {
		body := `{"segment_id": "` + strings.Repeat("x", 32<<20) + `"}`
		rec := post(router, "/ecg/features", body)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("WrongSchemaVersion", func(t *testing.T) {
		body := strings.Replace(segmentBody(t, 3, 700), "ecg-seg/v1", "ecg-seg/v2", 1)
		detail := decodeValidation(t, post(router, "/ecg/features", body))

		require.Len(t, detail, 1)
		assert.Equal(t, []any{"body", "schema_version"}, detail[0].Loc)
		assert.Equal(t, "value_error.const", detail[0].Type)
	})

	t.Run("RowWidth", func(t *testing.T) {
		body := `{"segment_id": "s", "sampling_rate_hz": 2, "start_time_unix_ms": 1, "channels": [{"name": "ECG", "unit": "adc"}], "samples": [[1], [1, 2]]}`
		detail := decodeValidation(t, post(router, "/ecg/features", body))

		require.Len(t, detail, 1)
		assert.Equal(t, []any{"body", "samples", 1.0}, detail[0].Loc)
		assert.Equal(t, "value_error.shape", detail[0].Type)
	})

	t.Run("InvalidJson", func(t *testing.T) {
		detail := decodeValidation(t, post(router, "/ecg/features", `{"segment_id": `))
		assert.Equal(t, []any{"body"}, detail[0].Loc)
	})

	t.Run("NotAnObject", func(t *testing.T) {
		detail := decodeValidation(t, post(router, "/ecg/features", `[1, 2, 3]`))
		assert.Equal(t, "type_error.dict", detail[0].Type)
	})
}

func TestEcgDemoSegment(t *testing.T) {
	router := ecgRouter()

	t.Run("Defaults", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ecg/demo", nil))

		require.Equal(t, http.StatusOK, rec.Code, "recieved response: "+rec.Body.String())
		var segment api.EcgSegment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &segment))
		assert.Equal(t, 700, segment.SamplingRateHz)
		assert.Len(t, segment.Samples, 3500)
		assert.True(t, strings.HasPrefix(segment.SegmentId, "demo_"))

		// the generated segment is accepted by the features endpoint
		feat := post(router, "/ecg/features", rec.Body.String())
		assert.Equal(t, http.StatusOK, feat.Code)
	})

	t.Run("CustomParams", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ecg/demo?rate=100&seconds=2", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var segment api.EcgSegment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &segment))
		assert.Equal(t, 100, segment.SamplingRateHz)
		assert.Len(t, segment.Samples, 200)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ecg/demo?seconds=600", nil))

		detail := decodeValidation(t, rec)
		assert.Equal(t, []any{"query", "seconds"}, detail[0].Loc)
	})

	t.Run("NotANumber", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ecg/demo?rate=fast", nil))

		detail := decodeValidation(t, rec)
		assert.Equal(t, []any{"query", "rate"}, detail[0].Loc)
	})
}

func TestEcgMetricsEndpointCountsSegments(t *testing.T) {
	m := metrics.New("ecg")
	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Handle("/metrics", m.Handler())
	backend.NewEcgService(m).AddRoutes(router)

	post(router, "/ecg/features", segmentBody(t, 700, 700))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `ecg_pomodoro_segments_processed_total{service="ecg"} 1`)
	assert.True(t, bytes.Contains(rec.Body.Bytes(), []byte(`route="/ecg/features"`)))
}
