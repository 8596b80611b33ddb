package api

import "fmt"

const (
	SegmentSchemaVersion    = "ecg-seg/v1"
	FeaturesSchemaVersion   = "ecg-feat/v1"
	PredictionSchemaVersion = "ai-pred/v1"
)

const (
	LabelFocus  = "focus"
	LabelStress = "stress"
)

type HealthResponse struct {
	Ok bool `json:"ok"`
}

type Channel struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
	Lead string `json:"lead,omitempty"`
}

// EcgSegment is a short multi-channel ECG window. Samples has shape [N, C]
// where C is len(Channels).
type EcgSegment struct {
	SchemaVersion   string      `json:"schema_version" validate:"omitempty,eq=ecg-seg/v1"`
	SegmentId       string      `json:"segment_id"`
	SamplingRateHz  int         `json:"sampling_rate_hz" validate:"min=1"`
	StartTimeUnixMs int64       `json:"start_time_unix_ms"`
	Channels        []Channel   `json:"channels"`
	Samples         [][]float64 `json:"samples"`
}

func (EcgSegment) RequiredFields() []string {
	return []string{
		"segment_id",
		"sampling_rate_hz",
		"start_time_unix_ms",
		"channels",
		"samples",
		"channels.*.name",
		"channels.*.unit",
	}
}

func (s *EcgSegment) SetDefaults() {
	if s.SchemaVersion == "" {
		s.SchemaVersion = SegmentSchemaVersion
	}
}

// Validate checks that every sample row carries one reading per channel.
// Rows are not checked when channels is absent.
func (s EcgSegment) Validate() []FieldError {
	if s.Channels == nil {
		return nil
	}
	var errs []FieldError
	for i, row := range s.Samples {
		if len(row) != len(s.Channels) {
			errs = append(errs, FieldError{
				Loc:  []any{"body", "samples", i},
				Msg:  fmt.Sprintf("row has %d values but segment declares %d channels", len(row), len(s.Channels)),
				Type: "value_error.shape",
			})
		}
	}
	return errs
}

type Quality struct {
	SignalOk     bool     `json:"signal_ok"`
	MissingRatio float64  `json:"missing_ratio"`
	Notes        []string `json:"notes"`

	Extra map[string]any `json:"-"`
}

type RPeaks struct {
	Indices []int  `json:"indices"`
	Method  string `json:"method"`

	Extra map[string]any `json:"-"`
}

type HrvTime struct {
	MeanHrBpm float64 `json:"mean_hr_bpm"`
	RmssdMs   float64 `json:"rmssd_ms"`
	SdnnMs    float64 `json:"sdnn_ms"`

	Extra map[string]any `json:"-"`
}

type EcgFeatures struct {
	SchemaVersion string  `json:"schema_version" validate:"omitempty,eq=ecg-feat/v1"`
	SegmentId     string  `json:"segment_id"`
	Quality       Quality `json:"quality"`
	RPeaks        RPeaks  `json:"rpeaks"`
	HrvTime       HrvTime `json:"hrv_time"`
}

func (EcgFeatures) RequiredFields() []string {
	return []string{"segment_id", "quality", "rpeaks", "hrv_time"}
}

func (f *EcgFeatures) SetDefaults() {
	if f.SchemaVersion == "" {
		f.SchemaVersion = FeaturesSchemaVersion
	}
}

type ModelInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`

	Extra map[string]any `json:"-"`
}

// Explain carries diagnostics whose shape depends on the predictor that
// produced the result.
type Explain struct {
	Used        []string `json:"used,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Concerns    []string `json:"concerns,omitempty"`
	MeanHrBpm   *float64 `json:"mean_hr_bpm,omitempty"`
	Error       string   `json:"error,omitempty"`

	Extra map[string]any `json:"-"`
}

type AiPrediction struct {
	SchemaVersion string             `json:"schema_version"`
	SegmentId     string             `json:"segment_id"`
	Model         ModelInfo          `json:"model"`
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities"`
	Explain       *Explain           `json:"explain,omitempty"`
}

type DemoSegmentParams struct {
	RateHz  int `schema:"rate,default:700" validate:"min=1,max=10000"`
	Seconds int `schema:"seconds,default:5" validate:"min=1,max=60"`
}

// FieldError mirrors one entry of a 422 response body.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

type ValidationErrorResponse struct {
	Detail []FieldError `json:"detail"`
}
