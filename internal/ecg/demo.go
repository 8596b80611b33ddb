package ecg

import (
	"fmt"
	"math"
	"time"

	"ecg-pomodoro/pkg/api"
)

const (
	demoBaseline  = 30000.0
	demoAmplitude = 800.0
	demoFreqHz    = 1.2
	demoSpike     = 6000.0
)

// DemoSegment synthesizes a single-channel segment: a slow sine wave around
// an ADC baseline with a spike at each half-second offset, so the spikes line
// up with the placeholder peaks.
func DemoSegment(rateHz, seconds int, now time.Time) api.EcgSegment {
	n := rateHz * seconds
	samples := make([][]float64, n)
	for i := range samples {
		t := float64(i) / float64(rateHz)
		v := demoBaseline + math.Sin(2*math.Pi*demoFreqHz*t)*demoAmplitude
		if i%rateHz == rateHz/2 {
			v += demoSpike
		}
		samples[i] = []float64{math.Round(v)}
	}

	ms := now.UnixMilli()
	return api.EcgSegment{
		SchemaVersion:   api.SegmentSchemaVersion,
		SegmentId:       fmt.Sprintf("demo_%d", ms),
		SamplingRateHz:  rateHz,
		StartTimeUnixMs: ms,
		Channels:        []api.Channel{{Name: "ECG", Unit: "adc", Lead: "CH1"}},
		Samples:         samples,
	}
}
