// Package ecg turns raw ECG segments into feature summaries.
//
// The current pipeline is a placeholder: peaks are synthesized from the
// segment length and sampling rate alone and the sample values are never
// read. A real detector can replace DeriveFeatures as long as it returns the
// same EcgFeatures shape.
package ecg

import (
	"strconv"

	"ecg-pomodoro/pkg/api"
)

const placeholderMethod = "stub"

// PlaceholderRPeaks returns one peak index per second of signal, starting at
// a half-second offset, truncated to indices below sampleCount.
func PlaceholderRPeaks(sampleCount, samplingRateHz int) []int {
	peaks := []int{}
	if samplingRateHz < 1 {
		return peaks
	}
	for i := samplingRateHz / 2; i < sampleCount; i += samplingRateHz {
		peaks = append(peaks, i)
	}
	return peaks
}

// MeanHeartRate is beats per minute over the segment duration, rounded to two
// decimals. An empty segment has a rate of 0.
func MeanHeartRate(peakCount, sampleCount, samplingRateHz int) float64 {
	if sampleCount <= 0 || samplingRateHz < 1 {
		return 0
	}
	durationSec := float64(sampleCount) / float64(samplingRateHz)
	return round2(float64(peakCount) * 60.0 / durationSec)
}

func DeriveFeatures(segment api.EcgSegment) api.EcgFeatures {
	n := len(segment.Samples)
	peaks := PlaceholderRPeaks(n, segment.SamplingRateHz)

	return api.EcgFeatures{
		SchemaVersion: api.FeaturesSchemaVersion,
		SegmentId:     segment.SegmentId,
		Quality: api.Quality{
			SignalOk:     true,
			MissingRatio: 0,
			Notes:        []string{placeholderMethod},
		},
		RPeaks: api.RPeaks{
			Indices: peaks,
			Method:  placeholderMethod,
		},
		HrvTime: api.HrvTime{
			MeanHrBpm: MeanHeartRate(len(peaks), n, segment.SamplingRateHz),
			RmssdMs:   0,
			SdnnMs:    0,
		},
	}
}

// round2 rounds the exact binary value half to even, so 59.625 gives 59.62
// and 60.074999999999996 gives 60.07.
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}
