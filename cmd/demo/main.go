// Command demo chains the two services the way the front end does: it asks
// the ECG service for a synthetic segment, turns it into features and sends
// those to the AI service for a prediction.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"ecg-pomodoro/pkg/api"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type pipelineResult struct {
	Features   api.EcgFeatures  `json:"features"`
	Prediction api.AiPrediction `json:"prediction"`
}

func postJson[T any](ctx context.Context, client *resty.Client, url, requestId string, body any) (T, error) {
	var out T
	res, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-Id", requestId).
		SetBody(body).
		SetResult(&out).
		Post(url)
	if err != nil {
		return out, fmt.Errorf("request to %s failed: %w", url, err)
	}
	if !res.IsSuccess() {
		return out, fmt.Errorf("HTTP %d at %s: %s", res.StatusCode(), url, res.String())
	}
	return out, nil
}

func runPipeline(ctx context.Context, client *resty.Client, ecgURL, aiURL string, rate, seconds int) (pipelineResult, error) {
	requestId := uuid.NewString()

	var segment api.EcgSegment
	res, err := client.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", requestId).
		SetQueryParams(map[string]string{"rate": strconv.Itoa(rate), "seconds": strconv.Itoa(seconds)}).
		SetResult(&segment).
		Get(ecgURL + "/ecg/demo")
	if err != nil {
		return pipelineResult{}, fmt.Errorf("error fetching demo segment: %w", err)
	}
	if !res.IsSuccess() {
		return pipelineResult{}, fmt.Errorf("HTTP %d at %s/ecg/demo: %s", res.StatusCode(), ecgURL, res.String())
	}

	features, err := postJson[api.EcgFeatures](ctx, client, ecgURL+"/ecg/features", requestId, segment)
	if err != nil {
		return pipelineResult{}, err
	}

	prediction, err := postJson[api.AiPrediction](ctx, client, aiURL+"/ai/predict", requestId, features)
	if err != nil {
		return pipelineResult{}, err
	}

	return pipelineResult{Features: features, Prediction: prediction}, nil
}

func main() {
	ecgURL := flag.String("ecg", "http://127.0.0.1:8001", "base url of the ECG service")
	aiURL := flag.String("ai", "http://127.0.0.1:8002", "base url of the AI service")
	rate := flag.Int("rate", 700, "sampling rate of the demo segment in Hz")
	seconds := flag.Int("seconds", 5, "length of the demo segment in seconds")
	timeout := flag.Duration("timeout", 60*time.Second, "overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := runPipeline(ctx, resty.New(), *ecgURL, *aiURL, *rate, *seconds)
	if err != nil {
		log.Fatalf("demo pipeline failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("error writing result: %v", err)
	}
}
