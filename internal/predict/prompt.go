package predict

import (
	"encoding/json"
	"strings"
	"text/template"

	"ecg-pomodoro/pkg/api"

	"github.com/tidwall/gjson"
)

type statePromptFields struct {
	MeanHrBpm float64
	RPeaks    string
	Quality   string
}

const statePrompt = `You are assisting a pomodoro timer that watches the user's ECG while they work.
Based on the ECG features below, decide whether the user is currently in a "focus" or a "stress" state.

Mean heart rate: {{ printf "%.2f" .MeanHrBpm }} bpm
R-peaks: {{ .RPeaks }}
Signal quality: {{ .Quality }}

Respond with a single JSON object and nothing else, using exactly these keys:
{"classification": "focus" or "stress", "suggestions": [short actionable suggestions], "concerns": [possible health or data-quality concerns]}`

var statePromptTmpl = template.Must(template.New("statePrompt").Parse(statePrompt))

func BuildPrompt(features api.EcgFeatures) (string, error) {
	rpeaks, err := json.Marshal(features.RPeaks)
	if err != nil {
		return "", err
	}
	quality, err := json.Marshal(features.Quality)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := statePromptTmpl.Execute(&b, statePromptFields{
		MeanHrBpm: features.HrvTime.MeanHrBpm,
		RPeaks:    string(rpeaks),
		Quality:   string(quality),
	}); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Reply is the JSON object the prompt asks the model to answer with.
type Reply struct {
	Classification string
	Suggestions    []string
	Concerns       []string
}

// ParseReply reads the JSON object requested by the prompt. Markdown code
// fences around the object are tolerated. ok is false when the reply is not a
// JSON object.
func ParseReply(reply string) (Reply, bool) {
	text := stripCodeFence(reply)
	if !gjson.Valid(text) {
		return Reply{}, false
	}
	res := gjson.Parse(text)
	if !res.IsObject() {
		return Reply{}, false
	}

	parsed := Reply{
		Classification: strings.ToLower(strings.TrimSpace(res.Get("classification").String())),
		Suggestions:    stringList(res.Get("suggestions")),
		Concerns:       stringList(res.Get("concerns")),
	}
	if parsed.Classification == "" {
		parsed.Classification = api.LabelFocus
	}
	return parsed, true
}

func stringList(res gjson.Result) []string {
	out := []string{}
	if !res.Exists() {
		return out
	}
	if !res.IsArray() {
		return append(out, res.String())
	}
	for _, v := range res.Array() {
		out = append(out, v.String())
	}
	return out
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
