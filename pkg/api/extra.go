package api

import (
	"encoding/json"
	"math"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Open-mapping records decode their known keys into struct fields and keep
// everything else in Extra so it is written back out unchanged. A known key
// whose value does not fit its field is kept in Extra too, and an Extra entry
// replaces the declared field of the same name when encoding.

func decodeWithExtra(data []byte, dst any, known ...string) (map[string]any, error) {
	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		return nil, nil
	}
	if !res.IsObject() {
		return nil, &json.UnmarshalTypeError{Value: jsonKind(res), Type: reflect.TypeOf(dst).Elem()}
	}

	var extra map[string]any
	res.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if slices.Contains(known, name) && decodeMember(dst, key, value) {
			return true
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[name] = value.Value()
		return true
	})
	return extra, nil
}

// decodeMember sets the field for a single key of an open mapping. Numeric
// strings are accepted for number fields. dst is left untouched when the
// value does not fit.
func decodeMember(dst any, key, value gjson.Result) bool {
	if tryDecode(dst, memberObject(key.Raw, value.Raw)) {
		return true
	}
	if value.Type != gjson.String {
		return false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	return tryDecode(dst, memberObject(key.Raw, strconv.FormatFloat(f, 'g', -1, 64)))
}

func tryDecode(dst any, member []byte) bool {
	scratch := reflect.New(reflect.TypeOf(dst).Elem()).Interface()
	if json.Unmarshal(member, scratch) != nil {
		return false
	}
	return json.Unmarshal(member, dst) == nil
}

func memberObject(rawKey, rawValue string) []byte {
	out := make([]byte, 0, len(rawKey)+len(rawValue)+3)
	out = append(out, '{')
	out = append(out, rawKey...)
	out = append(out, ':')
	out = append(out, rawValue...)
	return append(out, '}')
}

func encodeWithExtra(v any, extra map[string]any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if data, err = sjson.SetBytes(data, escapePath(k), extra[k]); err != nil {
			return nil, err
		}
	}
	return data, nil
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`!`, `\!`,
)

func escapePath(key string) string {
	return pathEscaper.Replace(key)
}

func jsonKind(res gjson.Result) string {
	switch res.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "bool"
	default:
		if res.IsArray() {
			return "array"
		}
		return "value"
	}
}

func (q *Quality) UnmarshalJSON(data []byte) error {
	type alias Quality
	var a alias
	extra, err := decodeWithExtra(data, &a, "signal_ok", "missing_ratio", "notes")
	if err != nil {
		return err
	}
	*q = Quality(a)
	q.Extra = extra
	return nil
}

func (q Quality) MarshalJSON() ([]byte, error) {
	type alias Quality
	return encodeWithExtra(alias(q), q.Extra)
}

func (p *RPeaks) UnmarshalJSON(data []byte) error {
	type alias RPeaks
	var a alias
	extra, err := decodeWithExtra(data, &a, "indices", "method")
	if err != nil {
		return err
	}
	*p = RPeaks(a)
	p.Extra = extra
	return nil
}

func (p RPeaks) MarshalJSON() ([]byte, error) {
	type alias RPeaks
	return encodeWithExtra(alias(p), p.Extra)
}

func (h *HrvTime) UnmarshalJSON(data []byte) error {
	type alias HrvTime
	var a alias
	extra, err := decodeWithExtra(data, &a, "mean_hr_bpm", "rmssd_ms", "sdnn_ms")
	if err != nil {
		return err
	}
	*h = HrvTime(a)
	h.Extra = extra
	return nil
}

func (h HrvTime) MarshalJSON() ([]byte, error) {
	type alias HrvTime
	return encodeWithExtra(alias(h), h.Extra)
}

func (m *ModelInfo) UnmarshalJSON(data []byte) error {
	type alias ModelInfo
	var a alias
	extra, err := decodeWithExtra(data, &a, "name", "version")
	if err != nil {
		return err
	}
	*m = ModelInfo(a)
	m.Extra = extra
	return nil
}

func (m ModelInfo) MarshalJSON() ([]byte, error) {
	type alias ModelInfo
	return encodeWithExtra(alias(m), m.Extra)
}

func (e *Explain) UnmarshalJSON(data []byte) error {
	type alias Explain
	var a alias
	extra, err := decodeWithExtra(data, &a, "used", "suggestions", "concerns", "mean_hr_bpm", "error")
	if err != nil {
		return err
	}
	*e = Explain(a)
	e.Extra = extra
	return nil
}

func (e Explain) MarshalJSON() ([]byte, error) {
	type alias Explain
	data, err := encodeWithExtra(alias(e), e.Extra)
	if err != nil {
		return nil, err
	}

	// a non-nil empty list means "none" and is written as []
	for _, list := range []struct {
		key    string
		values []string
	}{{"suggestions", e.Suggestions}, {"concerns", e.Concerns}} {
		if list.values == nil || len(list.values) > 0 {
			continue
		}
		if data, err = sjson.SetRawBytes(data, list.key, []byte("[]")); err != nil {
			return nil, err
		}
	}
	return data, nil
}
