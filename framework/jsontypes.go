package framework

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Models routinely bend the requested schema: a list arrives as a single
// string, a paragraph arrives as an array, a ranking mixes numbers with
// "Idea #3". The types below decode those shapes into the shape the pipeline
// expects instead of failing the whole record.

// StringList decodes a JSON array of scalars/objects or a single scalar into
// a list of strings. Empty entries are dropped.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] != '[' {
		text := rawText(data)
		if text == "" {
			*l = StringList{}
			return nil
		}
		*l = StringList{text}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(StringList, 0, len(items))
	for _, item := range items {
		if text := rawText(item); text != "" {
			out = append(out, text)
		}
	}
	*l = out
	return nil
}

// Join renders the list with sep, returning an empty string for a nil list.
func (l StringList) Join(sep string) string {
	return strings.Join(l, sep)
}

// Text decodes any JSON value into a single string. Arrays are joined with
// "; " and objects are kept as compact JSON.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(rawText(data))
	return nil
}

// String returns the text.
func (t Text) String() string { return string(t) }

// IdeaNumber decodes 3, 3.0, "3", "#3" and "Idea #3" alike. Anything that is
// not a whole idea number decodes to zero so the critique can still be shown.
type IdeaNumber int

var (
	ideaLabelPattern = regexp.MustCompile(`(?i)^\s*(?:idea)?\s*#?\s*(-?\d+)\s*$`)
	numberPattern    = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// UnmarshalJSON implements json.Unmarshaler.
func (n *IdeaNumber) UnmarshalJSON(data []byte) error {
	v, ok := parseIdeaNumber(data)
	if !ok {
		*n = 0
		return nil
	}
	*n = IdeaNumber(v)
	return nil
}

// Ranking is an ordered list of idea numbers, strongest first.
type Ranking []int

// UnmarshalJSON implements json.Unmarshaler. Every element is kept: one that
// is not a whole idea number (a fraction, "n/a", an object) decodes to 0,
// which is never a valid idea number, so ranking validation reports it
// instead of the entry silently vanishing.
func (r *Ranking) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(Ranking, 0, len(items))
		for _, item := range items {
			v, _ := parseIdeaNumber(item)
			out = append(out, v)
		}
		*r = out
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		out := Ranking{}
		for _, m := range numberPattern.FindAllString(s, -1) {
			v, err := strconv.Atoi(m)
			if err != nil {
				v = 0
			}
			out = append(out, v)
		}
		*r = out
	default:
		v, _ := parseIdeaNumber(data)
		*r = Ranking{v}
	}
	return nil
}

// parseIdeaNumber accepts whole numbers within int32 range, as JSON numbers or
// as labels like "3" and "Idea #3".
func parseIdeaNumber(raw []byte) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		m := ideaLabelPattern.FindStringSubmatch(s)
		if m == nil {
			return 0, false
		}
		v, err := strconv.ParseInt(m[1], 10, 32)
		return int(v), err == nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func rawText(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return ""
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if text := rawText(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "; ")
	case '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return string(raw)
		}
		return buf.String()
	default:
		return string(raw)
	}
}
