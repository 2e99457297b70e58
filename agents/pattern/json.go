package pattern

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lexcodex/swarmcouncil/internal/metrics"
)

// Strategy names the cascade tier that produced a parsed object.
type Strategy string

const (
	StrategyFenced         Strategy = "fenced"
	StrategyBalanced       Strategy = "balanced"
	StrategySpan           Strategy = "span"
	StrategyRepairNewlines Strategy = "repaired_newlines"
	StrategyRepairEscapes  Strategy = "repaired_escapes"
	strategyFailed         Strategy = "failed"
)

var (
	// ErrNoJSON means the response does not contain a single '{'.
	ErrNoJSON = errors.New("no JSON object in response")
	// ErrInvalidJSON means every candidate object failed to parse.
	ErrInvalidJSON = errors.New("no parseable JSON object in response")
)

// ParseError reports a response that yielded no structured object.
type ParseError struct {
	Schema     string
	Reason     error
	Candidates int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v (%d candidates tried)", e.Schema, e.Reason, e.Candidates)
}

func (e *ParseError) Unwrap() error { return e.Reason }

// Parsed is a JSON object recovered from model text.
type Parsed struct {
	Object   json.RawMessage
	Fields   map[string]json.RawMessage
	Strategy Strategy
	// Missing lists required schema fields that are absent or null.
	Missing []string
	schema  Schema
}

// Decode unmarshals the object into out.
func (p *Parsed) Decode(out any) error {
	if err := json.Unmarshal(p.Object, out); err != nil {
		return fmt.Errorf("decode %s object: %w", p.schema.Name, err)
	}
	return nil
}

// Known reports whether the object carries at least one schema field.
func (p *Parsed) Known() bool {
	return p.schema.Known(p.Fields)
}

var fencedPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Parse recovers a JSON object from raw using, in order: fenced code blocks,
// balanced brace spans (longest first), the first '{' to last '}' span, and
// finally the same candidates after newline and escape repairs. Every tier
// prefers an object carrying a schema field; an object without one is
// returned only when no tier finds a better candidate.
func Parse(raw string, schema Schema) (*Parsed, error) {
	parsed, tried, err := parse(raw, schema)
	if err != nil {
		metrics.ParseOutcomes.WithLabelValues(schema.Name, string(strategyFailed)).Inc()
		return nil, &ParseError{Schema: schema.Name, Reason: err, Candidates: tried}
	}
	metrics.ParseOutcomes.WithLabelValues(schema.Name, string(parsed.Strategy)).Inc()
	return parsed, nil
}

func parse(raw string, schema Schema) (*Parsed, int, error) {
	if !strings.Contains(raw, "{") {
		return nil, 0, ErrNoJSON
	}
	tried := 0
	var candidates []string
	// fallback is the first object that decoded but carried no schema field;
	// it is only returned when no later tier finds a recognizable one.
	var fallback *Parsed
	accept := func(p *Parsed, strategy Strategy) bool {
		p.Strategy = strategy
		if p.Known() {
			return true
		}
		if fallback == nil {
			fallback = p
		}
		return false
	}

	for _, m := range fencedPattern.FindAllStringSubmatch(raw, -1) {
		candidates = append(candidates, m[1])
		tried++
		if p, ok := decodeObject(m[1], schema); ok && accept(p, StrategyFenced) {
			return p, tried, nil
		}
	}

	spans := BalancedSpans(raw)
	sort.SliceStable(spans, func(i, j int) bool { return len(spans[i]) > len(spans[j]) })
	for _, span := range spans {
		candidates = append(candidates, span)
		tried++
		if p, ok := decodeObject(span, schema); ok && p.Known() {
			p.Strategy = StrategyBalanced
			return p, tried, nil
		}
	}

	if snippet := ExtractJSONSnippet(raw); snippet != "" {
		candidates = append([]string{snippet}, candidates...)
		tried++
		if p, ok := decodeObject(snippet, schema); ok && accept(p, StrategySpan) {
			return p, tried, nil
		}
	}

	repairs := []struct {
		strategy Strategy
		fix      func(string) string
	}{
		{StrategyRepairNewlines, repairNewlines},
		{StrategyRepairEscapes, repairEscapes},
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, repair := range repairs {
		for _, candidate := range candidates {
			fixed := repair.fix(candidate)
			if fixed == candidate {
				continue
			}
			if _, dup := seen[fixed]; dup {
				continue
			}
			seen[fixed] = struct{}{}
			tried++
			if p, ok := decodeObject(fixed, schema); ok && accept(p, repair.strategy) {
				return p, tried, nil
			}
		}
	}
	if fallback != nil {
		return fallback, tried, nil
	}
	return nil, tried, ErrInvalidJSON
}

func decodeObject(candidate string, schema Schema) (*Parsed, bool) {
	trimmed := strings.TrimSpace(candidate)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(trimmed)); err != nil {
		return nil, false
	}
	return &Parsed{
		Object:  json.RawMessage(buf.Bytes()),
		Fields:  fields,
		Missing: schema.Missing(fields),
		schema:  schema,
	}, true
}

// BalancedSpans returns every balanced {...} substring of raw, outermost and
// nested alike, in order of their opening brace. Braces inside JSON strings
// do not count once a span has started.
func BalancedSpans(raw string) []string {
	var spans []string
	seen := make(map[string]struct{})
	for start := 0; start < len(raw); start++ {
		if raw[start] != '{' {
			continue
		}
		end := matchBrace(raw, start)
		if end < 0 {
			continue
		}
		span := raw[start : end+1]
		if _, dup := seen[span]; dup {
			continue
		}
		seen[span] = struct{}{}
		spans = append(spans, span)
	}
	return spans
}

func matchBrace(raw string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func repairNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}

func repairEscapes(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\n`, " ")
}

// ExtractJSONSnippet returns the text from the first '{' to the last '}', or
// an empty string when delimiters are missing so callers can surface a more
// helpful error.
func ExtractJSONSnippet(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end >= start {
		return raw[start : end+1]
	}
	return ""
}
