package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errNoObject = errors.New("no JSON object in reply")

// Verdict is a decoded grading reply.
type Verdict struct {
	IsCorrect *bool
	Score     *float64
	Feedback  string
}

type rawVerdict struct {
	IsCorrect json.RawMessage `json:"isCorrect"`
	Score     json.RawMessage `json:"score"`
	Feedback  *string         `json:"feedback"`
}

// ParseReply decodes the first JSON object in content. A non-boolean
// isCorrect becomes nil, score is clamped to 0..100 and a missing
// feedback falls back to the whole reply.
func ParseReply(content string) (Verdict, error) {
	obj, ok := ExtractJSONObject(content)
	if !ok {
		return Verdict{}, errNoObject
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return Verdict{}, fmt.Errorf("decode grading reply: %w", err)
	}

	v := Verdict{Feedback: strings.TrimSpace(content)}
	if raw.Feedback != nil && strings.TrimSpace(*raw.Feedback) != "" {
		v.Feedback = strings.TrimSpace(*raw.Feedback)
	}

	if isBool(raw.IsCorrect) {
		b := strings.TrimSpace(string(raw.IsCorrect)) == "true"
		v.IsCorrect = &b
	}
	if s, ok := coerceScore(raw.Score); ok {
		v.Score = &s
	}
	return v, nil
}

func isBool(r json.RawMessage) bool {
	s := strings.TrimSpace(string(r))
	return s == "true" || s == "false"
}

// coerceScore accepts a number or a numeric string.
func coerceScore(r json.RawMessage) (float64, bool) {
	if len(r) == 0 || strings.TrimSpace(string(r)) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(r, &f); err != nil {
		var s string
		if json.Unmarshal(r, &s) != nil {
			return 0, false
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
	}
	switch {
	case f < 0:
		f = 0
	case f > 100:
		f = 100
	}
	return f, true
}

// ExtractJSONObject returns the first balanced {...} in s. Braces inside
// JSON strings are skipped so text like "use {x}" in feedback does not
// end the object early.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	for start >= 0 {
		if end, ok := matchObject(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchObject(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return i, true
			}
		}
	}
	return 0, false
}
