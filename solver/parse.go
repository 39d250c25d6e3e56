package solver

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	jsonFenceRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

	// jsonObjectRe matches brace blocks up to one level of nesting, which
	// covers the expected answer shape (options is the only nested object).
	jsonObjectRe = regexp.MustCompile(`(?s)\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

// flexFloat unmarshals from either a JSON number or a quoted number.
// Models occasionally emit "confidence_score": "0.95".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, `"`) {
		var quoted string
		if err := json.Unmarshal(data, &quoted); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(quoted), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

type rawSolution struct {
	QuestionText    string            `json:"question_text"`
	Options         map[string]string `json:"options"`
	CorrectAnswer   string            `json:"correct_answer"`
	SimpleAnswer    string            `json:"simple_answer"`
	Topic           string            `json:"topic"`
	Difficulty      string            `json:"difficulty"`
	ConfidenceScore flexFloat         `json:"confidence_score"`
}

// ParseSolution extracts a Solution from a model response. It tries, in
// order: a ```json fenced block, the largest brace-delimited object in
// the body, and the whole body. Trailing commas are tolerated. A body
// with no parseable JSON yields a zero-confidence placeholder solution
// rather than an error, so the quality-control pass flags it downstream.
func ParseSolution(body string) *Solution {
	candidate := extractJSON(body)
	candidate = trailingCommaRe.ReplaceAllString(candidate, "$1")

	var raw rawSolution
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return &Solution{
			QuestionText:    "Failed to parse response",
			Options:         map[string]string{},
			SimpleAnswer:    "JSON parsing error: " + err.Error(),
			Topic:           "Unknown",
			Difficulty:      "unknown",
			ConfidenceScore: 0,
		}
	}

	if raw.Options == nil {
		raw.Options = map[string]string{}
	}

	return &Solution{
		QuestionText:    raw.QuestionText,
		Options:         raw.Options,
		CorrectAnswer:   strings.TrimSpace(raw.CorrectAnswer),
		SimpleAnswer:    raw.SimpleAnswer,
		Topic:           raw.Topic,
		Difficulty:      raw.Difficulty,
		ConfidenceScore: float64(raw.ConfidenceScore),
	}
}

func extractJSON(body string) string {
	if m := jsonFenceRe.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}

	if matches := jsonObjectRe.FindAllString(body, -1); len(matches) > 0 {
		largest := matches[0]
		for _, m := range matches[1:] {
			if len(m) > len(largest) {
				largest = m
			}
		}
		return largest
	}

	return strings.TrimSpace(body)
}
