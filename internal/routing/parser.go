package routing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoDecision marks completion output with no usable embedded object.
// Callers take the INTAKE fallback on it; it never propagates further.
var ErrNoDecision = errors.New("routing: no decision in completion output")

type wireDecision struct {
	Sector     string         `json:"sector"`
	Intention  string         `json:"intention"`
	Confidence float64        `json:"confidence"`
	Parameters map[string]any `json:"parameters"`
}

// ExtractDecision finds the first well-formed JSON object embedded in free
// model prose and validates it into a Decision. It never panics on malformed
// input; every failure mode is an error the classifier absorbs.
func ExtractDecision(text string) (Decision, error) {
	obj, ok := firstJSONObject(text)
	if !ok {
		return Decision{}, fmt.Errorf("%w: no JSON object found", ErrNoDecision)
	}

	var w wireDecision
	if err := json.Unmarshal([]byte(obj), &w); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrNoDecision, err)
	}

	sector, ok := ParseSector(w.Sector)
	if !ok {
		return Decision{}, fmt.Errorf("%w: invalid sector %q", ErrNoDecision, w.Sector)
	}

	confidence := w.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	intention := strings.TrimSpace(w.Intention)
	if intention == "" {
		intention = "unspecified"
	}

	return Decision{
		Sector:     sector,
		Intention:  intention,
		Confidence: confidence,
		Parameters: w.Parameters,
	}, nil
}

// firstJSONObject scans for the first balanced {...} span that unmarshals as
// an object. Braces inside JSON strings are accounted for; candidate spans
// that do not parse are skipped so prose like "{oops}" before the real
// object does not poison extraction.
func firstJSONObject(text string) (string, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}

		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			ch := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					candidate := text[start : i+1]
					var probe map[string]any
					if json.Unmarshal([]byte(candidate), &probe) == nil {
						return candidate, true
					}
					// Malformed span; resume the outer scan past this opener.
					i = len(text)
				}
			}
		}
	}
	return "", false
}
