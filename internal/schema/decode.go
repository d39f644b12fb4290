package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Decode parses a raw backend response into the output type configured for
// the seat and validates it. Backends are treated as best-effort: responses
// may arrive wrapped in markdown fences, with trailing prose, or as slightly
// malformed JSON, so decoding strips down to the first JSON object and falls
// back to jsonrepair before giving up.
func Decode(kind OutputKind, raw []byte) (SeatOutput, error) {
	if !KnownKind(kind) {
		return nil, fmt.Errorf("unknown output kind %q", kind)
	}

	payload := extractJSONObject(string(raw))
	if payload == "" {
		return nil, fmt.Errorf("response contains no JSON object")
	}

	output, err := unmarshalKind(kind, []byte(payload))
	if err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(payload)
		if repairErr != nil {
			return nil, fmt.Errorf("parse response: %w (repair also failed: %v)", err, repairErr)
		}
		output, err = unmarshalKind(kind, []byte(repaired))
		if err != nil {
			return nil, fmt.Errorf("parse repaired response: %w", err)
		}
	}

	if err := output.Validate(); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	return output, nil
}

func unmarshalKind(kind OutputKind, data []byte) (SeatOutput, error) {
	switch kind {
	case KindPurist:
		var out PuristOutput
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return &out, nil
	default:
		var out MemberOutput
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}
}

// extractJSONObject trims markdown fences and surrounding prose, returning
// the text between the first '{' and the last '}'.
func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
