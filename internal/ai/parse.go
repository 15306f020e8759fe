package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// decodeModelJSON decodes a model answer into out. Models wrap JSON in
// markdown fences, prose, or emit slightly broken syntax, so decoding runs
// in escalating stages: strict, repaired, then the outermost brace span.
func decodeModelJSON(raw string, out any) error {
	candidate := stripFences(raw)

	if err := json.Unmarshal([]byte(candidate), out); err == nil {
		return nil
	}

	if repaired, err := jsonrepair.JSONRepair(candidate); err == nil {
		if err := json.Unmarshal([]byte(repaired), out); err == nil {
			return nil
		}
	}

	if span := jsonObjectPattern.FindString(candidate); span != "" {
		if err := json.Unmarshal([]byte(span), out); err == nil {
			return nil
		}
		if repaired, err := jsonrepair.JSONRepair(span); err == nil {
			if err := json.Unmarshal([]byte(repaired), out); err == nil {
				return nil
			}
		}
	}

	return fmt.Errorf("no decodable JSON object in model output (%d chars)", len(raw))
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop the language tag line.
		if !strings.ContainsAny(s[:idx], "{}") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
