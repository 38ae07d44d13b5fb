package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseSelections decodes the planning call's reply into selections. Models
// wrap JSON in code fences or emit slightly broken JSON often enough that the
// raw text is first stripped and, if it still fails to decode, run through a
// JSON repair pass before giving up. Both a bare array and an object with a
// "steps" key are accepted.
func ParseSelections(raw string) ([]Selection, error) {
	text := stripCodeFences(raw)
	if text == "" {
		return nil, fmt.Errorf("empty planning reply")
	}

	if selections, err := decodeSelections(text); err == nil {
		return selections, nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, fmt.Errorf("planning reply is not JSON: %w", err)
	}
	selections, err := decodeSelections(repaired)
	if err != nil {
		return nil, fmt.Errorf("planning reply has unexpected shape: %w", err)
	}
	return selections, nil
}

func decodeSelections(text string) ([]Selection, error) {
	var selections []Selection
	if err := json.Unmarshal([]byte(text), &selections); err == nil {
		return valid(selections), nil
	}
	var wrapped struct {
		Steps []Selection `json:"steps"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Steps == nil {
		return nil, fmt.Errorf("no steps field")
	}
	return valid(wrapped.Steps), nil
}

// valid drops entries missing an agent or intent; the model occasionally pads
// its reply with commentary objects.
func valid(selections []Selection) []Selection {
	out := selections[:0]
	for _, s := range selections {
		if s.Agent != "" && s.Intent != "" {
			out = append(out, s)
		}
	}
	return out
}

func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
