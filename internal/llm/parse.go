package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripMarkdownFences removes a ```lang ... ``` wrapper from model output.
// Text without an opening fence is returned unchanged.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	end := len(lines) - 1
	for i := len(lines) - 1; i >= 1; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

// ExtractJSON returns the JSON object or array embedded in text, tolerating
// surrounding prose. It spans from the first opening delimiter to the last
// matching closing one.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	objIdx := strings.Index(text, "{")
	arrIdx := strings.Index(text, "[")
	if objIdx == -1 && arrIdx == -1 {
		return "", fmt.Errorf("no JSON content found")
	}

	var start int
	var closer string
	if arrIdx == -1 || (objIdx != -1 && objIdx <= arrIdx) {
		start = objIdx
		closer = "}"
	} else {
		start = arrIdx
		closer = "]"
	}

	text = text[start:]
	end := strings.LastIndex(text, closer)
	if end == -1 {
		return "", fmt.Errorf("no closing %s found", closer)
	}
	return text[:end+1], nil
}

// ParseJSON decodes a structured model response into T, stripping code fences
// and surrounding prose first. Models fence or narrate their JSON often enough
// that every structured-output caller goes through this.
func ParseJSON[T any](raw string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(StripMarkdownFences(raw))
	if err != nil {
		return result, fmt.Errorf("%w (response length: %d)", err, len(raw))
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		preview := jsonStr
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return result, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview)
	}
	return result, nil
}
