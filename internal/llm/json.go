package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseJSONResponse parses a JSON value out of model output, tolerating
// markdown fences and prose around the payload.
func ParseJSONResponse[T any](rawResponse string) (T, error) {
	var result T
	if err := json.Unmarshal([]byte(rawResponse), &result); err == nil {
		return result, nil
	}

	var cleaned T
	err := json.Unmarshal([]byte(stripMarkdownJSON(rawResponse)), &cleaned)
	if err == nil {
		return cleaned, nil
	}

	var zero T
	return zero, fmt.Errorf("failed to parse JSON response: %w: %s", err, truncate(rawResponse, 200))
}

var jsonFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// stripMarkdownJSON removes markdown code fences and leading/trailing non-JSON text.
func stripMarkdownJSON(s string) string {
	s = strings.TrimSpace(s)

	if matches := jsonFencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = strings.TrimSpace(matches[1])
	}

	// Find first { or [ and the matching last } or ].
	startObj := strings.IndexByte(s, '{')
	startArr := strings.IndexByte(s, '[')

	start := -1
	isArray := false

	switch {
	case startObj >= 0 && startArr >= 0:
		if startArr < startObj {
			start = startArr
			isArray = true
		} else {
			start = startObj
		}
	case startObj >= 0:
		start = startObj
	case startArr >= 0:
		start = startArr
		isArray = true
	}

	if start < 0 {
		return s
	}

	var end int
	if isArray {
		end = strings.LastIndexByte(s, ']')
	} else {
		end = strings.LastIndexByte(s, '}')
	}

	if end <= start {
		return s
	}

	return s[start : end+1]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
