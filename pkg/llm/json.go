package llm

import (
	"encoding/json"
	"fmt"
)

// ExtractJSON extracts the first balanced JSON object or array from a
// classifier response. JSON mode keeps responses clean in practice, but a
// defensive scan costs nothing and tolerates models that still wrap output in
// markdown fences.
func ExtractJSON(response string) (string, error) {
	for i := 0; i < len(response); i++ {
		switch response[i] {
		case '{':
			if jsonStr, ok := extractBalancedJSON(response[i:], '{', '}'); ok {
				if json.Valid([]byte(jsonStr)) {
					return jsonStr, nil
				}
			}
		case '[':
			if jsonStr, ok := extractBalancedJSON(response[i:], '[', ']'); ok {
				if json.Valid([]byte(jsonStr)) {
					return jsonStr, nil
				}
			}
		}
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// extractBalancedJSON finds the first balanced JSON structure starting with openChar.
// It handles nested structures by counting bracket depth.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into the target.
// Failures are classified as retryable response errors: a malformed completion
// is transient from the job's perspective.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, NewError(ErrorTypeResponse, "malformed classifier response", true, err)
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, NewError(ErrorTypeResponse, "unschema'd classifier response", true, err)
	}

	return result, nil
}
