package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractPayload pulls the outermost JSON object out of a model response.
// Models wrap payloads in prose or markdown fences often enough that
// slicing between the first "{" and the last "}" is the reliable path.
func ExtractPayload(response string) (RawPayload, error) {
	jsonStart := strings.Index(response, "{")
	jsonEnd := strings.LastIndex(response, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		preview := response
		if len(preview) > 500 {
			preview = preview[:500] + "... (truncated)"
		}
		return nil, fmt.Errorf("no JSON object found in response (got %d chars): %q", len(response), preview)
	}
	jsonStr := response[jsonStart : jsonEnd+1]

	var payload RawPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload returned")
	}
	return payload, nil
}
