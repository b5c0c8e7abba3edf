package ollama

import (
	"encoding/json"
	"fmt"
	"strings"

	"office-archive-indexer/internal/core/domain"
)

// parseHint treats the model response as an untrusted payload: code
// fences are stripped, the outer JSON object isolated, and every field
// validated against the expected shape. Wrong-typed fields are dropped,
// never trusted.
func parseHint(raw string) (*domain.ClassificationHint, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parse hint json: %w", err)
	}

	hint := &domain.ClassificationHint{
		Brand:    stringField(payload, "brand"),
		Category: stringField(payload, "category"),
		Topic:    stringField(payload, "topic"),
		Models:   stringSliceField(payload, "models"),
		Tags:     stringSliceField(payload, "tags"),
	}
	return hint, nil
}

// extractJSONObject strips any markdown code-fence wrapping and returns
// the outermost {...} span.
func extractJSONObject(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}

func stringField(payload map[string]any, key string) string {
	if s, ok := payload[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func stringSliceField(payload map[string]any, key string) []string {
	items, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
