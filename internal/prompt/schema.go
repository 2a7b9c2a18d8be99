package prompt

import (
	"sort"

	"github.com/kalambet/mentortable/internal/llm"
	"github.com/kalambet/mentortable/internal/mentor"
)

// StrictFormat is the strict JSON-schema response format for a
// consultation call.
func StrictFormat() *llm.ResponseFormat {
	return &llm.ResponseFormat{
		Type: llm.FormatJSONSchema,
		JSONSchema: &llm.JSONSchema{
			Name:   "mentor_table_response",
			Strict: true,
			Schema: responseSchema(),
		},
	}
}

// RelaxedFormat asks only for a JSON object.
func RelaxedFormat() *llm.ResponseFormat {
	return &llm.ResponseFormat{Type: llm.FormatJSONObject}
}

func str() map[string]any { return map[string]any{"type": "string"} }

func object(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func responseSchema() map[string]any {
	reply := object(map[string]any{
		"mentorId":       str(),
		"mentorName":     str(),
		"likelyResponse": str(),
		"whyThisFits":    str(),
		"oneActionStep":  str(),
		"confidenceNote": str(),
	})
	return object(map[string]any{
		"schemaVersion": map[string]any{"type": "string", "enum": []string{mentor.SchemaVersion}},
		"language":      map[string]any{"type": "string", "enum": []string{"en", "zh-CN"}},
		"safety": object(map[string]any{
			"riskLevel":             map[string]any{"type": "string", "enum": []string{"none", "low", "medium", "high"}},
			"needsProfessionalHelp": map[string]any{"type": "boolean"},
			"emergencyMessage":      str(),
		}),
		"mentorReplies": map[string]any{"type": "array", "items": reply},
		"meta": object(map[string]any{
			"disclaimer":  str(),
			"generatedAt": str(),
			"provider":    str(),
			"model":       str(),
		}),
	})
}
