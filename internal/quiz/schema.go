package quiz

import "github.com/abhisek/studybuddy/internal/llm"

// DocumentSchema describes the quiz document the model is asked to return.
// Per-question structure (four options, letters A-D) is checked after
// decoding, one question at a time.
var DocumentSchema = &llm.Schema{
	Name:        "quiz-document",
	Description: "A multiple-choice quiz with four options per question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"quiz": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"options": map[string]any{
							"type":                 "object",
							"additionalProperties": map[string]any{"type": "string"},
						},
						"answer": map[string]any{
							"anyOf": []any{
								map[string]any{"type": "string"},
								map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							},
						},
						"answer_type": map[string]any{"type": "string"},
					},
					"required": []any{"question", "options", "answer"},
				},
			},
			"topic":      map[string]any{"type": "string"},
			"difficulty": map[string]any{"type": "string"},
			"source":     map[string]any{"type": "string"},
			"difficulty_config": map[string]any{
				"type": "object",
			},
		},
		"required": []any{"quiz"},
	},
}

// ResponseSchema is the structured-output contract sent with generation
// requests. Unlike DocumentSchema it names the option letters and requires
// every field, which is the subset the providers' constrained decoders
// accept.
var ResponseSchema = &llm.Schema{
	Name:        "quiz-response",
	Description: "A multiple-choice quiz with options A to D",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic":      map[string]any{"type": "string"},
			"difficulty": map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard", "difficult"}},
			"quiz": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"options": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"A": map[string]any{"type": "string"},
								"B": map[string]any{"type": "string"},
								"C": map[string]any{"type": "string"},
								"D": map[string]any{"type": "string"},
							},
							"required":             []any{"A", "B", "C", "D"},
							"additionalProperties": false,
						},
						"answer":      map[string]any{"type": "string"},
						"answer_type": map[string]any{"type": "string", "enum": []any{"single", "multiple"}},
					},
					"required":             []any{"question", "options", "answer", "answer_type"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"topic", "difficulty", "quiz"},
		"additionalProperties": false,
	},
}
