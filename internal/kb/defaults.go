package kb

// Default document ids.
const (
	DocSchema       = "schema"
	DocSystem       = "system"
	DocInstructions = "instructions"
	DocDiagrams     = "diagrams"
	DocExamples     = "examples"
)

func defaultDocuments() map[string]Document {
	return map[string]Document{
		DocSchema: {
			"concept":     "Name of the academic concept",
			"definition":  "A brief, easy-to-understand definition",
			"explanation": "A comprehensive explanation in simple terms",
			"examples":    []any{"Real-world applications or instances"},
			"mermaid":     []any{"Complete, independently renderable Mermaid diagrams"},
			"summary":     "The key takeaways in a few sentences",
		},
		DocSystem: {
			"prompt": "You are an educational assistant specialized in breaking down complex academic concepts into easily understandable explanations for students.",
		},
		DocInstructions: {
			"instructions": []any{
				"Break down concepts into simple language that a high school student can understand",
				"Use clear analogies that relate to everyday experiences",
				"Provide concrete examples that illustrate the concept",
				"Address common misconceptions students might have",
				"Create visual representations using Mermaid diagrams",
			},
		},
		DocDiagrams: {
			"description": "Create clear, educational diagrams that help visualize academic concepts.",
			"guidelines": []any{
				"Use flowcharts for processes and sequences",
				"Use class diagrams for relationships and hierarchies",
				"Use sequence diagrams for interactions over time",
				"Keep diagrams simple and focused",
			},
			"output_format": map[string]any{
				"diagrams": []any{
					map[string]any{
						"title":        "Title of the diagram",
						"description":  "What this diagram shows",
						"mermaid_code": "The complete Mermaid code",
					},
				},
			},
		},
		DocExamples: {
			"diagrams": []any{
				map[string]any{
					"title":        "Basic Process Flow",
					"description":  "Shows the main steps of a process",
					"mermaid_code": "flowchart LR\n    A[Input] --> B{Process}\n    B --> C[Output 1]\n    B --> D[Output 2]",
				},
			},
		},
	}
}
