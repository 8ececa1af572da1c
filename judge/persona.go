package judge

// Persona is a configured judge: a model plus the voice it is prompted with.
type Persona struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
	// Role is the opening line of the prompt.
	Role string `json:"role"`
	// Focus weights categories the judge should pay extra attention to.
	Focus map[Category]float64 `json:"focus,omitempty"`
	// Template overrides the default prompt; it is a text/template over PromptData.
	Template string `json:"-"`
}

// DefaultPersonas returns the standard three judge panel.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			ID:    "nebulon",
			Name:  "GEO strategist",
			Model: "openrouter/bert-nebulon-alpha",
			Role: "You are an expert in Generative Engine Optimization (GEO) and search optimization for AI assistants. " +
				"Assess how friendly this page is to generative models such as ChatGPT, Claude, Gemini and Grok.",
		},
		{
			ID:    "grok",
			Name:  "Citation analyst",
			Model: "x-ai/grok-4.1-fast:free",
			Role: "You are a specialist in how AI assistants select and cite sources. " +
				"Judge whether this page would be quoted in generated answers.",
			Focus: map[Category]float64{Citation: 1.5, Structure: 1.2},
		},
		{
			ID:    "deepseek",
			Name:  "Semantic and RAG reviewer",
			Model: "tngtech/deepseek-r1t2-chimera:free",
			Role: "You are a retrieval-augmented generation engineer. " +
				"Evaluate semantic density and how well this page chunks and retrieves in a RAG pipeline.",
			Focus: map[Category]float64{Semantic: 1.5, RAG: 1.5},
		},
	}
}
