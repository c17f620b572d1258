package llm

// Message is a single message in a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionParams holds tunables for a completion request.
type CompletionParams struct {
	// Model overrides the client's default model when non-empty.
	Model string

	// Temperature controls output randomness.
	Temperature float32

	// MaxTokens caps the generated length. Zero means no limit.
	MaxTokens int
}
