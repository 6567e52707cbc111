package web

// ChatRequest ...
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// KeyRequest carries the api key typed in the sidebar
type KeyRequest struct {
	APIKey string `json:"apiKey"`
}

// ChatMessage is the assistant turn returned to the page
type ChatMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Augmented bool   `json:"augmented,omitempty"`
	Failed    bool   `json:"failed,omitempty"`
}

// ChatDelta is one event of a streamed turn
type ChatDelta struct {
	Delta string `json:"delta"`
}

// ConfigStatus drives the sidebar
type ConfigStatus struct {
	KeyConfigured bool   `json:"keyConfigured"`
	KeyFromEnv    bool   `json:"keyFromEnv"`
	Model         string `json:"model"`
	Search        bool   `json:"search"`
	Version       string `json:"version,omitempty"`
}

const esDone = "[DONE]"
