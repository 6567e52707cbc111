package aigc

// Preset overrides the built-in persona, loaded from a yaml file
type Preset struct {
	SystemPrompt string   `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`
	Welcome      *Message `json:"welcome,omitempty" yaml:"welcome,omitempty"`
	Model        string   `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature  float32  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// GetSystemPrompt returns the preset prompt or the built-in persona.
func (p *Preset) GetSystemPrompt() string {
	if p != nil && len(p.SystemPrompt) > 0 {
		return p.SystemPrompt
	}
	return SystemRole
}

// GetWelcome returns the preset welcome text or the built-in one.
func (p *Preset) GetWelcome() string {
	if p != nil && p.Welcome != nil && len(p.Welcome.Content) > 0 {
		return p.Welcome.Content
	}
	return WelcomeText
}
