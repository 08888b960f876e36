package models

// InferenceRequest is one chat-completion call: a system message followed by a user message.
type InferenceRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
}

func NewInferenceRequest(model, systemPrompt, userPrompt string) InferenceRequest {
	return InferenceRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Model:        model,
	}
}

// message roles
const (
	RoleSystem = "system"
	RoleUser   = "user"
)
