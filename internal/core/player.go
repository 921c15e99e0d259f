// FILE: internal/core/player.go
package core

// PlayerConfig is the immutable per-side configuration for one session.
type PlayerConfig struct {
	Color              Color      `json:"color" validate:"required,oneof=1 2"`
	Kind               SourceKind `json:"kind" validate:"required,oneof=1 2 3"`
	Model              string     `json:"model,omitempty" validate:"required_if=Kind 2"`
	SystemPrompt       string     `json:"systemPrompt,omitempty"`
	PreText            string     `json:"preText,omitempty"`
	PostText           string     `json:"postText,omitempty"`
	IncludeHistory     bool       `json:"includeHistory"`
	IncludeDiagram     bool       `json:"includeDiagram"`
	IncludeChatContext bool       `json:"includeChatContext"`
	Temperature        float32    `json:"temperature" validate:"min=0,max=2"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation sent to the assistant.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Exchange is a completed request/reply pair with the assistant.
type Exchange struct {
	Request string
	Reply   string
}
