// Package schema holds the plain value objects exchanged between the CrateDB
// adapters and application code: documents, generations and chat messages.
package schema

// Document is a piece of text together with its metadata.
// It is what vector stores return from searches and what loaders produce.
type Document struct {
	// ID is the identifier of the stored embedding record, if any.
	ID string `json:"id,omitempty"`

	// PageContent is the text of the document.
	PageContent string `json:"page_content"`

	// Metadata is an arbitrary JSON-like mapping stored next to the text.
	Metadata map[string]any `json:"metadata"`
}

// Generation is a single output of a language model call.
// When Message is set, the generation came from a chat model.
type Generation struct {
	Text           string         `json:"text"`
	GenerationInfo map[string]any `json:"generation_info,omitempty"`
	Message        *Message       `json:"message,omitempty"`
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
	RoleTool   Role = "tool"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"type"`
	Content string `json:"content"`

	// AdditionalKwargs carries provider specific fields (tool calls, names, ...).
	AdditionalKwargs map[string]any `json:"additional_kwargs,omitempty"`
}

// NewHumanMessage returns a message authored by the user.
func NewHumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// NewAIMessage returns a message authored by the model.
func NewAIMessage(content string) Message {
	return Message{Role: RoleAI, Content: content}
}

// NewSystemMessage returns a system prompt message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}
