package chathistory

import (
	"context"

	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
)

// History is the message log of one session.
type History struct {
	store     *Store
	sessionID string
}

func (h *History) SessionID() string {
	return h.sessionID
}

func (h *History) AddMessages(ctx context.Context, msgs ...schema.Message) error {
	return h.store.AddMessages(ctx, h.sessionID, msgs...)
}

func (h *History) AddUserMessage(ctx context.Context, content string) error {
	return h.AddMessages(ctx, schema.NewHumanMessage(content))
}

func (h *History) AddAIMessage(ctx context.Context, content string) error {
	return h.AddMessages(ctx, schema.NewAIMessage(content))
}

func (h *History) Messages(ctx context.Context) ([]schema.Message, error) {
	return h.store.Messages(ctx, h.sessionID)
}

func (h *History) Clear(ctx context.Context) error {
	return h.store.Clear(ctx, h.sessionID)
}
