package driven

import (
	"context"

	"github.com/avolkov/labchat/internal/domain/model"
)

// ChatModel defines the driven port for the LLM backend that answers chat
// messages. Implementations are synchronous and must honor ctx cancellation.
type ChatModel interface {
	// Complete sends the conversation history and returns the assistant's reply.
	Complete(ctx context.Context, messages []model.ChatMessage) (string, error)

	// ModelName reports the configured model identifier for status endpoints.
	ModelName() string
}
