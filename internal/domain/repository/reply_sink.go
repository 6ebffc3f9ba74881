package repository

import (
	"context"

	"github.com/triple-t/railbot/internal/domain"
)

// ReplySink delivers one outbound reply to the chat platform.
type ReplySink interface {
	Reply(ctx context.Context, replyToken string, reply *domain.Reply) error
}
