package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/domain/repository"
	"github.com/triple-t/railbot/internal/usecase"
	"go.uber.org/zap"
)

// WebhookHandler receives LINE webhook callbacks, verifies the channel
// signature, and feeds each event through the conversation use case.
type WebhookHandler struct {
	channelSecret string
	conversation  *usecase.ConversationUseCase
	sink          repository.ReplySink
	logger        *zap.Logger
}

func NewWebhookHandler(
	channelSecret string,
	conversation *usecase.ConversationUseCase,
	sink repository.ReplySink,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		channelSecret: channelSecret,
		conversation:  conversation,
		sink:          sink,
		logger:        logger,
	}
}

// Wire shapes for the webhook body. Only the fields the bot acts on are
// decoded.
type webhookBody struct {
	Events []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string           `json:"type"`
	ReplyToken string           `json:"replyToken"`
	Source     webhookSource    `json:"source"`
	Message    *webhookMessage  `json:"message"`
	Postback   *webhookPostback `json:"postback"`
}

type webhookSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
}

type webhookMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type webhookPostback struct {
	Data   string          `json:"data"`
	Params *postbackParams `json:"params"`
}

type postbackParams struct {
	Datetime string `json:"datetime"`
}

func (h *WebhookHandler) Callback(c *fiber.Ctx) error {
	body := c.Body()
	if !h.verifySignature(c.Get("X-Line-Signature"), body) {
		h.logger.Warn("Webhook signature mismatch")
		return c.SendStatus(fiber.StatusBadRequest)
	}

	var payload webhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("Malformed webhook body", zap.Error(err))
		return c.SendStatus(fiber.StatusBadRequest)
	}

	ctx := c.Context()
	for _, we := range payload.Events {
		ev, ok := toEvent(we)
		if !ok {
			continue
		}
		h.dispatch(ctx, ev)
	}
	return c.SendStatus(fiber.StatusOK)
}

// dispatch runs one event and delivers the reply. Handler failures degrade
// to an apology text so the user is never left without an answer.
func (h *WebhookHandler) dispatch(ctx context.Context, ev domain.Event) {
	reply, err := h.conversation.HandleEvent(ctx, ev)
	if err != nil {
		h.logger.Error("Event handling failed",
			zap.String("kind", ev.Kind.String()),
			zap.String("user_id", ev.UserID),
			zap.Error(err))
		reply = domain.TextReply(usecase.TextSystemError)
	}
	if reply == nil || ev.ReplyToken == "" {
		return
	}
	if err := h.sink.Reply(ctx, ev.ReplyToken, reply); err != nil {
		h.logger.Error("Reply delivery failed",
			zap.String("user_id", ev.UserID),
			zap.Error(err))
	}
}

func (h *WebhookHandler) verifySignature(signature string, body []byte) bool {
	mac := hmac.New(sha256.New, []byte(h.channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// toEvent normalizes one webhook event. Events the bot does not act on
// (stickers, images, unknown types) are dropped.
func toEvent(we webhookEvent) (domain.Event, bool) {
	ev := domain.Event{
		UserID:     we.Source.UserID,
		ReplyToken: we.ReplyToken,
	}
	if we.Source.Type == "group" && we.Source.GroupID != "" {
		gid := we.Source.GroupID
		ev.GroupID = &gid
	}

	switch we.Type {
	case "message":
		if we.Message == nil || we.Message.Type != "text" {
			return ev, false
		}
		ev.Kind = domain.EventMessage
		ev.Text = we.Message.Text
	case "postback":
		if we.Postback == nil {
			return ev, false
		}
		ev.Kind = domain.EventPostback
		if we.Postback.Params != nil {
			ev.Datetime = we.Postback.Params.Datetime
		}
		ev.Text = we.Postback.Data
	case "follow":
		ev.Kind = domain.EventFollow
	case "unfollow":
		ev.Kind = domain.EventUnfollow
	case "join":
		ev.Kind = domain.EventJoin
	case "leave":
		ev.Kind = domain.EventLeave
	default:
		return ev, false
	}
	return ev, true
}
