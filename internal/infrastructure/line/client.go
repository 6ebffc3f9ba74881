// Package line delivers replies through the LINE Messaging API.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/triple-t/railbot/internal/config"
	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/domain/repository"
	apperrors "github.com/triple-t/railbot/internal/pkg/errors"
	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(cfg *config.LineConfig, logger *zap.Logger) repository.ReplySink {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.ChannelToken,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []interface{} `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type templateMessage struct {
	Type     string          `json:"type"`
	AltText  string          `json:"altText"`
	Template buttonsTemplate `json:"template"`
}

type buttonsTemplate struct {
	Type    string           `json:"type"`
	Title   string           `json:"title,omitempty"`
	Text    string           `json:"text"`
	Actions []templateAction `json:"actions"`
}

type templateAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text,omitempty"`
	Data  string `json:"data,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

func (c *Client) Reply(ctx context.Context, replyToken string, reply *domain.Reply) error {
	payload := replyRequest{
		ReplyToken: replyToken,
		Messages:   []interface{}{buildMessage(reply)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/bot/message/reply", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Failed to deliver reply", zap.Error(err))
		return apperrors.ErrReplyFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("Reply rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", detail))
		return apperrors.ErrReplyFailed
	}
	return nil
}

func buildMessage(reply *domain.Reply) interface{} {
	if reply.Kind == domain.ReplyText {
		return textMessage{Type: "text", Text: reply.Text}
	}

	actions := make([]templateAction, 0, len(reply.Actions))
	for _, a := range reply.Actions {
		switch a.Kind {
		case domain.ActionDatetimePicker:
			actions = append(actions, templateAction{
				Type:  "datetimepicker",
				Label: a.Label,
				Data:  a.Data,
				Mode:  "datetime",
			})
		default:
			actions = append(actions, templateAction{
				Type:  "message",
				Label: a.Label,
				Text:  a.Text,
			})
		}
	}
	return templateMessage{
		Type:    "template",
		AltText: reply.AltText,
		Template: buttonsTemplate{
			Type:    "buttons",
			Title:   reply.Title,
			Text:    reply.Text,
			Actions: actions,
		},
	}
}
