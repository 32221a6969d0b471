package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/guard"
)

// Messaging channels, each with its own circuit.
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// MessagingClient delivers approval notices through the messaging service
// over email and WhatsApp. An empty base URL disables delivery.
type MessagingClient struct {
	baseURL string
	apiKey  string
	breaker *guard.CircuitBreaker
	logger  *slog.Logger
	client  *http.Client
}

// NewMessagingClient creates a messaging client. breaker may be shared.
func NewMessagingClient(baseURL, apiKey string, breaker *guard.CircuitBreaker, logger *slog.Logger) *MessagingClient {
	return &MessagingClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		breaker: breaker,
		logger:  logger,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type messageRequest struct {
	Channel  string `json:"channel"`
	To       string `json:"to"`
	Template string `json:"template"`
	Data     any    `json:"data"`
}

// NotifyApproval sends the decision by email, and by WhatsApp when a phone
// number is known. The first delivery error is returned.
func (c *MessagingClient) NotifyApproval(ctx context.Context, notice domain.ApprovalNotice) error {
	if c.baseURL == "" {
		c.logger.Debug("messaging base url not set, skipping notice", "user_id", notice.UserID)
		return nil
	}

	template := "verification_rejected"
	if notice.Approved {
		template = "verification_approved"
	}

	var firstErr error
	if err := domain.ValidateEmail(notice.Email); err != nil {
		c.logger.Debug("no deliverable email on notice", "user_id", notice.UserID, "error", err)
	} else {
		if err := c.send(ctx, messageRequest{Channel: ChannelEmail, To: notice.Email, Template: template, Data: notice}); err != nil {
			firstErr = err
		}
	}
	if notice.Phone != "" {
		if err := c.send(ctx, messageRequest{Channel: ChannelWhatsApp, To: notice.Phone, Template: template, Data: notice}); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *MessagingClient) send(ctx context.Context, msg messageRequest) error {
	return c.breaker.Do(ctx, "messaging:"+msg.Channel, func(ctx context.Context) error {
		body, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("messaging %s call: %w", msg.Channel, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return fmt.Errorf("messaging %s error (status %d): %s", msg.Channel, resp.StatusCode, string(b))
		}
		return nil
	})
}
