package infra

// channel.go
// Client for the messaging channel gateway's internal send endpoint. The
// gateway owns provider credentials and signature handling; this side only
// needs the base URL and an API key.

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ChannelMessage is one outbound message handed to the gateway.
type ChannelMessage struct {
	ChannelID string `json:"channel_id"`
	To        string `json:"to"`
	Body      string `json:"body"`
}

// ChannelClient sends replies through the channel gateway.
type ChannelClient struct {
	client *resty.Client
}

func NewChannelClient(baseURL, apiKey string) *ChannelClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &ChannelClient{client: client}
}

// SendMessage delivers one outbound message through the gateway.
func (c *ChannelClient) SendMessage(ctx context.Context, msg ChannelMessage) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post("/v1/messages")
	if err != nil {
		return fmt.Errorf("channel: gateway unreachable: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return fmt.Errorf("channel: gateway returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
