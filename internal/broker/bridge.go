// Package broker talks to the external broker-proxy pair: a producer service
// that publishes messages and a consumer service that manages subscriptions.
// The engine never touches the transport itself.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatrelay/backend/internal/engine"
	"chatrelay/backend/internal/models"
)

// Client implements engine.BrokerBridge over the proxy's HTTP surface. Calls
// are synchronous and are not retried: a non-2xx answer is surfaced verbatim
// as an UpstreamError.
type Client struct {
	http *http.Client

	brokerURL    string // transport address, passed through to the proxy
	producerURL  string // service handling /send_message
	consumerURL  string // service handling /connect and /disconnect
	callbackBase string // this API's inbound endpoint, without the conversation id
}

func NewClient(brokerURL, producerURL, consumerURL, callbackBase string, timeout time.Duration) *Client {
	return &Client{
		http:         &http.Client{Timeout: timeout},
		brokerURL:    brokerURL,
		producerURL:  producerURL,
		consumerURL:  consumerURL,
		callbackBase: callbackBase,
	}
}

type connectPayload struct {
	BrokerURL string `json:"brokerUrl"`
	APIURL    string `json:"apiUrl"`
	Name      string `json:"name"`
	Type      string `json:"type"`
}

type sendPayload struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	BrokerURL string `json:"brokerUrl"`
	Type      string `json:"type"`
}

// Open subscribes the proxy to a conversation. The callback URL embeds the
// conversation id as its last path segment, so inbound pushes need no name
// resolution on the proxy side.
func (c *Client) Open(ctx context.Context, conversationID string, kind models.ConversationKind) error {
	return c.post(ctx, c.consumerURL+"/connect", connectPayload{
		BrokerURL: c.brokerURL,
		APIURL:    c.callbackBase + "/" + conversationID,
		Name:      conversationID,
		Type:      string(kind),
	})
}

// Publish hands a message to the proxy for transport.
func (c *Client) Publish(ctx context.Context, conversationID, senderHandle, body string, kind models.ConversationKind) error {
	return c.post(ctx, c.producerURL+"/send_message", sendPayload{
		Name:      conversationID,
		Username:  senderHandle,
		Message:   body,
		BrokerURL: c.brokerURL,
		Type:      string(kind),
	})
}

// Close tears down the proxy's current subscription.
func (c *Client) Close(ctx context.Context) error {
	return c.post(ctx, c.consumerURL+"/disconnect", struct{}{})
}

func (c *Client) post(ctx context.Context, url string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("broker proxy unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &engine.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}
