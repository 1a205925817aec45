package widget

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/taxmonster/backend/internal/model/chat"
)

const maxReplyBytes = 16 << 20

// HTTPTransport posts transcripts to the relay endpoint.
type HTTPTransport struct {
	url    string
	client *http.Client
}

// NewHTTPTransport targets url, e.g. http://localhost:8080/api/chat.
// A nil client gets a 60s timeout.
func NewHTTPTransport(url string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPTransport{url: url, client: client}
}

// Send implements Transport. Any non-2xx status, or a reply without text, is an error.
func (t *HTTPTransport) Send(ctx context.Context, transcript []chat.Message) (chat.Reply, error) {
	body, err := sonic.Marshal(chat.Request{Messages: transcript})
	if err != nil {
		return chat.Reply{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return chat.Reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return chat.Reply{}, fmt.Errorf("read reply: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure chat.ErrorBody
		if sonic.Unmarshal(data, &failure) == nil && failure.Error != "" {
			return chat.Reply{}, fmt.Errorf("relay returned %d: %s", resp.StatusCode, failure.Error)
		}
		return chat.Reply{}, fmt.Errorf("relay returned %d", resp.StatusCode)
	}

	var reply chat.Reply
	if err := sonic.Unmarshal(data, &reply); err != nil {
		return chat.Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	if strings.TrimSpace(reply.Message) == "" {
		return chat.Reply{}, fmt.Errorf("relay reply has no message")
	}
	return reply, nil
}
