package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Gateway is the HTTP side of the chat gateway: reaction and reply
// attachment, channel posts, and history replay.
type Gateway struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

func NewGateway(baseURL, token string, logger *slog.Logger) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// AddReaction attaches an emoji marker to a message.
func (g *Gateway) AddReaction(ctx context.Context, messageRef, emoji string) error {
	path := fmt.Sprintf("/api/v1/messages/%s/reactions", url.PathEscape(messageRef))
	return g.post(ctx, path, map[string]any{"emoji": emoji})
}

// Reply posts a threaded reply to a message.
func (g *Gateway) Reply(ctx context.Context, messageRef, text string) error {
	path := fmt.Sprintf("/api/v1/messages/%s/reply", url.PathEscape(messageRef))
	return g.post(ctx, path, map[string]any{"text": text})
}

// PostMessage posts a new message to a channel.
func (g *Gateway) PostMessage(ctx context.Context, channel, text string) error {
	path := fmt.Sprintf("/api/v1/channels/%s/messages", url.PathEscape(channel))
	return g.post(ctx, path, map[string]any{"text": text})
}

// History fetches every channel message after the cutoff, oldest first.
// Used once at startup to replay anything delivered while we were down.
func (g *Gateway) History(ctx context.Context, channel string, after time.Time) ([]MessageEvent, error) {
	u := fmt.Sprintf("%s/api/v1/channels/%s/messages?after=%s",
		g.baseURL, url.PathEscape(channel), url.QueryEscape(after.Format(time.RFC3339)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
	}

	var events []MessageEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return events, nil
}

func (g *Gateway) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("gateway returned %d for %s", resp.StatusCode, path)
	}
	g.logger.Debug("gateway post", "path", path, "status", resp.StatusCode)
	return nil
}

func (g *Gateway) authorize(req *http.Request) {
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
}
