// Package openai is a thin client for the OpenAI Responses API, covering
// only what the activity classifier needs: structured output, response
// chaining via previous_response_id, and usage accounting.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultAPIURL = "https://api.openai.com/v1/responses"

type Client struct {
	apiKey string
	model  string
	client *http.Client
	apiURL string
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 120 * time.Second},
		apiURL: defaultAPIURL,
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(url string) {
	c.apiURL = url
}

// Request is one structured-output call. Instructions may be empty when a
// previous response ID carries the context forward.
type Request struct {
	Instructions       string
	Input              string
	PreviousResponseID string
	SchemaName         string
	Schema             json.RawMessage
}

// Result is a successful Responses API call: the raw structured-output
// text, the ID to chain the next call to, and token usage.
type Result struct {
	ID           string
	OutputText   string
	InputTokens  int
	OutputTokens int
}

type textFormat struct {
	Type   string          `json:"type"`
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type request struct {
	Model              string      `json:"model"`
	Instructions       string      `json:"instructions,omitempty"`
	Input              string      `json:"input"`
	PreviousResponseID string      `json:"previous_response_id,omitempty"`
	Text               *textOption `json:"text,omitempty"`
}

type textOption struct {
	Format textFormat `json:"format"`
}

type response struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Respond submits one request and returns the parsed result. Any backend
// failure comes back as an error; the caller must treat that as "no
// result", distinct from a response with zero activities.
func (c *Client) Respond(ctx context.Context, r Request) (*Result, error) {
	reqBody := request{
		Model:              c.model,
		Instructions:       r.Instructions,
		Input:              r.Input,
		PreviousResponseID: r.PreviousResponseID,
	}
	if len(r.Schema) > 0 {
		reqBody.Text = &textOption{Format: textFormat{
			Type:   "json_schema",
			Name:   r.SchemaName,
			Strict: true,
			Schema: r.Schema,
		}}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("api error %d: %s — %s", resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("response error %s: %s", apiResp.Error.Code, apiResp.Error.Message)
	}

	text := outputText(apiResp)
	if text == "" {
		return nil, fmt.Errorf("empty response output")
	}

	return &Result{
		ID:           apiResp.ID,
		OutputText:   text,
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
	}, nil
}

func outputText(r response) string {
	for _, out := range r.Output {
		if out.Type != "message" {
			continue
		}
		for _, c := range out.Content {
			if c.Type == "output_text" && c.Text != "" {
				return c.Text
			}
		}
	}
	return ""
}
