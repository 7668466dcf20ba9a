// Package classifier adapts the language-model backend into the pipeline's
// terms: it builds the request for one normalized message, chains calls
// through a session so the instructions are only sent once, and parses the
// structured result into candidates.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lakeshore-ultimate/tally/internal/activity"
	"github.com/lakeshore-ultimate/tally/internal/metrics"
	"github.com/lakeshore-ultimate/tally/internal/openai"
)

// Backend is the slice of the OpenAI client the classifier uses.
type Backend interface {
	Respond(ctx context.Context, r openai.Request) (*openai.Result, error)
}

// Session carries the continuity token across calls. Owned by the
// recorder, which serializes access; the classifier only reads and writes
// it inside a call the recorder has already locked.
type Session struct {
	PreviousResponseID string
}

// Response is one classification outcome: the candidates found in a
// message, plus an optional reply to post back to the channel.
type Response struct {
	Activities   []activity.Candidate `json:"activities"`
	TextResponse string               `json:"text_response"`
}

type Classifier struct {
	backend Backend
	logger  *slog.Logger
}

func New(backend Backend, logger *slog.Logger) *Classifier {
	return &Classifier{backend: backend, logger: logger}
}

// Classify submits one normalized message and returns the parsed response.
// On any backend failure it returns an error and leaves the session
// untouched, so the message stays eligible for a later replay and the next
// call resends the full instructions if none have landed yet.
func (c *Classifier) Classify(ctx context.Context, sess *Session, msg activity.Message) (*Response, error) {
	req := openai.Request{
		Input:              formatInput(msg),
		PreviousResponseID: sess.PreviousResponseID,
		SchemaName:         "activity_log",
		Schema:             json.RawMessage(responseSchema),
	}
	if sess.PreviousResponseID == "" {
		req.Instructions = instructions
	}

	result, err := c.backend.Respond(ctx, req)
	if err != nil {
		metrics.ClassifierError()
		return nil, fmt.Errorf("classify message %s: %w", msg.Ref, err)
	}

	var resp Response
	if err := json.Unmarshal([]byte(result.OutputText), &resp); err != nil {
		metrics.ClassifierError()
		c.logger.Error("failed to parse classifier output",
			"message_ref", msg.Ref,
			"error", err,
			"raw", result.OutputText,
		)
		return nil, fmt.Errorf("parse classifier output: %w", err)
	}

	sess.PreviousResponseID = result.ID
	metrics.Usage(result.InputTokens, result.OutputTokens)

	c.logger.Info("message classified",
		"message_ref", msg.Ref,
		"activities", len(resp.Activities),
		"input_tokens", result.InputTokens,
		"output_tokens", result.OutputTokens,
	)

	return &resp, nil
}

func formatInput(msg activity.Message) string {
	return fmt.Sprintf("User ID: %q\nMessage date: %s\nMessage content: %q\n",
		msg.Author,
		msg.Timestamp.Format("2006-01-02 15:04:05"),
		msg.Content,
	)
}
