package chat

import (
	"time"

	"github.com/lakeshore-ultimate/tally/internal/activity"
)

// NATS subjects the gateway publishes on.
const (
	SubjectMessageCreated = "chat.message.created"
	SubjectScoresCommand  = "chat.command.scores"
)

// MessageEvent is the gateway's wire form of one channel message.
type MessageEvent struct {
	ID        string         `json:"id"`
	Author    string         `json:"author"`
	Channel   string         `json:"channel"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Mentions  []MentionEvent `json:"mentions"`
}

// MentionEvent is one resolved participant mention within a message.
type MentionEvent struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
}

// ScoresCommand asks the bot to post the standings to a channel.
type ScoresCommand struct {
	Channel string `json:"channel"`
}

// Message converts the wire event into the pipeline's message type.
func (e MessageEvent) Message() activity.Message {
	msg := activity.Message{
		Ref:       e.ID,
		Author:    e.Author,
		Channel:   e.Channel,
		Content:   e.Content,
		Timestamp: e.Timestamp,
	}
	for _, m := range e.Mentions {
		msg.Mentions = append(msg.Mentions, activity.Mention{ID: m.ID, Handle: m.Handle})
	}
	return msg
}
