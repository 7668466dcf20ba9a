// Package normalize rewrites raw chat text before classification. It is a
// pure transformation: no network, no storage, never fails.
package normalize

import (
	"strings"
	"time"

	"github.com/lakeshore-ultimate/tally/internal/activity"
)

// Message rewrites every participant mention in the content to the display
// form "@handle" and re-expresses the timestamp in loc, the fixed zone all
// dates resolve against. The platform encodes a mention of the same user
// two ways, with and without the nickname bang; both collapse to the same
// display string.
func Message(msg activity.Message, loc *time.Location) activity.Message {
	content := msg.Content
	for _, m := range msg.Mentions {
		display := "@" + m.Handle
		content = strings.ReplaceAll(content, "<@!"+m.ID+">", display)
		content = strings.ReplaceAll(content, "<@"+m.ID+">", display)
	}
	msg.Content = content
	msg.Timestamp = msg.Timestamp.In(loc)
	return msg
}

// Date returns the calendar date of the message in the normalizer's zone,
// the default activity date when the text names none.
func Date(msg activity.Message) string {
	return msg.Timestamp.Format("2006-01-02")
}
