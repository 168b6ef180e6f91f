package dialog

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultHistoryLimit caps the stored history when no limit is configured.
const DefaultHistoryLimit = 20

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AppendMessage returns a new history with msg at the end, dropping the
// oldest entries beyond limit. The input slice is never modified.
func AppendMessage(history []Message, msg Message, limit int) []Message {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	start := 0
	if len(history)+1 > limit {
		start = len(history) + 1 - limit
	}

	out := make([]Message, 0, len(history)-start+1)
	out = append(out, history[start:]...)
	return append(out, msg)
}

// RecentTurns returns the last n messages, for the extractor context window.
func RecentTurns(history []Message, n int) []Message {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
