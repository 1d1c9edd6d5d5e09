package models

import "time"

// ChatMessage is one question/answer exchange in a document conversation. The question is
// user-authored and the answer server-authored; AgentType names the agent that produced the
// answer. A message carries an explicit State so that a pending entry is distinguishable from a
// resolved one even when a real answer is legitimately empty.
type ChatMessage struct {
	Question  string
	Answer    string
	AgentType string
	Timestamp time.Time

	State MessageState
}

// MessageState marks whether a message has been confirmed by the server.
type MessageState string

const (
	// MessageStatePending marks a locally created entry whose answer has not arrived yet. Its
	// timestamp is the client's submission instant.
	MessageStatePending MessageState = "pending"
	// MessageStateFinal marks an entry confirmed by the server.
	MessageStateFinal MessageState = "final"
)

// AgentTypeUser tags a pending message before any agent has answered it.
const AgentTypeUser = "user"

// Pending reports whether the message is still awaiting its answer.
func (m ChatMessage) Pending() bool {
	return m.State == MessageStatePending
}
