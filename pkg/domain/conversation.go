package domain

// Conversation is a read-only snapshot of the message history.
// Participants receive a Conversation; only the graph driver holds the Log.
type Conversation struct {
	messages []Message
}

// NewConversation builds a snapshot from msgs. The slice is copied.
func NewConversation(msgs ...Message) Conversation {
	cp := make([]Message, len(msgs))
	copy(cp, msgs)
	return Conversation{messages: cp}
}

// Len returns the number of messages.
func (c Conversation) Len() int { return len(c.messages) }

// At returns the i-th message.
func (c Conversation) At(i int) Message { return c.messages[i] }

// Last returns the most recent message, or false on an empty history.
func (c Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Messages returns a copy of the history.
func (c Conversation) Messages() []Message {
	cp := make([]Message, len(c.messages))
	copy(cp, c.messages)
	return cp
}

// Log is the append-only history of a single run.
// It is owned by exactly one goroutine (the graph driver) and is not safe for
// concurrent use.
type Log struct {
	messages []Message
}

// NewLog creates a log seeded with one user message.
func NewLog(task string) *Log {
	return &Log{messages: []Message{UserMessage(task)}}
}

// Append adds msg to the end of the history.
func (l *Log) Append(msg Message) {
	l.messages = append(l.messages, msg)
}

// Len returns the number of messages.
func (l *Log) Len() int { return len(l.messages) }

// Snapshot returns the current history. The snapshot is capacity-clipped so a
// later Append reallocates instead of writing into memory the snapshot can see.
func (l *Log) Snapshot() Conversation {
	n := len(l.messages)
	return Conversation{messages: l.messages[:n:n]}
}
