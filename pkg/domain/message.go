package domain

import "encoding/json"

// MessageKind distinguishes user-facing prose from internal bookkeeping.
type MessageKind string

const (
	KindOrdinary   MessageKind = "ordinary"
	KindToolResult MessageKind = "tool_result"
)

// Message is one entry of the conversation.
// Its fields are unexported so the author is fixed at construction time.
type Message struct {
	author  string
	content string
	kind    MessageKind
}

// NewMessage creates a message. An empty kind defaults to KindOrdinary.
func NewMessage(author, content string, kind MessageKind) Message {
	if kind == "" {
		kind = KindOrdinary
	}
	return Message{author: author, content: content, kind: kind}
}

// UserMessage creates the seed message of a run.
func UserMessage(content string) Message {
	return NewMessage(UserAuthor, content, KindOrdinary)
}

func (m Message) Author() string     { return m.author }
func (m Message) Content() string    { return m.content }
func (m Message) Kind() MessageKind  { return m.kind }
func (m Message) IsToolResult() bool { return m.kind == KindToolResult }
func (m Message) IsZero() bool       { return m.author == "" && m.content == "" && m.kind == "" }

type messageJSON struct {
	Author  string      `json:"author"`
	Content string      `json:"content"`
	Kind    MessageKind `json:"kind"`
}

// MarshalJSON exposes the message to NDJSON and MCP consumers.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{Author: m.author, Content: m.content, Kind: m.kind})
}
