// Package prompt builds the instructions shared by the model-backed adapters.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/foreman/pkg/domain"
)

// Supervisor returns the routing instructions for a team.
// options are the worker identities; FINISH is appended when missing.
func Supervisor(options []string) string {
	workers := make([]string, 0, len(options))
	for _, o := range options {
		if o != domain.Done {
			workers = append(workers, o)
		}
	}
	return fmt.Sprintf("You are a supervisor tasked with managing a conversation between the"+
		" following workers: %s. Given the following user request,"+
		" respond with the worker to act next. Each worker will perform a"+
		" task and respond with their results and status. When finished,"+
		" respond with %s.", strings.Join(workers, ", "), domain.Done)
}

// Transcript renders a conversation as "author: content" blocks.
func Transcript(conv domain.Conversation) string {
	var sb strings.Builder
	for i, msg := range conv.Messages() {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%s: %s", msg.Author(), msg.Content())
	}
	return sb.String()
}

// DecodeJSON decodes a reply that is exactly one JSON object, optionally
// wrapped in a single code fence. Prose around the object is rejected.
func DecodeJSON(text string, v any) error {
	body := unfence(strings.TrimSpace(text))
	if !strings.HasPrefix(body, "{") || !strings.HasSuffix(body, "}") {
		return fmt.Errorf("reply is not a JSON object: %q", truncate(text, 80))
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("invalid JSON object: %w", err)
	}
	return nil
}

// unfence strips a surrounding ``` or ```json fence.
func unfence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s[3:], "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.HasPrefix(strings.TrimSpace(s[:nl]), "{") {
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
