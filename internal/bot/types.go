// Package bot routes chat commands to the registered command plugins.
package bot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Info describes a command for help output and the status endpoint.
type Info struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	Usage       string   `json:"usage,omitempty"`
}

// Command is a single chat command plugin.
// Execute must not panic or block forever; failures are reported in the Response text.
type Command interface {
	Info() Info
	Execute(ctx context.Context, inv *Invocation) Response
}

// Message is an incoming chat message as seen by the dispatcher.
type Message struct {
	ChatID     string
	SenderID   string
	MessageID  string
	Text       string // text of the message itself
	QuotedText string // text of the replied-to message, empty when none
	FromMe     bool
	Raw        any // transport handle handed back to the Replier
}

// Invocation is one command call. It lives for the duration of Execute.
type Invocation struct {
	ID         uuid.UUID
	Command    string   // canonical command name
	Alias      string   // word the user typed
	Prefix     string   // command prefix, e.g. "."
	Args       []string // whitespace-separated words after the command
	Text       string   // full text of the invoking message
	QuotedText string
	ChatID     string
	SenderID   string
	MessageID  string
	ReceivedAt time.Time
}

// Response is what a command wants sent back. Empty Text sends nothing.
type Response struct {
	Text string
}

// Replier delivers a response to the chat the message came from, quoting it.
type Replier interface {
	Reply(ctx context.Context, msg Message, resp Response) error
}

// CommandEvent is published after each executed command.
type CommandEvent struct {
	InvocationID uuid.UUID `json:"invocation_id"`
	Command      string    `json:"command"`
	Alias        string    `json:"alias"`
	ChatID       string    `json:"chat_id"`
	SenderID     string    `json:"sender_id"`
	Replied      bool      `json:"replied"`
	DurationMS   int64     `json:"duration_ms"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// EventPublisher publishes command events. It may be nil in the dispatcher.
type EventPublisher interface {
	PublishCommandExecuted(ctx context.Context, event CommandEvent) error
}
