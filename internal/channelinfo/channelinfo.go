// Package channelinfo describes the "forwarded from channel" context attached to outgoing messages.
package channelinfo

import (
	"go.mau.fi/whatsmeow/proto/waE2E"
	"google.golang.org/protobuf/proto"
)

const (
	// NewsletterJID is the channel the bot's messages appear to be forwarded from.
	NewsletterJID = "120363319098372999@newsletter"

	forwardingScore = 1
	serverMessageID = -1
)

// Metadata is the forwarded-newsletter record. It is built once at startup.
type Metadata struct {
	ForwardingScore int
	IsForwarded     bool
	NewsletterJID   string
	NewsletterName  string
	ServerMessageID int
}

// New builds the metadata. newsletterName comes from configuration and may be empty.
func New(newsletterName string) Metadata {
	return Metadata{
		ForwardingScore: forwardingScore,
		IsForwarded:     true,
		NewsletterJID:   NewsletterJID,
		NewsletterName:  newsletterName,
		ServerMessageID: serverMessageID,
	}
}

// ContextInfo renders the metadata as a fresh WhatsApp context.
func (m Metadata) ContextInfo() *waE2E.ContextInfo {
	return m.Apply(&waE2E.ContextInfo{})
}

// Apply sets the forwarding fields on ci and returns it. A nil ci is allocated.
func (m Metadata) Apply(ci *waE2E.ContextInfo) *waE2E.ContextInfo {
	if ci == nil {
		ci = &waE2E.ContextInfo{}
	}
	ci.ForwardingScore = proto.Uint32(uint32(m.ForwardingScore))
	ci.IsForwarded = proto.Bool(m.IsForwarded)
	ci.ForwardedNewsletterMessageInfo = &waE2E.ContextInfo_ForwardedNewsletterMessageInfo{
		NewsletterJID:   proto.String(m.NewsletterJID),
		NewsletterName:  proto.String(m.NewsletterName),
		ServerMessageID: proto.Int32(int32(m.ServerMessageID)),
	}
	return ci
}
