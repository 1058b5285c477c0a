package whatsapp

import (
	"strings"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"github.com/blockedby/megamd/internal/bot"
	"github.com/blockedby/megamd/internal/channelinfo"
)

// TextOf returns the plain text of a message: the conversation body or the
// extended text. Other message kinds have no text.
func TextOf(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if c := msg.GetConversation(); c != "" {
		return strings.TrimSpace(c)
	}
	return strings.TrimSpace(msg.GetExtendedTextMessage().GetText())
}

// QuotedTextOf returns the text of the message msg replies to, if any.
func QuotedTextOf(msg *waE2E.Message) string {
	quoted := msg.GetExtendedTextMessage().GetContextInfo().GetQuotedMessage()
	if quoted == nil {
		return ""
	}
	return TextOf(quoted)
}

// toBotMessage converts a whatsmeow message event for the dispatcher.
func toBotMessage(evt *events.Message) bot.Message {
	return bot.Message{
		ChatID:     evt.Info.Chat.String(),
		SenderID:   evt.Info.Sender.String(),
		MessageID:  string(evt.Info.ID),
		Text:       TextOf(evt.Message),
		QuotedText: QuotedTextOf(evt.Message),
		FromMe:     evt.Info.IsFromMe,
		Raw:        evt,
	}
}

// buildReply makes a text message quoting evt. meta, when set, marks the reply
// as forwarded from the bot's channel.
func buildReply(text string, evt *events.Message, meta *channelinfo.Metadata) *waE2E.Message {
	var ci *waE2E.ContextInfo
	if evt != nil && evt.Message != nil {
		ci = &waE2E.ContextInfo{
			StanzaID:      proto.String(string(evt.Info.ID)),
			Participant:   proto.String(evt.Info.Sender.ToNonAD().String()),
			QuotedMessage: evt.Message,
		}
	}
	if meta != nil {
		ci = meta.Apply(ci)
	}

	if ci == nil {
		return &waE2E.Message{Conversation: proto.String(text)}
	}
	return &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String(text),
			ContextInfo: ci,
		},
	}
}
