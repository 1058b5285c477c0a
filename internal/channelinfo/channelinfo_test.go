package channelinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"google.golang.org/protobuf/proto"
)

func TestNew_FixedFields(t *testing.T) {
	m := New("MEGA Updates")

	assert.Equal(t, 1, m.ForwardingScore)
	assert.True(t, m.IsForwarded)
	assert.Equal(t, "120363319098372999@newsletter", m.NewsletterJID)
	assert.Equal(t, "MEGA Updates", m.NewsletterName)
	assert.Equal(t, -1, m.ServerMessageID)
}

func TestNew_EmptyNewsletterName(t *testing.T) {
	m := New("")
	assert.Equal(t, "", m.NewsletterName)
}

func TestContextInfo(t *testing.T) {
	ci := New("MEGA Updates").ContextInfo()

	require.NotNil(t, ci.ForwardedNewsletterMessageInfo)
	assert.Equal(t, uint32(1), ci.GetForwardingScore())
	assert.True(t, ci.GetIsForwarded())
	assert.Equal(t, NewsletterJID, ci.GetForwardedNewsletterMessageInfo().GetNewsletterJID())
	assert.Equal(t, "MEGA Updates", ci.GetForwardedNewsletterMessageInfo().GetNewsletterName())
	assert.Equal(t, int32(-1), ci.GetForwardedNewsletterMessageInfo().GetServerMessageID())
}

func TestApply_KeepsQuoteFields(t *testing.T) {
	ci := &waE2E.ContextInfo{
		StanzaID:    proto.String("ABC123"),
		Participant: proto.String("1234@s.whatsapp.net"),
	}

	out := New("x").Apply(ci)

	assert.Same(t, ci, out)
	assert.Equal(t, "ABC123", out.GetStanzaID())
	assert.Equal(t, "1234@s.whatsapp.net", out.GetParticipant())
	assert.True(t, out.GetIsForwarded())
}

func TestApply_Nil(t *testing.T) {
	out := New("x").Apply(nil)
	require.NotNil(t, out)
	assert.True(t, out.GetIsForwarded())
}

func TestContextInfo_FreshEachCall(t *testing.T) {
	m := New("x")
	a := m.ContextInfo()
	b := m.ContextInfo()
	assert.NotSame(t, a, b)
}
