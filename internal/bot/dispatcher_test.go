package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCommand records the invocation it received
type mockCommand struct {
	info     Info
	reply    string
	panicMsg string
	got      *Invocation
}

func (m *mockCommand) Info() Info { return m.info }

func (m *mockCommand) Execute(_ context.Context, inv *Invocation) Response {
	m.got = inv
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	return Response{Text: m.reply}
}

// mockReplier collects replies
type mockReplier struct {
	replies []Response
	msgs    []Message
	err     error
}

func (m *mockReplier) Reply(_ context.Context, msg Message, resp Response) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msg)
	m.replies = append(m.replies, resp)
	return nil
}

// mockPublisher collects events
type mockPublisher struct {
	events []CommandEvent
	err    error
}

func (m *mockPublisher) PublishCommandExecuted(_ context.Context, e CommandEvent) error {
	m.events = append(m.events, e)
	return m.err
}

func newShortCommand(reply string) *mockCommand {
	return &mockCommand{
		info:  Info{Name: "short", Aliases: []string{"shorten", "tiny", "surl"}},
		reply: reply,
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		name string
		args []string
		ok   bool
	}{
		{".short https://a.b", "short", []string{"https://a.b"}, true},
		{"  .SHORT   a   b ", "short", []string{"a", "b"}, true},
		{".tiny", "tiny", []string{}, true},
		{". short x", "short", []string{"x"}, true},
		{"short x", "", nil, false},
		{".", "", nil, false},
		{"", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, args, ok := Parse(".", tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			if tt.ok {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestParse_EmptyPrefixNeverMatches(t *testing.T) {
	_, _, ok := Parse("", "short x")
	assert.False(t, ok)
}

func TestDispatcher_RoutesAliasAndReplies(t *testing.T) {
	reg := NewRegistry()
	cmd := newShortCommand("done")
	require.NoError(t, reg.Register(cmd))

	replier := &mockReplier{}
	pub := &mockPublisher{}
	d := NewDispatcher(reg, ".", replier, pub, nil)

	msg := Message{ChatID: "chat@g.us", SenderID: "u@s.whatsapp.net", MessageID: "M1", Text: ".Tiny example.com", QuotedText: "quoted"}
	handled, err := d.Dispatch(context.Background(), msg)

	require.NoError(t, err)
	assert.True(t, handled)

	require.NotNil(t, cmd.got)
	assert.Equal(t, "short", cmd.got.Command)
	assert.Equal(t, "tiny", cmd.got.Alias)
	assert.Equal(t, []string{"example.com"}, cmd.got.Args)
	assert.Equal(t, "quoted", cmd.got.QuotedText)
	assert.Equal(t, ".", cmd.got.Prefix)
	assert.NotEqual(t, [16]byte{}, [16]byte(cmd.got.ID))

	require.Len(t, replier.replies, 1)
	assert.Equal(t, "done", replier.replies[0].Text)
	assert.Equal(t, "M1", replier.msgs[0].MessageID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, cmd.got.ID, pub.events[0].InvocationID)
	assert.True(t, pub.events[0].Replied)
}

func TestDispatcher_IgnoresNonCommands(t *testing.T) {
	reg := NewRegistry()
	cmd := newShortCommand("done")
	reg.MustRegister(cmd)
	replier := &mockReplier{}
	d := NewDispatcher(reg, ".", replier, nil, nil)

	for _, text := range []string{"hello", ".unknown x", ""} {
		handled, err := d.Dispatch(context.Background(), Message{Text: text})
		assert.NoError(t, err)
		assert.False(t, handled, text)
	}
	assert.Nil(t, cmd.got)
	assert.Empty(t, replier.replies)
}

func TestDispatcher_EmptyResponseSendsNothing(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(newShortCommand(""))
	replier := &mockReplier{}
	pub := &mockPublisher{}
	d := NewDispatcher(reg, ".", replier, pub, nil)

	handled, err := d.Dispatch(context.Background(), Message{Text: ".short"})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Empty(t, replier.replies)
	require.Len(t, pub.events, 1)
	assert.False(t, pub.events[0].Replied)
}

func TestDispatcher_ReplyErrorReturned(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(newShortCommand("done"))
	sendErr := errors.New("not connected")
	d := NewDispatcher(reg, ".", &mockReplier{err: sendErr}, nil, nil)

	handled, err := d.Dispatch(context.Background(), Message{Text: ".short x"})
	assert.True(t, handled)
	assert.ErrorIs(t, err, sendErr)
}

func TestDispatcher_PublishErrorIgnored(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(newShortCommand("done"))
	d := NewDispatcher(reg, ".", &mockReplier{}, &mockPublisher{err: errors.New("nats down")}, nil)

	handled, err := d.Dispatch(context.Background(), Message{Text: ".short x"})
	assert.True(t, handled)
	assert.NoError(t, err)
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	reg := NewRegistry()
	cmd := newShortCommand("never")
	cmd.panicMsg = "boom"
	reg.MustRegister(cmd)
	replier := &mockReplier{}
	d := NewDispatcher(reg, ".", replier, nil, nil)

	assert.NotPanics(t, func() {
		handled, err := d.Dispatch(context.Background(), Message{Text: ".short x"})
		assert.True(t, handled)
		assert.NoError(t, err)
	})
	assert.Empty(t, replier.replies)
}
