package short

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/megamd/internal/bot"
	"github.com/blockedby/megamd/internal/shortener"
)

// mockShortener records calls and returns canned results
type mockShortener struct {
	calls  []string
	result *shortener.Result
	err    error
}

func (m *mockShortener) Shorten(_ context.Context, longURL string) (*shortener.Result, error) {
	m.calls = append(m.calls, longURL)
	return m.result, m.err
}

func newInvocation(args []string, text, quoted string) *bot.Invocation {
	return &bot.Invocation{
		ID:         uuid.New(),
		Command:    "short",
		Alias:      "short",
		Prefix:     ".",
		Args:       args,
		Text:       text,
		QuotedText: quoted,
	}
}

func TestCommand_Info(t *testing.T) {
	info := New(&mockShortener{}, nil).Info()
	assert.Equal(t, "short", info.Name)
	assert.ElementsMatch(t, []string{"shorten", "tiny", "surl"}, info.Aliases)
	assert.Equal(t, "tools", info.Category)
}

func TestCommand_Resolve_Sources(t *testing.T) {
	cmd := New(&mockShortener{}, nil)

	t.Run("args first", func(t *testing.T) {
		got, err := cmd.Resolve(newInvocation([]string{"example.com"}, ".short example.com", "https://quoted.io"))
		require.NoError(t, err)
		assert.Equal(t, "http://example.com", got)
	})

	t.Run("message text without command word", func(t *testing.T) {
		got, err := cmd.Resolve(newInvocation(nil, ".shorten https://msg.io/x", ""))
		require.NoError(t, err)
		assert.Equal(t, "https://msg.io/x", got)
	})

	t.Run("quoted text last", func(t *testing.T) {
		got, err := cmd.Resolve(newInvocation(nil, ".short", "look at https://quoted.io/page please"))
		require.NoError(t, err)
		assert.Equal(t, "https://quoted.io/page", got)
	})

	t.Run("nothing anywhere", func(t *testing.T) {
		_, err := cmd.Resolve(newInvocation(nil, ".short", ""))
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("too short to be a url", func(t *testing.T) {
		_, err := cmd.Resolve(newInvocation([]string{"https://ab"}, ".short https://ab", ""))
		assert.ErrorIs(t, err, ErrMalformedURL)
	})
}

func TestCommand_Execute_UsageWithoutNetworkCall(t *testing.T) {
	client := &mockShortener{}
	cmd := New(client, nil)

	resp := cmd.Execute(context.Background(), newInvocation(nil, "", ""))

	assert.Contains(t, resp.Text, "Usage")
	assert.Contains(t, resp.Text, ".short https://example.com/very/long/link")
	assert.Empty(t, client.calls)
}

func TestCommand_Execute_InvalidURL(t *testing.T) {
	client := &mockShortener{}
	cmd := New(client, nil)

	resp := cmd.Execute(context.Background(), newInvocation([]string{"http://x"}, ".short http://x", ""))

	assert.Contains(t, resp.Text, "Invalid URL")
	assert.Empty(t, client.calls)
}

func TestCommand_Execute_Success(t *testing.T) {
	client := &mockShortener{result: &shortener.Result{ShortURL: "https://t.cc/x", LongURL: "http://example.com/page"}}
	cmd := New(client, nil)

	resp := cmd.Execute(context.Background(), newInvocation(nil, ".short check this out example.com/page hello", ""))

	require.Equal(t, []string{"http://example.com/page"}, client.calls)
	assert.Contains(t, resp.Text, "Shortened")
	assert.Contains(t, resp.Text, "• Long: http://example.com/page")
	assert.Contains(t, resp.Text, "• Short: https://t.cc/x")
}

func TestCommand_Execute_UpstreamReason(t *testing.T) {
	client := &mockShortener{err: &shortener.UpstreamError{Reason: "rate limited", StatusCode: 429}}
	cmd := New(client, nil)

	resp := cmd.Execute(context.Background(), newInvocation([]string{"https://example.com"}, "", ""))

	assert.Contains(t, resp.Text, "Failed to shorten")
	assert.Contains(t, resp.Text, "rate limited")
}

func TestCommand_Execute_UnexpectedError(t *testing.T) {
	client := &mockShortener{err: errors.New("connection reset")}
	cmd := New(client, nil)

	resp := cmd.Execute(context.Background(), newInvocation([]string{"https://example.com"}, "", ""))

	assert.Equal(t, "❌ Error while shortening URL. Try again later.", resp.Text)
	assert.NotContains(t, resp.Text, "connection reset")
}

func TestCommand_Execute_AgainstAPI(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   []string
	}{
		{
			name:   "success without echoed long url",
			status: http.StatusOK,
			body:   `{"success":true,"data":{"short_url":"https://t.cc/x"}}`,
			want:   []string{"https://t.cc/x", "https://example.com/long"},
		},
		{
			name:   "failure message",
			status: http.StatusOK,
			body:   `{"success":false,"message":"rate limited"}`,
			want:   []string{"Reason: rate limited"},
		},
		{
			name:   "non-2xx without body fields",
			status: http.StatusServiceUnavailable,
			body:   `{}`,
			want:   []string{"Reason: HTTP 503"},
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `oops`,
			want:   []string{"Try again later"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				assert.Equal(t, "https://example.com/long", r.URL.Query().Get("url"))
				assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := shortener.NewClient(shortener.Config{BaseURL: srv.URL, APIKey: "test-key"})
			cmd := New(client, nil)

			resp := cmd.Execute(context.Background(), newInvocation([]string{"https://example.com/long"}, "", ""))

			assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
			for _, w := range tt.want {
				assert.Contains(t, resp.Text, w)
			}
		})
	}
}

func TestCommand_ThroughDispatcher(t *testing.T) {
	client := &mockShortener{result: &shortener.Result{ShortURL: "https://t.cc/q"}}
	reg := bot.NewRegistry()
	reg.MustRegister(New(client, nil))

	var replies []string
	d := bot.NewDispatcher(reg, ".", replierFunc(func(_ context.Context, _ bot.Message, r bot.Response) error {
		replies = append(replies, r.Text)
		return nil
	}), nil, nil)

	handled, err := d.Dispatch(context.Background(), bot.Message{Text: ".surl", QuotedText: "https://quoted.io/a/b"})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"https://quoted.io/a/b"}, client.calls)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "https://t.cc/q")
}

type replierFunc func(ctx context.Context, msg bot.Message, resp bot.Response) error

func (f replierFunc) Reply(ctx context.Context, msg bot.Message, resp bot.Response) error {
	return f(ctx, msg, resp)
}
