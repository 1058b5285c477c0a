// Package short implements the "short" chat command, which shortens a URL
// taken from the command, the message or the replied-to message.
package short

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blockedby/megamd/internal/bot"
	"github.com/blockedby/megamd/internal/logger"
	"github.com/blockedby/megamd/internal/shortener"
)

// Common errors
var (
	ErrEmptyInput   = errors.New("no url given")
	ErrMalformedURL = errors.New("invalid url")
)

// Shortener is the subset of the shortener client the command uses.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) (*shortener.Result, error)
}

// Command is the URL shortener command.
type Command struct {
	client Shortener
	log    *logger.Logger
}

// New creates the command.
func New(client Shortener, log *logger.Logger) *Command {
	if log == nil {
		log = logger.Nop()
	}
	return &Command{client: client, log: log}
}

// Info describes the command.
func (c *Command) Info() bot.Info {
	return bot.Info{
		Name:        "short",
		Aliases:     []string{"shorten", "tiny", "surl"},
		Category:    "tools",
		Description: "Shorten a URL using qasim-dev tiny.cc shortener.",
		Usage:       ".short <url>  (or reply to a message containing a url)",
	}
}

// Resolve finds the long URL for inv. Sources are tried in order: the command
// arguments, the invoking text without the command word, the quoted text.
func (c *Command) Resolve(inv *bot.Invocation) (string, error) {
	info := c.Info()
	names := append([]string{info.Name}, info.Aliases...)

	raw := ExtractURL(strings.Join(inv.Args, " "))
	if raw == "" {
		raw = ExtractURL(stripCommand(inv.Text, inv.Prefix, names))
	}
	if raw == "" {
		raw = ExtractURL(inv.QuotedText)
	}

	longURL := NormalizeURL(raw)
	if longURL == "" {
		return "", ErrEmptyInput
	}
	if !validShape(longURL) {
		return "", fmt.Errorf("%w: %q", ErrMalformedURL, longURL)
	}
	return longURL, nil
}

// Execute shortens the URL and always answers with a chat message.
func (c *Command) Execute(ctx context.Context, inv *bot.Invocation) bot.Response {
	text, err := c.run(ctx, inv)
	if err != nil {
		text = c.replyFor(inv, err)
	}
	return bot.Response{Text: text}
}

func (c *Command) run(ctx context.Context, inv *bot.Invocation) (string, error) {
	longURL, err := c.Resolve(inv)
	if err != nil {
		return "", err
	}

	res, err := c.client.Shorten(ctx, longURL)
	if err != nil {
		return "", err
	}

	original := res.LongURL
	if original == "" {
		original = longURL
	}

	return "✅ *Shortened!*\n\n" +
		"• Long: " + original + "\n" +
		"• Short: " + res.ShortURL, nil
}

// replyFor maps every failure to the text shown in chat.
func (c *Command) replyFor(inv *bot.Invocation, err error) string {
	var upErr *shortener.UpstreamError

	switch {
	case errors.Is(err, ErrEmptyInput):
		return usageText(inv.Prefix)
	case errors.Is(err, ErrMalformedURL):
		return fmt.Sprintf("❌ Invalid URL. Example: `%sshort https://test.com`", inv.Prefix)
	case errors.As(err, &upErr):
		c.log.Warn().
			Str("invocation_id", inv.ID.String()).
			Int("status", upErr.StatusCode).
			Str("reason", upErr.Reason).
			Msg("short: shortener refused url")
		return "❌ Failed to shorten.\nReason: " + upErr.Reason
	default:
		c.log.Error().Err(err).Str("invocation_id", inv.ID.String()).Msg("short: error")
		return "❌ Error while shortening URL. Try again later."
	}
}

func usageText(prefix string) string {
	return "🔗 *URL Shortener*\n\n" +
		"Usage:\n" +
		"• `" + prefix + "short https://example.com/very/long/link`\n" +
		"• Reply to a message that has a link: `" + prefix + "short`\n"
}
