package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/megamd/internal/logger"
)

// Parse splits "<prefix><name> args..." into the lower-cased name and its args.
// ok is false when text is not a command.
func Parse(prefix, text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", nil, false
	}

	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// Dispatcher turns incoming messages into command invocations.
type Dispatcher struct {
	registry  *Registry
	prefix    string
	replier   Replier
	publisher EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewDispatcher creates a dispatcher. publisher may be nil.
func NewDispatcher(registry *Registry, prefix string, replier Replier, publisher EventPublisher, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		registry:  registry,
		prefix:    prefix,
		replier:   replier,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Dispatch runs the command named in msg, if any, and sends its reply.
// handled reports whether msg addressed a registered command. The returned
// error is the reply delivery error; command failures never surface here.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) (handled bool, err error) {
	name, args, ok := Parse(d.prefix, msg.Text)
	if !ok {
		return false, nil
	}

	cmd, ok := d.registry.Lookup(name)
	if !ok {
		d.log.Debug().Str("command", name).Msg("bot: unknown command")
		return false, nil
	}

	inv := &Invocation{
		ID:         uuid.New(),
		Command:    cmd.Info().Name,
		Alias:      name,
		Prefix:     d.prefix,
		Args:       args,
		Text:       msg.Text,
		QuotedText: msg.QuotedText,
		ChatID:     msg.ChatID,
		SenderID:   msg.SenderID,
		MessageID:  msg.MessageID,
		ReceivedAt: d.now(),
	}

	log := d.log.With().
		Str("invocation_id", inv.ID.String()).
		Str("command", inv.Command).
		Str("chat_id", inv.ChatID).
		Logger()
	log.Info().Str("alias", name).Msg("bot: executing command")

	resp := d.execute(ctx, cmd, inv)

	replied := false
	if resp.Text != "" && d.replier != nil {
		if err = d.replier.Reply(ctx, msg, resp); err != nil {
			log.Error().Err(err).Msg("bot: failed to send reply")
			err = fmt.Errorf("reply to %s: %w", inv.Command, err)
		} else {
			replied = true
		}
	}

	d.publish(ctx, inv, replied)
	return true, err
}

// execute shields the dispatcher from panicking commands.
func (d *Dispatcher) execute(ctx context.Context, cmd Command, inv *Invocation) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("invocation_id", inv.ID.String()).
				Str("command", inv.Command).
				Interface("panic", r).
				Msg("bot: command panicked")
			resp = Response{}
		}
	}()
	return cmd.Execute(ctx, inv)
}

func (d *Dispatcher) publish(ctx context.Context, inv *Invocation, replied bool) {
	if d.publisher == nil {
		return
	}

	event := CommandEvent{
		InvocationID: inv.ID,
		Command:      inv.Command,
		Alias:        inv.Alias,
		ChatID:       inv.ChatID,
		SenderID:     inv.SenderID,
		Replied:      replied,
		DurationMS:   d.now().Sub(inv.ReceivedAt).Milliseconds(),
		ExecutedAt:   d.now(),
	}
	if err := d.publisher.PublishCommandExecuted(ctx, event); err != nil {
		d.log.Warn().Err(err).Str("invocation_id", inv.ID.String()).Msg("bot: failed to publish command event")
	}
}
