// Package whatsapp connects the command dispatcher to a WhatsApp account via whatsmeow.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	// device store drivers, selected by Config.DBDialect
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/blockedby/megamd/internal/bot"
	"github.com/blockedby/megamd/internal/channelinfo"
	"github.com/blockedby/megamd/internal/logger"
)

// ErrNotConnected is returned by Reply before the client is connected.
var ErrNotConnected = errors.New("whatsapp client not connected")

// rateLimitPause is how long sends are held after a rate-overlimit answer.
const rateLimitPause = 30 * time.Second

// Handler receives incoming messages. *bot.Dispatcher implements it.
type Handler interface {
	Dispatch(ctx context.Context, msg bot.Message) (bool, error)
}

// Config holds the WhatsApp client configuration.
type Config struct {
	DBDialect string // "sqlite3" or "pgx"
	DBAddress string
	SendRPS   float64
	// Channel, when set, makes every reply look forwarded from the bot's channel.
	Channel  *channelinfo.Metadata
	QRWriter io.Writer
}

// Client wraps whatsmeow and implements bot.Replier.
type Client struct {
	wa        *whatsmeow.Client
	container *sqlstore.Container
	limiter   *RateLimiter
	channel   *channelinfo.Metadata
	qrOut     io.Writer
	log       *logger.Logger

	mu      sync.RWMutex
	handler Handler
	ctx     context.Context
}

// New opens the device store and prepares a client for its first device.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.QRWriter == nil {
		cfg.QRWriter = os.Stdout
	}

	limiter := DefaultRateLimiter()
	if cfg.SendRPS > 0 {
		limiter = NewRateLimiter(cfg.SendRPS, 3)
	}

	container, err := sqlstore.New(ctx, cfg.DBDialect, cfg.DBAddress,
		waLog.Zerolog(log.With().Str("component", "whatsmeow-db").Logger()))
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("load device: %w", err)
	}

	c := &Client{
		wa:        whatsmeow.NewClient(device, waLog.Zerolog(log.With().Str("component", "whatsmeow").Logger())),
		container: container,
		limiter:   limiter,
		channel:   cfg.Channel,
		qrOut:     cfg.QRWriter,
		log:       log.Component("whatsapp"),
		ctx:       context.Background(),
	}
	c.wa.AddEventHandler(c.onEvent)
	return c, nil
}

// SetHandler sets the receiver of incoming messages.
func (c *Client) SetHandler(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Start connects, printing a pairing QR code when no account is linked yet.
// Incoming commands run with ctx until Stop.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	if c.wa.Store.ID != nil {
		c.log.Info().Str("jid", c.wa.Store.ID.String()).Msg("whatsapp: connecting")
		return c.wa.Connect()
	}

	qrChan, err := c.wa.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("get qr channel: %w", err)
	}
	if err := c.wa.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	c.log.Info().Msg("whatsapp: no linked device, scan the QR code to pair")
	go func() {
		for item := range qrChan {
			if item.Event == "code" {
				qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, c.qrOut)
				continue
			}
			c.log.Info().Str("event", item.Event).Msg("whatsapp: pairing event")
		}
	}()
	return nil
}

// Stop disconnects and closes the device store.
func (c *Client) Stop() {
	c.wa.Disconnect()
	if err := c.container.Close(); err != nil {
		c.log.Warn().Err(err).Msg("whatsapp: failed to close device store")
	}
}

// IsConnected reports whether the websocket is up and logged in.
func (c *Client) IsConnected() bool {
	return c.wa.IsConnected() && c.wa.IsLoggedIn()
}

// Reply sends resp to the chat of msg, quoting msg.
func (c *Client) Reply(ctx context.Context, msg bot.Message, resp bot.Response) error {
	if !c.wa.IsConnected() {
		return ErrNotConnected
	}

	chat, err := types.ParseJID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("parse chat jid %q: %w", msg.ChatID, err)
	}

	evt, _ := msg.Raw.(*events.Message)
	out := buildReply(resp.Text, evt, c.channel)

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := c.wa.SendMessage(ctx, chat, out); err != nil {
		if isRateLimited(err) {
			c.log.Warn().Dur("pause", rateLimitPause).Msg("whatsapp: rate-overlimit, pausing sends")
			c.limiter.Pause(rateLimitPause)
		}
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (c *Client) onEvent(evt any) {
	switch v := evt.(type) {
	case *events.Message:
		if v.Info.Chat == types.StatusBroadcastJID {
			return
		}
		// whatsmeow delivers events serially; commands must not hold the loop
		go c.handleMessage(v)
	case *events.Connected:
		c.log.Info().Msg("whatsapp: connected")
	case *events.Disconnected:
		c.log.Warn().Msg("whatsapp: disconnected")
	case *events.LoggedOut:
		c.log.Error().Int("reason", int(v.Reason)).Msg("whatsapp: logged out, device must be paired again")
	}
}

func (c *Client) handleMessage(evt *events.Message) {
	c.mu.RLock()
	h, ctx := c.handler, c.ctx
	c.mu.RUnlock()

	if h == nil {
		return
	}

	msg := toBotMessage(evt)
	if msg.Text == "" {
		return
	}

	if _, err := h.Dispatch(ctx, msg); err != nil {
		c.log.Error().Err(err).Str("chat_id", msg.ChatID).Str("message_id", msg.MessageID).Msg("whatsapp: dispatch failed")
	}
}
