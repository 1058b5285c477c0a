// Package session downloads the bot's login credentials from a remote gist and
// stores them in the local session directory. The file is opaque here: the
// WhatsApp client keeps its own device store and never reads it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/blockedby/megamd/internal/logger"
)

const (
	// DefaultFileName is the credential file inside the session directory.
	DefaultFileName = "creds.json"

	// DefaultTimeout bounds a single credential download.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 16 << 20
	maxLogBody   = 2048
)

// Config holds the bootstrapper configuration.
type Config struct {
	Dir          string
	FileName     string
	DefaultOwner string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Bootstrapper fetches credential blobs and persists them verbatim.
type Bootstrapper struct {
	dir          string
	fileName     string
	defaultOwner string
	timeout      time.Duration
	client       *http.Client
	log          *logger.Logger
}

// NewBootstrapper creates a bootstrapper, filling unset fields with defaults.
func NewBootstrapper(cfg Config, log *logger.Logger) *Bootstrapper {
	if cfg.Dir == "" {
		cfg.Dir = "session"
	}
	if cfg.FileName == "" {
		cfg.FileName = DefaultFileName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Bootstrapper{
		dir:          cfg.Dir,
		fileName:     cfg.FileName,
		defaultOwner: cfg.DefaultOwner,
		timeout:      cfg.Timeout,
		client:       cfg.HTTPClient,
		log:          log,
	}
}

// Path returns the credential file location.
func (b *Bootstrapper) Path() string {
	return filepath.Join(b.dir, b.fileName)
}

// FetchAndStore resolves identifier, downloads the credentials and writes them
// to Path, replacing any previous file. It returns the written path.
// No retries: every failure is returned to the caller.
func (b *Bootstrapper) FetchAndStore(ctx context.Context, identifier string) (string, error) {
	url, err := ResolveURL(identifier, b.defaultOwner)
	if err != nil {
		return "", err
	}

	b.log.Info().Str("url", url).Msg("session: downloading credentials")

	data, err := b.fetch(ctx, url)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			ev := b.log.Error().Err(fe.Err).Str("url", fe.URL)
			if fe.StatusCode != 0 {
				ev = ev.Int("status", fe.StatusCode).Str("response", truncate(fe.Body, maxLogBody))
			}
			ev.Msg("session: error downloading credentials")
		}
		return "", err
	}

	if err := os.MkdirAll(b.dir, 0755); err != nil {
		b.log.Error().Err(err).Str("dir", b.dir).Msg("session: failed to create session directory")
		return "", fmt.Errorf("create session directory: %w", err)
	}

	path := b.Path()
	if err := writeFile(path, data, 0600); err != nil {
		b.log.Error().Err(err).Str("path", path).Msg("session: failed to save credentials")
		return "", fmt.Errorf("save credentials: %w", err)
	}

	b.log.Info().Str("path", path).Int("bytes", len(data)).Msg("session: credentials saved")
	return path, nil
}

func (b *Bootstrapper) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxBodyBytes {
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(body[:maxLogBody]),
			Err:        fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, maxBodyBytes),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        ErrUnexpectedStatus,
		}
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
