package newsletter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"tweetpilot/internal/shared/config"
	"tweetpilot/internal/shared/telemetry"
)

// imapTimeout bounds the dial and every IMAP command after it.
const imapTimeout = 30 * time.Second

// Fetcher retrieves the newsletter content used as generation source
// material. The first successful fetch is cached to a local file; later
// calls return the cache without touching the inbox.
type Fetcher struct {
	cfg config.MailConfig
}

// NewFetcher builds a fetcher for the configured inbox.
func NewFetcher(cfg config.MailConfig) *Fetcher {
	return &Fetcher{cfg: cfg}
}

// Source returns the cached newsletter content, fetching and caching it on
// first use.
func (f *Fetcher) Source(ctx context.Context) (string, error) {
	if raw, err := os.ReadFile(f.cfg.CacheFile); err == nil && len(strings.TrimSpace(string(raw))) > 0 {
		telemetry.Debug("newsletter.cache_hit", map[string]any{"path": f.cfg.CacheFile})
		return string(raw), nil
	}

	content, err := f.fetchLatest(ctx)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(f.cfg.CacheFile, []byte(content), 0o644); err != nil {
		telemetry.Warn("newsletter.cache_write_failed", map[string]any{
			"path":  f.cfg.CacheFile,
			"error": err.Error(),
		})
	}
	return content, nil
}

// fetchLatest connects to the IMAP inbox over TLS and extracts the plain-text
// body of the newest message from the configured sender.
func (f *Fetcher) fetchLatest(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dialer := &net.Dialer{Timeout: imapTimeout}
	c, err := imapclient.DialWithDialerTLS(dialer, f.cfg.IMAPAddr, nil)
	if err != nil {
		return "", fmt.Errorf("imap dial %s: %w", f.cfg.IMAPAddr, err)
	}
	defer c.Logout()

	// The dialer only bounds the TCP+TLS handshake. Every IMAP command
	// after it must carry its own deadline, or a stalled server would pin
	// the dispatch goroutine until restart.
	c.Timeout = imapTimeout

	if err := c.Login(f.cfg.User, f.cfg.Password); err != nil {
		return "", fmt.Errorf("imap login: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := c.Select("INBOX", true); err != nil {
		return "", fmt.Errorf("imap select inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	if f.cfg.Sender != "" {
		criteria.Header.Add("From", f.cfg.Sender)
	}
	ids, err := c.Search(criteria)
	if err != nil {
		return "", fmt.Errorf("imap search: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("no newsletter messages from %q", f.cfg.Sender)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids[len(ids)-1])

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	msg := <-messages
	if err := <-done; err != nil {
		return "", fmt.Errorf("imap fetch: %w", err)
	}
	if msg == nil {
		return "", errors.New("imap fetch returned no message")
	}

	body := msg.GetBody(section)
	if body == nil {
		return "", errors.New("imap message has no body section")
	}

	content, err := extractPlainText(body)
	if err != nil {
		return "", err
	}

	telemetry.Info("newsletter.fetched", map[string]any{
		"sender": f.cfg.Sender,
		"bytes":  len(content),
	})
	return content, nil
}

func extractPlainText(r io.Reader) (string, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", fmt.Errorf("parse mail: %w", err)
	}

	var fallback string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read mail part: %w", err)
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, err := h.ContentType()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(p.Body)
		if err != nil {
			continue
		}
		if ct == "text/plain" {
			return string(raw), nil
		}
		if fallback == "" {
			fallback = string(raw)
		}
	}

	if fallback == "" {
		return "", errors.New("newsletter message has no readable body")
	}
	return fallback, nil
}
