package newsletter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"tweetpilot/internal/shared/config"
)

func TestSourceReturnsCacheWithoutDialing(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "newsletter_cache.txt")
	if err := os.WriteFile(cache, []byte("cached newsletter"), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	// An unroutable address proves the inbox is never contacted on a hit.
	f := NewFetcher(config.MailConfig{
		IMAPAddr:  "invalid.localdomain:993",
		CacheFile: cache,
	})

	got, err := f.Source(context.Background())
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if got != "cached newsletter" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestSourceHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(config.MailConfig{
		IMAPAddr:  "invalid.localdomain:993",
		CacheFile: filepath.Join(t.TempDir(), "missing_cache.txt"),
	})

	// Must return immediately instead of attempting the inbox.
	if _, err := f.Source(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExtractPlainTextPrefersTextPart(t *testing.T) {
	raw := strings.Join([]string{
		"From: Newsletter <news@example.com>",
		"To: me@example.com",
		"Subject: Weekly digest",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain body here",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>html body</p>",
		"--b1--",
		"",
	}, "\r\n")

	got, err := extractPlainText(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("extractPlainText: %v", err)
	}
	if strings.TrimSpace(got) != "plain body here" {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestExtractPlainTextDecodesLegacyCharset(t *testing.T) {
	raw := strings.Join([]string{
		"From: Newsletter <news@example.com>",
		"Subject: Weekly digest",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=ISO-8859-1",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"caf=E9 recommendations",
		"",
	}, "\r\n")

	got, err := extractPlainText(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("extractPlainText: %v", err)
	}
	if !strings.Contains(got, "café") {
		t.Fatalf("expected decoded latin-1 text, got %q", got)
	}
}

func TestExtractPlainTextFallsBackToFirstInlinePart(t *testing.T) {
	raw := strings.Join([]string{
		"From: Newsletter <news@example.com>",
		"Subject: Weekly digest",
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>only html</p>",
		"",
	}, "\r\n")

	got, err := extractPlainText(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("extractPlainText: %v", err)
	}
	if !strings.Contains(got, "only html") {
		t.Fatalf("expected html fallback, got %q", got)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "posted_tweets.json"))

	entries, err := h.List()
	if err != nil {
		t.Fatalf("List on missing file: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history, got %v", entries)
	}

	if err := h.Add("first"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := h.Add("second"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	entries, err = h.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(entries, []string{"first", "second"}) {
		t.Fatalf("unexpected history: %v", entries)
	}
}
