package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"tweetpilot/internal/shared/telemetry"
)

const (
	signatureVersion   = "v0"
	timestampTolerance = 5 * time.Minute
)

// Verifier checks that inbound webhook requests genuinely originate from
// Slack. With no signing secret configured it degrades to always-trusted,
// which is an operational escape hatch for local development only and is
// warned about on every single request.
type Verifier struct {
	secret string
	now    func() time.Time
}

// NewVerifier builds a verifier for the given signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret, now: time.Now}
}

// NewVerifierAt builds a verifier with an injected clock.
func NewVerifierAt(secret string, now func() time.Time) *Verifier {
	if now == nil {
		now = time.Now
	}
	return &Verifier{secret: secret, now: now}
}

// Verify reports whether the request body matches the claimed signature and
// the claimed timestamp is within the replay tolerance window.
func (v *Verifier) Verify(body []byte, timestamp, signature string) bool {
	if v.secret == "" {
		telemetry.Warn("slack.verify_skipped", map[string]any{
			"reason": "SLACK_SIGNING_SECRET not set - accepting request unverified",
		})
		return true
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		telemetry.Warn("slack.verify_rejected", map[string]any{"reason": "bad timestamp header"})
		return false
	}

	age := v.now().Sub(time.Unix(ts, 0))
	if age > timestampTolerance || age < -timestampTolerance {
		telemetry.Warn("slack.verify_rejected", map[string]any{
			"reason": "timestamp outside tolerance",
			"age_s":  int64(age.Seconds()),
		})
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	computed := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(signature)) {
		telemetry.Warn("slack.verify_rejected", map[string]any{"reason": "signature mismatch"})
		return false
	}
	return true
}

// Sign computes the signature Slack would send for the given timestamp and
// body. Exposed for tests.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}
