package slack

import (
	"fmt"
	"strconv"
	"testing"
	"time"
)

func TestVerifyAcceptsValidSignature(t *testing.T) {
	secret := "8f742231b10e8888abcd99yyyzzz85a5"
	body := []byte("payload=%7B%22type%22%3A%22block_actions%22%7D")
	now := time.Unix(1700000000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)

	v := NewVerifierAt(secret, func() time.Time { return now })
	if !v.Verify(body, ts, Sign(secret, ts, body)) {
		t.Fatalf("expected valid signature to be accepted")
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	secret := "topsecret"
	body := []byte("payload=x")
	now := time.Unix(1700000000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := Sign(secret, ts, body)

	v := NewVerifierAt(secret, func() time.Time { return now })

	// Flip one hex character at every position past the "v0=" prefix.
	for i := 3; i < len(sig); i++ {
		flipped := []byte(sig)
		if flipped[i] == '0' {
			flipped[i] = '1'
		} else {
			flipped[i] = '0'
		}
		if v.Verify(body, ts, string(flipped)) {
			t.Fatalf("accepted signature with flipped byte at %d", i)
		}
	}
}

func TestVerifyRejectsWrongBody(t *testing.T) {
	secret := "topsecret"
	now := time.Unix(1700000000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := Sign(secret, ts, []byte("payload=original"))

	v := NewVerifierAt(secret, func() time.Time { return now })
	if v.Verify([]byte("payload=tampered"), ts, sig) {
		t.Fatalf("accepted signature for a different body")
	}
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	secret := "topsecret"
	body := []byte("payload=x")
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{name: "fresh", age: 0, want: true},
		{name: "edge of window", age: 5 * time.Minute, want: true},
		{name: "just past window", age: 5*time.Minute + time.Second, want: false},
		{name: "hours old", age: 3 * time.Hour, want: false},
		{name: "from the future past window", age: -(5*time.Minute + time.Second), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := strconv.FormatInt(now.Add(-tt.age).Unix(), 10)
			v := NewVerifierAt(secret, func() time.Time { return now })
			got := v.Verify(body, ts, Sign(secret, ts, body))
			if got != tt.want {
				t.Fatalf("age=%v: got %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestVerifyRejectsMalformedTimestamp(t *testing.T) {
	v := NewVerifierAt("topsecret", nil)
	if v.Verify([]byte("x"), "not-a-number", "v0=deadbeef") {
		t.Fatalf("accepted malformed timestamp")
	}
}

func TestVerifyWithoutSecretAcceptsEverything(t *testing.T) {
	v := NewVerifierAt("", func() time.Time { return time.Unix(1700000000, 0) })
	if !v.Verify([]byte("anything"), "0", "v0=bogus") {
		t.Fatalf("expected unverified acceptance when no secret configured")
	}
}

func TestSignFormat(t *testing.T) {
	sig := Sign("s", "123", []byte("b"))
	if len(sig) != 3+64 {
		t.Fatalf("unexpected signature length: %d", len(sig))
	}
	if sig[:3] != "v0=" {
		t.Fatalf("unexpected signature prefix: %s", sig[:3])
	}
	want := fmt.Sprintf("v0=%s", sig[3:])
	if sig != want {
		t.Fatalf("signature mismatch")
	}
}
