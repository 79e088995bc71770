package approval

import (
	"sync"
	"testing"
)

func TestRegisterLookup(t *testing.T) {
	tr := NewTracker()
	tr.Register("111.222", "hello", 0)

	sess, ok := tr.Lookup("111.222")
	if !ok {
		t.Fatalf("expected session to exist")
	}
	if sess.Text != "hello" || sess.Status != StatusPending {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if _, ok := tr.Lookup("999.999"); ok {
		t.Fatalf("expected lookup miss for unknown timestamp")
	}
}

func TestClaimWinsOnce(t *testing.T) {
	tr := NewTracker()
	tr.Register("1.0", "text", 0)

	if _, ok := tr.Claim("1.0"); !ok {
		t.Fatalf("first claim should win")
	}
	if _, ok := tr.Claim("1.0"); ok {
		t.Fatalf("second claim on inflight session should lose")
	}

	tr.Release("1.0")
	if _, ok := tr.Claim("1.0"); !ok {
		t.Fatalf("claim after release should win again")
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	tr := NewTracker()
	tr.Register("1.0", "text", 0)

	if !tr.Finalize("1.0", StatusApproved, "") {
		t.Fatalf("first finalize should succeed")
	}
	if tr.Finalize("1.0", StatusApproved, "") {
		t.Fatalf("second finalize must be a no-op")
	}
	if _, ok := tr.Lookup("1.0"); ok {
		t.Fatalf("finalized session must be removed")
	}
	if _, ok := tr.Claim("1.0"); ok {
		t.Fatalf("claim on finalized session must fail")
	}
}

func TestConcurrentClaimSingleWinner(t *testing.T) {
	tr := NewTracker()
	tr.Register("1.0", "text", 0)

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := tr.Claim("1.0"); ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var total int
	for range wins {
		total++
	}
	if total != 1 {
		t.Fatalf("expected exactly one winning claim, got %d", total)
	}
}

func TestConcurrentRegisterFinalize(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		ts := "1." + string(rune('0'+i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Register(ts, "t", 0)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Finalize(ts, StatusRejected, "")
		}()
	}
	wg.Wait()
}

func TestPendingByText(t *testing.T) {
	tr := NewTracker()
	tr.Register("1.0", "queued text", 0)

	if !tr.Pending("queued text") {
		t.Fatalf("expected text to be pending")
	}
	if tr.Pending("other text") {
		t.Fatalf("unexpected pending for unknown text")
	}

	tr.Finalize("1.0", StatusRejected, "")
	if tr.Pending("queued text") {
		t.Fatalf("finalized session must not count as pending")
	}
}
