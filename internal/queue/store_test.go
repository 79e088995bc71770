package queue

import (
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "generated_tweets.json")
	return NewStore(path), path
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store, path := newTestStore(t)

	candidates, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected empty queue, got %d entries", len(candidates))
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Load must not create the file")
	}
}

func TestLoadCorruptFileIsError(t *testing.T) {
	store, path := newTestStore(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := store.Load(); err == nil {
		t.Fatalf("expected parse error for corrupt file")
	}
}

func TestLoadLegacyElements(t *testing.T) {
	store, path := newTestStore(t)
	if err := os.WriteFile(path, []byte(`[{"tweet":"A"},{"tweet":"B"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	candidates, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(candidates) != 2 || candidates[0].Tweet != "A" || candidates[1].Tweet != "B" {
		t.Fatalf("unexpected queue: %+v", candidates)
	}
}

func TestPopHeadEmptyDoesNotCreateFile(t *testing.T) {
	store, path := newTestStore(t)

	_, ok, err := store.PopHead()
	if err != nil {
		t.Fatalf("PopHead: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false on empty queue")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("PopHead on empty queue must not create the file")
	}
}

func TestPopHeadRemovesFirst(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Save([]Candidate{{Tweet: "A"}, {Tweet: "B"}, {Tweet: "C"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	head, ok, err := store.PopHead()
	if err != nil || !ok {
		t.Fatalf("PopHead: ok=%v err=%v", ok, err)
	}
	if head.Tweet != "A" {
		t.Fatalf("expected head A, got %q", head.Tweet)
	}

	rest, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rest) != 2 || rest[0].Tweet != "B" || rest[1].Tweet != "C" {
		t.Fatalf("unexpected remainder: %+v", rest)
	}
}

func TestHeadDoesNotRemove(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Save([]Candidate{{Tweet: "A"}, {Tweet: "B"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	head, ok, err := store.Head()
	if err != nil || !ok {
		t.Fatalf("Head: ok=%v err=%v", ok, err)
	}
	if head.Tweet != "A" {
		t.Fatalf("expected head A, got %q", head.Tweet)
	}

	all, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Head must not mutate queue, got %d entries", len(all))
	}
}

func TestRemoveByTextRemovesExactlyOneAndKeepsOrder(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Save([]Candidate{{Tweet: "A"}, {Tweet: "B"}, {Tweet: "C"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	removed, err := store.RemoveByText("B")
	if err != nil {
		t.Fatalf("RemoveByText: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	rest, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"A", "C"}
	var got []string
	for _, c := range rest {
		got = append(got, c.Tweet)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order after removal: %v", got)
	}
}

func TestRemoveByTextMissLeavesQueueUnchanged(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Save([]Candidate{{Tweet: "A"}, {Tweet: "B"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	removed, err := store.RemoveByText("not-present")
	if err != nil {
		t.Fatalf("RemoveByText: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}

	after, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("queue changed on a miss: before=%+v after=%+v", before, after)
	}
}

func TestRemoveByTextRemovesDuplicates(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Save([]Candidate{{Tweet: "X"}, {Tweet: "Y"}, {Tweet: "X"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	removed, err := store.RemoveByText("X")
	if err != nil {
		t.Fatalf("RemoveByText: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
}

func TestConcurrentMutationsStayWellFormed(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Save([]Candidate{{Tweet: "A"}, {Tweet: "B"}, {Tweet: "C"}, {Tweet: "D"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.PopHead()
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Load()
		}()
	}
	wg.Wait()

	rest, err := store.Load()
	if err != nil {
		t.Fatalf("queue corrupted by concurrent access: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected all entries popped, got %d", len(rest))
	}
}
