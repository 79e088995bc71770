package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"tweetpilot/internal/shared/metrics"
	"tweetpilot/internal/shared/telemetry"
)

// Store is the durable queue of not-yet-decided candidates, backed by a
// single JSON array on disk. Every operation is a critical section: the
// read-modify-rewrite cycle runs under one mutex, and the rewrite goes
// through a temp file plus rename so no reader ever observes a partial file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a store backed by the file at path. The file is created
// lazily on the first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the current queue in order. A missing file is an empty queue,
// not an error; a file that exists but does not parse is an error.
func (s *Store) Load() ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Save fully replaces the queue contents.
func (s *Store) Save(candidates []Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(candidates)
}

// Append adds candidates to the tail of the queue.
func (s *Store) Append(candidates ...Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	return s.write(append(current, candidates...))
}

// Head returns the first candidate without removing it.
func (s *Store) Head() (Candidate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.read()
	if err != nil || len(candidates) == 0 {
		return Candidate{}, false, err
	}
	return candidates[0], true, nil
}

// PopHead removes and returns the first candidate. On an empty queue it
// returns ok=false and performs no write, so a missing file stays missing.
func (s *Store) PopHead() (Candidate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.read()
	if err != nil || len(candidates) == 0 {
		return Candidate{}, false, err
	}

	head := candidates[0]
	if err := s.write(candidates[1:]); err != nil {
		return Candidate{}, false, err
	}
	return head, true, nil
}

// RemoveByText filters out every candidate whose text equals text exactly and
// reports how many were removed. Zero removals indicate a correlation miss
// and are logged as such; the queue file is left untouched in that case.
func (s *Store) RemoveByText(text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.read()
	if err != nil {
		return 0, err
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if c.Tweet != text {
			kept = append(kept, c)
		}
	}
	removed := len(candidates) - len(kept)

	if removed == 0 {
		metrics.IncCorrelationMiss()
		telemetry.Warn("queue.remove_miss", map[string]any{
			"text": truncate(text, 50),
		})
		return 0, nil
	}

	if err := s.write(kept); err != nil {
		return 0, err
	}
	telemetry.Info("queue.removed", map[string]any{
		"text":    truncate(text, 50),
		"removed": removed,
	})
	return removed, nil
}

func (s *Store) read() ([]Candidate, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read queue file: %w", err)
	}

	var candidates []Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, fmt.Errorf("parse queue file %s: %w", s.path, err)
	}
	return candidates, nil
}

func (s *Store) write(candidates []Candidate) error {
	if candidates == nil {
		candidates = []Candidate{}
	}
	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".queue-*")
	if err != nil {
		metrics.IncQueueWriteFailed()
		return fmt.Errorf("create temp queue file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		metrics.IncQueueWriteFailed()
		return fmt.Errorf("write queue file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		metrics.IncQueueWriteFailed()
		return fmt.Errorf("close queue file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		metrics.IncQueueWriteFailed()
		return fmt.Errorf("replace queue file: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
