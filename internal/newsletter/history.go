package newsletter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// History is the flat-file record of previously posted tweets, fed back into
// the generation prompt so the model does not repeat itself.
type History struct {
	mu   sync.Mutex
	path string
}

// NewHistory returns a history backed by the file at path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// List returns all recorded texts, oldest first. A missing file is an empty
// history.
func (h *History) List() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.read()
}

// Add appends one text to the history file.
func (h *History) Add(text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.read()
	if err != nil {
		return err
	}
	entries = append(entries, text)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

func (h *History) read() ([]string, error) {
	raw, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}
	var entries []string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse history file %s: %w", h.path, err)
	}
	return entries, nil
}
