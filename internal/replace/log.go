package replace

import (
	"encoding/json"
	"errors"
	"fmt"

	"rpgm-translator/internal/fsio"
)

// LogEntry records one cell change.
type LogEntry struct {
	File   string `json:"file"`
	Entry  string `json:"entry"`
	Source string `json:"source"`
	Column int    `json:"column"`
	Old    string `json:"old"`
	New    string `json:"new"`
}

func (r *Replacer) record(loc Location, source, old, value string) {
	r.log = append(r.log, LogEntry{
		File:   loc.File,
		Entry:  loc.Entry,
		Source: source,
		Column: loc.Column,
		Old:    old,
		New:    value,
	})
}

// Log returns the changes made so far.
func (r *Replacer) Log() []LogEntry {
	return r.log
}

// WriteLog appends the recorded changes to the log file at path and clears
// the in-memory log.
func (r *Replacer) WriteLog(path string) error {
	if len(r.log) == 0 {
		return nil
	}

	var existing []LogEntry
	content, err := r.fs.ReadTextFile(path)
	switch {
	case errors.Is(err, fsio.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read replacement log: %w", err)
	default:
		if err := json.Unmarshal([]byte(content), &existing); err != nil {
			return fmt.Errorf("parse replacement log: %w", err)
		}
	}

	data, err := json.MarshalIndent(append(existing, r.log...), "", "  ")
	if err != nil {
		return fmt.Errorf("encode replacement log: %w", err)
	}
	if err := r.fs.WriteTextFile(path, string(data)); err != nil {
		return fmt.Errorf("write replacement log: %w", err)
	}

	r.log = nil
	return nil
}
