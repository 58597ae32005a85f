package vault

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
)

// ShareLog is one line of Log/shares.jsonl
type ShareLog struct {
	ID       string `json:"id"`
	TS       string `json:"ts"`
	Date     string `json:"date"`
	Strategy string `json:"strategy"`
	Outcome  string `json:"outcome"`
	File     string `json:"file,omitempty"`
	Error    string `json:"error,omitempty"`
}

// LogShare appends a share entry to the vault log
// Uses mutex to prevent race conditions on simultaneous writes
func (v *Vault) LogShare(entry ShareLog) error {
	v.logLock.Lock()
	defer v.logLock.Unlock()

	if entry.TS == "" {
		entry.TS = time.Now().UTC().Format(time.RFC3339)
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling share log: %w", err)
	}

	if err := AppendLine(filepath.Join(v.basePath, "Log", "shares.jsonl"), line); err != nil {
		return fmt.Errorf("appending share log: %w", err)
	}
	return nil
}
