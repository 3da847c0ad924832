// Package devseed loads JSON seed files used to pre-populate the in-memory
// filesystem in mock mode and in the sandbox.
package devseed

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// FSSeedEntry describes one file or folder to create. Exactly one of Text or
// Base64 is expected for files; Folder entries ignore both.
type FSSeedEntry struct {
	Path     string     `json:"path"`
	Folder   bool       `json:"folder,omitempty"`
	Text     *string    `json:"text,omitempty"`
	Base64   string     `json:"base64,omitempty"`
	Modified *time.Time `json:"modified,omitempty"`
}

// LoadFSSeed reads a JSON array of FSSeedEntry values from path.
func LoadFSSeed(path string) ([]FSSeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}
	var entries []FSSeedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("devseed: decode %s: %w", path, err)
	}
	return entries, nil
}
