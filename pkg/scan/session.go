package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Session describes one panorama capture on disk.
type Session struct {
	ID        string    `json:"id"`
	Dir       string    `json:"dir"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Frames    int       `json:"frames"`
	Threshold float64   `json:"threshold"`
	Seed      string    `json:"seed"`
	Results   []Result  `json:"results"`
	Error     string    `json:"error,omitempty"`
}

// ManifestFile is written into every session directory.
const ManifestFile = "session.json"

// NextSessionDir creates and returns base/<n+1>, where n is the largest
// integer-named subdirectory of base (0 if none). base is created if needed.
func NextSessionDir(base string) (string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", base, err)
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", base, err)
	}
	highest := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	dir := filepath.Join(base, strconv.Itoa(highest+1))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	return dir, nil
}

// WriteManifest stores s as JSON in its session directory.
func (s *Session) WriteManifest() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadSession reads the manifest of a session directory.
func LoadSession(dir string) (*Session, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &s, nil
}
