package robot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robocam.json")
	cfg := DefaultConfig()
	cfg.Board.Port = "/dev/ttyUSB0"
	cfg.Pan.Calibration.Trim = -3

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}
	got, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom() error: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robocam.json")
	if err := os.WriteFile(path, []byte(`{"board":{"port":"/dev/ttyAMA0"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom() error: %v", err)
	}
	if got.Board.Port != "/dev/ttyAMA0" {
		t.Errorf("Board.Port = %q", got.Board.Port)
	}
	if got.Pan.Channel != Servo2 || !got.Pan.Calibration.Invert {
		t.Errorf("pan defaults lost: %+v", got.Pan)
	}
	if got.Camera.Width != 640 {
		t.Errorf("Camera.Width = %d, want 640", got.Camera.Width)
	}
}
