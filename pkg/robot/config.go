package robot

import (
	"encoding/json"
	"os"

	"github.com/gwillem/robocam/pkg/camera"
)

const DefaultConfigFile = "robocam.json"

// Config holds the robot configuration
type Config struct {
	Board  BoardConfig   `json:"board"`
	Pan    PanConfig     `json:"pan"`
	Camera camera.Config `json:"camera"`
}

// DefaultConfig returns the configuration of the stock car: pan servo on
// the second servo channel, mounted mirrored.
func DefaultConfig() *Config {
	return &Config{
		Board: BoardConfig{BaudRate: 115200},
		Pan: PanConfig{
			Driver:      DriverBoard,
			Channel:     Servo2,
			Calibration: Calibration{Invert: true},
		},
		Camera: camera.DefaultConfig(),
	}
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Fields missing
// from the file keep their defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
