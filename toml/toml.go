// Package toml reads the pitch configuration file.
//
// Every key is optional. Fields are pointers so that an absent key can be
// told apart from an explicit zero value and leaves the caller's default in
// place.
package toml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the decoded configuration file.
type Config struct {
	Endpoint          *string `toml:"endpoint"`
	Audience          *string `toml:"audience"`
	IncludeHighlights *bool   `toml:"include_highlights"`
	EmphasizeOrder    *bool   `toml:"emphasize_order"`
	Retries           *int    `toml:"retries"`
	LogFile           *string `toml:"log_file"`
	LogLevel          *string `toml:"log_level"`
}

// Load reads the config at path. A missing file is not an error and yields
// an empty Config. Unknown keys are rejected so typos surface early.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ConfigHome returns $XDG_CONFIG_HOME, falling back to ~/.config.
func ConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(ConfigHome(), "pitch", "config.toml")
}

// Template returns a commented config file listing every key. endpoint is
// shown as the default service address.
func Template(endpoint string) string {
	return fmt.Sprintf(`# pitch configuration
# Uncomment a value to enable it. Flags and PITCH_ENDPOINT override it.

# endpoint = %q          # Analysis service base URL
# audience = ""                            # Audience segment sent with every query
# include_highlights = true                # Ask for video highlights
# emphasize_order = false                  # Ask for chronological ordering
# retries = 2                              # Extra attempts when the service is unavailable
# log_file = ""                            # Write logs here (default: no logging)
# log_level = "info"                       # debug, info, warn or error
`, endpoint)
}

// WriteTemplate writes Template(endpoint) to path unless a file already
// exists there. It reports whether a file was created.
func WriteTemplate(path, endpoint string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create config: %w", err)
	}
	if _, err := f.WriteString(Template(endpoint)); err != nil {
		f.Close()
		return false, fmt.Errorf("write config: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
