// Package config locates the per-user rapidkit directory and loads the
// optional config.toml stored there.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// EnvHome overrides the per-user directory.
	EnvHome = "RAPIDKIT_HOME"

	// FileName is the user config file inside the per-user directory.
	FileName = "config.toml"

	toolDir = "rapidkit"
)

// Duration is a time.Duration written as a string ("5m", "15s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Discovery configures workspace auto-discovery.
type Discovery struct {
	// Dirs are scanned in addition to the built-in locations under $HOME.
	Dirs []string `toml:"dirs"`
	// Ignore replaces the default ignore patterns when non-empty.
	Ignore []string `toml:"ignore"`
}

// Config is the user configuration. Zero fields mean "use the built-in default".
type Config struct {
	Tool                string    `toml:"tool"`
	PackageName         string    `toml:"package_name"`
	PackageIndexURL     string    `toml:"package_index_url"`
	FetchCommand        []string  `toml:"fetch_command"`
	CommandTimeout      Duration  `toml:"command_timeout"`
	ProbeTimeout        Duration  `toml:"probe_timeout"`
	LatestTimeout       Duration  `toml:"latest_timeout"`
	VersionTTL          Duration  `toml:"version_ttl"`
	MinSupportedVersion string    `toml:"min_supported_version"`
	Discovery           Discovery `toml:"discovery"`

	// Dir is the per-user directory the config was loaded from. The
	// registry file lives here too.
	Dir string `toml:"-"`
}

// Home returns the per-user rapidkit directory: $RAPIDKIT_HOME when set,
// %APPDATA%\rapidkit on Windows, ~/.rapidkit elsewhere.
func Home() (string, error) {
	return home(runtime.GOOS, os.Getenv, os.UserHomeDir)
}

func home(goos string, getenv func(string) string, userHome func() (string, error)) (string, error) {
	if dir := getenv(EnvHome); dir != "" {
		return dir, nil
	}
	if goos == "windows" {
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, toolDir), nil
		}
	}
	h, err := userHome()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	if goos == "windows" {
		return filepath.Join(h, "AppData", "Roaming", toolDir), nil
	}
	return filepath.Join(h, "."+toolDir), nil
}

// Load reads config.toml from Home().
func Load() (*Config, error) {
	dir, err := Home()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom reads config.toml from dir. A missing file yields an empty
// Config with Dir set. Unknown keys are rejected so typos do not silently
// fall back to defaults.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{Dir: dir}
	path := filepath.Join(dir, FileName)

	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return nil, fmt.Errorf("parsing %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	env := environ()
	for i, d := range cfg.Discovery.Dirs {
		cfg.Discovery.Dirs[i] = ExpandPath(d, env)
	}
	return cfg, nil
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
