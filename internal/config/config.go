package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	// DataDir is the server-side public root; uploaded assets and the
	// project document live underneath it.
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	// CacheDB and BlobDB are the local SQLite databases backing the
	// annotation cache and the image blob store.
	CacheDB string `toml:"cache_db"`
	BlobDB  string `toml:"blob_db"`
	APIBind string `toml:"api_bind"`
}

// Server contains settings for reaching the document server from the CLI
// and the synchronization core.
type Server struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Navigation contains camera transition tuning.
type Navigation struct {
	// LerpFactor is the fraction of the remaining distance closed per tick.
	LerpFactor float64 `toml:"lerp_factor"`
	// Epsilon is the convergence distance in scene units.
	Epsilon float64 `toml:"epsilon"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Vantage.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories, local databases, API bind address
//   - Server: document server endpoint used by CLI and sync core
//   - Navigation: camera transition tuning
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Server     Server     `toml:"server"`
	Navigation Navigation `toml:"navigation"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vantage/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vantage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDB) == "" {
		c.Paths.CacheDB = defaultCacheDB
	}
	if c.Paths.CacheDB, err = expandPath(c.Paths.CacheDB); err != nil {
		return fmt.Errorf("paths.cache_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.BlobDB) == "" {
		c.Paths.BlobDB = defaultBlobDB
	}
	if c.Paths.BlobDB, err = expandPath(c.Paths.BlobDB); err != nil {
		return fmt.Errorf("paths.blob_db: %w", err)
	}

	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = defaultRequestTimeout
	}
	if c.Navigation.LerpFactor == 0 {
		c.Navigation.LerpFactor = defaultLerpFactor
	}
	if c.Navigation.Epsilon == 0 {
		c.Navigation.Epsilon = defaultEpsilon
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// EnsureDirectories creates the directories required for operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.CacheDB),
		filepath.Dir(c.Paths.BlobDB),
		c.SceneAssetDir(),
		c.HotspotAssetDir(),
		filepath.Dir(c.DocumentPath()),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DocumentPath returns the location of the authoritative project document.
func (c *Config) DocumentPath() string {
	return filepath.Join(c.Paths.DataDir, "data", "project_config.json")
}

// SceneAssetDir returns the directory holding uploaded scene files.
func (c *Config) SceneAssetDir() string {
	return filepath.Join(c.Paths.DataDir, "assets", "scenes")
}

// HotspotAssetDir returns the directory holding uploaded hotspot imagery.
func (c *Config) HotspotAssetDir() string {
	return filepath.Join(c.Paths.DataDir, "assets", "hotspots")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
