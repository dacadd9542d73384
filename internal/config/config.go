// Package config holds the daemon configuration: the watched document
// directory, the remote index connection, and the sync tuning knobs.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/econbot/docsync/internal/utils"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".docsync", "config.json")
	DefaultDataDir    = filepath.Join(home, ".docsync")
	DefaultDocsDir    = "./docs"
	DefaultServerURL  = "https://api.openai.com"
	DefaultIndexName  = "econ-news-spec-store"

	// Editors fire bursts of events while saving; these defaults let a
	// save settle before the file is probed and uploaded.
	DefaultDebounce = 1500 * time.Millisecond
	DefaultDwell    = 2 * time.Second

	DefaultAllowedExts = []string{".pdf", ".docx", ".pptx", ".xlsx", ".txt", ".md"}
)

type Config struct {
	DocsDir      string        `json:"docs_dir" mapstructure:"docs_dir"`
	DataDir      string        `json:"data_dir" mapstructure:"data_dir"`
	ServerURL    string        `json:"server_url" mapstructure:"server_url"`
	APIKey       string        `json:"-" mapstructure:"api_key"`
	IndexName    string        `json:"index_name" mapstructure:"index_name"`
	AllowedExts  []string      `json:"allowed_exts" mapstructure:"allowed_exts"`
	Debounce     time.Duration `json:"debounce" mapstructure:"debounce"`
	Dwell        time.Duration `json:"dwell" mapstructure:"dwell"`
	SyncOnModify bool          `json:"sync_on_modify" mapstructure:"sync_on_modify"`
	Path         string        `json:"-"`
}

// Validate normalizes paths and extensions in place and rejects values
// the engine cannot start with.
func (c *Config) Validate() error {
	if c.DocsDir == "" {
		c.DocsDir = DefaultDocsDir
	}
	docsDir, err := utils.ResolvePath(c.DocsDir)
	if err != nil {
		return fmt.Errorf("docs dir %q: %w", c.DocsDir, err)
	}
	c.DocsDir = docsDir

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	dataDir, err := utils.ResolvePath(c.DataDir)
	if err != nil {
		return fmt.Errorf("data dir %q: %w", c.DataDir, err)
	}
	c.DataDir = dataDir

	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server url %q: must be a valid http(s) url", c.ServerURL)
	}

	if c.IndexName == "" {
		return fmt.Errorf("index name cannot be empty")
	}

	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %s", c.Debounce)
	}
	if c.Dwell <= 0 {
		return fmt.Errorf("dwell must be positive, got %s", c.Dwell)
	}

	if len(c.AllowedExts) == 0 {
		c.AllowedExts = DefaultAllowedExts
	}
	exts := make([]string, 0, len(c.AllowedExts))
	for _, ext := range c.AllowedExts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		return fmt.Errorf("allowed extensions cannot be empty")
	}
	c.AllowedExts = exts

	return nil
}

// StatePath is the fingerprint store document, rewritten on every sync.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "state.json")
}

// IndexIDPath holds the remote index identity, written once on first
// creation so restarts reuse the same index.
func (c *Config) IndexIDPath() string {
	return filepath.Join(c.DataDir, "vector_store_id")
}

// StagingDir holds transient upload snapshots.
func (c *Config) StagingDir() string {
	return filepath.Join(c.DataDir, "staging")
}

// LogFilePath is where the daemon mirrors its console output.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.DataDir, "logs", "docsync.log")
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Path = path
	return &cfg, nil
}
