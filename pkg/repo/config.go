package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/odvcencio/revgraph/pkg/revwalk"
)

// Config stores repository-local settings for revgraph.
type Config struct {
	Log LogConfig `toml:"log"`
}

// LogConfig holds the defaults of the log command.
type LogConfig struct {
	Sort   []string `toml:"sort,omitempty"`
	Limit  int      `toml:"limit"`
	Abbrev int      `toml:"abbrev"`
	Store  string   `toml:"store"`
}

// DefaultConfig is the configuration used when revgraph.toml is absent.
func DefaultConfig() *Config {
	return &Config{Log: LogConfig{Limit: 20, Abbrev: 8, Store: string(StoreGit)}}
}

// Sorts parses Sort into walk sort modes.
func (c LogConfig) Sorts() ([]revwalk.RevSort, error) {
	out := make([]revwalk.RevSort, 0, len(c.Sort))
	for _, name := range c.Sort {
		s, err := revwalk.ParseSort(name)
		if err != nil {
			return nil, fmt.Errorf("config log.sort: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Repo) configPath() string {
	return filepath.Join(r.GitDir, "revgraph.toml")
}

// ReadConfig reads .git/revgraph.toml over DefaultConfig. Keys absent
// from the file keep their defaults; a missing file returns the defaults.
func (r *Repo) ReadConfig() (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(r.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("read config: decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("read config: unknown key %s", undecoded[0])
	}
	if _, err := cfg.Log.Sorts(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if _, err := ParseStoreKind(cfg.Log.Store); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

// WriteConfig atomically writes .git/revgraph.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(r.GitDir, ".revgraph-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}
