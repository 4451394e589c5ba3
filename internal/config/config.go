// Package config loads invtrack settings from INVTRACK_* environment
// variables layered over an optional TOML profile file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Store       string // INVTRACK_STORE ("postgres" or "memory"; default postgres when a database URL is set)
	DatabaseURL string // INVTRACK_DATABASE_URL (required for postgres)
	NATSURL     string // INVTRACK_NATS_URL (optional, empty = no events)
	Actor       string // INVTRACK_ACTOR (default $USER)
	MetricsAddr string // INVTRACK_METRICS_ADDR (default ":9464")
	Tracing     bool   // INVTRACK_TRACING (spans to stderr)

	// Sync settings
	SyncInterval   time.Duration // INVTRACK_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // INVTRACK_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // INVTRACK_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // INVTRACK_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // INVTRACK_SYNC_S3_KEY (default "invtrack/backup.jsonl")
	SyncGitRepo    string        // INVTRACK_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // INVTRACK_SYNC_GIT_FILE (default "invtrack.jsonl")
	SyncGitBranch  string        // INVTRACK_SYNC_GIT_BRANCH (default "main")

	// Profile is the name of the file profile applied, if any.
	Profile string
}

// File is the on-disk profile file.
type File struct {
	Active   string             `toml:"active"`
	Profiles map[string]Profile `toml:"profiles"`
}

// Profile holds defaults for one environment. Environment variables
// override every field.
type Profile struct {
	Store       string `toml:"store,omitempty"`
	DatabaseURL string `toml:"database_url,omitempty"`
	NATSURL     string `toml:"nats_url,omitempty"`
	Actor       string `toml:"actor,omitempty"`
	MetricsAddr string `toml:"metrics_addr,omitempty"`
	Tracing     bool   `toml:"tracing,omitempty"`

	SyncInterval   string `toml:"sync_interval,omitempty"`
	SyncS3Bucket   string `toml:"sync_s3_bucket,omitempty"`
	SyncS3Endpoint string `toml:"sync_s3_endpoint,omitempty"`
	SyncS3Region   string `toml:"sync_s3_region,omitempty"`
	SyncS3Key      string `toml:"sync_s3_key,omitempty"`
	SyncGitRepo    string `toml:"sync_git_repo,omitempty"`
	SyncGitFile    string `toml:"sync_git_file,omitempty"`
	SyncGitBranch  string `toml:"sync_git_branch,omitempty"`
}

// Path returns the profile file location: INVTRACK_CONFIG, or
// ~/.config/invtrack/config.toml.
func Path() (string, error) {
	if p := os.Getenv("INVTRACK_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "invtrack", "config.toml"), nil
}

// LoadFile reads a profile file. A missing file yields an empty File.
func LoadFile(path string) (File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{Profiles: map[string]Profile{}}, nil
		}
		return File{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if f.Profiles == nil {
		f.Profiles = map[string]Profile{}
	}
	return f, nil
}

// SaveFile writes a profile file, creating its directory.
func SaveFile(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()
	return toml.NewEncoder(out).Encode(f)
}

// Load builds the configuration. The profile named by INVTRACK_PROFILE (or
// the file's active profile) supplies defaults; environment variables win.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	name := envOrDefault("INVTRACK_PROFILE", f.Active)
	var p Profile
	if name != "" {
		var ok bool
		if p, ok = f.Profiles[name]; !ok {
			return nil, fmt.Errorf("profile %q not found in %s", name, path)
		}
	}

	c := &Config{
		Store:          envOrDefault("INVTRACK_STORE", p.Store),
		DatabaseURL:    envOrDefault("INVTRACK_DATABASE_URL", p.DatabaseURL),
		NATSURL:        envOrDefault("INVTRACK_NATS_URL", p.NATSURL),
		Actor:          envOrDefault("INVTRACK_ACTOR", or(p.Actor, os.Getenv("USER"))),
		MetricsAddr:    envOrDefault("INVTRACK_METRICS_ADDR", or(p.MetricsAddr, ":9464")),
		SyncS3Bucket:   envOrDefault("INVTRACK_SYNC_S3_BUCKET", p.SyncS3Bucket),
		SyncS3Endpoint: envOrDefault("INVTRACK_SYNC_S3_ENDPOINT", p.SyncS3Endpoint),
		SyncS3Region:   envOrDefault("INVTRACK_SYNC_S3_REGION", or(p.SyncS3Region, "us-east-1")),
		SyncS3Key:      envOrDefault("INVTRACK_SYNC_S3_KEY", or(p.SyncS3Key, "invtrack/backup.jsonl")),
		SyncGitRepo:    envOrDefault("INVTRACK_SYNC_GIT_REPO", p.SyncGitRepo),
		SyncGitFile:    envOrDefault("INVTRACK_SYNC_GIT_FILE", or(p.SyncGitFile, "invtrack.jsonl")),
		SyncGitBranch:  envOrDefault("INVTRACK_SYNC_GIT_BRANCH", or(p.SyncGitBranch, "main")),
		Profile:        name,
	}

	c.Tracing = p.Tracing
	if v := os.Getenv("INVTRACK_TRACING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("INVTRACK_TRACING: %w", err)
		}
		c.Tracing = b
	}

	intervalStr := envOrDefault("INVTRACK_SYNC_INTERVAL", or(p.SyncInterval, "3m"))
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("INVTRACK_SYNC_INTERVAL: %w", err)
	}
	c.SyncInterval = d

	if c.Store == "" {
		c.Store = StoreMemory
		if c.DatabaseURL != "" {
			c.Store = StorePostgres
		}
	}
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("INVTRACK_DATABASE_URL is required for the postgres store")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("INVTRACK_STORE: unknown store %q", c.Store)
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
