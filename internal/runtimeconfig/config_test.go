package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-lodge-cms/internal/runtimeconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{"unknown driver", func(c *runtimeconfig.Config) { c.Database.Driver = "mysql" }, runtimeconfig.ErrDatabaseDriverInvalid},
		{"postgres without dsn", func(c *runtimeconfig.Config) { c.Database.Driver = "postgres"; c.Database.DSN = " " }, runtimeconfig.ErrDatabaseDSNRequired},
		{"unknown backend", func(c *runtimeconfig.Config) { c.Storage.Backend = "gcs" }, runtimeconfig.ErrStorageBackendInvalid},
		{"fs without root", func(c *runtimeconfig.Config) { c.Storage.Root = "" }, runtimeconfig.ErrStorageRootRequired},
		{"s3 without bucket", func(c *runtimeconfig.Config) { c.Storage.Backend = "s3" }, runtimeconfig.ErrStorageBucketRequired},
		{"negative concurrency", func(c *runtimeconfig.Config) { c.Media.Concurrency = -1 }, runtimeconfig.ErrMediaConfigInvalid},
		{"bad breakpoint", func(c *runtimeconfig.Config) {
			c.Media.Breakpoints = []runtimeconfig.BreakpointConfig{{Label: "lg", Width: 0, Height: 10}}
		}, runtimeconfig.ErrMediaConfigInvalid},
		{"duplicate breakpoint", func(c *runtimeconfig.Config) {
			c.Media.Breakpoints = []runtimeconfig.BreakpointConfig{
				{Label: "lg", Width: 100, Height: 100},
				{Label: "LG", Width: 50, Height: 50},
			}
		}, runtimeconfig.ErrMediaConfigInvalid},
		{"quality out of range", func(c *runtimeconfig.Config) {
			c.Media.Thumbnail = runtimeconfig.BreakpointConfig{Label: "thumb", Width: 10, Height: 10, Quality: 120}
		}, runtimeconfig.ErrMediaConfigInvalid},
		{"bad schedule", func(c *runtimeconfig.Config) { c.Media.ResumeSchedule = "every tuesday" }, runtimeconfig.ErrResumeScheduleInvalid},
		{"bad level", func(c *runtimeconfig.Config) { c.Logging.Level = "loud" }, runtimeconfig.ErrLoggingLevelInvalid},
		{"bad format", func(c *runtimeconfig.Config) { c.Logging.Format = "xml" }, runtimeconfig.ErrLoggingFormatInvalid},
		{"bad provider", func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" }, runtimeconfig.ErrLoggingProviderUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadReadsFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lodge.yaml")
	content := `
database:
  driver: memory
storage:
  backend: memory
  base_url: https://cdn.example.com
media:
  concurrency: 2
  breakpoint_timeout: 5s
  breakpoints:
    - label: lg
      width: 1200
      height: 800
      quality: 80
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LODGE_LOGGING_FORMAT", "json")

	cfg, err := runtimeconfig.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "memory" || cfg.Storage.BaseURL != "https://cdn.example.com" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Media.Concurrency != 2 || cfg.Media.BreakpointTimeout != 5*time.Second {
		t.Fatalf("unexpected media config %+v", cfg.Media)
	}
	if len(cfg.Media.Breakpoints) != 1 || cfg.Media.Breakpoints[0].Width != 1200 {
		t.Fatalf("unexpected breakpoints %+v", cfg.Media.Breakpoints)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("expected file and env logging values, got %+v", cfg.Logging)
	}
	if cfg.Media.MaxUploadBytes != 25<<20 || !cfg.Features.RenderRichText {
		t.Fatal("expected defaults for keys absent from the file")
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("LODGE_DATABASE_DRIVER", "memory")
	cfg, err := runtimeconfig.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "memory" || cfg.Storage.Backend != runtimeconfig.BackendFS {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("LODGE_STORAGE_BACKEND", "floppy")
	if _, err := runtimeconfig.Load(""); !errors.Is(err, runtimeconfig.ErrStorageBackendInvalid) {
		t.Fatalf("expected ErrStorageBackendInvalid, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := runtimeconfig.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
