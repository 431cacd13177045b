package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/robfig/cron/v3"
)

var (
	ErrDatabaseDriverInvalid  = errors.New("cms config: database driver is invalid")
	ErrDatabaseDSNRequired    = errors.New("cms config: database dsn is required for postgres")
	ErrStorageBackendInvalid  = errors.New("cms config: storage backend is invalid")
	ErrStorageRootRequired    = errors.New("cms config: storage root is required for the fs backend")
	ErrStorageBucketRequired  = errors.New("cms config: s3 bucket is required for the s3 backend")
	ErrMediaConfigInvalid     = errors.New("cms config: media configuration is invalid")
	ErrResumeScheduleInvalid  = errors.New("cms config: media resume schedule is invalid")
	ErrLoggingLevelInvalid    = errors.New("cms config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("cms config: logging format is invalid")
	ErrLoggingProviderUnknown = errors.New("cms config: logging provider is invalid")
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BackendMemory = "memory"
	BackendFS     = "fs"
	BackendS3     = "s3"
)

// Config aggregates the adapter bindings and tuning knobs of the lodge CMS.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Media    MediaConfig    `mapstructure:"media"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Markdown MarkdownConfig `mapstructure:"markdown"`
	Features Features       `mapstructure:"features"`
}

// DatabaseConfig selects the persistence layer. The memory driver keeps
// everything in process and ignores DSN.
type DatabaseConfig struct {
	Driver   string        `mapstructure:"driver"`
	DSN      string        `mapstructure:"dsn"`
	Cache    bool          `mapstructure:"cache"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Debug    bool          `mapstructure:"debug"`
}

// StorageConfig selects the object store backing media files.
type StorageConfig struct {
	Backend string   `mapstructure:"backend"`
	Root    string   `mapstructure:"root"`
	BaseURL string   `mapstructure:"base_url"`
	S3      S3Config `mapstructure:"s3"`
}

// S3Config configures the S3 compatible backend.
type S3Config struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	Prefix        string `mapstructure:"prefix"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	UsePathStyle  bool   `mapstructure:"use_path_style"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// BreakpointConfig describes one derivative target.
type BreakpointConfig struct {
	Label   string `mapstructure:"label"`
	Width   int    `mapstructure:"width"`
	Height  int    `mapstructure:"height"`
	Quality int    `mapstructure:"quality"`
	Crop    bool   `mapstructure:"crop"`
}

// MediaConfig tunes the derivative pipeline. An empty Breakpoints list keeps
// the built-in matrix.
type MediaConfig struct {
	Breakpoints       []BreakpointConfig `mapstructure:"breakpoints"`
	Thumbnail         BreakpointConfig   `mapstructure:"thumbnail"`
	Concurrency       int                `mapstructure:"concurrency"`
	BreakpointTimeout time.Duration      `mapstructure:"breakpoint_timeout"`
	MaxUploadBytes    int64              `mapstructure:"max_upload_bytes"`
	ResumeSchedule    string             `mapstructure:"resume_schedule"`
	ResumeGrace       time.Duration      `mapstructure:"resume_grace"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// MarkdownConfig captures the seed directory and renderer behaviour.
type MarkdownConfig struct {
	ContentDir string   `mapstructure:"content_dir"`
	Recursive  bool     `mapstructure:"recursive"`
	Prune      bool     `mapstructure:"prune"`
	Extensions []string `mapstructure:"extensions"`
	HardWraps  bool     `mapstructure:"hard_wraps"`
	Unsafe     bool     `mapstructure:"unsafe"`
}

// Features toggles optional behaviour.
type Features struct {
	RenderRichText bool `mapstructure:"render_rich_text"`
	// StopOnPublishFailure aborts a page publish at the first failing block.
	StopOnPublishFailure bool `mapstructure:"stop_on_publish_failure"`
}

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:   DriverSQLite,
			DSN:      "file:lodge.db?cache=shared&_fk=1",
			CacheTTL: time.Minute,
		},
		Storage: StorageConfig{
			Backend: BackendFS,
			Root:    "uploads",
			BaseURL: "/uploads",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Media: MediaConfig{
			Concurrency:       4,
			BreakpointTimeout: 30 * time.Second,
			MaxUploadBytes:    25 << 20,
			ResumeSchedule:    "@every 5m",
			ResumeGrace:       10 * time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "console",
		},
		Markdown: MarkdownConfig{
			ContentDir: "content",
			Recursive:  true,
		},
		Features: Features{
			RenderRichText: true,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	switch normalize(cfg.Database.Driver) {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return ErrDatabaseDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrDatabaseDriverInvalid, cfg.Database.Driver)
	}

	switch normalize(cfg.Storage.Backend) {
	case BackendMemory:
	case BackendFS:
		if strings.TrimSpace(cfg.Storage.Root) == "" {
			return ErrStorageRootRequired
		}
	case BackendS3:
		if strings.TrimSpace(cfg.Storage.S3.Bucket) == "" {
			return ErrStorageBucketRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageBackendInvalid, cfg.Storage.Backend)
	}

	if err := cfg.Media.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMediaConfigInvalid, err)
	}
	if schedule := strings.TrimSpace(cfg.Media.ResumeSchedule); schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return fmt.Errorf("%w: %v", ErrResumeScheduleInvalid, err)
		}
	}

	if provider := normalize(cfg.Logging.Provider); provider != "" && provider != "console" && provider != "gologger" {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
	}
	return nil
}

func (m MediaConfig) validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Concurrency, validation.Min(0)),
		validation.Field(&m.BreakpointTimeout, validation.Min(time.Duration(0))),
		validation.Field(&m.MaxUploadBytes, validation.Min(int64(0))),
		validation.Field(&m.ResumeGrace, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for i, bp := range m.Breakpoints {
		if err := bp.validate(); err != nil {
			return fmt.Errorf("breakpoints[%d]: %w", i, err)
		}
		label := normalize(bp.Label)
		if seen[label] {
			return fmt.Errorf("breakpoints[%d]: duplicate label %q", i, bp.Label)
		}
		seen[label] = true
	}
	if m.Thumbnail != (BreakpointConfig{}) {
		if err := m.Thumbnail.validate(); err != nil {
			return fmt.Errorf("thumbnail: %w", err)
		}
	}
	return nil
}

func (b BreakpointConfig) validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Label, validation.Required),
		validation.Field(&b.Width, validation.Required, validation.Min(1)),
		validation.Field(&b.Height, validation.Required, validation.Min(1)),
		validation.Field(&b.Quality, validation.Min(0), validation.Max(100)),
	)
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
