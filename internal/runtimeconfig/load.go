package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. LODGE_DATABASE_DRIVER.
const EnvPrefix = "LODGE"

// Load reads configuration from path (yaml, json or toml) layered over
// DefaultConfig, then applies LODGE_ environment overrides. An empty path
// loads defaults and environment only. The result is validated.
func Load(path string) (Config, error) {
	v := newViper()
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("cms config: %s not found: %w", path, err)
			}
			return Config{}, fmt.Errorf("cms config: read %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("cms config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	defaults := DefaultConfig()
	v.SetDefault("database.driver", defaults.Database.Driver)
	v.SetDefault("database.dsn", defaults.Database.DSN)
	v.SetDefault("database.cache", defaults.Database.Cache)
	v.SetDefault("database.cache_ttl", defaults.Database.CacheTTL)
	v.SetDefault("database.debug", defaults.Database.Debug)
	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("storage.root", defaults.Storage.Root)
	v.SetDefault("storage.base_url", defaults.Storage.BaseURL)
	v.SetDefault("storage.s3.bucket", defaults.Storage.S3.Bucket)
	v.SetDefault("storage.s3.region", defaults.Storage.S3.Region)
	v.SetDefault("storage.s3.endpoint", defaults.Storage.S3.Endpoint)
	v.SetDefault("storage.s3.prefix", defaults.Storage.S3.Prefix)
	v.SetDefault("storage.s3.access_key", defaults.Storage.S3.AccessKey)
	v.SetDefault("storage.s3.secret_key", defaults.Storage.S3.SecretKey)
	v.SetDefault("storage.s3.use_path_style", defaults.Storage.S3.UsePathStyle)
	v.SetDefault("storage.s3.public_base_url", defaults.Storage.S3.PublicBaseURL)
	v.SetDefault("media.concurrency", defaults.Media.Concurrency)
	v.SetDefault("media.breakpoint_timeout", defaults.Media.BreakpointTimeout)
	v.SetDefault("media.max_upload_bytes", defaults.Media.MaxUploadBytes)
	v.SetDefault("media.resume_schedule", defaults.Media.ResumeSchedule)
	v.SetDefault("media.resume_grace", defaults.Media.ResumeGrace)
	v.SetDefault("logging.provider", defaults.Logging.Provider)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.add_source", defaults.Logging.AddSource)
	v.SetDefault("markdown.content_dir", defaults.Markdown.ContentDir)
	v.SetDefault("markdown.recursive", defaults.Markdown.Recursive)
	v.SetDefault("markdown.prune", defaults.Markdown.Prune)
	v.SetDefault("markdown.hard_wraps", defaults.Markdown.HardWraps)
	v.SetDefault("markdown.unsafe", defaults.Markdown.Unsafe)
	v.SetDefault("features.render_rich_text", defaults.Features.RenderRichText)
	v.SetDefault("features.stop_on_publish_failure", defaults.Features.StopOnPublishFailure)
	return v
}
