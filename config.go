package cms

import "github.com/goliatone/go-lodge-cms/internal/runtimeconfig"

var (
	ErrDatabaseDriverInvalid  = runtimeconfig.ErrDatabaseDriverInvalid
	ErrDatabaseDSNRequired    = runtimeconfig.ErrDatabaseDSNRequired
	ErrStorageBackendInvalid  = runtimeconfig.ErrStorageBackendInvalid
	ErrStorageRootRequired    = runtimeconfig.ErrStorageRootRequired
	ErrStorageBucketRequired  = runtimeconfig.ErrStorageBucketRequired
	ErrMediaConfigInvalid     = runtimeconfig.ErrMediaConfigInvalid
	ErrResumeScheduleInvalid  = runtimeconfig.ErrResumeScheduleInvalid
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
)

type (
	Config           = runtimeconfig.Config
	DatabaseConfig   = runtimeconfig.DatabaseConfig
	StorageConfig    = runtimeconfig.StorageConfig
	S3Config         = runtimeconfig.S3Config
	MediaConfig      = runtimeconfig.MediaConfig
	BreakpointConfig = runtimeconfig.BreakpointConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
	MarkdownConfig   = runtimeconfig.MarkdownConfig
	Features         = runtimeconfig.Features
)

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a config file layered over defaults and LODGE_ environment overrides.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
