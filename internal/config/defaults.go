package config

import "runtime"

const (
	defaultWorkDir               = "~/.local/share/subburn/work"
	defaultOutputDir             = "~/.local/share/subburn/output"
	defaultLogDir                = "~/.local/share/subburn/logs"
	defaultJournalPath           = "~/.local/share/subburn/journal.db"
	defaultAPIBind               = "127.0.0.1:5000"
	defaultEncoderBinary         = "ffmpeg"
	defaultEncoderPreset         = "fast"
	defaultOutputSuffix          = "_captioned"
	defaultFetchTimeoutSeconds   = 300
	defaultFetchUserAgent        = "subburn/dev"
	defaultFont                  = "Arial"
	defaultMaxConcurrentJobs     = 2
	defaultStaleWorkspaceMinutes = 360
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultPublishPrefix         = "captioned"
	defaultNtfyTimeoutSeconds    = 10
)

// DefaultFontsDir returns the platform font directory scanned when
// paths.fonts_dir is not configured.
func DefaultFontsDir() string {
	switch runtime.GOOS {
	case "windows":
		return `C:\Windows\Fonts`
	case "darwin":
		return "/Library/Fonts"
	default:
		return "/usr/share/fonts"
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			FontsDir:  DefaultFontsDir(),
			APIBind:   defaultAPIBind,
		},
		Encoder: Encoder{
			Binary:       defaultEncoderBinary,
			Preset:       defaultEncoderPreset,
			OutputSuffix: defaultOutputSuffix,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeoutSeconds,
			UserAgent:      defaultFetchUserAgent,
		},
		Style: Style{
			DefaultFont: defaultFont,
		},
		Service: Service{
			MaxConcurrentJobs:     defaultMaxConcurrentJobs,
			StaleWorkspaceMinutes: defaultStaleWorkspaceMinutes,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Journal: Journal{
			Path: defaultJournalPath,
		},
		Publish: Publish{
			UseSSL: true,
			Prefix: defaultPublishPrefix,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
			NotifySuccess:         true,
		},
	}
}
