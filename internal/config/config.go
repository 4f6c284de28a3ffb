package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These match the timings and limits the dashboard pages have always used,
// so a CLI session behaves like the browser pages it replaces.
const (
	// DefaultBaseURL is the address the dashboard backend listens on in a
	// local deployment.
	DefaultBaseURL = "http://127.0.0.1:5000"

	// DefaultTimeout bounds a single HTTP request. Uploads of large videos
	// are the slowest requests the backend sees.
	DefaultTimeout = 30 * time.Second

	// DefaultProgressInterval is the video progress poll period.
	DefaultProgressInterval = 2 * time.Second

	// DefaultFrameInterval is the live frame poll period (about 10 fps).
	DefaultFrameInterval = 100 * time.Millisecond

	// DefaultDetectionLogInterval is the live detection log poll period.
	DefaultDetectionLogInterval = 1 * time.Second

	// DefaultLiveStatusInterval is the live status reconciliation period.
	DefaultLiveStatusInterval = 2 * time.Second

	// DefaultInboxRefreshInterval is the message list refresh period.
	DefaultInboxRefreshInterval = 30 * time.Second

	// DefaultActivityRefreshInterval is the commander dashboard refresh period.
	DefaultActivityRefreshInterval = 30 * time.Second

	// DefaultWeatherRefreshInterval is the weather refresh period once a
	// location has been chosen.
	DefaultWeatherRefreshInterval = 10 * time.Minute

	// DefaultMarkReadDelay is how long an unread message stays visible
	// before it is reported as read.
	DefaultMarkReadDelay = 500 * time.Millisecond

	// DefaultPostSendRefreshDelay is the pause between a successful send
	// and the inbox refresh that follows it.
	DefaultPostSendRefreshDelay = 1 * time.Second

	// DefaultMaxFileSize is the per-file staging limit for detection uploads.
	DefaultMaxFileSize int64 = 50 * 1024 * 1024 // 50MB

	// DefaultMaxTotalSize is the aggregate staging limit for detection uploads.
	DefaultMaxTotalSize int64 = 200 * 1024 * 1024 // 200MB

	// DefaultUAVWarnSize is the size above which a UAV image is flagged as
	// large in the file list. The backend rejects bodies above this size.
	DefaultUAVWarnSize int64 = 16 * 1024 * 1024 // 16MB

	// DefaultConcurrency bounds parallel requests fanned out by one command,
	// such as mark-read pushes or per-file downloads.
	DefaultConcurrency = 4

	// DefaultMarkReadRate is the maximum number of mark-read pushes per second.
	DefaultMarkReadRate = 10

	// AppName is the application name used for XDG directory paths.
	AppName = "opsdash"

	// DefaultUserAgent identifies opsdash in backend access logs.
	DefaultUserAgent = "opsdash/1.0 (+https://github.com/nao1215/opsdash)"
)

// Config holds all configuration options for opsdash.
// It is populated from defaults, the optional config file and CLI flags,
// in that order, and passed down explicitly.
//
// Design decision: a single flat struct, like the CLI flags that fill it.
// The YAML file is nested for readability and flattened by File.Apply.
type Config struct {
	// BaseURL is the scheme and host of the dashboard backend.
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Cookie is sent with every request. The backend authenticates with a
	// session cookie, so most endpoints answer 403 without one.
	Cookie string

	// Headers are extra HTTP headers added to every request.
	Headers map[string]string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON lines.
	LogJSON bool

	// JSONReport selects JSON output for result reports.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output for result reports.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// TeeReport also prints the report on stdout when ReportFile is set.
	TeeReport bool

	// ReportFile redirects reports to a file instead of stdout.
	ReportFile string

	// OutputDir is where downloaded archives and images are written.
	OutputDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .opsdash is searched in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// DBDir is the directory of the form store database.
	// Defaults to the XDG data directory.
	DBDir string

	// ProgressInterval is the video progress poll period.
	ProgressInterval time.Duration

	// FrameInterval is the live frame poll period.
	FrameInterval time.Duration

	// DetectionLogInterval is the live detection log poll period.
	DetectionLogInterval time.Duration

	// LiveStatusInterval is the live status poll period.
	LiveStatusInterval time.Duration

	// InboxRefreshInterval is the message list refresh period.
	InboxRefreshInterval time.Duration

	// ActivityRefreshInterval is the activity log refresh period.
	ActivityRefreshInterval time.Duration

	// WeatherRefreshInterval is the weather refresh period.
	WeatherRefreshInterval time.Duration

	// MarkReadDelay is the delay between rendering an unread message and
	// reporting it as read.
	MarkReadDelay time.Duration

	// PostSendRefreshDelay is the delay before refreshing the inbox after a send.
	PostSendRefreshDelay time.Duration

	// MaxFileSize is the per-file staging limit in bytes.
	MaxFileSize int64

	// MaxTotalSize is the aggregate staging limit in bytes.
	MaxTotalSize int64

	// UAVWarnSize is the UAV large-file threshold in bytes.
	UAVWarnSize int64

	// Concurrency bounds parallel requests issued by a single command.
	Concurrency int

	// MarkReadRate is the maximum mark-read pushes per second.
	MarkReadRate int
}

// NewConfig creates a new Config with default values.
//
// Design decision: a constructor instead of zero values because nearly
// every default is non-zero and this is where they are documented.
func NewConfig() *Config {
	return &Config{
		BaseURL:                 DefaultBaseURL,
		Timeout:                 DefaultTimeout,
		UserAgent:               DefaultUserAgent,
		ProgressInterval:        DefaultProgressInterval,
		FrameInterval:           DefaultFrameInterval,
		DetectionLogInterval:    DefaultDetectionLogInterval,
		LiveStatusInterval:      DefaultLiveStatusInterval,
		InboxRefreshInterval:    DefaultInboxRefreshInterval,
		ActivityRefreshInterval: DefaultActivityRefreshInterval,
		WeatherRefreshInterval:  DefaultWeatherRefreshInterval,
		MarkReadDelay:           DefaultMarkReadDelay,
		PostSendRefreshDelay:    DefaultPostSendRefreshDelay,
		MaxFileSize:             DefaultMaxFileSize,
		MaxTotalSize:            DefaultMaxTotalSize,
		UAVWarnSize:             DefaultUAVWarnSize,
		Concurrency:             DefaultConcurrency,
		MarkReadRate:            DefaultMarkReadRate,
		OutputDir:               ".",
	}
}

// XDGDataDir returns the XDG data directory for opsdash.
// On Linux: ~/.local/share/opsdash
// On macOS: ~/Library/Application Support/opsdash
// On Windows: %LOCALAPPDATA%\opsdash
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for opsdash.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// FormDBPath returns the form store database path, honoring DBDir.
func (c *Config) FormDBPath() string {
	dir := c.DBDir
	if dir == "" {
		dir = XDGDataDir()
	}
	return filepath.Join(dir, "forms.db")
}

// Validate checks if the configuration is valid and returns the first
// problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// Every timer needs a positive period; a zero ticker panics.
	for _, d := range []time.Duration{
		c.ProgressInterval,
		c.FrameInterval,
		c.DetectionLogInterval,
		c.LiveStatusInterval,
		c.InboxRefreshInterval,
		c.ActivityRefreshInterval,
		c.WeatherRefreshInterval,
	} {
		if d <= 0 {
			return ErrInvalidInterval
		}
	}

	if c.MarkReadDelay < 0 || c.PostSendRefreshDelay < 0 {
		return ErrInvalidDelay
	}

	if c.MaxFileSize <= 0 || c.MaxTotalSize <= 0 || c.MaxFileSize > c.MaxTotalSize {
		return ErrInvalidLimits
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	return nil
}
