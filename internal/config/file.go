package config

import "time"

// ServerConfig describes how to reach the dashboard backend.
type ServerConfig struct {
	// BaseURL is the backend address, e.g. "http://10.0.0.5:5000".
	BaseURL string `yaml:"baseURL,omitempty"`

	// Cookie is the session cookie copied from a logged-in browser.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers included in every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Proxy is an optional SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty"`

	// Timeout overrides the per-request timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// LimitsConfig holds upload limits in megabytes.
type LimitsConfig struct {
	MaxFileMB  int64 `yaml:"maxFileMB,omitempty"`
	MaxTotalMB int64 `yaml:"maxTotalMB,omitempty"`
	UAVWarnMB  int64 `yaml:"uavWarnMB,omitempty"`
}

// IntervalsConfig holds timer periods. Values use Go duration syntax ("2s").
type IntervalsConfig struct {
	Progress        time.Duration `yaml:"progress,omitempty"`
	Frame           time.Duration `yaml:"frame,omitempty"`
	DetectionLog    time.Duration `yaml:"detectionLog,omitempty"`
	LiveStatus      time.Duration `yaml:"liveStatus,omitempty"`
	Inbox           time.Duration `yaml:"inbox,omitempty"`
	Activity        time.Duration `yaml:"activity,omitempty"`
	Weather         time.Duration `yaml:"weather,omitempty"`
	MarkReadDelay   time.Duration `yaml:"markReadDelay,omitempty"`
	PostSendRefresh time.Duration `yaml:"postSendRefresh,omitempty"`
}

// File represents the structure of the .opsdash configuration file.
type File struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Limits    LimitsConfig    `yaml:"limits,omitempty"`
	Intervals IntervalsConfig `yaml:"intervals,omitempty"`
}

const megabyte = 1024 * 1024

// Apply copies every value set in the file onto cfg.
// Zero values in the file leave cfg untouched, so defaults survive.
func (f *File) Apply(cfg *Config) {
	setString(&cfg.BaseURL, f.Server.BaseURL)
	setString(&cfg.Cookie, f.Server.Cookie)
	setString(&cfg.ProxyAddress, f.Server.Proxy)
	setDuration(&cfg.Timeout, f.Server.Timeout)

	if len(f.Server.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(f.Server.Headers))
		}
		for k, v := range f.Server.Headers {
			cfg.Headers[k] = v
		}
	}

	if f.Limits.MaxFileMB > 0 {
		cfg.MaxFileSize = f.Limits.MaxFileMB * megabyte
	}
	if f.Limits.MaxTotalMB > 0 {
		cfg.MaxTotalSize = f.Limits.MaxTotalMB * megabyte
	}
	if f.Limits.UAVWarnMB > 0 {
		cfg.UAVWarnSize = f.Limits.UAVWarnMB * megabyte
	}

	iv := f.Intervals
	setDuration(&cfg.ProgressInterval, iv.Progress)
	setDuration(&cfg.FrameInterval, iv.Frame)
	setDuration(&cfg.DetectionLogInterval, iv.DetectionLog)
	setDuration(&cfg.LiveStatusInterval, iv.LiveStatus)
	setDuration(&cfg.InboxRefreshInterval, iv.Inbox)
	setDuration(&cfg.ActivityRefreshInterval, iv.Activity)
	setDuration(&cfg.WeatherRefreshInterval, iv.Weather)
	setDuration(&cfg.MarkReadDelay, iv.MarkReadDelay)
	setDuration(&cfg.PostSendRefreshDelay, iv.PostSendRefresh)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
