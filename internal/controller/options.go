package controller

import (
	"log/slog"
	"time"

	"github.com/nao1215/opsdash/internal/config"
	"github.com/nao1215/opsdash/internal/log"
)

// settings is shared by every controller; each reads the fields it needs.
type settings struct {
	logger   *slog.Logger
	now      func() time.Time
	location *time.Location

	activityRefresh time.Duration
	weatherRefresh  time.Duration
	inboxRefresh    time.Duration
	progress        time.Duration

	frame      time.Duration
	detections time.Duration
	status     time.Duration

	markReadDelay time.Duration
	postSendDelay time.Duration

	concurrency  int
	markReadRate float64

	maxFile  int64
	maxTotal int64
	uavWarn  int64
}

func defaultSettings() settings {
	return settings{
		logger:          log.NewDiscardLogger(),
		now:             time.Now,
		location:        time.Local,
		activityRefresh: config.DefaultActivityRefreshInterval,
		weatherRefresh:  config.DefaultWeatherRefreshInterval,
		inboxRefresh:    config.DefaultInboxRefreshInterval,
		progress:        config.DefaultProgressInterval,
		frame:           config.DefaultFrameInterval,
		detections:      config.DefaultDetectionLogInterval,
		status:          config.DefaultLiveStatusInterval,
		markReadDelay:   config.DefaultMarkReadDelay,
		postSendDelay:   config.DefaultPostSendRefreshDelay,
		concurrency:     config.DefaultConcurrency,
		markReadRate:    config.DefaultMarkReadRate,
		maxFile:         config.DefaultMaxFileSize,
		maxTotal:        config.DefaultMaxTotalSize,
		uavWarn:         config.DefaultUAVWarnSize,
	}
}

func newSettings(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures a controller.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now. Tests use it to pin relative times and
// default dates.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone used for displayed times.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithRefreshIntervals sets the auto-refresh periods of the activity,
// weather and inbox pages. Zero keeps a default.
func WithRefreshIntervals(activity, weather, inbox time.Duration) Option {
	return func(s *settings) {
		setPositive(&s.activityRefresh, activity)
		setPositive(&s.weatherRefresh, weather)
		setPositive(&s.inboxRefresh, inbox)
	}
}

// WithProgressInterval sets the video progress poll period.
func WithProgressInterval(d time.Duration) Option {
	return func(s *settings) {
		setPositive(&s.progress, d)
	}
}

// WithLiveIntervals sets the frame, detection log and status poll periods
// of the live viewer. Zero keeps a default.
func WithLiveIntervals(frame, detections, status time.Duration) Option {
	return func(s *settings) {
		setPositive(&s.frame, frame)
		setPositive(&s.detections, detections)
		setPositive(&s.status, status)
	}
}

// WithInboxDelays sets the mark-read delay and the refresh delay after a
// send. Zero keeps a default.
func WithInboxDelays(markRead, postSend time.Duration) Option {
	return func(s *settings) {
		setPositive(&s.markReadDelay, markRead)
		setPositive(&s.postSendDelay, postSend)
	}
}

// WithConcurrency bounds parallel requests fanned out by one operation.
func WithConcurrency(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithMarkReadRate caps mark-read pushes per second. Zero or less disables
// the cap.
func WithMarkReadRate(perSecond float64) Option {
	return func(s *settings) {
		s.markReadRate = perSecond
	}
}

// WithLimits sets the staging limits: per file and total for detection
// uploads, and the UAV large-file threshold. Zero keeps a default.
func WithLimits(maxFile, maxTotal, uavWarn int64) Option {
	return func(s *settings) {
		if maxFile > 0 {
			s.maxFile = maxFile
		}
		if maxTotal > 0 {
			s.maxTotal = maxTotal
		}
		if uavWarn > 0 {
			s.uavWarn = uavWarn
		}
	}
}

// FromConfig applies every interval and limit of cfg.
func FromConfig(cfg *config.Config) Option {
	return func(s *settings) {
		for _, opt := range []Option{
			WithRefreshIntervals(cfg.ActivityRefreshInterval, cfg.WeatherRefreshInterval, cfg.InboxRefreshInterval),
			WithProgressInterval(cfg.ProgressInterval),
			WithLiveIntervals(cfg.FrameInterval, cfg.DetectionLogInterval, cfg.LiveStatusInterval),
			WithInboxDelays(cfg.MarkReadDelay, cfg.PostSendRefreshDelay),
			WithConcurrency(cfg.Concurrency),
			WithMarkReadRate(float64(cfg.MarkReadRate)),
			WithLimits(cfg.MaxFileSize, cfg.MaxTotalSize, cfg.UAVWarnSize),
		} {
			opt(s)
		}
	}
}

func setPositive(dst *time.Duration, d time.Duration) {
	if d > 0 {
		*dst = d
	}
}
