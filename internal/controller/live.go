package controller

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/poll"
	"github.com/nao1215/opsdash/internal/view"
)

// Containers and controls of the live viewer.
const (
	CameraContainer       = "camera-select"
	FrameContainer        = "video-frame"
	DetectionLogContainer = "detection-log"
	LiveStatusContainer   = "live-status"
	LiveMessageContainer  = "live-message"

	StartLiveButton = "start"
	StopLiveButton  = "stop"
	CameraSelect    = "camera"
)

// Messages of the live viewer.
const (
	SelectCameraMessage = "PLEASE SELECT A CAMERA FIRST"
	EmptyURLMessage     = "PLEASE ENTER A VALID URL"
	URLSchemeMessage    = "URL MUST START WITH http:// OR rtsp://"
)

// LiveBackend is the part of the API the live viewer uses.
type LiveBackend interface {
	Cameras(ctx context.Context) ([]model.Camera, error)
	StartLive(ctx context.Context, source string) error
	StopLive(ctx context.Context) error
	LiveFrame(ctx context.Context) (string, error)
	LiveDetections(ctx context.Context) ([]model.LiveDetection, error)
	LiveStatus(ctx context.Context) (*model.LiveStatus, error)
}

// FPSCounter turns frame arrivals into a frames-per-second figure. The
// figure is recomputed once at least a second has passed.
type FPSCounter struct {
	now    func() time.Time
	frames int
	since  time.Time
	fps    int
}

// NewFPSCounter returns a counter reading time from now.
func NewFPSCounter(now func() time.Time) *FPSCounter {
	if now == nil {
		now = time.Now
	}
	return &FPSCounter{now: now, since: now()}
}

// Frame records one frame and returns the current figure.
func (c *FPSCounter) Frame() int {
	c.frames++
	t := c.now()
	elapsed := t.Sub(c.since)
	if elapsed >= time.Second {
		c.fps = int(math.Round(float64(c.frames) * float64(time.Second) / float64(elapsed)))
		c.frames = 0
		c.since = t
	}
	return c.fps
}

// FPS returns the last computed figure.
func (c *FPSCounter) FPS() int {
	return c.fps
}

// Reset starts counting afresh.
func (c *FPSCounter) Reset() {
	c.frames = 0
	c.fps = 0
	c.since = c.now()
}

// Live is the live detection viewer. A status poll runs from Start to
// Close; frame and detection-log polls run while detection is on.
type Live struct {
	base
	backend LiveBackend

	mu       sync.Mutex
	cameras  []view.CameraOption
	selected string
	source   string
	running  bool
	streams  *poll.Group
	fps      *FPSCounter
	frame    view.FrameView
	log      view.DetectionLog
	status   view.LiveStatusText
}

// NewLive returns a stopped live viewer showing the no-feed message.
func NewLive(backend LiveBackend, opts ...Option) *Live {
	l := &Live{
		base: newBase("Live Detection", opts,
			LiveStatusContainer, LiveMessageContainer, CameraContainer, FrameContainer, DetectionLogContainer),
		backend: backend,
		frame:   view.NoFeedFrame(),
		status:  view.LiveOffline,
	}
	l.fps = NewFPSCounter(l.now)
	l.controls.Set(CameraSelect, view.Control{Enabled: true, Visible: true})
	l.controls.Set(StartLiveButton, view.Control{Visible: true, Label: "START DETECTION"})
	l.controls.Set(StopLiveButton, view.Control{Visible: true, Label: "STOP DETECTION"})
	l.base.render(FrameContainer, view.TmplFrame, l.frame)
	return l
}

// Start loads the camera list and starts the status poll.
func (l *Live) Start(ctx context.Context) error {
	if err := l.LoadCameras(ctx); err != nil {
		l.logger.Warn("camera list unavailable", "error", err)
	}
	t, err := poll.NewTask("live_status", l.settings.status, func(ctx context.Context) bool {
		l.updateStatus(ctx)
		return false
	}, poll.WithLogger(l.logger))
	if err != nil {
		return err
	}
	return l.schedule(ctx, t)
}

// LoadCameras fills the camera selector.
func (l *Live) LoadCameras(ctx context.Context) error {
	cams, err := l.backend.Cameras(ctx)
	if err != nil {
		var domainErr *api.DomainError
		if errors.As(err, &domainErr) {
			l.showError("Failed to load cameras: "+domainErr.Message, err)
		} else {
			l.showError("Error loading cameras: "+api.UserMessage(err), err)
		}
		return err
	}
	opts := view.NewCameraOptions(cams)
	l.mu.Lock()
	l.cameras = opts
	l.mu.Unlock()
	l.base.render(CameraContainer, view.TmplCameraOptions, opts)
	return nil
}

// Cameras returns the selector entries, placeholder first.
func (l *Live) Cameras() []view.CameraOption {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]view.CameraOption(nil), l.cameras...)
}

// SelectCamera selects a camera by its selector value. The "ip" and
// "rtsp" entries need a stream URL first; SelectCamera reports that
// through needsURL and SetCustomURL completes the selection.
func (l *Live) SelectCamera(value string) (needsURL bool) {
	needsURL = value == "ip" || value == "rtsp"

	l.mu.Lock()
	l.selected = value
	l.source = value
	if needsURL {
		l.source = ""
	}
	source := l.source
	l.mu.Unlock()

	l.controls.Enable(StartLiveButton, source != "")
	return needsURL
}

// SetCustomURL sets the stream URL of an "ip" or "rtsp" selection.
func (l *Live) SetCustomURL(raw string) error {
	u := strings.TrimSpace(raw)
	if u == "" {
		l.showError(EmptyURLMessage, nil)
		return invalid(EmptyURLMessage)
	}
	if !strings.HasPrefix(u, "http") && !strings.HasPrefix(u, "rtsp") {
		l.showError(URLSchemeMessage, nil)
		return invalid(URLSchemeMessage)
	}

	l.mu.Lock()
	l.source = u
	l.mu.Unlock()
	l.controls.Enable(StartLiveButton, true)
	return nil
}

// CancelCustomURL drops an "ip" or "rtsp" selection that never got a URL.
func (l *Live) CancelCustomURL() {
	l.mu.Lock()
	if l.source == "" {
		l.selected = ""
	}
	l.mu.Unlock()
	l.controls.Enable(StartLiveButton, false)
}

// Selected returns the selector value, empty when nothing is selected.
func (l *Live) Selected() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}

// Source returns the camera source sent by StartDetection.
func (l *Live) Source() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.source
}

// Running reports whether detection is on as far as the viewer knows.
func (l *Live) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// StartDetection starts detection on the selected source and the frame
// and detection-log polls.
func (l *Live) StartDetection(ctx context.Context) error {
	source := l.Source()
	if source == "" {
		l.showError(SelectCameraMessage, nil)
		return invalid(SelectCameraMessage)
	}

	l.controls.Enable(StartLiveButton, false)
	if err := l.backend.StartLive(ctx, source); err != nil {
		var domainErr *api.DomainError
		if errors.As(err, &domainErr) {
			l.showError("FAILED TO START DETECTION: "+domainErr.Message, err)
		} else {
			l.showError("ERROR STARTING DETECTION: "+api.UserMessage(err), err)
		}
		l.controls.Enable(StartLiveButton, true)
		return err
	}

	if err := l.setRunning(ctx, true); err != nil {
		return err
	}
	l.showMessage(view.NewStatus(view.StatusSuccess, "DETECTION STARTED SUCCESSFULLY"))
	return nil
}

// StopDetection stops detection and the frame and detection-log polls.
// The status poll keeps running until Close.
func (l *Live) StopDetection(ctx context.Context) error {
	l.controls.Enable(StopLiveButton, false)
	defer func() { l.controls.Enable(StopLiveButton, l.Running()) }()

	if err := l.backend.StopLive(ctx); err != nil {
		var domainErr *api.DomainError
		if errors.As(err, &domainErr) {
			l.showError("FAILED TO STOP DETECTION: "+domainErr.Message, err)
		} else {
			l.showError("ERROR STOPPING DETECTION: "+api.UserMessage(err), err)
		}
		return err
	}

	if err := l.setRunning(ctx, false); err != nil {
		return err
	}
	l.showMessage(view.NewStatus(view.StatusSuccess, "DETECTION STOPPED"))
	return nil
}

// setRunning moves the viewer to running or stopped: it starts or stops
// the streams, resets the video area and updates the controls.
func (l *Live) setRunning(ctx context.Context, running bool) error {
	l.mu.Lock()
	if l.running == running {
		l.mu.Unlock()
		return nil
	}
	l.running = running
	old := l.streams
	l.streams = nil
	if !running {
		l.frame = view.NoFeedFrame()
		l.fps.Reset()
	}
	l.mu.Unlock()

	if old != nil {
		old.Stop()
	}

	l.controls.Enable(StartLiveButton, !running && l.Source() != "")
	l.controls.Enable(StopLiveButton, running)
	l.controls.Enable(CameraSelect, !running)

	if !running {
		l.base.render(FrameContainer, view.TmplFrame, view.NoFeedFrame())
		return nil
	}
	return l.startStreams(ctx)
}

func (l *Live) startStreams(ctx context.Context) error {
	frame, err := poll.NewTask("live_frame", l.settings.frame, func(ctx context.Context) bool {
		l.updateFrame(ctx)
		return false
	}, poll.WithLogger(l.logger))
	if err != nil {
		return err
	}
	dets, err := poll.NewTask("live_detections", l.settings.detections, func(ctx context.Context) bool {
		l.updateDetections(ctx)
		return false
	}, poll.WithLogger(l.logger))
	if err != nil {
		return err
	}

	g := poll.NewGroup(frame, dets)
	l.mu.Lock()
	l.streams = g
	l.mu.Unlock()

	if l.isClosed() {
		g.Stop()
		return ErrClosed
	}
	return g.Start(ctx)
}

// Streaming reports whether the frame and detection-log polls run.
func (l *Live) Streaming() bool {
	l.mu.Lock()
	g := l.streams
	l.mu.Unlock()
	return g != nil && g.Running()
}

func (l *Live) updateFrame(ctx context.Context) {
	if !l.Running() {
		return
	}
	b64, err := l.backend.LiveFrame(ctx)
	if err != nil {
		l.logger.Debug("frame poll failed", "error", err)
		return
	}

	l.mu.Lock()
	fps := l.fps.Frame()
	l.mu.Unlock()

	f, err := view.NewFrame(b64, fps)
	if err != nil {
		l.logger.Warn("dropping frame", "error", err)
		return
	}
	// Rendered under l.mu so a stop cannot slip between the check and the
	// render and have its no-feed frame replaced.
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		// Stopped while the request was in flight.
		return
	}
	l.frame = f
	l.base.render(FrameContainer, view.TmplFrame, f)
}

func (l *Live) updateDetections(ctx context.Context) {
	if !l.Running() {
		return
	}
	dets, err := l.backend.LiveDetections(ctx)
	if err != nil {
		l.logger.Debug("detection log poll failed", "error", err)
		return
	}
	log := view.DetectionLog{Entries: dets}
	l.mu.Lock()
	l.log = log
	l.mu.Unlock()
	l.base.render(DetectionLogContainer, view.TmplDetectionLog, log)
}

// updateStatus shows the backend state and follows it when detection was
// started or stopped elsewhere.
func (l *Live) updateStatus(ctx context.Context) {
	s, err := l.backend.LiveStatus(ctx)
	if err != nil {
		l.logger.Debug("status poll failed", "error", err)
		l.showStatus(view.LiveError)
		return
	}
	l.showStatus(view.NewLiveStatusText(s.IsRunning))

	if s.IsRunning != l.Running() {
		l.logger.Info("detection state changed on the server", "running", s.IsRunning)
		if err := l.setRunning(ctx, s.IsRunning); err != nil {
			l.logger.Warn("could not follow server state", "error", err)
		}
	}
}

func (l *Live) showStatus(s view.LiveStatusText) {
	l.mu.Lock()
	l.status = s
	l.mu.Unlock()
	l.base.render(LiveStatusContainer, view.TmplLiveStatus, s)
}

// Frame returns the video area shown.
func (l *Live) Frame() view.FrameView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

// DetectionLog returns the detection log shown.
func (l *Live) DetectionLog() view.DetectionLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.log
}

// Status returns the status indicator shown.
func (l *Live) Status() view.LiveStatusText {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *Live) showError(msg string, err error) {
	if err != nil {
		l.logger.Warn("live viewer", "error", err)
	}
	l.showMessage(view.ErrorStatus("ERROR: " + msg))
}

func (l *Live) showMessage(s view.Status) {
	l.base.status(LiveMessageContainer, s)
}

// Close stops every poll together and tears the viewer down. Detection
// on the backend is left as it is.
func (l *Live) Close() {
	l.mu.Lock()
	g := l.streams
	l.streams = nil
	l.mu.Unlock()
	if g != nil {
		g.Stop()
	}
	l.shutdown()
}
