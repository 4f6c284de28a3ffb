package view

import (
	"encoding/base64"
	"fmt"
	"html/template"

	"github.com/nao1215/opsdash/internal/model"
)

const (
	// NoFeedMessage is shown in place of the frame while detection is off.
	NoFeedMessage = "SELECT CAMERA AND START DETECTION"
	// NoDetectionsMessage is shown for an empty detection log.
	NoDetectionsMessage = "NO DETECTIONS"
)

// CameraOption is one entry of the camera selector. The first option is
// the empty placeholder.
type CameraOption struct {
	Value string
	Label string
	Type  string
}

// NewCameraOptions builds the selector entries.
func NewCameraOptions(cams []model.Camera) []CameraOption {
	opts := make([]CameraOption, 0, len(cams)+1)
	opts = append(opts, CameraOption{Label: "SELECT CAMERA"})
	for _, c := range cams {
		opts = append(opts, CameraOption{Value: fmt.Sprint(c.ID), Label: Upper(c.Name), Type: c.Type})
	}
	return opts
}

// FrameView is the video area: a frame or the no-feed message.
type FrameView struct {
	Src template.URL
	FPS string
}

// NoFeed reports whether the no-feed message is shown.
func (f FrameView) NoFeed() bool {
	return f.Src == ""
}

// Message is the no-feed text.
func (FrameView) Message() string {
	return NoFeedMessage
}

// NoFeedFrame is the video area after detection stopped.
func NoFeedFrame() FrameView {
	return FrameView{FPS: "0 FPS"}
}

// NewFrame builds the video area from base64 JPEG data. The data is
// decoded first so only real base64 ends up in the data URL.
func NewFrame(b64 string, fps int) (FrameView, error) {
	if b64 == "" {
		return FrameView{}, fmt.Errorf("%w: empty frame", ErrInvalidFrame)
	}
	if _, err := base64.StdEncoding.DecodeString(b64); err != nil {
		return FrameView{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	return FrameView{
		Src: template.URL("data:image/jpeg;base64," + b64), //nolint:gosec // validated base64
		FPS: fmt.Sprintf("%d FPS", fps),
	}, nil
}

// DetectionLog is the live detection log.
type DetectionLog struct {
	Entries []model.LiveDetection
}

// Empty reports whether the empty-log message is shown.
func (l DetectionLog) Empty() bool {
	return len(l.Entries) == 0
}

// Count is the "N OBJECTS" counter.
func (l DetectionLog) Count() string {
	return fmt.Sprintf("%d OBJECTS", len(l.Entries))
}

// LiveStatusText is the status indicator text for one status poll.
type LiveStatusText struct {
	Text  string
	Class string
}

// Live status indicator values.
var (
	LiveOnline  = LiveStatusText{Text: "ONLINE", Class: "online"}
	LiveOffline = LiveStatusText{Text: "OFFLINE", Class: "offline"}
	LiveError   = LiveStatusText{Text: "ERROR", Class: "error"}
)

// NewLiveStatusText maps a status poll result to the indicator.
func NewLiveStatusText(running bool) LiveStatusText {
	if running {
		return LiveOnline
	}
	return LiveOffline
}
