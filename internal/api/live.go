package api

import (
	"context"

	"github.com/nao1215/opsdash/internal/model"
)

// Cameras lists the capture sources the backend can open.
func (c *Client) Cameras(ctx context.Context) ([]model.Camera, error) {
	var list model.CameraList
	if err := c.getJSON(ctx, "/feature4/api/cameras", nil, &list, "Failed to load cameras"); err != nil {
		return nil, err
	}
	return list.Cameras, nil
}

// StartLive starts live detection on source, a camera index or stream URL.
func (c *Client) StartLive(ctx context.Context, source string) error {
	var env model.Envelope
	return c.postJSON(ctx, "/feature4/api/start", model.StartLiveRequest{CameraSource: source}, &env, "Failed to start camera")
}

// StopLive stops live detection.
func (c *Client) StopLive(ctx context.Context) error {
	var env model.Envelope
	return c.postJSON(ctx, "/feature4/api/stop", nil, &env, "Failed to stop camera")
}

// LiveFrame returns the latest annotated frame as base64 JPEG.
// A *DomainError means no frame is available yet.
func (c *Client) LiveFrame(ctx context.Context) (string, error) {
	var frame model.LiveFrame
	if err := c.getJSON(ctx, "/feature4/api/frame", nil, &frame, "No frame available"); err != nil {
		return "", err
	}
	return frame.Frame, nil
}

// LiveDetections returns the recent detection log.
func (c *Client) LiveDetections(ctx context.Context) ([]model.LiveDetection, error) {
	var list model.LiveDetections
	if err := c.getJSON(ctx, "/feature4/api/detections", nil, &list, ""); err != nil {
		return nil, err
	}
	return list.Detections, nil
}

// LiveStatus returns whether the backend is capturing.
func (c *Client) LiveStatus(ctx context.Context) (*model.LiveStatus, error) {
	var status model.LiveStatus
	if err := c.getJSON(ctx, "/feature4/api/status", nil, &status, ""); err != nil {
		return nil, err
	}
	if status.Error != "" {
		return nil, &DomainError{Message: status.Error}
	}
	return &status, nil
}
