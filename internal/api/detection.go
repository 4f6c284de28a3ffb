package api

import (
	"context"
	"net/http"

	"github.com/nao1215/opsdash/internal/model"
)

// Object detection endpoints (images and videos).

// UploadImages stages images on the server and returns the new session.
func (c *Client) UploadImages(ctx context.Context, parts []Part) (*model.UploadResponse, error) {
	return c.upload(ctx, "/feature3/upload_images", "images", parts)
}

// UploadVideos stages videos on the server and returns the new session.
func (c *Client) UploadVideos(ctx context.Context, parts []Part) (*model.UploadResponse, error) {
	return c.upload(ctx, "/feature3/upload_videos", "videos", parts)
}

func (c *Client) upload(ctx context.Context, path, field string, parts []Part) (*model.UploadResponse, error) {
	var resp model.UploadResponse
	if err := c.postMultipart(ctx, path, field, parts, &resp, "Upload failed"); err != nil {
		return nil, err
	}
	if resp.SessionID.IsZero() {
		return nil, malformed("Upload response carried no session id", nil)
	}
	return &resp, nil
}

// ProcessImages runs detection over an uploaded image session.
func (c *Client) ProcessImages(ctx context.Context, sid model.SessionID, filter model.DetectionFilter) (*model.ImageResults, error) {
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	var results model.ImageResults
	req := model.ProcessRequest{SessionID: sid, DetectionFilter: filter}
	if err := c.postJSON(ctx, "/feature3/process_images", req, &results, "Processing failed"); err != nil {
		return nil, scoped(err)
	}
	return &results, nil
}

// ProcessVideos starts background detection over an uploaded video session.
// Progress is then read with VideoProgress.
func (c *Client) ProcessVideos(ctx context.Context, sid model.SessionID, filter model.DetectionFilter) error {
	if sid.IsZero() {
		return ErrNoSession
	}
	var env model.Envelope
	req := model.ProcessRequest{SessionID: sid, DetectionFilter: filter}
	return scoped(c.postJSON(ctx, "/feature3/process_videos", req, &env, "Processing failed"))
}

// VideoProgress returns the progress record of a video session.
//
// A 404 is reported as a not_found record rather than an error, since the
// backend drops finished or expired sessions. Every other non-2xx status is
// an *HTTPError.
func (c *Client) VideoProgress(ctx context.Context, sid model.SessionID) (*model.VideoProgress, error) {
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	var progress model.VideoProgress
	err := c.getJSON(ctx, sessionPath("/feature3/video_progress", sid.String()), nil, &progress, "")
	if isStatus(err, http.StatusNotFound) {
		return &model.VideoProgress{Status: model.ProgressNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// CancelVideo asks the backend to stop processing a video session.
// Callers do not wait for the job to actually stop.
func (c *Client) CancelVideo(ctx context.Context, sid model.SessionID) error {
	if sid.IsZero() {
		return ErrNoSession
	}
	return scoped(c.postJSON(ctx, sessionPath("/feature3/cancel_video", sid.String()), nil, nil, ""))
}

// DownloadImage downloads one processed image.
func (c *Client) DownloadImage(ctx context.Context, sid model.SessionID, name string) (*Blob, error) {
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	return scopedBlob(c.getBlob(ctx, sessionPath("/feature3/download_image", sid.String(), name), nil, "", "Invalid response format - expected image"))
}

// DownloadAllImages downloads every processed image as a zip archive.
func (c *Client) DownloadAllImages(ctx context.Context, sid model.SessionID) (*Blob, error) {
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	return scopedBlob(c.getBlob(ctx, sessionPath("/feature3/download_all_images", sid.String()), nil, "application/zip", "Invalid response format - expected ZIP file"))
}

// DownloadVideo downloads one processed video.
func (c *Client) DownloadVideo(ctx context.Context, sid model.SessionID, name string) (*Blob, error) {
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	return scopedBlob(c.getBlob(ctx, sessionPath("/feature3/download_video", sid.String(), name), nil, "", "Invalid response format - expected video"))
}

// CleanupDetection deletes a detection session's files on the server.
func (c *Client) CleanupDetection(ctx context.Context, sid model.SessionID) error {
	if sid.IsZero() {
		return ErrNoSession
	}
	return scoped(c.postJSON(ctx, sessionPath("/feature3/cleanup_session", sid.String()), nil, nil, ""))
}
