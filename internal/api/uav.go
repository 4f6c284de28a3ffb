package api

import (
	"context"

	"github.com/nao1215/opsdash/internal/model"
)

// UploadUAV uploads UAV images. The backend detects in the same request
// and returns per-file results along with the session for the download.
func (c *Client) UploadUAV(ctx context.Context, parts []Part) (*model.UAVUploadResponse, error) {
	var resp model.UAVUploadResponse
	if err := c.postMultipart(ctx, "/feature2/upload", "images", parts, &resp, "Processing failed"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DownloadUAV downloads the annotated UAV images as a zip archive.
func (c *Client) DownloadUAV(ctx context.Context, sid model.SessionID) (*Blob, error) {
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	return scopedBlob(c.getBlob(ctx, sessionPath("/feature2/download", sid.String()), nil, "application/zip", "Invalid response format - expected ZIP file"))
}

// CleanupUAV deletes a UAV session's files on the server.
func (c *Client) CleanupUAV(ctx context.Context, sid model.SessionID) error {
	if sid.IsZero() {
		return ErrNoSession
	}
	var env model.Envelope
	return scoped(c.postJSON(ctx, sessionPath("/feature2/cleanup", sid.String()), nil, &env, "Cleanup failed"))
}

// DebugSession reports how the backend sees the current cookie.
func (c *Client) DebugSession(ctx context.Context) (*model.SessionDebug, error) {
	var debug model.SessionDebug
	if err := c.getJSON(ctx, "/feature2/debug-session", nil, &debug, ""); err != nil {
		return nil, err
	}
	return &debug, nil
}
