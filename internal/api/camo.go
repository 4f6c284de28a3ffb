package api

import (
	"context"

	"github.com/nao1215/opsdash/internal/model"
)

// UploadCamo stages images for camouflage detection.
func (c *Client) UploadCamo(ctx context.Context, parts []Part) (*model.UploadResponse, error) {
	return c.upload(ctx, "/feature6/upload_images", "images", parts)
}

// ProcessCamo runs camouflage detection over an uploaded session.
func (c *Client) ProcessCamo(ctx context.Context, sid model.SessionID) (*model.CamoResults, error) {
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	var results model.CamoResults
	req := model.ProcessRequest{SessionID: sid}
	if err := c.postJSON(ctx, "/feature6/process_images", req, &results, "Processing failed"); err != nil {
		return nil, scoped(err)
	}
	return &results, nil
}

// DownloadCamoImage downloads one processed camouflage image.
func (c *Client) DownloadCamoImage(ctx context.Context, sid model.SessionID, name string) (*Blob, error) {
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	return scopedBlob(c.getBlob(ctx, sessionPath("/feature6/download_image", sid.String(), name), nil, "", "Invalid response format - expected image"))
}

// DownloadAllCamoImages downloads every processed camouflage image as a zip.
func (c *Client) DownloadAllCamoImages(ctx context.Context, sid model.SessionID) (*Blob, error) {
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	return scopedBlob(c.getBlob(ctx, sessionPath("/feature6/download_all_images", sid.String()), nil, "application/zip", "Invalid response format - expected ZIP file"))
}

// CleanupCamo deletes a camouflage session's files on the server.
func (c *Client) CleanupCamo(ctx context.Context, sid model.SessionID) error {
	if sid.IsZero() {
		return ErrNoSession
	}
	return scoped(c.postJSON(ctx, sessionPath("/feature6/cleanup_session", sid.String()), nil, nil, ""))
}
