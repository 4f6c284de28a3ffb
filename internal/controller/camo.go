package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/pipeline"
	"github.com/nao1215/opsdash/internal/staging"
	"github.com/nao1215/opsdash/internal/view"
)

// Containers and controls of the camouflage page.
const (
	CamoFilesContainer   = "camo-files"
	CamoStatusContainer  = "camo-status"
	CamoResultsContainer = "camo-results"

	ProcessCamoButton = "process-camo"
	ClearCamoButton   = "clear-camo"
)

// Messages of the camouflage page.
const (
	NoCamoImagesMessage  = "No images selected"
	NoCamoSessionMessage = "No active session"
)

// CamoBackend is the part of the API the camouflage page uses.
type CamoBackend interface {
	pipeline.Backend
	DownloadCamoImage(ctx context.Context, sid model.SessionID, name string) (*api.Blob, error)
	DownloadAllCamoImages(ctx context.Context, sid model.SessionID) (*api.Blob, error)
	CleanupCamo(ctx context.Context, sid model.SessionID) error
	ResolveURL(path string) string
}

// Camouflage is the camouflage detection page.
type Camouflage struct {
	base
	backend CamoBackend

	mu      sync.Mutex
	files   *staging.List
	session model.SessionID
	gallery *view.CamoGallery
	raw     *model.CamoResults
}

// NewCamouflage returns a camouflage page with an empty staging list.
func NewCamouflage(backend CamoBackend, opts ...Option) *Camouflage {
	c := &Camouflage{
		base:    newBase("Camouflage Detection", opts, CamoFilesContainer, CamoStatusContainer, CamoResultsContainer),
		backend: backend,
		files:   staging.New(staging.KindImage),
	}
	c.controls.Set(ProcessCamoButton, view.Control{Visible: true, Label: "DETECT CAMOUFLAGE"})
	c.controls.Set(ClearCamoButton, view.Control{Enabled: true, Visible: true, Label: "CLEAR"})
	return c
}

// AddFiles stages image files. Other files are dropped.
func (c *Camouflage) AddFiles(paths ...string) (staging.Result, error) {
	c.mu.Lock()
	res, err := c.files.Add(paths...)
	c.mu.Unlock()
	c.renderFiles()
	return res, err
}

// RemoveFile unstages the file at index i.
func (c *Camouflage) RemoveFile(i int) error {
	c.mu.Lock()
	err := c.files.Remove(i)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.renderFiles()
	return nil
}

// ClearFiles empties the staging list and the results.
func (c *Camouflage) ClearFiles() {
	c.mu.Lock()
	c.files.Clear()
	c.gallery = nil
	c.raw = nil
	c.mu.Unlock()

	c.page.Container(CamoResultsContainer).Clear()
	c.page.Container(CamoStatusContainer).Clear()
	c.renderFiles()
}

func (c *Camouflage) renderFiles() {
	c.mu.Lock()
	files := view.NewFileList(c.files)
	empty := c.files.Empty()
	c.mu.Unlock()

	c.render(CamoFilesContainer, view.TmplFileList, files)
	c.controls.Enable(ProcessCamoButton, !empty)
}

// Session returns the session of the last upload.
func (c *Camouflage) Session() model.SessionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Gallery returns the last gallery, or nil.
func (c *Camouflage) Gallery() *view.CamoGallery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gallery
}

// Response returns the backend reply of the last run, or nil.
func (c *Camouflage) Response() *model.CamoResults {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw
}

// Process uploads the staged images and runs camouflage detection.
func (c *Camouflage) Process(ctx context.Context) (*view.CamoGallery, error) {
	c.mu.Lock()
	parts := make([]api.Part, 0, c.files.Len())
	for _, f := range c.files.Files() {
		parts = append(parts, f)
	}
	c.mu.Unlock()

	if len(parts) == 0 {
		c.status(CamoStatusContainer, view.ErrorStatus("⚠ "+NoCamoImagesMessage))
		return nil, invalid(NoCamoImagesMessage)
	}

	p, err := pipeline.ForKind(pipeline.KindCamo, c.backend, []pipeline.Option{pipeline.WithLogger(c.logger)})
	if err != nil {
		return nil, err
	}

	c.controls.Enable(ProcessCamoButton, false)
	c.controls.Enable(ClearCamoButton, false)
	defer func() {
		c.controls.Enable(ProcessCamoButton, true)
		c.controls.Enable(ClearCamoButton, true)
	}()

	job := pipeline.NewJob(pipeline.KindCamo, parts, pipeline.WithObserver(func(j pipeline.Job) {
		switch j.State {
		case model.JobUploading:
			c.status(CamoStatusContainer, view.NewStatus(view.StatusProcessing, "Uploading images..."))
		case model.JobProcessing:
			c.mu.Lock()
			c.session = j.SessionID
			c.mu.Unlock()
			c.status(CamoStatusContainer, view.NewStatus(view.StatusProcessing, "Processing camouflage detection..."))
		}
	}))
	if err := p.Execute(ctx, job); err != nil {
		c.fail(CamoStatusContainer, "⚠ Error: "+job.ErrorMessage, err)
		return nil, err
	}

	g := view.NewCamoGallery(*job.Camo, c.backend.ResolveURL)
	c.mu.Lock()
	c.gallery = &g
	c.raw = job.Camo
	c.mu.Unlock()
	c.status(CamoStatusContainer, g.Status)
	c.render(CamoResultsContainer, view.TmplCamoGallery, g)
	return &g, nil
}

// DownloadImage fetches one processed image.
func (c *Camouflage) DownloadImage(ctx context.Context, name string) (*Download, error) {
	sid := c.Session()
	if sid.IsZero() {
		c.status(CamoStatusContainer, view.ErrorStatus("⚠ "+NoCamoSessionMessage))
		return nil, ErrNoSession
	}
	blob, err := c.backend.DownloadCamoImage(ctx, sid, name)
	if err != nil {
		c.fail(CamoStatusContainer, "⚠ Download error: "+api.UserMessage(err), err)
		return nil, err
	}
	return newDownload(name, blob), nil
}

// DownloadAll fetches every processed image as a zip archive.
func (c *Camouflage) DownloadAll(ctx context.Context) (*Download, error) {
	sid := c.Session()
	if sid.IsZero() {
		c.status(CamoStatusContainer, view.ErrorStatus("⚠ "+NoCamoSessionMessage))
		return nil, ErrNoSession
	}
	blob, err := c.backend.DownloadAllCamoImages(ctx, sid)
	if err != nil {
		c.fail(CamoStatusContainer, "⚠ Download error: "+api.UserMessage(err), err)
		return nil, err
	}
	name := fmt.Sprintf("camouflage_detection_results_%s.zip", c.now().UTC().Format(time.DateOnly))
	return newDownload(name, blob), nil
}

// Close deletes the session on the backend and tears the page down.
func (c *Camouflage) Close(ctx context.Context) {
	if sid := c.Session(); !sid.IsZero() {
		if err := c.backend.CleanupCamo(ctx, sid); err != nil {
			c.logger.Warn("session cleanup failed", "session", sid, "error", err)
		}
	}
	c.shutdown()
}
