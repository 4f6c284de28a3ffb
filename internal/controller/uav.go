package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/pipeline"
	"github.com/nao1215/opsdash/internal/staging"
	"github.com/nao1215/opsdash/internal/view"
)

// Containers and controls of the UAV page.
const (
	UAVFilesContainer    = "uav-files"
	UAVProgressContainer = "uav-progress"
	UAVStatusContainer   = "uav-status"
	UAVResultsContainer  = "uav-results"

	ProcessUAVButton  = "process-uav"
	DownloadUAVButton = "download-uav"
)

// Messages of the UAV page.
const (
	NoValidImagesMessage = "Please select valid image files."
	NoImagesMessage      = "Please select images to process."
	NoUAVSessionMessage  = "No session to download"
)

// UAVBackend is the part of the API the UAV page uses.
type UAVBackend interface {
	pipeline.Backend
	DownloadUAV(ctx context.Context, sid model.SessionID) (*api.Blob, error)
	CleanupUAV(ctx context.Context, sid model.SessionID) error
	DebugSession(ctx context.Context) (*model.SessionDebug, error)
	ResolveURL(path string) string
}

// UAV is the UAV detection page. Its upload request also runs detection.
type UAV struct {
	base
	backend UAVBackend

	mu      sync.Mutex
	files   *staging.List
	session model.SessionID
	results *view.UAVResults
	raw     *model.UAVUploadResponse
}

// NewUAV returns a UAV page with an empty staging list. Large files are
// flagged but kept.
func NewUAV(backend UAVBackend, opts ...Option) *UAV {
	u := &UAV{
		base:    newBase("UAV Detection", opts, UAVFilesContainer, UAVProgressContainer, UAVStatusContainer, UAVResultsContainer),
		backend: backend,
		files:   staging.New(staging.KindImage),
	}
	u.controls.Set(ProcessUAVButton, view.Control{Visible: true, Label: "PROCESS IMAGES"})
	u.controls.Set(DownloadUAVButton, view.Control{Label: "DOWNLOAD RESULTS"})
	return u
}

// AddFiles stages image files. A batch without any image is rejected.
func (u *UAV) AddFiles(paths ...string) (staging.Result, error) {
	u.mu.Lock()
	res, err := u.files.Add(paths...)
	u.mu.Unlock()
	if err != nil {
		return res, err
	}
	if res.Added == 0 {
		u.status(UAVStatusContainer, view.ErrorStatus(NoValidImagesMessage))
		return res, invalid(NoValidImagesMessage)
	}
	u.renderFiles()
	return res, nil
}

// RemoveFile unstages the file at index i.
func (u *UAV) RemoveFile(i int) error {
	u.mu.Lock()
	err := u.files.Remove(i)
	u.mu.Unlock()
	if err != nil {
		return err
	}
	u.renderFiles()
	return nil
}

// ClearFiles empties the staging list.
func (u *UAV) ClearFiles() {
	u.mu.Lock()
	u.files.Clear()
	u.mu.Unlock()
	u.renderFiles()
}

// Files returns the staged files.
func (u *UAV) Files() []staging.File {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.files.Files()
}

// FileRows returns the staged-file rows with their size class.
func (u *UAV) FileRows() []view.UAVFileRow {
	return view.NewUAVFileRows(u.Files(), u.uavWarn)
}

func (u *UAV) renderFiles() {
	rows := u.FileRows()
	u.render(UAVFilesContainer, view.TmplUAVFiles, rows)
	u.controls.Enable(ProcessUAVButton, len(rows) > 0)
}

// Session returns the session of the last successful upload.
func (u *UAV) Session() model.SessionID {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.session
}

// Results returns the last result panel, or nil.
func (u *UAV) Results() *view.UAVResults {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.results
}

// Response returns the backend reply of the last upload, or nil.
func (u *UAV) Response() *model.UAVUploadResponse {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.raw
}

// Process uploads the staged images and renders the returned results.
func (u *UAV) Process(ctx context.Context) (*view.UAVResults, error) {
	files := u.Files()
	if len(files) == 0 {
		u.status(UAVStatusContainer, view.ErrorStatus(NoImagesMessage))
		return nil, invalid(NoImagesMessage)
	}
	parts := make([]api.Part, len(files))
	for i, f := range files {
		parts[i] = f
	}

	p, err := pipeline.ForKind(pipeline.KindUAV, u.backend, []pipeline.Option{pipeline.WithLogger(u.logger)})
	if err != nil {
		return nil, err
	}

	u.page.Container(UAVResultsContainer).Clear()
	u.page.Container(UAVStatusContainer).Clear()
	u.controls.Enable(ProcessUAVButton, false)
	defer u.controls.Enable(ProcessUAVButton, true)

	job := pipeline.NewJob(pipeline.KindUAV, parts, pipeline.WithObserver(func(j pipeline.Job) {
		if j.State == model.JobUploading {
			u.render(UAVProgressContainer, view.TmplProgress, view.UAVUploading)
		}
	}))
	if err := p.Execute(ctx, job); err != nil {
		u.page.Container(UAVProgressContainer).Clear()
		u.fail(UAVStatusContainer, "Error processing images: "+job.ErrorMessage, err)
		return nil, err
	}

	u.render(UAVProgressContainer, view.TmplProgress, view.UAVProcessing)
	u.render(UAVProgressContainer, view.TmplProgress, view.UAVFinalizing)

	u.mu.Lock()
	u.session = job.SessionID
	u.mu.Unlock()

	res := view.NewUAVResults(*job.UAV, u.backend.ResolveURL)
	u.mu.Lock()
	u.results = &res
	u.raw = job.UAV
	u.mu.Unlock()

	u.render(UAVResultsContainer, view.TmplUAVResults, res)
	u.render(UAVProgressContainer, view.TmplProgress, view.UAVComplete)
	u.controls.Set(DownloadUAVButton, view.Control{Enabled: true, Visible: true, Label: "DOWNLOAD RESULTS"})
	return &res, nil
}

// Download fetches the annotated images as a zip archive.
func (u *UAV) Download(ctx context.Context) (*Download, error) {
	sid := u.Session()
	if sid.IsZero() {
		u.status(UAVStatusContainer, view.ErrorStatus(NoUAVSessionMessage))
		return nil, ErrNoSession
	}
	blob, err := u.backend.DownloadUAV(ctx, sid)
	if err != nil {
		u.fail(UAVStatusContainer, "Download failed: "+api.UserMessage(err), err)
		return nil, err
	}
	// Colons are not portable in file names.
	stamp := strings.ReplaceAll(u.now().UTC().Format("2006-01-02T15:04:05"), ":", "-")
	return newDownload(fmt.Sprintf("uav_detection_results_%s.zip", stamp), blob), nil
}

// CheckSession logs how the backend sees the current login.
func (u *UAV) CheckSession(ctx context.Context) (*model.SessionDebug, error) {
	debug, err := u.backend.DebugSession(ctx)
	if err != nil {
		u.logger.Warn("session debug failed", "error", err)
		return nil, err
	}
	u.logger.Debug("session debug",
		"has_username", debug.HasUsername,
		"role_check", debug.RoleCheck,
		"keys", len(debug.SessionKeys),
	)
	return debug, nil
}

// NewScan deletes the current session on the backend and resets the page.
// A failed cleanup is logged only.
func (u *UAV) NewScan(ctx context.Context) {
	u.cleanup(ctx)

	u.mu.Lock()
	u.files.Clear()
	u.session = ""
	u.results = nil
	u.raw = nil
	u.mu.Unlock()

	for _, c := range []string{UAVResultsContainer, UAVProgressContainer, UAVStatusContainer} {
		u.page.Container(c).Clear()
	}
	u.renderFiles()
	u.controls.Set(DownloadUAVButton, view.Control{Label: "DOWNLOAD RESULTS"})
}

func (u *UAV) cleanup(ctx context.Context) {
	sid := u.Session()
	if sid.IsZero() {
		return
	}
	if err := u.backend.CleanupUAV(ctx, sid); err != nil {
		u.logger.Warn("session cleanup failed", "session", sid, "error", err)
	}
}

// Close deletes the current session and tears the page down.
func (u *UAV) Close(ctx context.Context) {
	u.cleanup(ctx)
	u.shutdown()
}
