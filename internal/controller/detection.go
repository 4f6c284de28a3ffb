package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/pipeline"
	"github.com/nao1215/opsdash/internal/staging"
	"github.com/nao1215/opsdash/internal/view"
)

// Containers and controls of the detection page.
const (
	ImageFilesContainer   = "image-files"
	ImageStatusContainer  = "image-processing-status"
	ImageResultsContainer = "image-results"
	ImageModalContainer   = "image-modal"
	VideoFilesContainer   = "video-files"
	VideoStatusContainer  = "video-processing-status"
	VideoResultsContainer = "video-results"

	ProcessImagesButton = "process-images"
	ProcessVideosButton = "process-videos"
	CancelVideosButton  = "cancel-videos"
)

// DetectionBackend is the part of the API the detection page uses.
type DetectionBackend interface {
	pipeline.Backend
	CancelVideo(ctx context.Context, sid model.SessionID) error
	DownloadImage(ctx context.Context, sid model.SessionID, name string) (*api.Blob, error)
	DownloadAllImages(ctx context.Context, sid model.SessionID) (*api.Blob, error)
	DownloadVideo(ctx context.Context, sid model.SessionID, name string) (*api.Blob, error)
	CleanupDetection(ctx context.Context, sid model.SessionID) error
	ResolveURL(path string) string
}

// tab is the state of the image or the video tab.
type tab struct {
	files   *staging.List
	filter  model.DetectionFilter
	session model.SessionID

	filesC, statusC, resultsC string
	button                    string
}

// Detection is the image and video object-detection page.
type Detection struct {
	base
	backend DetectionBackend

	mu     sync.Mutex
	images tab
	videos tab
	shown  *model.ImageResults
}

// NewDetection returns a detection page with empty staging lists.
func NewDetection(backend DetectionBackend, opts ...Option) *Detection {
	d := &Detection{
		base: newBase("Object Detection", opts,
			ImageFilesContainer, ImageStatusContainer, ImageResultsContainer, ImageModalContainer,
			VideoFilesContainer, VideoStatusContainer, VideoResultsContainer),
		backend: backend,
	}
	d.images = tab{
		files:    staging.New(staging.KindImage, staging.WithMaxFileSize(d.maxFile), staging.WithMaxTotalSize(d.maxTotal)),
		filter:   model.FilterAll,
		filesC:   ImageFilesContainer,
		statusC:  ImageStatusContainer,
		resultsC: ImageResultsContainer,
		button:   ProcessImagesButton,
	}
	d.videos = tab{
		files:    staging.New(staging.KindVideo, staging.WithMaxFileSize(d.maxFile), staging.WithMaxTotalSize(d.maxTotal)),
		filter:   model.FilterAll,
		filesC:   VideoFilesContainer,
		statusC:  VideoStatusContainer,
		resultsC: VideoResultsContainer,
		button:   ProcessVideosButton,
	}
	d.controls.Set(ProcessImagesButton, view.Control{Visible: true, Label: "PROCESS IMAGES"})
	d.controls.Set(ProcessVideosButton, view.Control{Visible: true, Label: "PROCESS VIDEOS"})
	d.controls.Set(CancelVideosButton, view.Control{Label: "CANCEL"})
	return d
}

func (d *Detection) tabFor(kind pipeline.Kind) *tab {
	if kind == pipeline.KindVideos {
		return &d.videos
	}
	return &d.images
}

// AddImages stages image files.
func (d *Detection) AddImages(paths ...string) (staging.Result, error) {
	return d.add(pipeline.KindImages, paths)
}

// AddVideos stages video files.
func (d *Detection) AddVideos(paths ...string) (staging.Result, error) {
	return d.add(pipeline.KindVideos, paths)
}

// add stages a batch. Filtered files surface as a warning; a batch that
// breaks the total limit is rolled back and surfaces as an error.
func (d *Detection) add(kind pipeline.Kind, paths []string) (staging.Result, error) {
	d.mu.Lock()
	t := d.tabFor(kind)
	res, err := t.files.Add(paths...)
	d.mu.Unlock()

	switch {
	case errors.Is(err, staging.ErrTotalExceeded):
		d.status(t.statusC, view.ErrorStatus(t.files.TotalLimitMessage()))
	case res.Warning != "":
		d.status(t.statusC, view.NewStatus(view.StatusWarning, res.Warning))
	}
	d.renderFiles(kind)
	return res, err
}

// RemoveImage unstages the image at index i.
func (d *Detection) RemoveImage(i int) error {
	return d.remove(pipeline.KindImages, i)
}

// RemoveVideo unstages the video at index i.
func (d *Detection) RemoveVideo(i int) error {
	return d.remove(pipeline.KindVideos, i)
}

func (d *Detection) remove(kind pipeline.Kind, i int) error {
	d.mu.Lock()
	err := d.tabFor(kind).files.Remove(i)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	d.renderFiles(kind)
	return nil
}

// ClearImages empties the image list and forgets its results and session.
func (d *Detection) ClearImages() {
	d.clear(pipeline.KindImages)
}

// ClearVideos empties the video list and forgets its results and session.
func (d *Detection) ClearVideos() {
	d.clear(pipeline.KindVideos)
}

func (d *Detection) clear(kind pipeline.Kind) {
	d.mu.Lock()
	t := d.tabFor(kind)
	t.files.Clear()
	t.session = ""
	if kind == pipeline.KindImages {
		d.shown = nil
	}
	d.mu.Unlock()

	d.page.Container(t.resultsC).Clear()
	d.renderFiles(kind)
}

func (d *Detection) renderFiles(kind pipeline.Kind) {
	d.mu.Lock()
	t := d.tabFor(kind)
	files := view.NewFileList(t.files)
	empty := t.files.Empty()
	d.mu.Unlock()

	d.render(t.filesC, view.TmplFileList, files)
	d.controls.Enable(t.button, !empty)
}

// Images returns the staged images.
func (d *Detection) Images() []staging.File {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.images.files.Files()
}

// Videos returns the staged videos.
func (d *Detection) Videos() []staging.File {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.videos.files.Files()
}

// SetImageFilter sets the image filter from the checked filter boxes.
func (d *Detection) SetImageFilter(selected ...string) model.DetectionFilter {
	return d.setFilter(pipeline.KindImages, selected)
}

// SetVideoFilter sets the video filter from the checked filter boxes.
func (d *Detection) SetVideoFilter(selected ...string) model.DetectionFilter {
	return d.setFilter(pipeline.KindVideos, selected)
}

func (d *Detection) setFilter(kind pipeline.Kind, selected []string) model.DetectionFilter {
	f := model.FilterFromSelection(selected)
	d.mu.Lock()
	d.tabFor(kind).filter = f
	d.mu.Unlock()
	return f
}

// ImageSession returns the session of the last image upload.
func (d *Detection) ImageSession() model.SessionID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.images.session
}

// VideoSession returns the session of the last video upload.
func (d *Detection) VideoSession() model.SessionID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.videos.session
}

// ProcessImages uploads the staged images and runs detection on them.
// It returns the finished job; the job's error is also returned.
func (d *Detection) ProcessImages(ctx context.Context) (*pipeline.Job, error) {
	return d.process(ctx, pipeline.KindImages)
}

// ProcessVideos uploads the staged videos, starts detection and polls its
// progress until the backend reports a terminal status.
func (d *Detection) ProcessVideos(ctx context.Context) (*pipeline.Job, error) {
	return d.process(ctx, pipeline.KindVideos)
}

func (d *Detection) process(ctx context.Context, kind pipeline.Kind) (*pipeline.Job, error) {
	d.mu.Lock()
	t := d.tabFor(kind)
	if t.files.Empty() {
		d.mu.Unlock()
		return nil, api.ErrNoFiles
	}
	parts := make([]api.Part, 0, t.files.Len())
	for _, f := range t.files.Files() {
		parts = append(parts, f)
	}
	filter := t.filter
	d.mu.Unlock()

	p, err := pipeline.ForKind(kind, d.backend,
		[]pipeline.Option{pipeline.WithLogger(d.logger)},
		pipeline.WithPollInterval(d.progress),
		pipeline.WithPollLogger(d.logger),
	)
	if err != nil {
		return nil, err
	}

	job := pipeline.NewJob(kind, parts,
		pipeline.WithFilter(filter),
		pipeline.WithObserver(d.observer(kind, filter)),
	)
	ctx, done, err := d.track(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	d.controls.Enable(t.button, false)
	if kind == pipeline.KindVideos {
		d.controls.Set(CancelVideosButton, view.Control{Enabled: true, Visible: true, Label: "CANCEL"})
	}

	err = p.Execute(ctx, job)

	d.controls.Enable(t.button, true)
	if kind == pipeline.KindVideos {
		d.controls.Set(CancelVideosButton, view.Control{Label: "CANCEL"})
	}
	return job, err
}

// observer turns job changes into status lines and renders the results
// when the job completes.
func (d *Detection) observer(kind pipeline.Kind, filter model.DetectionFilter) pipeline.Observer {
	t := d.tabFor(kind)
	name := filter.DisplayName()
	last := model.JobIdle

	return func(j pipeline.Job) {
		if !j.SessionID.IsZero() {
			d.mu.Lock()
			t.session = j.SessionID
			d.mu.Unlock()
		}

		changed := j.State != last
		last = j.State

		var s view.Status
		switch j.State {
		case model.JobUploading:
			noun := "files"
			if kind == pipeline.KindVideos {
				noun = "videos"
			}
			s = view.NewStatus(view.StatusProcessing, fmt.Sprintf("Uploading %s for %s detection...", noun, name))
		case model.JobProcessing:
			switch {
			case kind == pipeline.KindImages:
				s = view.NewStatus(view.StatusProcessing, fmt.Sprintf("Processing images with YOLO11x (%s)...", name))
			case changed:
				s = view.NewStatus(view.StatusProcessing, fmt.Sprintf("Starting video processing (%s)...", name))
			default:
				s = view.NewStatus(view.StatusProcessing, view.ProgressMessage(j.Progress, j.CurrentFile))
			}
		case model.JobCompleted:
			if kind == pipeline.KindImages {
				s = view.NewStatus(view.StatusSuccess, fmt.Sprintf("Processing complete! (%s)", name))
			} else {
				s = view.NewStatus(view.StatusSuccess, "Video processing complete!")
			}
			d.renderResults(j)
		case model.JobError:
			s = view.ErrorStatus("Processing failed: " + j.ErrorMessage)
		case model.JobNotFound:
			s = view.ErrorStatus(j.ErrorMessage)
		default:
			return
		}
		d.status(t.statusC, s)
	}
}

func (d *Detection) renderResults(j pipeline.Job) {
	switch {
	case j.Images != nil:
		d.mu.Lock()
		d.shown = j.Images
		d.mu.Unlock()
		d.render(ImageResultsContainer, view.TmplImageGallery, view.NewImageGallery(*j.Images, d.backend.ResolveURL))
	case j.Videos != nil:
		d.render(VideoResultsContainer, view.TmplVideoList, view.NewVideoList(*j.Videos, d.backend.ResolveURL))
	}
}

// CancelVideo asks the backend to stop video processing. It does not wait
// for polling to observe the cancellation.
func (d *Detection) CancelVideo(ctx context.Context) error {
	sid := d.VideoSession()
	if sid.IsZero() {
		return ErrNoSession
	}
	if err := d.backend.CancelVideo(ctx, sid); err != nil {
		d.logger.Error("cancel video", "session", sid, "error", err)
		return err
	}
	d.status(VideoStatusContainer, view.NewStatus(view.StatusWarning, "Cancelling processing..."))
	return nil
}

// OpenImage shows the detail view of the i-th processed image.
func (d *Detection) OpenImage(i int) (view.ImageModal, error) {
	d.mu.Lock()
	shown := d.shown
	d.mu.Unlock()

	if shown == nil || i < 0 || i >= len(shown.ProcessedImages) {
		return view.ImageModal{}, fmt.Errorf("%w: image %d", staging.ErrIndexOutOfRange, i)
	}
	m := view.NewImageModal(shown.ProcessedImages[i], d.backend.ResolveURL)
	d.render(ImageModalContainer, view.TmplImageModal, m)
	return m, nil
}

// CloseImage hides the detail view.
func (d *Detection) CloseImage() {
	d.page.Container(ImageModalContainer).Clear()
}

// DownloadImage fetches one processed image.
func (d *Detection) DownloadImage(ctx context.Context, name string) (*Download, error) {
	sid := d.ImageSession()
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	blob, err := d.backend.DownloadImage(ctx, sid, name)
	if err != nil {
		d.logger.Error("download image", "name", name, "error", err)
		return nil, err
	}
	return newDownload(name, blob), nil
}

// DownloadAllImages fetches every processed image as a zip archive.
func (d *Detection) DownloadAllImages(ctx context.Context) (*Download, error) {
	sid := d.ImageSession()
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	blob, err := d.backend.DownloadAllImages(ctx, sid)
	if err != nil {
		d.logger.Error("download all images", "error", err)
		return nil, err
	}
	return newDownload(fmt.Sprintf("detected_images_%s.zip", d.now().UTC().Format(time.DateOnly)), blob), nil
}

// DownloadVideo fetches one processed video.
func (d *Detection) DownloadVideo(ctx context.Context, name string) (*Download, error) {
	sid := d.VideoSession()
	if sid.IsZero() {
		return nil, ErrNoSession
	}
	blob, err := d.backend.DownloadVideo(ctx, sid, name)
	if err != nil {
		d.logger.Error("download video", "name", name, "error", err)
		return nil, err
	}
	return newDownload(name, blob), nil
}

// Close asks the backend to delete both sessions, then tears the page
// down. A running job, including its progress poll, is cancelled.
// Cleanup failures are logged only.
func (d *Detection) Close(ctx context.Context) {
	for _, sid := range []model.SessionID{d.ImageSession(), d.VideoSession()} {
		if sid.IsZero() {
			continue
		}
		if err := d.backend.CleanupDetection(ctx, sid); err != nil {
			d.logger.Warn("session cleanup failed", "session", sid, "error", err)
		}
	}
	d.shutdown()
}
