package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/staging"
)

const imageResultsJSON = `{
	"success": true,
	"processed_images": [{
		"original_name": "a.png",
		"processed_name": "det_a.png",
		"url": "/static/det_a.png",
		"object_count": 1,
		"detections": [{"class": "person", "confidence": 0.91, "bbox": [1, 2, 30, 40]}]
	}],
	"total_objects": 1,
	"object_counts": {"person": 1},
	"processing_time": 0.5,
	"average_confidence": 0.91,
	"detection_filter": "person"
}`

const videoResultsJSON = `{
	"status": "completed",
	"progress": 100,
	"results": {
		"processed_videos": [{
			"original_name": "a.mp4",
			"processed_name": "det_a.mp4",
			"url": "/static/det_a.mp4",
			"total_frames": 120,
			"detections": 7
		}],
		"total_objects": 7,
		"object_counts": {"car": 7},
		"processing_time": 3.2,
		"detection_filter": "all"
	}
}`

// TestDetectionAddWarnsOnFilteredFiles tests that oversized and foreign
// files are left out with a warning while the rest is staged.
func TestDetectionAddWarnsOnFilteredFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	small := writeFile(t, dir, "small.png", pngHeader, 100)
	big := writeFile(t, dir, "big.png", pngHeader, 2048)
	video := writeFile(t, dir, "clip.mp4", mp4Header, 100)

	d := NewDetection(newBackend(t, mux.NewRouter()), WithLimits(1024, 4096, 0))

	res, err := d.AddImages(small, big, video)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Added != 1 {
		t.Errorf("Added = %d, want 1", res.Added)
	}
	if len(res.Skipped) != 2 {
		t.Errorf("Skipped = %d, want 2", len(res.Skipped))
	}
	if res.Warning == "" {
		t.Fatal("expected a filter warning")
	}
	if !shows(d.Page(), ImageStatusContainer, "Some files were filtered out") {
		t.Errorf("warning not shown: %s", d.Page().Container(ImageStatusContainer).HTML())
	}
	if got := len(d.Images()); got != 1 {
		t.Errorf("staged %d images, want 1", got)
	}
	if !d.Controls().Enabled(ProcessImagesButton) {
		t.Error("process button should be enabled with a staged file")
	}
}

// TestDetectionAddRollsBackOverTotal tests that the batch breaking the
// total limit is removed again and earlier batches are kept.
func TestDetectionAddRollsBackOverTotal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeFile(t, dir, "first.png", pngHeader, 800)
	second := writeFile(t, dir, "second.png", pngHeader, 800)
	third := writeFile(t, dir, "third.png", pngHeader, 100)

	d := NewDetection(newBackend(t, mux.NewRouter()), WithLimits(1024, 1500, 0))

	if _, err := d.AddImages(first); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	res, err := d.AddImages(second, third)
	if !errors.Is(err, staging.ErrTotalExceeded) {
		t.Fatalf("expected ErrTotalExceeded, got %v", err)
	}
	if res.Added != 0 {
		t.Errorf("Added = %d, want 0 after rollback", res.Added)
	}

	files := d.Images()
	if len(files) != 1 || files[0].Name() != "first.png" {
		t.Fatalf("staged files = %v, want only first.png", files)
	}

	want := staging.New(staging.KindImage, staging.WithMaxTotalSize(1500)).TotalLimitMessage()
	if !shows(d.Page(), ImageStatusContainer, want) {
		t.Errorf("expected %q, got %s", want, d.Page().Container(ImageStatusContainer).HTML())
	}
}

// TestDetectionProcessImages tests the upload then process round trip and
// the gallery it renders.
func TestDetectionProcessImages(t *testing.T) {
	t.Parallel()

	var filter atomic.Value
	r := mux.NewRouter()
	r.HandleFunc("/feature3/upload_images", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"session_id":"img-1","uploaded_count":1}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/feature3/process_images", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		filter.Store(string(body))
		writeJSON(w, http.StatusOK, imageResultsJSON)
	}).Methods(http.MethodPost)

	d := NewDetection(newBackend(t, r))
	if _, err := d.AddImages(writeFile(t, t.TempDir(), "a.png", pngHeader, 100)); err != nil {
		t.Fatalf("AddImages: %v", err)
	}
	if got := d.SetImageFilter("person"); got != model.FilterPerson {
		t.Fatalf("filter = %s, want person", got)
	}

	job, err := d.ProcessImages(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.State != model.JobCompleted {
		t.Errorf("state = %s, want completed", job.State)
	}
	if d.ImageSession() != "img-1" {
		t.Errorf("session = %q, want img-1", d.ImageSession())
	}
	if body, _ := filter.Load().(string); !strings.Contains(body, `"detection_filter":"person"`) {
		t.Errorf("process request body = %s", body)
	}
	if !shows(d.Page(), ImageStatusContainer, "Processing complete! (Person Only)") {
		t.Errorf("status = %s", d.Page().Container(ImageStatusContainer).HTML())
	}
	if !shows(d.Page(), ImageResultsContainer, "det_a.png") {
		t.Errorf("gallery = %s", d.Page().Container(ImageResultsContainer).HTML())
	}
	if !d.Controls().Enabled(ProcessImagesButton) {
		t.Error("process button should be enabled again")
	}

	m, err := d.OpenImage(0)
	if err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	if m.Title == "" {
		t.Error("modal has no title")
	}
	if _, err := d.OpenImage(3); !errors.Is(err, staging.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

// TestDetectionProcessWithoutFiles tests that nothing is sent when the
// staging list is empty.
func TestDetectionProcessWithoutFiles(t *testing.T) {
	t.Parallel()

	d := NewDetection(newBackend(t, mux.NewRouter()))
	if _, err := d.ProcessImages(context.Background()); !errors.Is(err, api.ErrNoFiles) {
		t.Errorf("expected ErrNoFiles, got %v", err)
	}
}

// TestDetectionUploadErrorText tests that a failed upload shows the server
// text verbatim, or the status code when the body carried none.
func TestDetectionUploadErrorText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"server text", http.StatusBadRequest, "application/json", `{"error":"Too many files"}`, "Processing failed: Too many files"},
		{"no server text", http.StatusBadGateway, "text/html", "<html>bad gateway</html>", "Processing failed: HTTP 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := mux.NewRouter()
			r.HandleFunc("/feature3/upload_images", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}).Methods(http.MethodPost)

			d := NewDetection(newBackend(t, r))
			if _, err := d.AddImages(writeFile(t, t.TempDir(), "a.png", pngHeader, 100)); err != nil {
				t.Fatalf("AddImages: %v", err)
			}

			job, err := d.ProcessImages(context.Background())
			if api.StatusCode(err) != tt.status {
				t.Fatalf("expected HTTP %d, got %v", tt.status, err)
			}
			if job.State != model.JobError {
				t.Errorf("state = %s, want error", job.State)
			}
			if !shows(d.Page(), ImageStatusContainer, tt.want) {
				t.Errorf("expected %q, got %s", tt.want, d.Page().Container(ImageStatusContainer).HTML())
			}
			if !d.ImageSession().IsZero() {
				t.Error("a failed upload must not set a session")
			}
			if !d.Controls().Enabled(ProcessImagesButton) {
				t.Error("process button should be enabled again")
			}
		})
	}
}

// videoBackend serves a video upload whose progress endpoint replies with
// replies in order and then repeats the last one. It counts progress polls.
func videoBackend(t *testing.T, replies ...func(w http.ResponseWriter)) (*api.Client, *atomic.Int64) {
	t.Helper()

	var polls atomic.Int64
	r := mux.NewRouter()
	r.HandleFunc("/feature3/upload_videos", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"session_id":"vid-1"}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/feature3/process_videos", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/feature3/video_progress/{sid}", func(w http.ResponseWriter, _ *http.Request) {
		n := int(polls.Add(1))
		if n > len(replies) {
			n = len(replies)
		}
		replies[n-1](w)
	}).Methods(http.MethodGet)
	r.HandleFunc("/feature3/cancel_video/{sid}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/feature3/cleanup_session/{sid}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true}`)
	}).Methods(http.MethodPost)

	return newBackend(t, r), &polls
}

func progressReply(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		writeJSON(w, status, body)
	}
}

// TestDetectionProcessVideosCompleted tests that a completed job stops the
// progress poll and renders the results exactly once.
func TestDetectionProcessVideosCompleted(t *testing.T) {
	t.Parallel()

	const interval = 10 * time.Millisecond
	backend, polls := videoBackend(t,
		progressReply(http.StatusOK, `{"status":"processing","progress":25,"current_file":"a.mp4"}`),
		progressReply(http.StatusOK, `{"status":"processing","progress":75,"current_file":"a.mp4"}`),
		progressReply(http.StatusOK, videoResultsJSON),
	)

	d := NewDetection(backend, WithProgressInterval(interval))
	if _, err := d.AddVideos(writeFile(t, t.TempDir(), "a.mp4", mp4Header, 200)); err != nil {
		t.Fatalf("AddVideos: %v", err)
	}

	job, err := d.ProcessVideos(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.State != model.JobCompleted {
		t.Fatalf("state = %s, want completed", job.State)
	}
	if job.Videos == nil || len(job.Videos.ProcessedVideos) != 1 {
		t.Fatalf("videos = %+v", job.Videos)
	}

	seen := polls.Load()
	time.Sleep(10 * interval)
	if got := polls.Load(); got != seen {
		t.Errorf("polling continued after completion: %d -> %d", seen, got)
	}
	if got := d.Page().Container(VideoResultsContainer).Version(); got != 1 {
		t.Errorf("results rendered %d times, want 1", got)
	}
	if !shows(d.Page(), VideoStatusContainer, "Video processing complete!") {
		t.Errorf("status = %s", d.Page().Container(VideoStatusContainer).HTML())
	}
	if !d.Controls().Enabled(ProcessVideosButton) {
		t.Error("process button should be enabled again")
	}
	if d.Controls().Visible(CancelVideosButton) {
		t.Error("cancel button should be hidden again")
	}
}

// TestDetectionProcessVideosTerminal tests that the error and not_found
// outcomes stop polling and restore the controls.
func TestDetectionProcessVideosTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		reply     func(w http.ResponseWriter)
		wantState model.JobState
		wantErr   bool
		wantText  string
	}{
		{
			name:      "error",
			reply:     progressReply(http.StatusOK, `{"status":"error","error":"Codec not supported"}`),
			wantState: model.JobError,
			wantErr:   true,
			wantText:  "Processing failed: Codec not supported",
		},
		{
			name:      "not found",
			reply:     progressReply(http.StatusNotFound, `{"error":"Session not found"}`),
			wantState: model.JobNotFound,
			wantText:  "Session not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			const interval = 10 * time.Millisecond
			backend, polls := videoBackend(t,
				progressReply(http.StatusOK, `{"status":"processing","progress":10}`),
				tt.reply,
			)
			d := NewDetection(backend, WithProgressInterval(interval))
			if _, err := d.AddVideos(writeFile(t, t.TempDir(), "a.mp4", mp4Header, 200)); err != nil {
				t.Fatalf("AddVideos: %v", err)
			}

			job, err := d.ProcessVideos(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if job.State != tt.wantState {
				t.Errorf("state = %s, want %s", job.State, tt.wantState)
			}

			seen := polls.Load()
			time.Sleep(10 * interval)
			if got := polls.Load(); got != seen {
				t.Errorf("polling continued after %s: %d -> %d", tt.wantState, seen, got)
			}
			if !shows(d.Page(), VideoStatusContainer, tt.wantText) {
				t.Errorf("expected %q, got %s", tt.wantText, d.Page().Container(VideoStatusContainer).HTML())
			}
			if !d.Controls().Enabled(ProcessVideosButton) {
				t.Error("process button should be enabled again")
			}
			if got := d.Page().Container(VideoResultsContainer).Version(); got != 0 {
				t.Errorf("results rendered %d times, want 0", got)
			}
		})
	}
}

// TestDetectionCancelVideo tests that cancel needs a session and does not
// wait for the poll to end.
func TestDetectionCancelVideo(t *testing.T) {
	t.Parallel()

	backend, _ := videoBackend(t, progressReply(http.StatusOK, `{"status":"processing","progress":10}`))
	d := NewDetection(backend)

	if err := d.CancelVideo(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := d.AddVideos(writeFile(t, t.TempDir(), "a.mp4", mp4Header, 200)); err != nil {
		t.Fatalf("AddVideos: %v", err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = d.ProcessVideos(ctx)
	}()

	eventually(t, "video session", func() bool { return !d.VideoSession().IsZero() })
	if err := d.CancelVideo(context.Background()); err != nil {
		t.Fatalf("CancelVideo: %v", err)
	}
	if !shows(d.Page(), VideoStatusContainer, "Cancelling processing...") {
		t.Errorf("status = %s", d.Page().Container(VideoStatusContainer).HTML())
	}

	cancel()
	<-done
}

// TestDetectionCloseStopsProgressPoll tests that closing the page ends a
// running video job and its progress poll.
func TestDetectionCloseStopsProgressPoll(t *testing.T) {
	t.Parallel()

	const interval = 10 * time.Millisecond
	backend, polls := videoBackend(t, progressReply(http.StatusOK, `{"status":"processing","progress":10}`))
	d := NewDetection(backend, WithProgressInterval(interval))
	if _, err := d.AddVideos(writeFile(t, t.TempDir(), "a.mp4", mp4Header, 200)); err != nil {
		t.Fatalf("AddVideos: %v", err)
	}

	var processErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, processErr = d.ProcessVideos(context.Background())
	}()

	eventually(t, "progress polls", func() bool { return polls.Load() >= 3 })
	d.Close(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessVideos still running after Close")
	}
	if !errors.Is(processErr, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", processErr)
	}

	seen := polls.Load()
	time.Sleep(10 * interval)
	if got := polls.Load(); got != seen {
		t.Errorf("polling continued after Close: %d -> %d", seen, got)
	}

	if _, err := d.ProcessVideos(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
}

// TestDetectionDownloadAllImagesName tests the archive name of the
// download-all action.
func TestDetectionDownloadAllImagesName(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	r.HandleFunc("/feature3/upload_images", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"session_id":"img-1"}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/feature3/process_images", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, imageResultsJSON)
	}).Methods(http.MethodPost)
	r.HandleFunc("/feature3/download_all_images/{sid}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = io.WriteString(w, "PK\x03\x04zip")
	}).Methods(http.MethodGet)

	now := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)
	d := NewDetection(newBackend(t, r), WithClock(func() time.Time { return now }))

	if _, err := d.DownloadAllImages(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession before processing, got %v", err)
	}

	if _, err := d.AddImages(writeFile(t, t.TempDir(), "a.png", pngHeader, 100)); err != nil {
		t.Fatalf("AddImages: %v", err)
	}
	if _, err := d.ProcessImages(context.Background()); err != nil {
		t.Fatalf("ProcessImages: %v", err)
	}

	dl, err := d.DownloadAllImages(context.Background())
	if err != nil {
		t.Fatalf("DownloadAllImages: %v", err)
	}
	if dl.Name != "detected_images_2025-03-09.zip" {
		t.Errorf("Name = %q", dl.Name)
	}
	if dl.ContentType != "application/zip" {
		t.Errorf("ContentType = %q", dl.ContentType)
	}
}
