package view

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/staging"
)

// FileRow is one staged file.
type FileRow struct {
	Index int
	Name  string
	Size  string
}

// FileListView is the list of staged files with its size total.
type FileListView struct {
	Title string
	Total string
	Files []FileRow
}

// NewFileList builds the staged-file list. Image lists are titled
// "UPLOADED FILES", video lists "UPLOADED VIDEOS".
func NewFileList(l *staging.List) FileListView {
	noun := "FILES"
	if l.Kind() == staging.KindVideo {
		noun = "VIDEOS"
	}
	v := FileListView{
		Title: fmt.Sprintf("UPLOADED %s (%d)", noun, l.Len()),
		Total: "Total size: " + FormatMB(l.TotalSize()),
	}
	if limit := l.MaxTotalSize(); limit > 0 {
		v.Total += fmt.Sprintf(" / %d MB", limit/megabyte)
	}
	for i, f := range l.Files() {
		v.Files = append(v.Files, FileRow{Index: i, Name: f.Name(), Size: FormatMB(f.Size())})
	}
	return v
}

// ObjectCount is one row of the per-class breakdown.
type ObjectCount struct {
	Class string
	Count int
}

// Breakdown orders per-class counts by count, then by class name.
func Breakdown(counts map[string]int) []ObjectCount {
	out := make([]ObjectCount, 0, len(counts))
	for class, n := range counts {
		out = append(out, ObjectCount{Class: class, Count: n})
	}
	slices.SortFunc(out, func(a, b ObjectCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Class, b.Class)
	})
	return out
}

// GalleryItem is one processed image thumbnail.
type GalleryItem struct {
	Index         int
	Name          string
	ProcessedName string
	URL           string
	Objects       string
}

// DetectionStats is the statistics block under a gallery or video list.
type DetectionStats struct {
	Title          string
	ProcessingTime string
	TotalObjects   int
	AvgConfidence  string
	Processed      int
	Breakdown      []ObjectCount
}

// ImageGallery is the image result panel.
type ImageGallery struct {
	Title string
	Items []GalleryItem
	Stats DetectionStats
}

// NewImageGallery builds the gallery. resolve turns server-relative URLs
// into absolute ones; nil keeps them as they are.
func NewImageGallery(r model.ImageResults, resolve func(string) string) ImageGallery {
	filter := Upper(r.DetectionFilter.DisplayName())
	g := ImageGallery{
		Title: fmt.Sprintf("PROCESSED IMAGES (%d) - %s", len(r.ProcessedImages), filter),
		Stats: DetectionStats{
			Title:          "DETECTION STATISTICS - " + filter,
			ProcessingTime: FormatNumber(r.ProcessingTime) + "s",
			TotalObjects:   r.TotalObjects,
			AvgConfidence:  FormatNumber(r.AverageConfidence),
			Processed:      len(r.ProcessedImages),
			Breakdown:      Breakdown(r.ObjectCounts),
		},
	}
	for i, img := range r.ProcessedImages {
		g.Items = append(g.Items, GalleryItem{
			Index:         i,
			Name:          img.OriginalName,
			ProcessedName: img.ProcessedName,
			URL:           resolveURL(resolve, img.URL),
			Objects:       strconv.Itoa(img.ObjectCount) + " objects",
		})
	}
	return g
}

// VideoItem is one processed video.
type VideoItem struct {
	Name          string
	ProcessedName string
	URL           string
	Meta          string
}

// VideoList is the video result panel.
type VideoList struct {
	Title string
	Items []VideoItem
	Stats DetectionStats
}

// NewVideoList builds the video result panel.
func NewVideoList(r model.VideoResults, resolve func(string) string) VideoList {
	filter := Upper(r.DetectionFilter.DisplayName())
	v := VideoList{
		Title: fmt.Sprintf("PROCESSED VIDEOS (%d) - %s", len(r.ProcessedVideos), filter),
		Stats: DetectionStats{
			Title:          "PROCESSING STATISTICS - " + filter,
			ProcessingTime: FormatNumber(r.ProcessingTime) + "s",
			TotalObjects:   r.TotalObjects,
			Processed:      len(r.ProcessedVideos),
			Breakdown:      Breakdown(r.ObjectCounts),
		},
	}
	for _, vid := range r.ProcessedVideos {
		v.Items = append(v.Items, VideoItem{
			Name:          vid.OriginalName,
			ProcessedName: vid.ProcessedName,
			URL:           resolveURL(resolve, vid.URL),
			Meta:          fmt.Sprintf("Frames: %d | Detections: %d", vid.TotalFrames, vid.Detections),
		})
	}
	return v
}

// DetectionRow is one detection in the image modal.
type DetectionRow struct {
	Class      string
	Confidence string
	BBox       string
}

// ImageModal is the detail view of one processed image.
type ImageModal struct {
	Title         string
	URL           string
	ProcessedName string
	ObjectCount   int
	Rows          []DetectionRow
}

// NewImageModal builds the detail view of img.
func NewImageModal(img model.ProcessedImage, resolve func(string) string) ImageModal {
	m := ImageModal{
		Title:         img.OriginalName,
		URL:           resolveURL(resolve, img.URL),
		ProcessedName: img.ProcessedName,
		ObjectCount:   img.ObjectCount,
	}
	for _, d := range img.Detections {
		m.Rows = append(m.Rows, DetectionRow{
			Class:      d.Class,
			Confidence: FormatRatio(d.Confidence),
			BBox:       FormatBBox(d.BBox),
		})
	}
	return m
}

// FormatBBox prints a box as "[x1, y1, x2, y2]".
func FormatBBox(box []float64) string {
	parts := make([]string, len(box))
	for i, v := range box {
		parts[i] = FormatNumber(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ProgressMessage is the status line while a video is processed.
func ProgressMessage(percent float64, file string) string {
	if file == "" {
		file = "Processing..."
	}
	return fmt.Sprintf("Processing: %.1f%% - %s", percent, file)
}

func resolveURL(resolve func(string) string, u string) string {
	if resolve == nil || u == "" {
		return u
	}
	return resolve(u)
}
