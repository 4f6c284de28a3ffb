package view

import (
	"fmt"
	"strings"

	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/staging"
)

// UAVSizeWarning is the size above which a staged UAV image is flagged.
const UAVSizeWarning = 16 * megabyte

// UAV progress stages.
var (
	UAVUploading  = Progress{Percent: 10, Text: "Uploading images..."}
	UAVProcessing = Progress{Percent: 50, Text: "Processing with YOLO model..."}
	UAVFinalizing = Progress{Percent: 90, Text: "Finalizing results..."}
	UAVComplete   = Progress{Percent: 100, Text: "Detection complete!"}
)

// Progress is a progress bar with its caption.
type Progress struct {
	Percent int
	Text    string
}

// UAVFileRow is one staged UAV image.
type UAVFileRow struct {
	Index     int
	Name      string
	Size      string
	SizeClass string
}

// NewUAVFileRows builds the staged-file rows. Files above warn get the
// size-error class but stay staged. warn <= 0 means UAVSizeWarning.
func NewUAVFileRows(files []staging.File, warn int64) []UAVFileRow {
	if warn <= 0 {
		warn = UAVSizeWarning
	}
	rows := make([]UAVFileRow, 0, len(files))
	for i, f := range files {
		class := "size-ok"
		if f.Larger(warn) {
			class = "size-error"
		}
		rows = append(rows, UAVFileRow{Index: i, Name: f.Name(), Size: FormatBytes(f.Size()), SizeClass: class})
	}
	return rows
}

// DetectionText is the overlay of a result card.
func DetectionText(n int) string {
	if n == 1 {
		return "1 object detected"
	}
	return fmt.Sprintf("%d objects detected", n)
}

// DetectionSummary lists "class: n" pairs in first-seen order.
func DetectionSummary(detections []model.UAVDetection) string {
	if len(detections) == 0 {
		return "No objects detected"
	}
	sum := model.ClassSummary(detections)
	parts := make([]string, len(sum))
	for i, c := range sum {
		parts[i] = fmt.Sprintf("%s: %d", c.Class, c.Count)
	}
	return strings.Join(parts, ", ")
}

// UAVCard is one result card. Failed files render as error cards.
type UAVCard struct {
	Filename  string
	URL       string
	Detection string
	Summary   string
	Failed    bool
	Error     string
	Rows      []DetectionRow
}

// UAVResults is the UAV result panel.
type UAVResults struct {
	Cards           []UAVCard
	Processed       int
	TotalDetections int
	Session         string
}

// NewUAVResults builds the result panel of one upload.
func NewUAVResults(r model.UAVUploadResponse, resolve func(string) string) UAVResults {
	v := UAVResults{Session: "---"}
	if !r.SessionID.IsZero() {
		v.Session = r.SessionID.String()
	}
	for _, res := range r.Results {
		if !res.Success {
			v.Cards = append(v.Cards, UAVCard{Filename: res.Filename, Failed: true, Error: res.Error})
			continue
		}
		v.Processed++
		v.TotalDetections += res.DetectionCount
		card := UAVCard{
			Filename:  res.Filename,
			URL:       resolveURL(resolve, res.ProcessedURL),
			Detection: DetectionText(res.DetectionCount),
			Summary:   DetectionSummary(res.Detections),
		}
		for _, d := range res.Detections {
			card.Rows = append(card.Rows, DetectionRow{
				Class:      d.Class,
				Confidence: FormatRatio(d.Confidence),
				BBox:       FormatBBox([]float64{d.BBox.XMin, d.BBox.YMin, d.BBox.XMax, d.BBox.YMax}),
			})
		}
		v.Cards = append(v.Cards, card)
	}
	return v
}
