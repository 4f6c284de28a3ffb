package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("view").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

// Execute renders the named template into an HTML fragment.
func Execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRender, name, err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // output of html/template
}

// MustExecute is Execute for templates whose data cannot fail to render.
// It panics on error.
func MustExecute(name string, data any) template.HTML {
	h, err := Execute(name, data)
	if err != nil {
		panic(err)
	}
	return h
}

// Fragment template names.
const (
	TmplStatus        = "status"
	TmplProgress      = "progress"
	TmplActivityList  = "activity_list"
	TmplStats         = "stats"
	TmplWeather       = "weather"
	TmplAnalysis      = "analysis"
	TmplFileList      = "file_list"
	TmplImageGallery  = "image_gallery"
	TmplVideoList     = "video_list"
	TmplImageModal    = "image_modal"
	TmplUAVFiles      = "uav_files"
	TmplUAVResults    = "uav_results"
	TmplCamoGallery   = "camo_gallery"
	TmplCameraOptions = "camera_options"
	TmplFrame         = "frame"
	TmplDetectionLog  = "detection_log"
	TmplLiveStatus    = "live_status"
	TmplInbox         = "inbox"
)
