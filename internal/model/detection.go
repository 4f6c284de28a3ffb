package model

// Detection is a single detected object in a processed image.
// BBox holds [x1, y1, x2, y2] in pixels.
type Detection struct {
	Class      string    `json:"class"`
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox"`
}

// ProcessedImage is one image in an image detection result set.
type ProcessedImage struct {
	OriginalName  string      `json:"original_name"`
	ProcessedName string      `json:"processed_name"`
	URL           string      `json:"url"`
	ObjectCount   int         `json:"object_count"`
	Detections    []Detection `json:"detections"`
}

// ImageResults is the reply of the image process endpoint.
type ImageResults struct {
	Envelope
	ProcessedImages   []ProcessedImage `json:"processed_images"`
	TotalObjects      int              `json:"total_objects"`
	ObjectCounts      map[string]int   `json:"object_counts"`
	ProcessingTime    float64          `json:"processing_time"`
	AverageConfidence float64          `json:"average_confidence"`
	DetectionFilter   DetectionFilter  `json:"detection_filter"`
}

// ProcessedVideo is one video in a video detection result set.
type ProcessedVideo struct {
	OriginalName  string `json:"original_name"`
	ProcessedName string `json:"processed_name"`
	URL           string `json:"url"`
	TotalFrames   int    `json:"total_frames"`
	Detections    int    `json:"detections"`
}

// VideoResults is attached to a completed video progress record.
type VideoResults struct {
	ProcessedVideos []ProcessedVideo `json:"processed_videos"`
	TotalObjects    int              `json:"total_objects"`
	ObjectCounts    map[string]int   `json:"object_counts"`
	ProcessingTime  float64          `json:"processing_time"`
	DetectionFilter DetectionFilter  `json:"detection_filter"`
}
