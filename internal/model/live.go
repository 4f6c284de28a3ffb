package model

// Camera is a selectable capture source for live detection.
// ID is numeric for local devices and "ip" or "rtsp" for custom URLs.
type Camera struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// CameraList is the reply of the camera listing endpoint.
type CameraList struct {
	Envelope
	Cameras []Camera `json:"cameras"`
}

// StartLiveRequest starts live detection on a camera source.
type StartLiveRequest struct {
	CameraSource string `json:"camera_source"`
}

// LiveFrame is the latest annotated frame, base64-encoded JPEG.
type LiveFrame struct {
	Envelope
	Frame string `json:"frame"`
}

// LiveDetection is one detection log entry.
type LiveDetection struct {
	Timestamp  string `json:"timestamp"`
	Object     string `json:"object"`
	Confidence string `json:"confidence"`
}

// LiveDetections is the reply of the detection log endpoint.
type LiveDetections struct {
	Envelope
	Detections []LiveDetection `json:"detections"`
}

// LiveStatus is the reply of the live status endpoint. The endpoint has no
// success flag; Error is only set when the status lookup itself failed.
type LiveStatus struct {
	IsRunning       bool   `json:"is_running"`
	ModelLoaded     bool   `json:"model_loaded"`
	CameraActive    bool   `json:"camera_active"`
	TotalDetections int    `json:"total_detections"`
	Error           string `json:"error,omitempty"`
}
