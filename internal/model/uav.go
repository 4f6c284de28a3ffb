package model

// BoundingBox is the object-form bounding box used by the UAV endpoint.
type BoundingBox struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// UAVDetection is a detected object in a UAV image.
type UAVDetection struct {
	Class      string      `json:"class"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// UAVResult is the per-file result of a UAV upload. Failed files carry
// Success false and an Error; they are rendered as error cards.
type UAVResult struct {
	Filename       string         `json:"filename"`
	Success        bool           `json:"success"`
	Error          string         `json:"error,omitempty"`
	ProcessedURL   string         `json:"processed_url,omitempty"`
	DetectionCount int            `json:"detection_count"`
	Detections     []UAVDetection `json:"detections,omitempty"`
}

// UAVUploadResponse is the reply of the UAV upload endpoint, which uploads
// and processes in a single request.
type UAVUploadResponse struct {
	Envelope
	SessionID      SessionID   `json:"session_id"`
	Results        []UAVResult `json:"results"`
	TotalProcessed int         `json:"total_processed"`
}

// ClassSummary groups detections by class name in first-seen order.
func ClassSummary(detections []UAVDetection) []ClassCount {
	index := make(map[string]int)
	var out []ClassCount
	for _, d := range detections {
		if i, ok := index[d.Class]; ok {
			out[i].Count++
			continue
		}
		index[d.Class] = len(out)
		out = append(out, ClassCount{Class: d.Class, Count: 1})
	}
	return out
}

// ClassCount is a class name with its number of occurrences.
type ClassCount struct {
	Class string
	Count int
}

// SessionDebug is the reply of the UAV session debug endpoint. It tells
// whether the backend sees a logged-in user on this cookie.
type SessionDebug struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	SessionKeys []string `json:"session_keys"`
	HasUsername bool     `json:"has_username"`
	RoleCheck   bool     `json:"role_check"`
}
