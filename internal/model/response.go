package model

// Envelope is the common shape of every JSON reply from the feature
// endpoints. A 200 response with Success false is a domain-level failure.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the envelope carries a domain-level failure.
func (e Envelope) Failed() bool {
	return !e.Success
}

// ErrorText returns the server-provided error or fallback when it is empty.
func (e Envelope) ErrorText(fallback string) string {
	if e.Error != "" {
		return e.Error
	}
	return fallback
}

// UploadResponse is returned by every multipart upload endpoint.
type UploadResponse struct {
	Envelope
	SessionID     SessionID `json:"session_id"`
	UploadedCount int       `json:"uploaded_count,omitempty"`
	TotalSizeMB   float64   `json:"total_size_mb,omitempty"`
}

// ProcessRequest asks the backend to process an uploaded session.
type ProcessRequest struct {
	SessionID       SessionID       `json:"session_id"`
	DetectionFilter DetectionFilter `json:"detection_filter,omitempty"`
}
