package model

// CamoImage is one image returned by the camouflage process endpoint.
type CamoImage struct {
	OriginalFilename  string `json:"original_filename"`
	ProcessedFilename string `json:"processed_filename"`
	ProcessedPath     string `json:"processed_path"`
	Failed            bool   `json:"failed"`
	Error             string `json:"error,omitempty"`
}

// CamoResults is the reply of the camouflage process endpoint.
type CamoResults struct {
	Envelope
	ProcessedImages []CamoImage `json:"processed_images"`
	TotalProcessed  int         `json:"total_processed"`
	TotalFailed     int         `json:"total_failed"`
}

// Successful returns the images that were processed without failure.
func (r *CamoResults) Successful() []CamoImage {
	out := make([]CamoImage, 0, len(r.ProcessedImages))
	for _, img := range r.ProcessedImages {
		if !img.Failed {
			out = append(out, img)
		}
	}
	return out
}
