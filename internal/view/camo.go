package view

import (
	"fmt"

	"github.com/nao1215/opsdash/internal/model"
)

// CamoModalText is the caption of the camouflage detail view.
const CamoModalText = "Camouflaged objects detected and highlighted"

// CamoItem is one processed image.
type CamoItem struct {
	Original  string
	Processed string
	URL       string
}

// CamoGallery is the camouflage result panel.
type CamoGallery struct {
	Items     []CamoItem
	Processed int
	Failed    int
	Status    Status
}

// ShowDownloadAll reports whether the zip download is offered. A single
// image is downloaded on its own.
func (g CamoGallery) ShowDownloadAll() bool {
	return len(g.Items) > 1
}

// NewCamoGallery builds the gallery of images that did not fail.
func NewCamoGallery(r model.CamoResults, resolve func(string) string) CamoGallery {
	g := CamoGallery{
		Processed: r.TotalProcessed,
		Failed:    r.TotalFailed,
		Status:    NewStatus(StatusSuccess, fmt.Sprintf("✅ Processing completed: %d images processed", r.TotalProcessed)),
	}
	for _, img := range r.Successful() {
		g.Items = append(g.Items, CamoItem{
			Original:  img.OriginalFilename,
			Processed: img.ProcessedFilename,
			URL:       resolveURL(resolve, img.ProcessedPath),
		})
	}
	return g
}
