package controller

import (
	"github.com/imgsqueeze/display"
	"github.com/imgsqueeze/model"
)

// View is the render-ready projection of state.
type View struct {
	OriginalName     string `json:"originalName"`
	OriginalSize     int64  `json:"originalSize"`
	OriginalSizeText string `json:"originalSizeText"`
	OriginalDataURL  string `json:"-"`

	CompressedName     string `json:"compressedName"`
	CompressedSize     int64  `json:"compressedSize"`
	CompressedSizeText string `json:"compressedSizeText"`
	CompressedDataURL  string `json:"-"`

	Quality            int     `json:"quality"`
	MinQuality         int     `json:"minQuality"`
	MaxQuality         int     `json:"maxQuality"`
	EstimatedReduction int     `json:"estimatedReduction"`
	MeasuredReduction  float64 `json:"measuredReduction"`

	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`

	ShowUpload  bool `json:"showUpload"`
	ShowResults bool `json:"showResults"`
}

// NewView projects state into view props.
func NewView(s model.State) View {
	return View{
		OriginalName:     s.Original.Name,
		OriginalSize:     s.Original.Size,
		OriginalSizeText: display.FormatFileSize(s.Original.Size),
		OriginalDataURL:  s.Original.DataURL,

		CompressedName:     s.Compressed.Name,
		CompressedSize:     s.Compressed.Size,
		CompressedSizeText: display.FormatFileSize(s.Compressed.Size),
		CompressedDataURL:  s.Compressed.DataURL,

		Quality:            s.Quality,
		MinQuality:         model.MinQuality,
		MaxQuality:         model.MaxQuality,
		EstimatedReduction: display.CalculateReduction(s.Quality),
		MeasuredReduction:  display.MeasuredReduction(s.Original.Size, s.Compressed.Size),

		Loading: s.Loading,
		Error:   s.Error,

		ShowUpload:  s.Original.DataURL == "",
		ShowResults: s.Original.DataURL != "" && s.Compressed.DataURL != "",
	}
}

// View returns view props of current state.
func (c *Controller) View() View {
	return NewView(c.State())
}
