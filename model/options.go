package model

const (
	MinQuality     = 1
	MaxQuality     = 100
	DefaultQuality = 80

	// MaxSizeMB and MaxWidthOrHeight are fixed output constraints.
	MaxSizeMB        = 1
	MaxWidthOrHeight = 1920

	CompressedPrefix = "compressed_"

	UploadErrorMessage     = "Error uploading image. Please try again."
	RecompressErrorMessage = "Error recompressing image. Please try again."
)

// Options describes compression parameters.
type Options struct {
	MaxSizeMB        float64
	MaxWidthOrHeight int
	UseWebWorker     bool
	// InitialQuality is in (0,1].
	InitialQuality float64
}

// OptionsForQuality maps slider quality to compressor options.
func OptionsForQuality(quality int) Options {
	return Options{
		MaxSizeMB:        MaxSizeMB,
		MaxWidthOrHeight: MaxWidthOrHeight,
		UseWebWorker:     true,
		InitialQuality:   float64(quality) / 100,
	}
}

// ValidQuality reports whether quality lies in [MinQuality, MaxQuality].
func ValidQuality(quality int) bool {
	return quality >= MinQuality && quality <= MaxQuality
}

// MaxSizeBytes converts MaxSizeMB to bytes.
func (o Options) MaxSizeBytes() int64 {
	return int64(o.MaxSizeMB * 1024 * 1024)
}
