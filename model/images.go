package model

import "context"

// File is an in-memory binary image file.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Size returns file length in bytes.
func (f *File) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.Data))
}

// ImageRecord describes one image artifact, original or compressed.
type ImageRecord struct {
	DataURL string `json:"dataUrl"`
	File    *File  `json:"-"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
}

// HasFile reports whether record owns a file.
func (r ImageRecord) HasFile() bool {
	return r.File != nil
}

// Compressor describes external compression routine.
type Compressor interface {
	Compress(context.Context, *File, Options) (*File, error)
}

// Decoder turns a file into its displayable representation.
type Decoder interface {
	DataURL(context.Context, *File) (string, error)
}

// Saver stores a file under given name: browser attachment, disk or bucket.
type Saver interface {
	SaveFile(ctx context.Context, data []byte, name string) error
}
