package dataurl

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/imgsqueeze/model"
)

// ErrNotImage is returned for content that is not image/*.
var ErrNotImage = errors.New("content is not an image")

// Encode returns data URL for data with given mime type.
func Encode(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

// Parse splits data URL into mime type and decoded content.
func Parse(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, fmt.Errorf("invalid data url prefix")
	}
	parts := strings.SplitN(strings.TrimPrefix(s, "data:"), ",", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("invalid data url format")
	}
	mime := strings.TrimSuffix(parts[0], ";base64")
	if mime == parts[0] {
		return "", nil, fmt.Errorf("only base64 data urls are supported")
	}
	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("decoding data url payload: %w", err)
	}
	return mime, data, nil
}

// Detect sniffs mime type from content.
func Detect(data []byte) string {
	return mimetype.Detect(data).String()
}

// IsImage reports whether mime is image/*.
func IsImage(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}

// Sniff returns image mime type of data or ErrNotImage.
func Sniff(data []byte) (string, error) {
	mime := Detect(data)
	if !IsImage(mime) {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mime)
	}
	return mime, nil
}

// Decoder implements model.Decoder.
type Decoder struct{}

// NewDecoder returns data URL decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DataURL reads file into data URL. Empty mime is sniffed from content.
func (d *Decoder) DataURL(ctx context.Context, f *model.File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f == nil {
		return "", fmt.Errorf("no file to decode")
	}
	mime := f.MIME
	if mime == "" {
		var err error
		if mime, err = Sniff(f.Data); err != nil {
			return "", fmt.Errorf("decoding %s: %w", f.Name, err)
		}
	}
	return Encode(mime, f.Data), nil
}
