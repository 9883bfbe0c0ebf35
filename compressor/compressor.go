package compressor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	// webp sources are accepted and re-encoded as jpeg.
	_ "golang.org/x/image/webp"

	"github.com/imgsqueeze/model"
)

const (
	// DefaultMaxIteration bounds the shrink loop.
	DefaultMaxIteration = 10

	shrinkFactor = 0.95
)

var (
	// ErrSizeLimit is returned when output still exceeds MaxSizeMB.
	ErrSizeLimit = errors.New("compressed image exceeds size limit")
	// ErrUnsupportedFormat is returned for undecodable input.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	errNoResult = errors.New("compression produced no result")
)

type format struct {
	imaging imaging.Format
	mime    string
}

var formats = map[string]format{
	"jpeg": {imaging.JPEG, "image/jpeg"},
	"png":  {imaging.PNG, "image/png"},
	"gif":  {imaging.GIF, "image/gif"},
	"bmp":  {imaging.BMP, "image/bmp"},
	"tiff": {imaging.TIFF, "image/tiff"},
	"webp": {imaging.JPEG, "image/jpeg"},
}

// Compressor implements model.Compressor with imaging.
type Compressor struct {
	pool         *Pool
	maxIteration int
	log          *zap.Logger
}

// New returns compressor. Nil pool runs every job on the calling goroutine.
func New(pool *Pool, maxIteration int, log *zap.Logger) *Compressor {
	if maxIteration <= 0 {
		maxIteration = DefaultMaxIteration
	}
	return &Compressor{pool: pool, maxIteration: maxIteration, log: log}
}

// Compress re-encodes f so it fits opts. No retry on failure.
func (c *Compressor) Compress(ctx context.Context, f *model.File, opts model.Options) (*model.File, error) {
	if f == nil {
		return nil, fmt.Errorf("no file to compress")
	}
	if err := validate(opts); err != nil {
		return nil, err
	}
	if !opts.UseWebWorker || c.pool == nil {
		return c.compress(ctx, f, opts)
	}

	var (
		res *model.File
		err = errNoResult
	)
	if perr := c.pool.Do(ctx, func() {
		res, err = c.compress(ctx, f, opts)
	}); perr != nil {
		return nil, perr
	}
	return res, err
}

func validate(opts model.Options) error {
	if opts.InitialQuality <= 0 || opts.InitialQuality > 1 {
		return fmt.Errorf("initial quality %v is not in (0,1]", opts.InitialQuality)
	}
	if opts.MaxSizeMB <= 0 {
		return fmt.Errorf("max size %v MB must be positive", opts.MaxSizeMB)
	}
	if opts.MaxWidthOrHeight <= 0 {
		return fmt.Errorf("max dimension %d must be positive", opts.MaxWidthOrHeight)
	}
	return nil
}

func (c *Compressor) compress(ctx context.Context, f *model.File, opts model.Options) (*model.File, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, f.Name, err)
	}
	out, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	src, err := imaging.Decode(bytes.NewReader(f.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("error decoding file %s into image: %v", f.Name, err)
	}

	limit := opts.MaxSizeBytes()
	sourceSize := int64(len(f.Data))
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	longest := w
	if h > longest {
		longest = h
	}
	sourceFits := sourceSize <= limit && longest <= opts.MaxWidthOrHeight

	scale := 1.0
	if longest > opts.MaxWidthOrHeight {
		scale = float64(opts.MaxWidthOrHeight) / float64(longest)
	}
	quality := opts.InitialQuality

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := encode(src, w, h, scale, quality, out.imaging)
		if err != nil {
			return nil, fmt.Errorf("error encoding file %s to buffer: %v", f.Name, err)
		}
		size := int64(len(data))

		c.log.Debug("compression pass",
			zap.String("file", f.Name),
			zap.Int("pass", i),
			zap.Float64("scale", scale),
			zap.Float64("quality", quality),
			zap.Int64("size", size))

		switch {
		case size <= limit && size <= sourceSize:
			return &model.File{Name: f.Name, MIME: out.mime, Data: data}, nil
		case size > sourceSize && sourceFits:
			return &model.File{Name: f.Name, MIME: "image/" + name, Data: f.Data}, nil
		case i >= c.maxIteration:
			if size > limit {
				return nil, fmt.Errorf("%w: %s is %d bytes after %d passes", ErrSizeLimit, f.Name, size, i)
			}
			return &model.File{Name: f.Name, MIME: out.mime, Data: data}, nil
		}

		factor := shrinkFactor
		if size > limit {
			factor = math.Min(shrinkFactor, math.Sqrt(float64(limit)/float64(size)))
		}
		scale *= factor
		quality *= shrinkFactor
	}
}

func encode(src image.Image, w, h int, scale, quality float64, f imaging.Format) ([]byte, error) {
	img := src
	if scale < 1 {
		tw, th := int(math.Round(float64(w)*scale)), int(math.Round(float64(h)*scale))
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}
		img = imaging.Resize(src, tw, th, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, f, imaging.JPEGQuality(jpegQuality(quality))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
