package compressor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/imgsqueeze/model"
)

// noiseImage is incompressible, so encoded size follows pixel count.
func noiseImage(w, h int) *image.NRGBA {
	rnd := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rnd.Intn(256))
		img.Pix[i+1] = uint8(rnd.Intn(256))
		img.Pix[i+2] = uint8(rnd.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func encodeTestImage(t *testing.T, img image.Image, f imaging.Format, opts ...imaging.EncodeOption) []byte {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, f, opts...); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, b []byte) (int, int) {
	img, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestCompressLargePNG(t *testing.T) {
	data := encodeTestImage(t, noiseImage(2400, 700), imaging.PNG)
	if len(data) < 4000000 {
		t.Fatalf("test image is too small: %d bytes", len(data))
	}

	c := New(nil, 0, zap.NewNop())
	res, err := c.Compress(context.Background(), &model.File{Name: "photo.png", MIME: "image/png", Data: data}, model.OptionsForQuality(model.DefaultQuality))
	if err != nil {
		t.Fatal(err)
	}
	if res.Size() > 1048576 {
		t.Fatalf("expected at most 1048576 bytes but got: %d", res.Size())
	}
	if res.MIME != "image/png" || res.Name != "photo.png" {
		t.Fatalf("unexpected result file: %s %s", res.Name, res.MIME)
	}
	w, h := decodeSize(t, res.Data)
	if w > 1920 || h > 1920 {
		t.Fatalf("expected long edge <= 1920 but got: %dx%d", w, h)
	}
}

func TestCompressFitsLongEdge(t *testing.T) {
	data := encodeTestImage(t, imaging.New(1000, 3000, color.NRGBA{R: 10, G: 200, B: 30, A: 255}), imaging.JPEG)

	c := New(nil, 0, zap.NewNop())
	res, err := c.Compress(context.Background(), &model.File{Name: "tall.jpg", Data: data}, model.OptionsForQuality(80))
	if err != nil {
		t.Fatal(err)
	}
	w, h := decodeSize(t, res.Data)
	if h != 1920 || w != 640 {
		t.Fatalf("expected 640x1920 but got: %dx%d", w, h)
	}
}

func TestCompressQualityLowersSize(t *testing.T) {
	data := encodeTestImage(t, noiseImage(300, 300), imaging.JPEG, imaging.JPEGQuality(100))
	f := &model.File{Name: "noise.jpg", MIME: "image/jpeg", Data: data}

	c := New(nil, 0, zap.NewNop())
	high, err := c.Compress(context.Background(), f, model.OptionsForQuality(90))
	if err != nil {
		t.Fatal(err)
	}
	low, err := c.Compress(context.Background(), f, model.OptionsForQuality(30))
	if err != nil {
		t.Fatal(err)
	}
	if low.Size() >= high.Size() {
		t.Fatalf("expected quality 30 (%d bytes) to be smaller than quality 90 (%d bytes)", low.Size(), high.Size())
	}
	if high.Size() > f.Size() {
		t.Fatalf("output must not exceed source: %d > %d", high.Size(), f.Size())
	}
}

func TestCompressKeepsSmallerSource(t *testing.T) {
	// Re-encoding a quality 10 jpeg at quality 100 grows it.
	data := encodeTestImage(t, noiseImage(64, 64), imaging.JPEG, imaging.JPEGQuality(10))
	f := &model.File{Name: "small.jpg", MIME: "image/jpeg", Data: data}

	c := New(nil, 0, zap.NewNop())
	res, err := c.Compress(context.Background(), f, model.OptionsForQuality(100))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.Data, data) {
		t.Fatalf("expected source bytes to be returned, got %d vs %d bytes", res.Size(), f.Size())
	}
}

func TestCompressErrors(t *testing.T) {
	png := encodeTestImage(t, noiseImage(200, 200), imaging.PNG)

	type tc struct {
		name    string
		file    *model.File
		opts    model.Options
		target  error
		wantErr bool
	}

	tcs := []tc{
		{
			name:    "nil file",
			opts:    model.OptionsForQuality(80),
			wantErr: true,
		},
		{
			name:   "not an image",
			file:   &model.File{Name: "a.txt", Data: []byte("hello world")},
			opts:   model.OptionsForQuality(80),
			target: ErrUnsupportedFormat,
		},
		{
			name:    "zero quality",
			file:    &model.File{Name: "a.png", Data: png},
			opts:    model.OptionsForQuality(0),
			wantErr: true,
		},
		{
			name:    "zero dimension",
			file:    &model.File{Name: "a.png", Data: png},
			opts:    model.Options{MaxSizeMB: 1, InitialQuality: 0.5},
			wantErr: true,
		},
		{
			name:   "unreachable size",
			file:   &model.File{Name: "a.png", Data: png},
			opts:   model.Options{MaxSizeMB: 0.00003, MaxWidthOrHeight: 1920, InitialQuality: 0.8},
			target: ErrSizeLimit,
		},
	}

	c := New(nil, 3, zap.NewNop())
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Compress(context.Background(), tc.file, tc.opts)
			if err == nil {
				t.Fatal("expected error but got nil")
			}
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Fatalf("expected %v but got: %v", tc.target, err)
			}
		})
	}
}

func TestCompressOnPool(t *testing.T) {
	pool := NewPool(2, zap.NewNop())
	defer pool.Close()

	data := encodeTestImage(t, noiseImage(100, 100), imaging.JPEG, imaging.JPEGQuality(100))
	c := New(pool, 0, zap.NewNop())
	res, err := c.Compress(context.Background(), &model.File{Name: "a.jpg", Data: data}, model.OptionsForQuality(50))
	if err != nil {
		t.Fatal(err)
	}
	if res.Size() == 0 || res.MIME != "image/jpeg" {
		t.Fatalf("unexpected result: %d bytes %s", res.Size(), res.MIME)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Compress(ctx, &model.File{Name: "a.jpg", Data: data}, model.OptionsForQuality(50)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled but got: %v", err)
	}
}
