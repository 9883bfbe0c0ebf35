package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/imgsqueeze/model"
)

var (
	// ErrQualityOutOfRange is returned by ChangeQuality for values outside [1,100].
	ErrQualityOutOfRange = fmt.Errorf("quality must be in range [%d-%d]", model.MinQuality, model.MaxQuality)
	// ErrSuperseded is returned when a newer request replaced the operation result.
	ErrSuperseded = errors.New("operation superseded by a newer request")
)

// Controller owns compressor view state and mediates between user intents
// and the compression collaborator.
//
// Every compression takes a sequence number when issued; only the latest
// issued one may write the compressed record or release the loading flag,
// so the view reflects the most recently requested compression.
// While an upload is decoding, recompression works on the pending file,
// never on the original it is about to replace.
type Controller struct {
	compressor model.Compressor
	decoder    model.Decoder
	log        *zap.Logger

	mu        sync.Mutex
	state     model.State
	seq       uint64
	uploadSeq uint64
	pending   *model.File
}

// Option configures controller.
type Option func(*Controller)

// WithQuality overrides initial compression quality. Invalid values are ignored.
func WithQuality(q int) Option {
	return func(c *Controller) {
		if model.ValidQuality(q) {
			c.state = model.Reduce(c.state, model.SetCompressionQuality{Quality: q})
		}
	}
}

// New returns controller in initial state.
func New(compressor model.Compressor, decoder model.Decoder, log *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		compressor: compressor,
		decoder:    decoder,
		log:        log,
		state:      model.InitialState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns snapshot of current state.
func (c *Controller) State() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// dispatch must be called with mu held.
func (c *Controller) dispatch(actions ...model.Action) {
	for _, a := range actions {
		c.state = model.Reduce(c.state, a)
	}
}

// Upload replaces original image with f and compresses it with current
// quality. Nil f is a no-op. Decode and compression run concurrently and
// each record is set as soon as its own step resolves. Failure detail is
// logged and returned; state only carries the fixed message.
func (c *Controller) Upload(ctx context.Context, f *model.File) error {
	if f == nil {
		return nil
	}

	c.mu.Lock()
	c.dispatch(model.SetError{}, model.SetLoading{Loading: true})
	c.seq++
	c.uploadSeq++
	c.pending = f
	seq, upload := c.seq, c.uploadSeq
	quality := c.state.Quality
	c.mu.Unlock()

	log := c.log.With(zap.String("file", f.Name), zap.Int64("size", f.Size()), zap.Int("quality", quality))
	log.Info("uploading image")

	var (
		wg          sync.WaitGroup
		decodeErr   error
		compressErr error
		superseded  bool
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		dataURL, err := c.decoder.DataURL(ctx, f)

		c.mu.Lock()
		defer c.mu.Unlock()
		if upload != c.uploadSeq {
			superseded = true
			return
		}
		c.pending = nil
		if err != nil {
			decodeErr = fmt.Errorf("decoding %s: %w", f.Name, err)
			c.dispatch(model.SetError{Message: model.UploadErrorMessage})
			return
		}
		c.dispatch(model.SetOriginalImage{Record: model.ImageRecord{
			DataURL: dataURL,
			File:    f,
			Name:    f.Name,
			Size:    f.Size(),
		}})
	}()

	go func() {
		defer wg.Done()
		rec, err := c.Compress(ctx, f, quality)

		c.mu.Lock()
		defer c.mu.Unlock()
		if seq != c.seq {
			// a recompression of f at newer quality is not a newer upload
			if upload != c.uploadSeq {
				superseded = true
			}
			return
		}
		if err != nil {
			compressErr = err
			c.dispatch(model.SetError{Message: model.UploadErrorMessage})
			return
		}
		c.dispatch(model.SetCompressedImage{Record: rec})
	}()

	wg.Wait()
	c.release(seq)

	if err := errors.Join(decodeErr, compressErr); err != nil {
		log.Error("error uploading image", zap.Error(err))
		return err
	}
	if superseded {
		log.Info("upload superseded by a newer request")
		return ErrSuperseded
	}
	log.Info("image uploaded")
	return nil
}

// ChangeQuality sets compression quality and recompresses the original with
// exactly that value.
func (c *Controller) ChangeQuality(ctx context.Context, quality int) error {
	if !model.ValidQuality(quality) {
		return ErrQualityOutOfRange
	}
	c.mu.Lock()
	c.dispatch(model.SetCompressionQuality{Quality: quality})
	c.mu.Unlock()

	return c.recompress(ctx, quality)
}

// Recompress compresses the original with current quality, or the file of
// an upload still being decoded. It is a no-op when neither exists.
// Error message is not cleared beforehand.
func (c *Controller) Recompress(ctx context.Context) error {
	c.mu.Lock()
	quality := c.state.Quality
	c.mu.Unlock()

	return c.recompress(ctx, quality)
}

func (c *Controller) recompress(ctx context.Context, quality int) error {
	c.mu.Lock()
	original := c.state.Original.File
	if c.pending != nil {
		original = c.pending
	}
	if original == nil {
		c.mu.Unlock()
		return nil
	}
	c.dispatch(model.SetLoading{Loading: true})
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	log := c.log.With(zap.String("file", original.Name), zap.Int("quality", quality))
	log.Debug("recompressing image")

	rec, err := c.Compress(ctx, original, quality)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		log.Info("recompression superseded by a newer request")
		return ErrSuperseded
	}
	if err != nil {
		log.Error("error recompressing image", zap.Error(err))
		c.dispatch(model.SetError{Message: model.RecompressErrorMessage}, model.SetLoading{Loading: false})
		return err
	}
	c.dispatch(model.SetCompressedImage{Record: rec}, model.SetLoading{Loading: false})
	log.Debug("image recompressed", zap.Int64("compressed_size", rec.Size))
	return nil
}

// Compress runs external compressor once on f with quality in [1,100] and
// builds compressed record from result.
func (c *Controller) Compress(ctx context.Context, f *model.File, quality int) (model.ImageRecord, error) {
	out, err := c.compressor.Compress(ctx, f, model.OptionsForQuality(quality))
	if err != nil {
		return model.ImageRecord{}, fmt.Errorf("compressing %s: %w", f.Name, err)
	}
	if out == nil {
		return model.ImageRecord{}, fmt.Errorf("compressing %s: empty result", f.Name)
	}

	compressed := *out
	compressed.Name = model.CompressedPrefix + f.Name

	dataURL, err := c.decoder.DataURL(ctx, &compressed)
	if err != nil {
		return model.ImageRecord{}, fmt.Errorf("decoding compressed %s: %w", f.Name, err)
	}

	return model.ImageRecord{
		DataURL: dataURL,
		File:    &compressed,
		Name:    compressed.Name,
		Size:    compressed.Size(),
	}, nil
}

// Download hands the last compressed artifact to saver as is.
// Returns false when there is nothing to download.
func (c *Controller) Download(ctx context.Context, saver model.Saver) (bool, error) {
	c.mu.Lock()
	rec := c.state.Compressed
	c.mu.Unlock()

	if !rec.HasFile() {
		return false, nil
	}
	if err := saver.SaveFile(ctx, rec.File.Data, rec.Name); err != nil {
		c.log.Error("error saving compressed image", zap.String("file", rec.Name), zap.Error(err))
		return true, fmt.Errorf("saving %s: %w", rec.Name, err)
	}
	return true, nil
}

// release clears loading flag if seq is still the latest operation.
func (c *Controller) release(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.seq {
		c.dispatch(model.SetLoading{Loading: false})
	}
}
