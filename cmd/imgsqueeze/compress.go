package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imgsqueeze/compressor"
	"github.com/imgsqueeze/model"
	"github.com/imgsqueeze/web/dataurl"
	"github.com/imgsqueeze/web/downloader"
	"github.com/imgsqueeze/web/filesaver"
	"github.com/imgsqueeze/web/uploader"
)

var compressCmd = &cobra.Command{
	Use:   "compress [path|url]",
	Short: "Compress one image and save it to a directory or S3",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quality, _ := cmd.Flags().GetInt("quality")
		out, _ := cmd.Flags().GetString("out")
		toS3, _ := cmd.Flags().GetBool("s3")
		if !cmd.Flags().Changed("quality") {
			quality = cfg.Compressor.DefaultQuality
		}

		if !model.ValidQuality(quality) {
			return fmt.Errorf("quality %d is not in range [%d-%d]", quality, model.MinQuality, model.MaxQuality)
		}

		ctx := cmd.Context()
		f, err := readSource(ctx, args[0])
		if err != nil {
			return err
		}

		saver, err := newSaver(toS3, out)
		if err != nil {
			return err
		}

		pool := compressor.NewPool(cfg.Compressor.Workers, log)
		defer pool.Close()

		ctrl := newController(pool, quality)
		if err := ctrl.Upload(ctx, f); err != nil {
			return fmt.Errorf("%s: %w", ctrl.State().Error, err)
		}
		if _, err := ctrl.Download(ctx, saver); err != nil {
			return err
		}

		v := ctrl.View()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s (quality %d%%, %.1f%% smaller)\n",
			v.CompressedName, v.OriginalSizeText, v.CompressedSizeText, v.Quality, v.MeasuredReduction)
		if fs, ok := saver.(*filesaver.Saver); ok {
			fmt.Fprintln(cmd.OutOrStdout(), fs.Path(v.CompressedName))
		}
		return nil
	},
}

func readSource(ctx context.Context, src string) (*model.File, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return downloader.New(nil, cfg.Server.MaxUploadBytes).Download(ctx, src)
	}

	b, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}
	mimeType, err := dataurl.Sniff(b)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}
	return &model.File{Name: filepath.Base(src), MIME: mimeType, Data: b}, nil
}

func newSaver(toS3 bool, out string) (model.Saver, error) {
	if !toS3 {
		return filesaver.New(out), nil
	}
	if cfg.S3.Bucket == "" {
		return nil, errors.New("IMGSQUEEZE_S3_BUCKET is required with --s3")
	}
	s3manager, err := uploader.NewS3Manager(cfg.S3.Region, cfg.S3.Endpoint)
	if err != nil {
		return nil, err
	}
	return uploader.New(s3manager, cfg.S3.Bucket, log), nil
}

func init() {
	compressCmd.Flags().IntP("quality", "q", model.DefaultQuality, "Compression quality [1-100]")
	compressCmd.Flags().StringP("out", "o", ".", "Directory to write the compressed image into")
	compressCmd.Flags().Bool("s3", false, "Upload the compressed image to the configured S3 bucket")
}
