package uploader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"go.uber.org/zap"

	"github.com/imgsqueeze/web/dataurl"
)

// Saver uploads compressed images to s3 bucket. It implements model.Saver.
type Saver struct {
	s3manager  s3manageriface.UploaderAPI
	bucketName *string
	log        *zap.Logger
}

// New returns s3 saver using s3 manager.
func New(s3manager s3manageriface.UploaderAPI, bucketName string, log *zap.Logger) *Saver {
	return &Saver{s3manager: s3manager, bucketName: aws.String(bucketName), log: log}
}

// NewS3Manager creates aws session for region and optional custom endpoint
// (minio, localstack) and returns uploader on top of it.
func NewS3Manager(region, endpoint string) (*s3manager.Uploader, error) {
	cfg := aws.NewConfig().WithRegion(region)
	if endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating aws session: %w", err)
	}
	return s3manager.NewUploader(sess), nil
}

// SaveFile uploads data to s3 bucket under name.
func (s *Saver) SaveFile(ctx context.Context, data []byte, name string) error {
	result, err := s.s3manager.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      s.bucketName,
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(dataurl.Detect(data)),
	})
	if err != nil {
		return fmt.Errorf("can't upload %s with error: %w", name, err)
	}

	s.log.Info("image uploaded to s3", zap.String("file", name), zap.String("location", result.Location))
	return nil
}
