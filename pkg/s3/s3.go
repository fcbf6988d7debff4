package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type ItfS3 interface {
	UploadBytes(ctx context.Context, key string, contentType string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	PresignUrl(key string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

type s3Client struct {
	client     *s3.S3
	uploader   *s3manager.Uploader
	bucketName string
	presignTTL time.Duration
}

type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Endpoint overrides the AWS endpoint for S3-compatible stores such as MinIO.
	Endpoint string
}

func New() (ItfS3, error) {
	return NewWithConfig(Config{
		Region:          os.Getenv("AWS_REGION"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Bucket:          os.Getenv("AWS_BUCKET_NAME"),
		Endpoint:        os.Getenv("AWS_S3_ENDPOINT"),
	})
}

func NewWithConfig(cfg Config) (ItfS3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}

	return &s3Client{
		client:     s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
		bucketName: cfg.Bucket,
		presignTTL: 15 * time.Minute,
	}, nil
}

func (s *s3Client) UploadBytes(ctx context.Context, key string, contentType string, data []byte) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return nil
}

func (s *s3Client) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (s *s3Client) PresignUrl(key string) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	urlStr, err := req.Presign(s.presignTTL)
	if err != nil {
		return "", err
	}

	return urlStr, nil
}

func (s *s3Client) DeleteFile(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	return err
}
