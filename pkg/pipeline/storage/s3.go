package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// S3API is the part of the S3 client used here
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads and writes objects in Amazon S3
type S3Store struct {
	client S3API
	logger *logrus.Logger
}

// NewS3Store creates an S3 object store
func NewS3Store(client S3API) *S3Store {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &S3Store{client: client, logger: logger}
}

// WithLogger replaces the default JSON logger
func (s *S3Store) WithLogger(logger *logrus.Logger) *S3Store {
	s.logger = logger
	return s
}

// PutObject uploads body as a JSON object
func (s *S3Store) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"bucket": bucket,
		"key":    key,
		"size":   len(body),
	}).Debug("Object written")
	return nil
}

// GetObject downloads an object
func (s *S3Store) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
