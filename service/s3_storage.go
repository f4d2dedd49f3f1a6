package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	model "github.com/Itish41/DocLens/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"
)

// S3Options configures the S3 storage gateway.
type S3Options struct {
	Bucket string
	// PublicBaseURL, when set, produces locators of the form
	// <PublicBaseURL>/object/public/<bucket>/<name>. Otherwise locators are
	// presigned GET URLs valid for PresignTTL.
	PublicBaseURL string
	PresignTTL    time.Duration
	PublicRead    bool
}

// S3Storage keeps uploaded documents in an S3 compatible bucket.
type S3Storage struct {
	client s3iface.S3API
	opts   S3Options
	logger *zap.Logger
}

func NewS3Storage(client s3iface.S3API, opts S3Options, logger *zap.Logger) *S3Storage {
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = time.Hour
	}
	return &S3Storage{client: client, opts: opts, logger: logger}
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.opts.Bucket)})
	if err == nil {
		return nil
	}
	if !isS3NotFound(err) {
		return fmt.Errorf("failed to check bucket %s: %w", s.opts.Bucket, err)
	}

	_, err = s.client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.opts.Bucket)})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) &&
			(aerr.Code() == s3.ErrCodeBucketAlreadyOwnedByYou || aerr.Code() == s3.ErrCodeBucketAlreadyExists) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", s.opts.Bucket, err)
	}
	s.logger.Info("storage bucket created", zap.String("bucket", s.opts.Bucket))
	return nil
}

func (s *S3Storage) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if s.opts.PublicRead {
		input.ACL = aws.String(s3.ObjectCannedACLPublicRead)
	}

	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return s.locator(name)
}

func (s *S3Storage) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(name),
	})
	if err == nil {
		return true, nil
	}
	if isS3NotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object %s: %w", name, err)
}

func (s *S3Storage) Locate(ctx context.Context, name string) (string, error) {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	return s.locator(name)
}

func (s *S3Storage) ListAll(ctx context.Context) ([]model.DocumentMetadata, error) {
	var docs []model.DocumentMetadata
	var locErr error
	err := s.client.ListObjectsV2PagesWithContext(ctx,
		&s3.ListObjectsV2Input{Bucket: aws.String(s.opts.Bucket)},
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				name := aws.StringValue(obj.Key)
				loc, err := s.locator(name)
				if err != nil {
					locErr = err
					return false
				}
				docs = append(docs, model.DocumentMetadata{
					Name:         name,
					URL:          loc,
					Size:         aws.Int64Value(obj.Size),
					LastModified: obj.LastModified,
				})
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	if locErr != nil {
		return nil, locErr
	}
	return docs, nil
}

func (s *S3Storage) locator(name string) (string, error) {
	if s.opts.PublicBaseURL != "" {
		return fmt.Sprintf("%s/object/public/%s/%s",
			strings.TrimRight(s.opts.PublicBaseURL, "/"), s.opts.Bucket, url.PathEscape(name)), nil
	}
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(name),
	})
	loc, err := req.Presign(s.opts.PresignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", name, err)
	}
	return loc, nil
}

func isS3NotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case "NotFound", s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket:
			return true
		}
	}
	return false
}
