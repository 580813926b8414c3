// Package storage keeps complaint photos in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/civicconnect/civicconnect-services/internal/awsclient"
	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("object not found")
var ErrUnsupportedType = errors.New("unsupported image type")

// MaxImageBytes bounds a single uploaded photo.
const MaxImageBytes = 10 << 20

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore persists image bytes under opaque keys.
type ImageStore interface {
	Put(ctx context.Context, complaintID int64, contentType string, body io.Reader, size int64) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// S3API is the subset of the S3 client used by S3ImageStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3ImageStore struct {
	Client S3API
	Bucket string
	Prefix string
}

func NewS3ImageStore(client S3API, bucket, prefix string) *S3ImageStore {
	return &S3ImageStore{Client: client, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}
}

// AllowedContentType reports whether photos of contentType are accepted.
func AllowedContentType(contentType string) bool {
	_, ok := extensions[contentType]
	return ok
}

// Key returns a fresh object key for a photo of complaintID.
func (s *S3ImageStore) Key(complaintID int64, contentType string) string {
	return path.Join(s.Prefix, "complaints", fmt.Sprint(complaintID), uuid.NewString()+extensions[contentType])
}

func (s *S3ImageStore) Put(ctx context.Context, complaintID int64, contentType string, body io.Reader, size int64) (string, error) {
	if !AllowedContentType(contentType) {
		return "", ErrUnsupportedType
	}

	key := s.Key(complaintID, contentType)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading %s (%s): %w", key, awsclient.ErrorCode(err), err)
	}
	return key, nil
}

func (s *S3ImageStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) || awsclient.ErrorCode(err) == "NoSuchKey" {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", fmt.Errorf("error downloading %s (%s): %w", key, awsclient.ErrorCode(err), err)
	}
	return out.Body, aws.ToString(out.ContentType), nil
}

func (s *S3ImageStore) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("error deleting %s (%s): %w", key, awsclient.ErrorCode(err), err)
	}
	return nil
}
