package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/mahirjain10/s3-thumbnailer/internal/logger"
	"github.com/mahirjain10/s3-thumbnailer/internal/types"
)

const TYPE string = "s3"

type s3API interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Service reads and writes whole objects. It is safe for concurrent use and
// holds no per-request state.
type S3Service struct {
	client s3API
	log    *slog.Logger
}

func NewS3Service(client *s3.Client, l *slog.Logger) *S3Service {
	return &S3Service{client: client, log: l.With(logger.ComponentKey, "s3")}
}

func (service *S3Service) Type() string {
	return TYPE
}

func (service *S3Service) GetObject(ctx context.Context, bucket string, key string) (*types.StoredObject, error) {
	resp, err := service.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &types.StoreError{Op: "get", Bucket: bucket, Key: key, NotFound: isNotFound(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.StoreError{Op: "get", Bucket: bucket, Key: key, Err: fmt.Errorf("failed to read object body: %w", err)}
	}

	service.log.Debug("download success", "bucket", bucket, "key", key, "size", len(body))
	return &types.StoredObject{Body: body, ContentType: aws.ToString(resp.ContentType)}, nil
}

// PutObject writes body in a single request and overwrites whatever is at key.
func (service *S3Service) PutObject(ctx context.Context, bucket string, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(key),
		Body:              bytes.NewReader(body),
		ContentType:       aws.String(contentType),
		ChecksumAlgorithm: s3types.ChecksumAlgorithmSha256,
	}
	if contentType == "" {
		input.ContentType = nil
	}

	if _, err := service.client.PutObject(ctx, input); err != nil {
		return &types.StoreError{Op: "put", Bucket: bucket, Key: key, Err: err}
	}

	service.log.Debug("upload success", "bucket", bucket, "key", key, "size", len(body))
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
