// Command lambda runs the thumbnailer as an AWS Lambda function subscribed to
// s3:ObjectCreated notifications of the source bucket.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/mahirjain10/s3-thumbnailer/config"
	"github.com/mahirjain10/s3-thumbnailer/internal/aws"
	"github.com/mahirjain10/s3-thumbnailer/internal/logger"
	"github.com/mahirjain10/s3-thumbnailer/internal/thumbnail"
	"github.com/mahirjain10/s3-thumbnailer/internal/types"
)

type eventHandler interface {
	Handle(ctx context.Context, event types.S3Event) error
}

// newHandler adapts the Lambda S3 event to the thumbnailer. Returning the error
// marks the invocation failed so Lambda's retry and dead-letter policy apply.
func newHandler(h eventHandler) func(context.Context, events.S3Event) error {
	return func(ctx context.Context, event events.S3Event) error {
		return h.Handle(ctx, fromLambdaEvent(event))
	}
}

func fromLambdaEvent(event events.S3Event) types.S3Event {
	records := make([]types.S3EventRecord, 0, len(event.Records))
	for _, r := range event.Records {
		record := types.S3EventRecord{
			EventSource: r.EventSource,
			AwsRegion:   r.AWSRegion,
			EventName:   r.EventName,
			S3: types.S3EventEntity{
				Bucket: types.S3EventBucket{Name: r.S3.Bucket.Name, Arn: r.S3.Bucket.Arn},
				Object: types.S3EventObject{
					Key:       r.S3.Object.Key,
					Size:      r.S3.Object.Size,
					ETag:      r.S3.Object.ETag,
					Sequencer: r.S3.Object.Sequencer,
				},
			},
		}
		if !r.EventTime.IsZero() {
			record.EventTime = r.EventTime.Format(time.RFC3339)
		}
		records = append(records, record)
	}
	return types.S3Event{Records: records}
}

func main() {
	ctx := context.Background()

	c, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", logger.ErrorKey, err)
		os.Exit(1)
	}
	l := logger.New(c.LogLevel, c.LogFormat)

	awsConfig, err := config.InitializeAws(ctx, c)
	if err != nil {
		l.Error("failed to initialize AWS config", logger.ErrorKey, err)
		os.Exit(1)
	}

	s3Client := aws.NewS3Client(awsConfig, c.AwsEndpoint, c.AwsForcePathStyle)
	thumbnailer, err := thumbnail.New(l, aws.NewS3Service(s3Client, l), c.TargetWidth)
	if err != nil {
		l.Error("failed to create thumbnailer", logger.ErrorKey, err)
		os.Exit(1)
	}

	lambda.Start(newHandler(thumbnailer))
}
