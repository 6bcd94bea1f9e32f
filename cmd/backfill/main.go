// Command backfill creates renditions for objects that already exist in a
// source bucket, for example ones uploaded before the trigger was wired.
//
//	backfill -bucket photos "a b.jpg" 2024/cat.png
//
// Keys are taken literally, without percent-decoding.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mahirjain10/s3-thumbnailer/config"
	"github.com/mahirjain10/s3-thumbnailer/internal/aws"
	"github.com/mahirjain10/s3-thumbnailer/internal/logger"
	"github.com/mahirjain10/s3-thumbnailer/internal/thumbnail"
	"github.com/mahirjain10/s3-thumbnailer/internal/types"
)

type processor interface {
	Process(ctx context.Context, src types.Location) (types.Location, error)
}

// backfill processes every key independently and reports how many failed.
func backfill(ctx context.Context, p processor, out io.Writer, bucket string, keys []string) int {
	failed := 0
	for _, key := range keys {
		dst, err := p.Process(ctx, types.Location{Bucket: bucket, Key: key})
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", key, err)
			continue
		}
		fmt.Fprintf(out, "OK   %s -> %s\n", key, dst)
	}
	return failed
}

func parseArgs(args []string) (string, []string, error) {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	bucket := fs.String("bucket", "", "source bucket")
	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	if *bucket == "" {
		return "", nil, errors.New("-bucket is required")
	}
	if fs.NArg() == 0 {
		return "", nil, errors.New("at least one key is required")
	}
	return *bucket, fs.Args(), nil
}

func main() {
	ctx := context.Background()

	bucket, keys, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	c, err := config.InitializeEnvs()
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

	if failed := backfill(ctx, thumbnailer, os.Stdout, bucket, keys); failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d objects failed\n", failed, len(keys))
		os.Exit(1)
	}
}
