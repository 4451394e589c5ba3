package sync

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the subset of the S3 client used by S3Destination.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures an S3Destination.
type S3Options struct {
	Bucket string
	// Key is the object key. A key ending in "/" is a prefix: each export is
	// written to a new timestamped object under it.
	Key      string
	Region   string
	Endpoint string // non-empty enables path-style addressing (MinIO and similar)
}

// S3Destination writes JSONL data to an S3-compatible bucket.
type S3Destination struct {
	client s3API
	bucket string
	key    string
	now    func() time.Time
}

// NewS3Destination creates an S3 destination using the default AWS
// credential chain.
func NewS3Destination(ctx context.Context, opts S3Options) (*S3Destination, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 destination: bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}

	return newS3Destination(s3.NewFromConfig(cfg, s3opts...), opts.Bucket, opts.Key), nil
}

func newS3Destination(client s3API, bucket, key string) *S3Destination {
	if key == "" {
		key = "invtrack.jsonl"
	}
	return &S3Destination{
		client: client,
		bucket: bucket,
		key:    key,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Name returns "s3".
func (d *S3Destination) Name() string { return "s3" }

// objectKey returns the key the next export is written to.
func (d *S3Destination) objectKey() string {
	if strings.HasSuffix(d.key, "/") {
		return d.key + "invtrack-" + d.now().Format("20060102T150405Z") + ".jsonl"
	}
	return d.key
}

// Write uploads data to S3.
func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.objectKey()),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}
