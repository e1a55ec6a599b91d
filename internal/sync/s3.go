package sync

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ncruces/go-strftime"
)

// S3Config locates the backup object.
type S3Config struct {
	Bucket string
	// Key may contain strftime directives, expanded in UTC at upload time,
	// e.g. "datedvalues/%Y-%m-%d.jsonl" keeps one backup per day. A key
	// without directives is overwritten by every run.
	Key    string
	Region string
	// Endpoint selects an S3-compatible service such as MinIO and switches
	// to path-style addressing.
	Endpoint string
}

// S3Destination uploads the JSONL backup to an S3 bucket.
type S3Destination struct {
	client *s3.Client
	cfg    S3Config
	now    func() time.Time
}

func NewS3Destination(ctx context.Context, cfg S3Config) (*S3Destination, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, fmt.Errorf("s3 destination needs a bucket and a key")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Destination{client: client, cfg: cfg, now: time.Now}, nil
}

func (d *S3Destination) Name() string {
	return "s3://" + d.cfg.Bucket + "/" + d.cfg.Key
}

// objectKey expands the configured key for t.
func (d *S3Destination) objectKey(t time.Time) string {
	return strftime.Format(d.cfg.Key, t.UTC())
}

func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	key := d.objectKey(d.now())
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/x-ndjson"),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      map[string]string{"exported-by": "datedvalues"},
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", d.cfg.Bucket, key, err)
	}
	return nil
}
