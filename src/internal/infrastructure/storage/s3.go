// Package storage archives payout statements in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Prefix is prepended to every key.
	Prefix string
}

// S3Archive writes statements with PutObject. Keys are deterministic per
// payout, so a re-archive overwrites the same object.
type S3Archive struct {
	client putObjectAPI
	bucket string
	prefix string
}

func NewS3Archive(cfg Config) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 archive requires a bucket")
	}
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: true,
	}
	if cfg.AccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return newS3Archive(s3.New(opts), cfg.Bucket, cfg.Prefix), nil
}

func newS3Archive(client putObjectAPI, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

func (a *S3Archive) Put(ctx context.Context, key string, body []byte, contentType string) error {
	objectKey := key
	if a.prefix != "" {
		objectKey = path.Join(a.prefix, key)
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s to s3: %w", objectKey, err)
	}
	return nil
}
