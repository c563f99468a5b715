package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = input
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3Archive_Put(t *testing.T) {
	fake := &fakeS3{}
	archive := newS3Archive(fake, "ledger-statements", "prod")
	body := []byte(`{"payout_number":"PO-20261017-ABC123"}`)

	err := archive.Put(context.Background(), "statements/P-000001/PO-20261017-ABC123.json", body, "application/json")

	require.NoError(t, err)
	assert.Equal(t, "ledger-statements", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "prod/statements/P-000001/PO-20261017-ABC123.json", aws.ToString(fake.input.Key))
	assert.Equal(t, "application/json", aws.ToString(fake.input.ContentType))
	assert.Equal(t, int64(len(body)), aws.ToInt64(fake.input.ContentLength))
	assert.Equal(t, body, fake.body)
}

func TestS3Archive_PutError(t *testing.T) {
	archive := newS3Archive(&fakeS3{err: errors.New("access denied")}, "b", "")

	err := archive.Put(context.Background(), "statements/x.json", []byte("{}"), "application/json")

	assert.ErrorContains(t, err, "statements/x.json")
	assert.ErrorContains(t, err, "access denied")
}

func TestNewS3Archive_RequiresBucket(t *testing.T) {
	_, err := NewS3Archive(Config{Region: "us-east-1"})
	assert.Error(t, err)

	archive, err := NewS3Archive(Config{Bucket: "b", Region: "us-east-1", Endpoint: "http://localhost:9000", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.NotNil(t, archive)
}
