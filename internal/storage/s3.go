package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/lockbox/internal/common"
)

// S3Config parameterizes the S3 backend. BaseEndpoint is optional and
// allows pointing at an S3-compatible server such as MinIO.
type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// s3API is the subset of the S3 client the backend uses. *s3.Client
// satisfies it; tests substitute a fake.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3KV stores one object per key in a bucket, for vaults shared between
// machines through S3-compatible storage.
//
// S3 offers no transactional primitive, so CompareAndSwap here is a
// read-back best effort: a writer racing between the read and the put still
// wins last-write-wins. Single-user vaults are unaffected; concurrent
// multi-machine use should prefer the postgres backend.
type S3KV struct {
	client s3API
	bucket string
}

func NewS3KV(ctx context.Context, cfg S3Config) (*S3KV, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3KV{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3KV) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get object %s: %v", common.ErrStorageUnavailable, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read object %s: %v", common.ErrStorageUnavailable, key, err)
	}
	return data, nil
}

func (s *S3KV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(value),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to put object %s: %v", common.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (s *S3KV) CompareAndSwap(ctx context.Context, key string, old, new []byte) error {
	cur, err := s.Get(ctx, key)
	exists := true
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return err
		}
		exists = false
	}

	if old == nil {
		if exists {
			return common.ErrConflict
		}
	} else if !exists || !bytes.Equal(cur, old) {
		return common.ErrConflict
	}

	return s.Set(ctx, key, new)
}

func (s *S3KV) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete object %s: %v", common.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (s *S3KV) Close() error { return nil }
