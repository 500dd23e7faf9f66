// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/staranto/showcase/internal/aws"
)

// ErrEmptyBucket is returned when the S3 bucket is not configured.
var ErrEmptyBucket = errors.New("s3 bucket is required")

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3 store configuration.
type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Profile  string
	Endpoint string
}

// S3Store keeps one object per key at <prefix>/<md5(key)>.
type S3Store struct {
	client S3API
	bucket string
	prefix string
	ctx    context.Context
}

// NewS3Store loads AWS configuration from the environment and builds an
// S3Store for cfg.Bucket.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, ErrEmptyBucket
	}

	var opts []aws.Option
	if cfg.Profile != "" {
		opts = append(opts, aws.WithProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, aws.WithRegion(cfg.Region))
	}

	awsCfg, err := aws.LoadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := aws.NewS3(awsCfg, aws.WithS3Endpoint(cfg.Endpoint))
	return NewS3StoreFromClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3StoreFromClient wraps an existing client.
func NewS3StoreFromClient(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		ctx:    context.Background(),
	}
}

func (s *S3Store) objectKey(key string) string {
	return path.Join(s.prefix, encodeKey(key))
}

func (s *S3Store) Get(key string) (string, bool, error) {
	out, err := s.client.GetObject(s.ctx, &s3.GetObjectInput{
		Bucket: awsv2.String(s.bucket),
		Key:    awsv2.String(s.objectKey(key)),
	})
	if isNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, s.objectKey(key), err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return "", false, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, s.objectKey(key), err)
	}
	return string(b), true, nil
}

func (s *S3Store) Set(key, value string) error {
	_, err := s.client.PutObject(s.ctx, &s3.PutObjectInput{
		Bucket:      awsv2.String(s.bucket),
		Key:         awsv2.String(s.objectKey(key)),
		Body:        strings.NewReader(value),
		ContentType: awsv2.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, s.objectKey(key), err)
	}
	return nil
}

func (s *S3Store) Delete(keys ...string) error {
	var errs []error
	for _, key := range keys {
		_, err := s.client.DeleteObject(s.ctx, &s3.DeleteObjectInput{
			Bucket: awsv2.String(s.bucket),
			Key:    awsv2.String(s.objectKey(key)),
		})
		if err != nil && !isNotFound(err) {
			errs = append(errs, fmt.Errorf("failed to delete s3://%s/%s: %w", s.bucket, s.objectKey(key), err))
		}
	}
	return errors.Join(errs...)
}

func (s *S3Store) String() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
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
