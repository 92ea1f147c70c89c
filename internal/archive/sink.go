// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	faws "github.com/staranto/foundryctl/internal/aws"
)

// Sink stores encoded archives. Put returns where the archive landed.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// LocalSink writes archives into a directory, creating it on first use.
type LocalSink struct {
	Dir string
}

func (s LocalSink) Put(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create archive dir: %w", err)
	}
	p := filepath.Join(s.Dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	return p, nil
}

// ObjectPutter is the slice of the S3 client used by S3Sink.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink stores archives as objects under Prefix in Bucket.
type S3Sink struct {
	Client ObjectPutter
	Bucket string
	Prefix string
}

func (s S3Sink) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(s.Prefix, name)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.Bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: strPtr("application/octet-stream"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put s3://%s/%s: %w", s.Bucket, key, err)
	}
	return "s3://" + s.Bucket + "/" + key, nil
}

func strPtr(s string) *string { return &s }

// ParseS3 splits s3://bucket/prefix. ok is false for anything else.
func ParseS3(target string) (bucket, prefix string, ok bool) {
	rest, found := strings.CutPrefix(target, "s3://")
	if !found {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", false
	}
	return bucket, strings.Trim(prefix, "/"), true
}

// Open resolves an archive target: s3://bucket/prefix uses the shell's AWS
// config, anything else is a local directory.
func Open(ctx context.Context, target string) (Sink, error) {
	if target == "" {
		return nil, fmt.Errorf("archive target is empty")
	}

	if bucket, prefix, ok := ParseS3(target); ok {
		cfg, err := faws.LoadConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return S3Sink{Client: faws.NewS3(cfg), Bucket: bucket, Prefix: prefix}, nil
	}
	if strings.Contains(target, "://") {
		return nil, fmt.Errorf("unsupported archive target: %s", target)
	}

	return LocalSink{Dir: target}, nil
}
