package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/binrange/blobstore"
	miniostore "github.com/hupe1980/binrange/blobstore/minio"
	s3store "github.com/hupe1980/binrange/blobstore/s3"
)

// openBlobStore resolves a source spec into a blob store:
//
//	s3://bucket[/prefix]             Amazon S3 (ambient AWS credentials)
//	minio://endpoint/bucket[/prefix] MinIO (MINIO_ACCESS_KEY / MINIO_SECRET_KEY)
//	anything else                    local directory path
func openBlobStore(ctx context.Context, source string) (blobstore.Store, error) {
	switch {
	case strings.HasPrefix(source, "s3://"):
		u, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("parse source %q: %w", source, err)
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return s3store.NewStore(awss3.NewFromConfig(cfg), u.Host, strings.TrimPrefix(u.Path, "/")), nil

	case strings.HasPrefix(source, "minio://"):
		u, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("parse source %q: %w", source, err)
		}
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if bucket == "" {
			return nil, fmt.Errorf("source %q: missing bucket", source)
		}
		client, err := minio.New(u.Host, &minio.Options{
			Creds:  credentials.NewEnvMinio(),
			Secure: true,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, bucket, prefix), nil

	default:
		return blobstore.NewLocalStore(source), nil
	}
}
