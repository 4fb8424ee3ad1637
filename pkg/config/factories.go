package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/mcufs/mcufs/internal/logger"
	"github.com/mcufs/mcufs/pkg/fs"
	fsbadger "github.com/mcufs/mcufs/pkg/fs/badger"
	fslocal "github.com/mcufs/mcufs/pkg/fs/local"
	fsmemory "github.com/mcufs/mcufs/pkg/fs/memory"
	fss3 "github.com/mcufs/mcufs/pkg/fs/s3"
)

// CreateFilesystem creates the storage backend selected by the
// configuration. The Type field picks the implementation; the matching
// options map is decoded into that backend's configuration.
//
// Supported types:
//   - "memory": ephemeral in-RAM tree
//   - "local": a directory on the host filesystem
//   - "badger": embedded BadgerDB store
//   - "s3": S3-compatible object store
func CreateFilesystem(ctx context.Context, cfg *FilesystemConfig) (fs.Filesystem, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryFilesystem(cfg.Memory)
	case "local":
		return createLocalFilesystem(cfg.Local)
	case "badger":
		return createBadgerFilesystem(cfg.Badger)
	case "s3":
		return createS3Filesystem(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown filesystem type: %q (supported: memory, local, badger, s3)", cfg.Type)
	}
}

func createMemoryFilesystem(options map[string]any) (fs.Filesystem, error) {
	type MemoryOptions struct {
		CapacityBytes uint32 `mapstructure:"capacity_bytes"`
	}

	var opts MemoryOptions
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode memory filesystem options: %w", err)
	}

	if opts.CapacityBytes == 0 {
		opts.CapacityBytes = fsmemory.DefaultCapacity
	}
	return fsmemory.New(opts.CapacityBytes), nil
}

func createLocalFilesystem(options map[string]any) (fs.Filesystem, error) {
	type LocalOptions struct {
		Root          string `mapstructure:"root"`
		CapacityBytes uint32 `mapstructure:"capacity_bytes"`
	}

	var opts LocalOptions
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode local filesystem options: %w", err)
	}

	if opts.Root == "" {
		return nil, fmt.Errorf("local filesystem: root is required")
	}
	if opts.CapacityBytes == 0 {
		opts.CapacityBytes = fslocal.DefaultCapacity
	}

	fsys, err := fslocal.New(opts.Root, opts.CapacityBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create local filesystem: %w", err)
	}
	return fsys, nil
}

func createBadgerFilesystem(options map[string]any) (fs.Filesystem, error) {
	type BadgerOptions struct {
		Path          string `mapstructure:"path"`
		InMemory      bool   `mapstructure:"in_memory"`
		CapacityBytes uint32 `mapstructure:"capacity_bytes"`
	}

	var opts BadgerOptions
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode badger filesystem options: %w", err)
	}

	if opts.Path == "" && !opts.InMemory {
		return nil, fmt.Errorf("badger filesystem: path is required")
	}

	fsys, err := fsbadger.New(fsbadger.Config{
		Path:     opts.Path,
		InMemory: opts.InMemory,
		Capacity: opts.CapacityBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger filesystem: %w", err)
	}
	return fsys, nil
}

func createS3Filesystem(ctx context.Context, options map[string]any) (fs.Filesystem, error) {
	type S3Options struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		CapacityBytes   uint32 `mapstructure:"capacity_bytes"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var opts S3Options
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode s3 filesystem options: %w", err)
	}

	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 filesystem: bucket is required")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("s3 filesystem: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(opts.Region))

	// Static credentials if provided, otherwise the default chain.
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		// Custom endpoints (MinIO, LocalStack) need path-style addressing.
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	fsys, err := fss3.New(ctx, fss3.Config{
		Client:    client,
		Bucket:    opts.Bucket,
		KeyPrefix: opts.KeyPrefix,
		Capacity:  opts.CapacityBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 filesystem: %w", err)
	}

	logger.Info("S3 filesystem initialized: bucket=%s, region=%s, prefix=%s",
		opts.Bucket, opts.Region, opts.KeyPrefix)

	return fsys, nil
}
