package coupon

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// s3API is the S3 client surface the loader uses.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Loader implements Loader for reading coupon seed files from AWS S3.
type s3Loader struct {
	client s3API
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Loader creates a new S3-based coupon loader reading every .json
// object under the prefix.
func NewS3Loader(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Loader, error) {
	logger = logger.With().Str("component", "s3-coupon-loader").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 loader initialised")

	return &s3Loader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Load lists the seed objects under the prefix and reads each one.
func (l *s3Loader) Load(ctx context.Context) ([]Definition, error) {
	var defs []Definition

	var continuation *string
	for {
		page, err := l.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(l.bucket),
			Prefix:            aws.String(l.prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			l.logger.Error().
				Err(err).
				Str("bucket", l.bucket).
				Str("prefix", l.prefix).
				Msg("failed to list coupon seed objects")
			return nil, fmt.Errorf("failed to list coupon seeds (bucket=%s, prefix=%s): %w", l.bucket, l.prefix, err)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			objectDefs, err := l.loadObject(ctx, key)
			if err != nil {
				return nil, err
			}
			defs = append(defs, objectDefs...)
		}

		if page.NextContinuationToken == nil {
			break
		}
		continuation = page.NextContinuationToken
	}

	l.logger.Info().
		Str("bucket", l.bucket).
		Str("prefix", l.prefix).
		Int("coupons_loaded", len(defs)).
		Msg("coupon seeds loaded from S3")

	return defs, nil
}

// loadObject reads and parses one seed object.
func (l *s3Loader) loadObject(ctx context.Context, key string) ([]Definition, error) {
	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to get coupon seed object")
		return nil, fmt.Errorf("failed to get coupon seed (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read coupon seed %s: %w", key, err)
	}

	defs, err := parseDefinitions(key, data)
	if err != nil {
		return nil, err
	}

	l.logger.Debug().
		Str("key", key).
		Int("coupons", len(defs)).
		Msg("coupon seed object loaded")

	return defs, nil
}
