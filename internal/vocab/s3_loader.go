package vocab

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectGetter is the part of *s3.Client the loader needs.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Loader reads gzipped word lists from an S3 bucket.
type s3Loader struct {
	client objectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates a new S3-based word list loader using the default AWS
// credential chain.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 vocabulary loader initialised")

	return newS3Loader(s3.NewFromConfig(cfg), bucket, logger), nil
}

func newS3Loader(client objectGetter, bucket string, logger zerolog.Logger) *s3Loader {
	return &s3Loader{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "s3-vocab-loader").Logger(),
	}
}

// Load reads the object at key.
func (l *s3Loader) Load(ctx context.Context, key string) (WordSet, error) {
	log := l.logger.With().Str("bucket", l.bucket).Str("key", key).Logger()
	log.Info().Msg("loading word list from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	set, err := readWords(ctx, result.Body)
	if err != nil {
		log.Error().Err(err).Msg("failed to read word list from S3")
		return nil, fmt.Errorf("failed to read S3 object %s: %w", key, err)
	}

	log.Info().Int("words_loaded", set.Size()).Msg("word list loaded from S3")
	return set, nil
}

// fallbackLoader tries S3 first and falls back to the local file system.
type fallbackLoader struct {
	s3Loader   Loader
	fileLoader Loader
	s3Prefix   string
	s3Enabled  bool
	logger     zerolog.Logger
}

// NewFallbackLoader creates a loader that tries S3 (with s3Prefix prepended
// to the path) before reading the path locally. A nil s3Loader means local
// only.
func NewFallbackLoader(s3Loader, fileLoader Loader, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		s3Loader:   s3Loader,
		fileLoader: fileLoader,
		s3Prefix:   s3Prefix,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "vocab-fallback-loader").Logger(),
	}
}

func (l *fallbackLoader) Load(ctx context.Context, path string) (WordSet, error) {
	if l.s3Enabled && l.s3Loader != nil {
		key := l.s3Prefix + path

		set, err := l.s3Loader.Load(ctx, key)
		if err == nil {
			return set, nil
		}

		l.logger.Warn().
			Err(err).
			Str("s3_key", key).
			Msg("failed to load from S3, falling back to local file system")
	}

	return l.fileLoader.Load(ctx, path)
}
