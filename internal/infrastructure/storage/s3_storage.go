package storage

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ech/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRegion        = "us-east-1"
	defaultPresignExpiry = 15 * time.Minute
)

// S3Archive keeps printed documents in a bucket of an S3 compatible store
// (AWS, MinIO, RustFS).
type S3Archive struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
	log     *zap.Logger
}

// NewS3Archive connects to the bucket described by cfg. It does not check
// the bucket exists, see EnsureBucket.
func NewS3Archive(cfg config.StorageConfig, log *zap.Logger) (*S3Archive, error) {
	var missing []error
	for name, value := range map[string]string{"bucket": cfg.Bucket, "access key": cfg.AccessKey, "secret key": cfg.SecretKey} {
		if value == "" {
			missing = append(missing, fmt.Errorf("storage %s is required", name))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	region := cmp.Or(cfg.Region, defaultRegion)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint := cfg.Endpoint; endpoint != "" {
			if !strings.Contains(endpoint, "://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	return &S3Archive{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  expiry,
		log:     log.Named("archive"),
	}, nil
}

// EnsureBucket creates the bucket unless it already exists
func (s *S3Archive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket):
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.log.Info("Document bucket created", zap.String("bucket", s.bucket))
	return nil
}

// object names key in the bucket
func (s *S3Archive) object(key string) (*string, *string, error) {
	if err := validateKey(key); err != nil {
		return nil, nil, err
	}
	return aws.String(s.bucket), aws.String(key), nil
}

// Put stores data under key
func (s *S3Archive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	bucket, k, err := s.object(key)
	if err != nil {
		return err
	}
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        bucket,
		Key:           k,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	}); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.log.Debug("Document archived", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Get reads the object stored under key, ErrObjectNotFound when absent
func (s *S3Archive) Get(ctx context.Context, key string) ([]byte, error) {
	bucket, k, err := s.object(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: bucket, Key: k})
	var noSuchKey *types.NoSuchKey
	switch {
	case errors.As(err, &noSuchKey):
		return nil, ErrObjectNotFound
	case err != nil:
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// DownloadURL presigns a GET of key valid for the configured expiry
func (s *S3Archive) DownloadURL(ctx context.Context, key string) (string, time.Time, error) {
	bucket, k, err := s.object(key)
	if err != nil {
		return "", time.Time{}, err
	}
	expires := time.Now().Add(s.expiry)
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: bucket, Key: k}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, expires, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *S3Archive) Delete(ctx context.Context, key string) error {
	bucket, k, err := s.object(key)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: bucket, Key: k}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Bucket returns the bucket name
func (s *S3Archive) Bucket() string {
	return s.bucket
}

var _ Archive = (*S3Archive)(nil)
