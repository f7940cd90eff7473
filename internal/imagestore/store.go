package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"civicboard/internal/config"
	"civicboard/internal/middleware"
	"civicboard/internal/models"
	"civicboard/internal/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, img *Image) (string, error)
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads images to an S3-compatible bucket behind a circuit breaker.
type S3Store struct {
	client     putObjectAPI
	bucket     string
	publicBase string
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[string]
	newKey     func(ext string) string
}

// Options tunes an S3Store.
type Options struct {
	Bucket           string
	PublicBaseURL    string
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// NewS3Store builds a store from application configuration.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.ImageS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.ImageS3AccessKey,
			cfg.ImageS3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.ImageS3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.ImageS3Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := cfg.ImagePublicBaseURL
	if publicBase == "" {
		publicBase = strings.TrimRight(cfg.ImageS3Endpoint, "/") + "/" + cfg.ImageS3Bucket
	}

	return newS3Store(client, Options{
		Bucket:        cfg.ImageS3Bucket,
		PublicBaseURL: publicBase,
		Timeout:       cfg.ImageUploadTimeout,
	}), nil
}

func newS3Store(client putObjectAPI, opts Options) *S3Store {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	threshold := opts.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "image-upload",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.ImageUploadBreakerState.WithLabelValues(from.String()).Set(0)
			observability.ImageUploadBreakerState.WithLabelValues(to.String()).Set(1)
			middleware.Logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &S3Store{
		client:     client,
		bucket:     opts.Bucket,
		publicBase: strings.TrimRight(opts.PublicBaseURL, "/"),
		timeout:    opts.Timeout,
		breaker:    breaker,
		newKey:     storageKey,
	}
}

func storageKey(ext string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("posts/%d/%02d/%02d/%s.%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

// Upload stores img and returns its public URL. Any failure, including a
// timeout or an open breaker, is reported as an UPLOAD_ERROR.
func (s *S3Store) Upload(ctx context.Context, img *Image) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", models.NewValidationError("Image file is empty")
	}

	url, err := s.breaker.Execute(func() (string, error) {
		uploadCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		key := s.newKey(img.Ext)
		_, err := s.client.PutObject(uploadCtx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(img.Data),
			ContentType:   aws.String(img.ContentType),
			ContentLength: aws.Int64(int64(len(img.Data))),
		})
		if err != nil {
			return "", err
		}
		return s.publicBase + "/" + key, nil
	})
	if err != nil {
		observability.ImageUploads.WithLabelValues(uploadResult(err)).Inc()
		middleware.Logger.ErrorContext(ctx, "image upload failed", slog.String("error", err.Error()))
		return "", models.NewUploadError(err)
	}

	observability.ImageUploads.WithLabelValues("success").Inc()
	return url, nil
}

func uploadResult(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
