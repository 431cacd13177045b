package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
)

// S3Config configures the S3 backed object store.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	// PublicBaseURL overrides the URL prefix returned by PublicURL, e.g. a CDN.
	PublicBaseURL string
	// Prefix is prepended to every key inside the bucket.
	Prefix string
}

// S3Client is the subset of the S3 API the store relies on.
type S3Client interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Store stores objects in an S3 compatible bucket.
type S3Store struct {
	client   S3Client
	uploader *manager.Uploader
	cfg      S3Config
}

// NewS3Store loads AWS configuration and builds the client. Static
// credentials are used when both keys are set, otherwise the default chain.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: s3 bucket required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}
	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg, s3Options...), cfg), nil
}

// NewS3StoreWithClient wires the store around an existing client.
func NewS3StoreWithClient(client S3Client, cfg S3Config) *S3Store {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return &S3Store{client: client, uploader: manager.NewUploader(client), cfg: cfg}
}

var _ interfaces.ObjectStore = (*S3Store)(nil)

func (s *S3Store) objectKey(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if prefix := strings.Trim(s.cfg.Prefix, "/"); prefix != "" {
		return prefix + "/" + cleaned, nil
	}
	return cleaned, nil
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(objectKey),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("storage: upload %s: %w", objectKey, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isMissingObject(err) {
			return nil, interfaces.ErrObjectNotFound
		}
		return nil, fmt.Errorf("storage: download %s: %w", objectKey, err)
	}
	defer result.Body.Close()
	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", objectKey, err)
	}
	return data, nil
}

func (s *S3Store) Remove(ctx context.Context, keys ...string) error {
	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objectKey, err := s.objectKey(key)
		if err != nil {
			continue
		}
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(objectKey)})
	}
	if len(objects) == 0 {
		return nil
	}
	result, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.cfg.Bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("storage: delete objects: %w", err)
	}
	var errs []error
	for _, failed := range result.Errors {
		if aws.ToString(failed.Code) == "NoSuchKey" {
			continue
		}
		errs = append(errs, fmt.Errorf("storage: delete %s: %s", aws.ToString(failed.Key), aws.ToString(failed.Message)))
	}
	return errors.Join(errs...)
}

func (s *S3Store) PublicURL(key string) string {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return ""
	}
	switch {
	case s.cfg.PublicBaseURL != "":
		return joinURL(s.cfg.PublicBaseURL, objectKey)
	case s.cfg.Endpoint != "" && s.cfg.UsePathStyle:
		return joinURL(joinURL(s.cfg.Endpoint, s.cfg.Bucket), objectKey)
	case s.cfg.Endpoint != "":
		return joinURL(s.cfg.Endpoint, objectKey)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, objectKey)
	}
}

func isMissingObject(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
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
