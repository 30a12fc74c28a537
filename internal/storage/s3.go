package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config selects the bucket images are uploaded to.
type S3Config struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint overrides the S3 endpoint (LocalStack, MinIO).
	Endpoint string
	// PublicURL is the base URL objects are served from, e.g. a CDN.
	// Defaults to the bucket's virtual-hosted URL.
	PublicURL string
}

type S3Store struct {
	client    putObjectAPI
	bucket    string
	prefix    string
	publicURL string
}

// NewS3Store loads AWS credentials from the default chain and builds the client.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg), nil
}

func newS3Store(client putObjectAPI, cfg S3Config) *S3Store {
	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (s *S3Store) Save(ctx context.Context, r io.Reader) (string, error) {
	img, err := readImage(r)
	if err != nil {
		return "", err
	}

	key := s.prefix + img.filename
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.data),
		ContentType:   aws.String(img.contentType),
		ContentLength: aws.Int64(int64(len(img.data))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to s3: %w", err)
	}

	return s.publicURL + "/" + key, nil
}
