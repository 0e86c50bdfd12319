package artifacts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FileSource reads file:// URIs and bare paths.
type FileSource struct{}

func (FileSource) Open(_ context.Context, u *url.URL) (io.ReadCloser, error) {
	path := u.Path
	if u.Host != "" && u.Host != "localhost" {
		// file://relative/dir/x parses "relative" as the host
		path = u.Host + u.Path
	}
	return os.Open(filepath.Clean(path))
}

type HTTPSource struct {
	client *http.Client
}

func NewHTTPSource(client *http.Client) HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return HTTPSource{client: client}
}

func (s HTTPSource) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// S3API is the part of the S3 client the source needs.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3SourceConfig struct {
	Region   string
	Endpoint string // MinIO, LocalStack
}

// S3Source reads s3://bucket/key URIs.
type S3Source struct {
	client S3API
}

func NewS3Source(ctx context.Context, cfg S3SourceConfig) (*S3Source, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Source{client: client}, nil
}

func NewS3SourceWithClient(client S3API) *S3Source {
	return &S3Source{client: client}
}

func (s *S3Source) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket, key, err := bucketKey(u)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get failed for %s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// GCSSource reads gs://bucket/object URIs with application default credentials.
type GCSSource struct {
	client *storage.Client
}

func NewGCSSource(ctx context.Context) (*GCSSource, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSSource{client: client}, nil
}

func (s *GCSSource) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket, object, err := bucketKey(u)
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs read failed for %s/%s: %w", bucket, object, err)
	}
	return r, nil
}

func (s *GCSSource) Close() error { return s.client.Close() }

func bucketKey(u *url.URL) (string, string, error) {
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%s: expected %s://bucket/key", u.Redacted(), u.Scheme)
	}
	return u.Host, key, nil
}
