package ledger

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

const defaultS3Region = "us-east-1"

// S3 stores each table as one JSONL object, <prefix><table>.jsonl, in a
// single bucket. A table write is one PutObject, so each table is replaced
// atomically; writes spanning tables are not.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ types.LedgerStore = (*S3)(nil)

// OpenS3 builds a client from the default AWS credential chain. Endpoint
// and PathStyle select an S3-compatible service such as MinIO.
func OpenS3(ctx context.Context, cfg types.S3Config, optFns ...func(*s3.Options)) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, types.ErrS3BucketMissing
	}
	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	opts := []func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}
	client := s3.NewFromConfig(awsCfg, append(opts, optFns...)...)
	return NewS3(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3 wraps an existing client.
func NewS3(client *s3.Client, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) key(name string) string { return s.prefix + name + ".jsonl" }

// ReadTable fetches the table object. A missing object is an empty table.
func (s *S3) ReadTable(ctx context.Context, name string) ([]types.Row, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return []types.Row{}, nil
		}
		return nil, fmt.Errorf("getting %s: %w", s.key(name), err)
	}
	defer out.Body.Close()
	rows, err := decodeLines(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.key(name), err)
	}
	return rows, nil
}

// WriteTable replaces the table object.
func (s *S3) WriteTable(ctx context.Context, name string, rows []types.Row) error {
	if err := checkName(name); err != nil {
		return err
	}
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := writeLines(w, rows); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("buffering %s: %w", name, err)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("putting %s: %w", s.key(name), err)
	}
	return nil
}

// Close is a no-op.
func (s *S3) Close() error { return nil }

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
