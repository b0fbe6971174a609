package source

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/vango-dev/weave/internal/errors"
)

// GetObjectAPI is the part of *s3.Client that S3 needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 loads templates from a bucket. The template name is appended to the
// key prefix.
//
// Example usage:
//
//	client := source.NewS3Client("us-east-1")
//	src := source.NewS3(client, "my-bucket", "templates/", 0)
//	markup, err := src.Load(ctx, "todo.html")
type S3 struct {
	client  GetObjectAPI
	bucket  string
	prefix  string
	maxSize int64
}

// NewS3 creates an S3 source. maxSize <= 0 means DefaultMaxSize.
func NewS3(client GetObjectAPI, bucket, prefix string, maxSize int64) *S3 {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &S3{client: client, bucket: bucket, prefix: prefix, maxSize: maxSize}
}

// Key returns the object key for a template name.
func (s *S3) Key(name string) string {
	return s.prefix + strings.TrimPrefix(name, "/")
}

// Load fetches the object for name.
func (s *S3) Load(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(name)
		}
		return nil, errors.New("W141").
			WithTemplate(name).
			WithDetail("s3://" + s.bucket + "/" + s.Key(name)).
			Wrap(err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > s.maxSize {
		return nil, errors.New("W141").
			WithTemplate(name).
			WithDetail("The template is larger than the configured limit.")
	}
	return readLimited(out.Body, name, s.maxSize)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if stderrors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// NewS3Client creates a client for region. Credentials come from the
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, and AWS_SESSION_TOKEN
// environment variables; without them requests are anonymous, which is
// enough for public buckets.
func NewS3Client(region string) *s3.Client {
	return s3.New(s3.Options{
		Region:      region,
		Credentials: envCredentials(),
	})
}

func envCredentials() aws.CredentialsProvider {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	token := os.Getenv("AWS_SESSION_TOKEN")
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "weave environment",
		}, nil
	})
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(ref string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(ref, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
