package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/replicate/pcat/pkg/logging"
)

// S3API is the subset of the S3 client the source needs. It exists so tests can
// substitute a fake.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source fetches an object from S3 (or anything speaking its API, the
// endpoint is taken from the usual AWS environment). S3 always honors byte
// ranges, so every fetch is a ranged GetObject.
type S3Source struct {
	api       S3API
	bucket    string
	key       string
	versionID string
}

var _ RangeSource = &S3Source{}

// NewS3Source builds a source over the default AWS credential chain. SDK-internal
// retries are disabled so the download workers stay the single retry authority.
func NewS3Source(ctx context.Context, target *Target) (*S3Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryMaxAttempts(1))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return newS3Source(s3.NewFromConfig(cfg), target), nil
}

func newS3Source(api S3API, target *Target) *S3Source {
	return &S3Source{
		api:       api,
		bucket:    target.Bucket,
		key:       target.Key,
		versionID: target.VersionID,
	}
}

func (s *S3Source) Probe(ctx context.Context) (*ObjectDescriptor, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	}
	if s.versionID != "" {
		input.VersionId = aws.String(s.versionID)
	}
	head, err := s.api.HeadObject(ctx, input)
	if err != nil {
		return nil, classifyProbeError(err, s.uri())
	}
	if head.ContentLength == nil {
		return nil, fmt.Errorf("%w: missing content length for %s", ErrUnsupported, s.uri())
	}

	descriptor := &ObjectDescriptor{
		Kind:         KindS3,
		Location:     s.uri(),
		VersionID:    s.versionID,
		Size:         *head.ContentLength,
		RangeCapable: true,
	}

	logging.GetLogger().Debug().
		Str("uri", s.uri()).
		Str("version_id", s.versionID).
		Int64("size", descriptor.Size).
		Msg("Probe")
	return descriptor, nil
}

func (s *S3Source) FetchRange(ctx context.Context, start, end int64) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	}
	if s.versionID != "" {
		input.VersionId = aws.String(s.versionID)
	}
	object, err := s.api.GetObject(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyFetchError(err)
	}
	defer object.Body.Close()

	want := end - start + 1
	if object.ContentLength != nil && *object.ContentLength != want {
		// the object may have changed size since the probe
		return nil, Transient(fmt.Errorf("range %d-%d answered with %d bytes", start, end, *object.ContentLength))
	}
	return readExactly(object.Body, want)
}

func (s *S3Source) uri() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

func classifyProbeError(err error, uri string) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, uri)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrAccessDenied, uri)
		}
	}
	return fmt.Errorf("failed to probe %s: %w", uri, err)
}

// classifyFetchError mirrors the HTTP taxonomy: server-side trouble and
// throttling retry, the rest aborts. Errors with no response attached are
// connection-level failures and retryable.
func classifyFetchError(err error) error {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		if code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout {
			return Transient(err)
		}
		return Permanent(err)
	}
	return Transient(err)
}
