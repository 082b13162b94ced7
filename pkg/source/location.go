package source

import (
	"fmt"
	"net/url"
	"strings"
)

// Target is a parsed object location.
type Target struct {
	Kind Kind
	// URL holds the original target string for HTTP targets.
	URL    string
	Bucket string
	Key    string
	// VersionID pins an S3 object version. Only meaningful for s3 targets.
	VersionID string
}

// ParseTarget understands s3://bucket/key and http(s)://... target strings.
func ParseTarget(raw, versionID string) (*Target, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", raw, err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "s3":
		bucket := parsed.Host
		key := strings.TrimPrefix(parsed.Path, "/")
		if bucket == "" || key == "" {
			return nil, fmt.Errorf("invalid s3 target %q, expected s3://<bucket>/<key>", raw)
		}
		return &Target{Kind: KindS3, Bucket: bucket, Key: key, VersionID: versionID}, nil
	case "http", "https":
		if versionID != "" {
			return nil, fmt.Errorf("version-id is only supported for s3 targets")
		}
		if parsed.Host == "" {
			return nil, fmt.Errorf("invalid target %q, missing host", raw)
		}
		return &Target{Kind: KindHTTP, URL: raw}, nil
	default:
		return nil, fmt.Errorf("unsupported target scheme %q, expected s3, http or https", parsed.Scheme)
	}
}

// String renders the target the way the user supplied it.
func (t *Target) String() string {
	if t.Kind == KindS3 {
		return fmt.Sprintf("s3://%s/%s", t.Bucket, t.Key)
	}
	return t.URL
}
