package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/replicate/pcat/pkg/client"
	"github.com/replicate/pcat/pkg/logging"
)

// HTTPSource fetches an object over HTTP or HTTPS. Range support is probed via
// the Accept-Ranges header; origins that do not advertise it are fetched with a
// single whole-object read instead.
type HTTPSource struct {
	url string
	// fetchClient has no internal retries, the workers own the retry budget.
	fetchClient *client.HTTPClient
	// probeClient retries internally, probes sit outside the per-chunk policy.
	probeClient *client.HTTPClient

	descriptor *ObjectDescriptor
}

var _ RangeSource = &HTTPSource{}

func NewHTTPSource(url string, opts client.Options) *HTTPSource {
	return &HTTPSource{
		url:         url,
		fetchClient: client.NewHTTPClient(opts),
		probeClient: client.NewRetryingClient(opts),
	}
}

func (s *HTTPSource) Probe(ctx context.Context) (*ObjectDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HEAD request for %s: %w", s.url, err)
	}
	resp, err := s.probeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send HEAD request to %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.url)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, s.url)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("probe of %s: %w", s.url, &HTTPStatusError{StatusCode: resp.StatusCode})
	}

	if resp.ContentLength < 0 {
		return nil, fmt.Errorf("%w: unable to determine file size of %s", ErrUnsupported, s.url)
	}

	descriptor := &ObjectDescriptor{
		Kind:         KindHTTP,
		Location:     s.url,
		Size:         resp.ContentLength,
		RangeCapable: strings.EqualFold(resp.Header.Get("Accept-Ranges"), "bytes"),
	}
	s.descriptor = descriptor

	logging.GetLogger().Debug().
		Str("url", s.url).
		Int64("size", descriptor.Size).
		Bool("range_capable", descriptor.RangeCapable).
		Msg("Probe")
	return descriptor, nil
}

func (s *HTTPSource) FetchRange(ctx context.Context, start, end int64) ([]byte, error) {
	descriptor := s.descriptor
	if descriptor == nil {
		return nil, Permanent(fmt.Errorf("fetch from %s before probe", s.url))
	}
	if !descriptor.RangeCapable {
		if start != 0 || end != descriptor.Size-1 {
			return nil, Permanent(fmt.Errorf("%s does not support ranged reads", s.url))
		}
		return s.fetchFull(ctx, descriptor.Size)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, Permanent(fmt.Errorf("failed to create GET request for %s: %w", s.url, err))
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	resp, err := s.fetchClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		// 200 here means the origin ignored the Range header after advertising
		// support for it, which would hand us the whole object per chunk.
		return nil, classifyStatus(resp.StatusCode)
	}
	want := end - start + 1
	if resp.ContentLength >= 0 && resp.ContentLength != want {
		// the object may have changed size since the probe
		return nil, Transient(fmt.Errorf("range %d-%d answered with %d bytes", start, end, resp.ContentLength))
	}
	return readExactly(resp.Body, want)
}

// fetchFull degrades to a plain GET for origins without range support. Only the
// whole-object chunk is a valid request in that mode.
func (s *HTTPSource) fetchFull(ctx context.Context, size int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, Permanent(fmt.Errorf("failed to create GET request for %s: %w", s.url, err))
	}
	resp, err := s.fetchClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode)
	}
	return readExactly(resp.Body, size)
}

// readExactly consumes want bytes from body. Anything short is a protocol
// violation worth retrying, the connection may simply have dropped mid-body.
func readExactly(body io.Reader, want int64) ([]byte, error) {
	buf := make([]byte, want)
	n, err := io.ReadFull(body, buf)
	if err != nil {
		return nil, Transient(fmt.Errorf("read %d bytes instead of %d: %w", n, want, err))
	}
	return buf, nil
}
