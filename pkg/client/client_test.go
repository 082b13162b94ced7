package client

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAgentTransportSetsHeader(t *testing.T) {
	var receivedUserAgent string

	mockTransport := httpmock.NewMockTransport()
	mockTransport.RegisterResponder("GET", "http://example.com/file",
		func(req *http.Request) (*http.Response, error) {
			receivedUserAgent = req.Header.Get("User-Agent")
			return httpmock.NewStringResponse(http.StatusOK, "ok"), nil
		})

	httpClient := &http.Client{Transport: &UserAgentTransport{Transport: mockTransport}}
	resp, err := httpClient.Get("http://example.com/file")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Contains(t, receivedUserAgent, "pcat/")
}

func TestBackoffFuncBounds(t *testing.T) {
	for attemptNum := 0; attemptNum < 5; attemptNum++ {
		base := retryablehttp.DefaultBackoff(retryMinWait, retryMaxWait, attemptNum, nil)
		for i := 0; i < 10; i++ {
			sleep := backoffFunc(retryMinWait, retryMaxWait, attemptNum, nil)
			assert.GreaterOrEqual(t, sleep, base)
			assert.Less(t, sleep, base+retrySleepJitter*time.Millisecond)
		}
	}
}

func TestTransportDialContextOverride(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	_, port, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)

	// fake.invalid does not resolve; the dial only succeeds if the override applies
	overrides := map[string]string{
		net.JoinHostPort("fake.invalid", port): net.JoinHostPort("127.0.0.1", port),
	}
	dial := transportDialContext(&net.Dialer{Timeout: time.Second}, overrides)

	conn, err := dial(context.Background(), "tcp", net.JoinHostPort("fake.invalid", port))
	require.NoError(t, err)
	conn.Close()
}

func TestBaseTransportOptions(t *testing.T) {
	transport := baseTransport(Options{MaxConnPerHost: 7, ForceHTTP2: true})
	assert.Equal(t, 7, transport.MaxConnsPerHost)
	require.NotNil(t, transport.TLSClientConfig)
	assert.Equal(t, []string{"h2"}, transport.TLSClientConfig.NextProtos)

	transport = baseTransport(Options{})
	assert.Zero(t, transport.MaxConnsPerHost)
	assert.Nil(t, transport.TLSClientConfig)
}
