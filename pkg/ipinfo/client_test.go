package ipinfo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// ClientTestSuite tests the public IP lookup client.
type ClientTestSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ClientTestSuite) SetupTest() {
	s.ctx = context.Background()
}

// TestLookupSuccess tests that the response body is returned.
func (s *ClientTestSuite) TestLookupSuccess() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("203.0.113.7\n"))
	}))
	defer srv.Close()

	ip, err := NewClient(srv.URL, time.Second, 0).Lookup(s.ctx)
	s.Require().NoError(err)
	s.Equal("203.0.113.7", ip)
}

// TestLookupStatusError tests that error statuses fail without retrying.
func (s *ClientTestSuite) TestLookupStatusError() {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, 3).Lookup(s.ctx)

	var statusErr *StatusError
	s.Require().True(errors.As(err, &statusErr))
	s.Equal(http.StatusServiceUnavailable, statusErr.StatusCode)
	s.EqualValues(1, hits.Load())
}

// TestLookupConnectionError tests that an unreachable service is an error.
func (s *ClientTestSuite) TestLookupConnectionError() {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second, 0).Lookup(s.ctx)
	s.Error(err)
}

// TestLookupTimeout tests that a slow service is cut off.
func (s *ClientTestSuite) TestLookupTimeout() {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClient(srv.URL, 50*time.Millisecond, 0).Lookup(s.ctx)
	s.Error(err)
	s.Less(time.Since(start), 5*time.Second)
}

// TestDefaultURL tests the fallback service URL.
func (s *ClientTestSuite) TestDefaultURL() {
	s.Equal(DefaultURL, NewClient("", time.Second, 0).url)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}
