package common

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type RoundTripWrapper func(req *http.Request, next http.RoundTripper) (*http.Response, error)

func WrapHTTPClient(client *http.Client, wrap RoundTripWrapper) {
	if client == nil {
		return
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	client.Transport = roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return wrap(req, base)
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// CacheTransport keeps successful GET responses in memory for a fixed time.
type CacheTransport struct {
	cache *expirable.LRU[string, []byte]
}

func NewCacheTransport(cacheSize int, expiration time.Duration) *CacheTransport {
	return &CacheTransport{
		cache: expirable.NewLRU[string, []byte](cacheSize, nil, expiration),
	}
}

func (c *CacheTransport) Len() int {
	return c.cache.Len()
}

func (c *CacheTransport) Handler() RoundTripWrapper {
	return func(req *http.Request, next http.RoundTripper) (*http.Response, error) {
		if req.Method != http.MethodGet {
			return next.RoundTrip(req)
		}

		key := cacheKey(req)
		if val, ok := c.cache.Get(key); ok {
			slog.Debug("http cache hit", "url", req.URL.String())
			return responseFromBytes(val, req)
		}

		resp, err := next.RoundTrip(req)
		if err != nil {
			return resp, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp, nil
		}

		v, err := httputil.DumpResponse(resp, true)
		if err != nil {
			slog.Warn("could not dump response, not caching", "err", err)
			return resp, nil
		}
		c.cache.Add(key, v)
		return responseFromBytes(v, req)
	}
}

func responseFromBytes(v []byte, req *http.Request) (*http.Response, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(v)), req)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached response: %w", err)
	}
	return resp, nil
}

func cacheKey(req *http.Request) string {
	h := sha256.New()
	h.Write([]byte(req.URL.String()))
	h.Write([]byte(req.Header.Get("Accept")))
	h.Write([]byte(req.Header.Get("Authorization")))
	return fmt.Sprintf("%x", h.Sum(nil))
}
