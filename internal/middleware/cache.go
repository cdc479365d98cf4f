package middleware

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"storefront/internal/caching"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// HTTPCacheKeyPrefix prefixes every cached response key.
const HTTPCacheKeyPrefix = "http_cache_"

// DefaultHTTPCacheTTL is used when HTTPCache is given a non-positive ttl.
const DefaultHTTPCacheTTL = 300 * time.Second

// HTTPCacheKey hashes the request path together with its query string.
// url.Values.Encode sorts by key, so parameter order does not matter.
func HTTPCacheKey(r *http.Request) string {
	sum := md5.Sum([]byte(r.URL.Path + "?" + r.URL.Query().Encode()))
	return HTTPCacheKeyPrefix + hex.EncodeToString(sum[:])
}

// HTTPCache serves GET responses from the cache and stores fresh 200 bodies.
// Other methods pass through untouched.
func HTTPCache(cache caching.CacheService, ttl time.Duration) echo.MiddlewareFunc {
	if ttl <= 0 {
		ttl = DefaultHTTPCacheTTL
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}

			ctx := req.Context()
			key := HTTPCacheKey(req)

			cached, err := cache.GetBytes(ctx, key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("http cache read failed")
			}
			if cached != nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSONBlob(http.StatusOK, cached)
			}

			c.Response().Header().Set("X-Cache", "MISS")
			body := new(bytes.Buffer)
			writer := &bodyCaptureWriter{Writer: io.MultiWriter(c.Response().Writer, body), ResponseWriter: c.Response().Writer}
			c.Response().Writer = writer

			if err := next(c); err != nil {
				return err
			}

			if c.Response().Status == http.StatusOK && body.Len() > 0 {
				if err := cache.SetBytes(ctx, key, body.Bytes(), ttl); err != nil {
					log.Warn().Err(err).Str("key", key).Msg("http cache write failed")
				}
			}
			return nil
		}
	}
}

type bodyCaptureWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w *bodyCaptureWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *bodyCaptureWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *bodyCaptureWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("response writer does not support hijacking")
}
