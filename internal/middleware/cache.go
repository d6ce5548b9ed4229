package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const cachePrefix = "reflist"

// captureWriter tees the response body so a successful reply can be stored
// in Redis after it has been sent to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// ReferenceListCache caches JSON responses of the tenant-scoped reference
// list endpoints (cities, instruments, ministry roles). The key includes
// the tenant id from the caller's claims, so tenants never see each other's
// entries. Admin mutations call InvalidateReferenceLists to drop the
// tenant's keys. With a nil client the middleware is a pass-through.
func ReferenceListCache(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	if rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil || c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := cacheKey(claims.TenantID, c.Path())
			ctx := c.Request().Context()

			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSONBlob(http.StatusOK, body)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK && cw.buf.Len() > 0 {
				_ = rdb.SetEx(context.Background(), key, cw.buf.Bytes(), ttl).Err()
			}
			return nil
		}
	}
}

// InvalidateReferenceLists drops every cached reference list of a tenant.
// Called after an admin creates or deletes a city or instrument.
func InvalidateReferenceLists(ctx context.Context, rdb *redis.Client, tenantID uint64) {
	if rdb == nil {
		return
	}
	pattern := cacheKey(tenantID, "*")
	iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = rdb.Del(ctx, keys...).Err()
	}
}

func cacheKey(tenantID uint64, route string) string {
	return fmt.Sprintf("%s:%d:%s", cachePrefix, tenantID, strings.TrimPrefix(route, "/"))
}
