package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/medialab/equipment-booking/internal/config"
	"github.com/medialab/equipment-booking/internal/model"
	"github.com/medialab/equipment-booking/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, userID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

// whoami echoes the principal so tests can see what JWTAuth stored.
func whoami(c echo.Context) error {
	p, ok := Principal(c)
	if !ok {
		return c.NoContent(http.StatusTeapot)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": p.UserID, "admin": p.IsAdmin})
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	rec := serve(e, http.MethodGet, "/me", bearer(t, 7, model.RoleUser))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7,"admin":false}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/me", bearer(t, 1, "admin"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":1,"admin":true}`, rec.Body.String())

	numeric, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 9, "exp": time.Now().Add(time.Minute).Unix()}).
		SignedString([]byte(secret))
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/me", "Bearer "+numeric)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":9,"admin":false}`, rec.Body.String())
}

func TestJWTAuth_Rejects(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	expired, err := utils.NewAccessToken(secret, 7, model.RoleUser, -time.Minute)
	require.NoError(t, err)
	wrongKey, err := utils.NewAccessToken("other", 7, model.RoleUser, time.Hour)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "7"}).SignedString([]byte(secret))
	require.NoError(t, err)
	exp := time.Now().Add(time.Hour).Unix()
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "USER", "exp": exp}).SignedString([]byte(secret))
	require.NoError(t, err)
	badSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice", "exp": exp}).SignedString([]byte(secret))
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7", "role": "USER"}).SignedString([]byte(secret))
	require.NoError(t, err)

	cases := map[string]struct {
		auth string
		want string
	}{
		"missing header": {"", "missing bearer token"},
		"basic auth":     {"Basic dXNlcjpwYXNz", "missing bearer token"},
		"expired":        {"Bearer " + expired.Token, "invalid token"},
		"wrong key":      {"Bearer " + wrongKey.Token, "invalid token"},
		"other alg":      {"Bearer " + hs512, "invalid token"},
		"no expiry":      {"Bearer " + noExp, "invalid token"},
		"no subject":     {"Bearer " + noSub, "invalid claims"},
		"bad subject":    {"Bearer " + badSub, "invalid claims"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, "/me", tc.auth)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(secret), RequireRole(model.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", bearer(t, 7, model.RoleUser)).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin", bearer(t, 1, model.RoleAdmin)).Code)
}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestTokenBucket(t *testing.T) {
	rdb, _ := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 2 * time.Hour, KeyStrategy: "user", Prefix: "rl",
	}
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret), NewTokenBucket(cfg, rdb, zap.NewNop()))

	auth := bearer(t, 7, model.RoleUser)
	rec := serve(e, http.MethodGet, "/me", auth)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/me", auth).Code)

	rec = serve(e, http.MethodGet, "/me", auth)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too_many_requests")

	// another user has their own bucket
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/me", bearer(t, 8, model.RoleUser)).Code)
}

func TestTokenBucket_RedisDownLetsThrough(t *testing.T) {
	rdb, mr := newRedis(t)
	mr.Close()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb, zap.NewNop()))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/ping", "").Code)
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/holds/abc", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/holds/:id")
	c.Set(CtxUserID, uint64(5))

	assert.Equal(t, "rl:ip:10.0.0.1", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:user:5:route:GET /v1/holds/:id", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}, c))
	assert.Equal(t, "rl:ip:10.0.0.1:user:5:route:GET /v1/holds/:id", rateKey(config.RateLimitConfig{Prefix: "rl"}, c))
}

func TestRedisCache(t *testing.T) {
	rdb, mr := newRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{http.MethodGet: true},
		TTL: 5 * time.Second, KeyStrategy: "route_query", Prefix: "eqcache", MaxBodyBytes: 1 << 10,
	}
	calls := 0
	e := echo.New()
	e.GET("/v1/console-types", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	}, NewRedisCache(cfg, rdb, zap.NewNop()))

	first := serve(e, http.MethodGet, "/v1/console-types", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(e, http.MethodGet, "/v1/console-types", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get(echo.HeaderContentType), "application/json")
	assert.Equal(t, 1, calls)

	// a different query string is a different entry
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/v1/console-types?x=1", "").Header().Get("X-Cache"))

	mr.FastForward(6 * time.Second)
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/v1/console-types", "").Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestRedisCache_SkipsErrorsAndLargeBodies(t *testing.T) {
	rdb, mr := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "c", MaxBodyBytes: 8}
	e := echo.New()
	e.GET("/big", func(c echo.Context) error { return c.String(http.StatusOK, "0123456789abcdef") }, NewRedisCache(cfg, rdb, zap.NewNop()))
	e.GET("/fail", func(c echo.Context) error { return c.String(http.StatusInternalServerError, "no") }, NewRedisCache(cfg, rdb, zap.NewNop()))

	assert.Equal(t, "0123456789abcdef", serve(e, http.MethodGet, "/big", "").Body.String())
	serve(e, http.MethodGet, "/fail", "")
	assert.Empty(t, mr.Keys())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	serve(e, http.MethodGet, "/ok", "")
	rec := serve(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusNoContent), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "/boom", entries[1].ContextMap()["route"])
}
