package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/logger"
	"github.com/iliyamo/room-booking/internal/utils"
)

const secret = "test-secret"

func token(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok.Token
}

// serve runs one request through mw and a handler echoing the principal.
func serve(mw echo.MiddlewareFunc, auth string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		if _, ok := PrincipalID(c); !ok {
			return c.String(http.StatusOK, "anon")
		}
		role, _ := c.Get("role").(string)
		return c.String(http.StatusOK, currentUserID(c)+":"+role)
	}, mw)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	tests := []struct {
		name   string
		auth   string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing bearer token"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "invalid token"},
		{"valid", token(t, 5, "CUSTOMER"), http.StatusOK, "5:CUSTOMER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(JWTAuth(secret), tt.auth)
			if rec.Code != tt.status || !strings.Contains(rec.Body.String(), tt.body) {
				t.Fatalf("got %d %q, want %d containing %q", rec.Code, rec.Body.String(), tt.status, tt.body)
			}
		})
	}
}

func TestOptionalJWT(t *testing.T) {
	if rec := serve(OptionalJWT(secret), ""); rec.Code != http.StatusOK || rec.Body.String() != "anon" {
		t.Fatalf("anonymous: %d %q", rec.Code, rec.Body.String())
	}
	if rec := serve(OptionalJWT(secret), "Bearer forged"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token status = %d, want 401", rec.Code)
	}
	if rec := serve(OptionalJWT(secret), token(t, 8, "CUSTOMER")); rec.Body.String() != "8:CUSTOMER" {
		t.Fatalf("authenticated body = %q", rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	chain := func(next echo.HandlerFunc) echo.HandlerFunc {
		return OptionalJWT(secret)(RequireRole("CUSTOMER")(next))
	}
	if rec := serve(chain, token(t, 1, "OWNER")); rec.Code != http.StatusForbidden {
		t.Fatalf("owner status = %d, want 403", rec.Code)
	}
	if rec := serve(chain, token(t, 1, "CUSTOMER")); rec.Code != http.StatusOK {
		t.Fatalf("customer status = %d, want 200", rec.Code)
	}
	if rec := serve(chain, ""); rec.Code != http.StatusOK {
		t.Fatalf("anonymous status = %d, want 200", rec.Code)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	e := echo.New()
	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = logger.RequestID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}, RequestID())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	got := rec.Header().Get(echo.HeaderXRequestID)
	if got == "" || got != seen {
		t.Fatalf("header %q, context %q", got, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Header().Get(echo.HeaderXRequestID) != "abc-123" || seen != "abc-123" {
		t.Fatalf("incoming id not reused: header %q context %q", rec.Header().Get(echo.HeaderXRequestID), seen)
	}
}

func TestRequestLoggerReportsHandlerErrorStatus(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	}, RequestLogger(zap.NewNop()))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Code)
	}
}

func TestCacheKeyFor(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	a := CacheKeyFor(cfg, "GET", "/v1/products/1", "")
	b := CacheKeyFor(cfg, "GET", "/v1/products/2", "")
	c := CacheKeyFor(cfg, "GET", "/v1/products/1", "x=1")
	if a == b || a == c {
		t.Fatalf("keys collide: %s %s %s", a, b, c)
	}
	if !strings.HasPrefix(a, "cache:/v1/products/1:") {
		t.Fatalf("key %q does not start with prefix:path:", a)
	}
	cfg.KeyStrategy = "route"
	if CacheKeyFor(cfg, "GET", "/p", "a=1") != CacheKeyFor(cfg, "HEAD", "/p", "b=2") {
		t.Fatal("route strategy must ignore method and query")
	}
}

func TestPayloadEncoding(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"id":1}`))
	if err != nil {
		t.Fatal(err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != `{"id":1}` {
		t.Fatalf("decode = %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload(bs[:6]); ok {
		t.Fatal("short payload must not decode")
	}
}

func TestRedisBackedMiddlewarePassThroughWithoutClient(t *testing.T) {
	log := zap.NewNop()
	for name, mw := range map[string]echo.MiddlewareFunc{
		"cache":     NewRedisCache(config.CacheConfig{Enabled: true}, nil, log),
		"ratelimit": NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, log),
	} {
		if rec := serve(mw, ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", name, rec.Code)
		}
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/bookings")
	c.Set("user_id", uint64(9))

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user"}
	if got := buildRateKey(cfg, c); got != "rl:ip:10.0.0.1:user:9" {
		t.Fatalf("key = %q", got)
	}
	cfg.KeyStrategy = ""
	if got := buildRateKey(cfg, c); got != "rl:ip:10.0.0.1:user:9:route:POST /v1/bookings" {
		t.Fatalf("default key = %q", got)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	for ms, want := range map[int64]int{0: 0, 1: 1, 1000: 1, 1001: 2, -5: 0} {
		if got := retryAfterSeconds(ms); got != want {
			t.Fatalf("retryAfterSeconds(%d) = %d, want %d", ms, got, want)
		}
	}
}
