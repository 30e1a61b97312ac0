package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/novamovie/ticket-booking/internal/config"
)

func cacheTestContext(target, routeTemplate string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(routeTemplate)
	return c
}

// Seat maps for different movies share one route template; their cache
// keys must still be distinct or one movie's occupancy would be served
// for every movie within the TTL.
func TestCacheKeySeparatesPathParams(t *testing.T) {
	cfg := config.CacheConfig{KeyStrategy: "route_query", Prefix: "cache"}

	k1 := cacheKey(cfg, cacheTestContext("/v1/movies/1/seats", "/v1/movies/:id/seats"))
	k2 := cacheKey(cfg, cacheTestContext("/v1/movies/2/seats", "/v1/movies/:id/seats"))
	if k1 == k2 {
		t.Fatalf("cache key %q shared across different movie paths", k1)
	}

	for _, strategy := range []string{"route", "method_route", "method_route_query"} {
		cfg.KeyStrategy = strategy
		a := cacheKey(cfg, cacheTestContext("/v1/movies/1/seats", "/v1/movies/:id/seats"))
		b := cacheKey(cfg, cacheTestContext("/v1/movies/2/seats", "/v1/movies/:id/seats"))
		if a == b {
			t.Errorf("strategy %q: cache key %q shared across different movie paths", strategy, a)
		}
	}
}

func TestCacheKeyStableForSameRequest(t *testing.T) {
	cfg := config.CacheConfig{KeyStrategy: "route_query", Prefix: "cache"}

	k1 := cacheKey(cfg, cacheTestContext("/v1/movies/active", "/v1/movies/active"))
	k2 := cacheKey(cfg, cacheTestContext("/v1/movies/active", "/v1/movies/active"))
	if k1 != k2 {
		t.Errorf("keys differ for identical requests: %q vs %q", k1, k2)
	}

	withQuery := cacheKey(cfg, cacheTestContext("/v1/movies/active?x=1", "/v1/movies/active"))
	if withQuery == k1 {
		t.Error("query string did not contribute to route_query key")
	}
}
