package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func rateLimitedEcho() *echo.Echo {
	e := echo.New()
	e.Use(NewRateLimiter().RateLimit())
	e.POST("/api/donations", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	})
	return e
}

func TestRateLimit_DonationCreationBurstThenBlocked(t *testing.T) {
	e := rateLimitedEcho()

	// The donation endpoint allows a burst of 5; the sixth request from
	// the same IP must be rejected and the IP blocked.
	var lastCode int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/donations", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exhausting the burst, got %d", lastCode)
	}

	// Once blocked, even a slow follow-up request is refused.
	req := httptest.NewRequest(http.MethodPost, "/api/donations", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected blocked IP to stay blocked, got %d", rec.Code)
	}
}

func TestRateLimit_DistinctIPsDoNotShareBudget(t *testing.T) {
	e := rateLimitedEcho()

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/donations", nil)
		req.RemoteAddr = "203.0.113.8:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/donations", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("a different IP must not inherit the block, got %d", rec.Code)
	}
}
