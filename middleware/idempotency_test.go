package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

// testStack wires store -> middleware -> a counting handler, the way the
// donation creation route is wired in production.
func testStack(store IdempotencyStore) (*echo.Echo, *int64) {
	var handled int64
	e := echo.New()
	idem := NewIdempotency(store)
	e.POST("/api/donations", func(c echo.Context) error {
		atomic.AddInt64(&handled, 1)
		return c.JSON(http.StatusCreated, map[string]string{
			"message":   "Donation initiated",
			"reference": "DON-123",
		})
	}, idem.Middleware())
	return e, &handled
}

func makeRequest(e *echo.Echo, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/donations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const donationBody = `{"amount": 50000, "type": "education", "fullName": "Jane Doe", "email": "jane@example.com"}`

func TestIdempotency_NoKey_PassesThrough(t *testing.T) {
	e, handled := testStack(NewMemoryIdempotencyStore(time.Hour))

	makeRequest(e, "", donationBody)
	makeRequest(e, "", donationBody)

	if *handled != 2 {
		t.Errorf("requests without a key must not be deduplicated, handled %d", *handled)
	}
}

func TestIdempotency_FirstRequest_ProcessedAndCached(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	e, handled := testStack(store)

	rec := makeRequest(e, "key-001", donationBody)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d — body: %s", rec.Code, rec.Body.String())
	}
	if *handled != 1 {
		t.Errorf("expected 1 handler call, got %d", *handled)
	}
	if rec.Header().Get("X-Idempotency-Cache") == "HIT" {
		t.Error("first request must not be a cache hit")
	}

	record, err := store.Get(context.Background(), "key-001")
	if err != nil || record == nil {
		t.Fatalf("expected a cached record, got %v / %v", record, err)
	}
	if record.State != IdempotencyStateComplete {
		t.Errorf("expected complete record, got %q", record.State)
	}
}

func TestIdempotency_Replay_ReturnsCachedResponseWithoutReprocessing(t *testing.T) {
	e, handled := testStack(NewMemoryIdempotencyStore(time.Hour))

	first := makeRequest(e, "key-002", donationBody)
	second := makeRequest(e, "key-002", donationBody)

	if *handled != 1 {
		t.Errorf("replay must not reach the handler, handled %d", *handled)
	}
	if second.Header().Get("X-Idempotency-Cache") != "HIT" {
		t.Error("replay must be marked as a cache hit")
	}
	if second.Code != first.Code || second.Body.String() != first.Body.String() {
		t.Errorf("replay must return the original response; got %d %s vs %d %s",
			second.Code, second.Body.String(), first.Code, first.Body.String())
	}
}

func TestIdempotency_SameKeyDifferentBody_Conflicts(t *testing.T) {
	e, handled := testStack(NewMemoryIdempotencyStore(time.Hour))

	makeRequest(e, "key-003", donationBody)
	rec := makeRequest(e, "key-003", `{"amount": 999, "type": "general", "fullName": "Jane Doe", "email": "jane@example.com"}`)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for reused key with different body, got %d", rec.Code)
	}
	if *handled != 1 {
		t.Errorf("conflicting request must not reach the handler, handled %d", *handled)
	}
}

func TestIdempotency_InFlightKey_Conflicts(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	e, handled := testStack(store)

	claimed, err := store.SetProcessing(context.Background(), "key-004", hashBody([]byte(donationBody)))
	if err != nil || !claimed {
		t.Fatalf("failed to claim key: %v / %v", claimed, err)
	}

	rec := makeRequest(e, "key-004", donationBody)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 while the first request is in flight, got %d", rec.Code)
	}
	if *handled != 0 {
		t.Errorf("in-flight duplicate must not reach the handler, handled %d", *handled)
	}
}

func TestMemoryStore_ExpiredRecordsAreGone(t *testing.T) {
	store := NewMemoryIdempotencyStore(10 * time.Millisecond)

	store.SetComplete(context.Background(), "key-005", &IdempotencyRecord{
		BodyHash:   "abc",
		StatusCode: http.StatusCreated,
	})

	time.Sleep(20 * time.Millisecond)

	record, err := store.Get(context.Background(), "key-005")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record != nil {
		t.Error("expected the record to have expired")
	}
}
