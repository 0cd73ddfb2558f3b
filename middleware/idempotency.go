package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Idempotency record states.
const (
	IdempotencyStateProcessing = "processing"
	IdempotencyStateComplete   = "complete"
)

// IdempotencyRecord is what the store keeps per key: the request body hash
// for conflict detection plus the cached response for replays.
type IdempotencyRecord struct {
	State       string `json:"state"`
	BodyHash    string `json:"bodyHash"`
	StatusCode  int    `json:"statusCode"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// IdempotencyStore persists idempotency records with a TTL.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// SetProcessing claims the key. It returns false without writing when
	// the key is already claimed.
	SetProcessing(ctx context.Context, key, bodyHash string) (bool, error)
	SetComplete(ctx context.Context, key string, record *IdempotencyRecord) error
	Delete(ctx context.Context, key string) error
}

// Idempotency deduplicates donation creation. The flow:
//  1. No Idempotency-Key header -> pass through (the header is optional
//     for this API; browsers retrying a donation form send one).
//  2. Key not seen before -> process normally, cache the response.
//  3. Key seen, still processing -> 409, the first request is in flight.
//  4. Key seen, complete, same body -> replay the cached response.
//  5. Key seen, complete, different body -> 409 conflict.
type Idempotency struct {
	store IdempotencyStore
}

func NewIdempotency(store IdempotencyStore) *Idempotency {
	return &Idempotency{store: store}
}

func (i *Idempotency) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get("Idempotency-Key")
			if key == "" {
				return next(c)
			}

			ctx := c.Request().Context()

			// Reading the body drains the reader; restore it so the
			// handler can bind it normally.
			rawBody, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"message": "failed to read request body",
				})
			}
			c.Request().Body = io.NopCloser(bytes.NewBuffer(rawBody))

			bodyHash := hashBody(rawBody)

			existing, err := i.store.Get(ctx, key)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"message": "idempotency store unavailable",
				})
			}

			if existing != nil {
				if existing.State == IdempotencyStateProcessing {
					return c.JSON(http.StatusConflict, map[string]string{
						"message": "a request with this Idempotency-Key is still being processed",
					})
				}

				if existing.BodyHash != bodyHash {
					return c.JSON(http.StatusConflict, map[string]string{
						"message": "Idempotency-Key was already used with a different request body",
					})
				}

				c.Response().Header().Set("X-Idempotency-Cache", "HIT")
				contentType := existing.ContentType
				if contentType == "" {
					contentType = echo.MIMEApplicationJSON
				}
				return c.Blob(existing.StatusCode, contentType, existing.Body)
			}

			claimed, err := i.store.SetProcessing(ctx, key, bodyHash)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"message": "idempotency store unavailable",
				})
			}
			if !claimed {
				// Lost the race to a concurrent request with the same key.
				return c.JSON(http.StatusConflict, map[string]string{
					"message": "a request with this Idempotency-Key is still being processed",
				})
			}

			recorder := &responseRecorder{ResponseWriter: c.Response().Writer, statusCode: http.StatusOK}
			c.Response().Writer = recorder

			if err := next(c); err != nil {
				// Let a retry reprocess rather than caching an error.
				i.store.Delete(ctx, key)
				return err
			}

			record := &IdempotencyRecord{
				State:       IdempotencyStateComplete,
				BodyHash:    bodyHash,
				StatusCode:  recorder.statusCode,
				ContentType: recorder.Header().Get(echo.HeaderContentType),
				Body:        recorder.body.Bytes(),
			}
			if err := i.store.SetComplete(ctx, key, record); err != nil {
				// The response already went out; the worst case is a
				// duplicate charge attempt on retry, which the gateway's
				// own reference dedup catches.
				c.Logger().Errorf("failed to cache idempotent response: %v", err)
			}

			return nil
		}
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

// WriteHeader intercepts the status code before it goes out to the client.
func (rr *responseRecorder) WriteHeader(code int) {
	rr.statusCode = code
	rr.ResponseWriter.WriteHeader(code)
}

// Write intercepts the body bytes, writing to both the buffer (for the
// cache) and the real ResponseWriter.
func (rr *responseRecorder) Write(b []byte) (int, error) {
	rr.body.Write(b)
	return rr.ResponseWriter.Write(b)
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// defaultIdempotencyTTL bounds how long a key blocks reuse.
const defaultIdempotencyTTL = 24 * time.Hour
