package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/josh-kwaku/fundledger/internal/auth"
	"github.com/josh-kwaku/fundledger/internal/handler"
	"github.com/josh-kwaku/fundledger/internal/logging"
	"github.com/josh-kwaku/fundledger/internal/repository"
)

// IdempotencyStore is satisfied by *repository.IdempotencyRepository.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, userID uuid.UUID) (*repository.IdempotencyCacheEntry, error)
	Set(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
}

const (
	idempotencyTTL    = 24 * time.Hour
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "X-Idempotent-Replayed"
)

type capturedResponse struct {
	requestHash string
	status      int
	header      http.Header
	body        []byte
	fromCache   bool
}

// Idempotency makes mutating requests safe to retry. The first response for
// a (caller, key) pair is stored and replayed for later requests with the
// same body; a different body under the same key is a conflict. Concurrent
// duplicates on this instance are collapsed into a single execution.
// Server errors are not stored so a retry can still succeed.
func Idempotency(repo IdempotencyStore) func(http.Handler) http.Handler {
	var inflight singleflight.Group

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(idempotencyHeader)
			if key == "" {
				handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
				return
			}

			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, body)
			log := logging.FromContext(r.Context())

			executed := false
			v, err, _ := inflight.Do(userID.String()+"|"+key, func() (any, error) {
				cached, err := repo.Get(r.Context(), key, userID)
				if err != nil {
					return nil, fmt.Errorf("idempotency lookup: %w", err)
				}
				if cached != nil {
					return &capturedResponse{
						requestHash: cached.RequestHash,
						status:      cached.StatusCode,
						header:      http.Header{"Content-Type": []string{"application/json"}},
						body:        cached.ResponseBody,
						fromCache:   true,
					}, nil
				}

				executed = true
				rec := newBufferedResponse()
				next.ServeHTTP(rec, r)

				resp := &capturedResponse{
					requestHash: reqHash,
					status:      rec.status,
					header:      rec.header,
					body:        rec.body.Bytes(),
				}
				if rec.status >= http.StatusInternalServerError {
					return resp, nil
				}

				now := time.Now().UTC()
				entry := &repository.IdempotencyCacheEntry{
					Key:          key,
					UserID:       userID,
					RequestHash:  reqHash,
					StatusCode:   rec.status,
					ResponseBody: resp.body,
					CreatedAt:    now,
					ExpiresAt:    now.Add(idempotencyTTL),
				}
				if err := repo.Set(r.Context(), entry); err != nil {
					log.Error("idempotency cache store failed", "error", err, "idempotency_key", key)
				}
				return resp, nil
			})
			if err != nil {
				log.Error("idempotency cache lookup failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}

			resp := v.(*capturedResponse)
			if resp.requestHash != reqHash {
				handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
				return
			}

			for k, vals := range resp.header {
				w.Header()[k] = vals
			}
			if !executed {
				w.Header().Set(replayedHeader, "true")
			}
			w.WriteHeader(resp.status)
			if _, err := w.Write(resp.body); err != nil {
				log.Error("failed to write idempotent response", "error", err, "idempotency_key", key)
			}
		})
	}
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// bufferedResponse holds the handler's response until the idempotency
// middleware decides who receives it.
type bufferedResponse struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        *bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK, body: &bytes.Buffer{}}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) {
	if b.wroteHeader {
		return
	}
	b.wroteHeader = true
	b.status = code
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.body.Write(p)
}
