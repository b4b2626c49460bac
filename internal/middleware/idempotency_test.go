package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func withActor(r *http.Request, actor Actor) *http.Request {
	return r.WithContext(WithActor(r.Context(), actor))
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	cache, _ := newTestCache(t)

	var calls int32
	handler := Idempotency(cache, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Location", "/api/topups/req-1")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"call":%d}`, n)
	}))

	first := httptest.NewRecorder()
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/topups", nil), Actor{ID: 1, Role: RoleClient})
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(first, req)

	require.Equal(t, http.StatusCreated, first.Code)
	assert.JSONEq(t, `{"call":1}`, first.Body.String())

	second := httptest.NewRecorder()
	req = withActor(httptest.NewRequest(http.MethodPost, "/api/topups", nil), Actor{ID: 1, Role: RoleClient})
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(second, req)

	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, `{"call":1}`, second.Body.String(), "repeat must replay, not re-execute")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, "/api/topups/req-1", second.Header().Get("Location"), "replay must restore the stored headers")
}

func TestIdempotency_ConcurrentRequestsClaimOnce(t *testing.T) {
	cache, _ := newTestCache(t)

	var calls int32
	handler := Idempotency(cache, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"act-1"}`)
	}))

	const workers = 32
	codes := make([]int, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			req := withActor(httptest.NewRequest(http.MethodPost, "/api/actions", nil), Actor{ID: 100, Role: RoleAdmin})
			req.Header.Set("Idempotency-Key", "burst-key")
			handler.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&calls), "exactly one request may win the claim")
	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.GreaterOrEqual(t, created, 1, "the winner and any post-completion repeats see the stored response")
}

func TestIdempotency_MissingKeyIsRejected(t *testing.T) {
	cache, _ := newTestCache(t)

	handler := Idempotency(cache, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a key")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/topups", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdempotency_SafeMethodsBypassTheCache(t *testing.T) {
	cache, _ := newTestCache(t)

	var calls int32
	handler := Idempotency(cache, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wallet", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestIdempotency_InProgressRequestConflicts(t *testing.T) {
	cache, mr := newTestCache(t)

	require.NoError(t, mr.Set("idempotency:v1:client:1:key-1", inProgressMarker))

	handler := Idempotency(cache, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run while the first attempt is in flight")
	}))

	rec := httptest.NewRecorder()
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/topups", nil), Actor{ID: 1, Role: RoleClient})
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIdempotency_KeysAreScopedPerActor(t *testing.T) {
	cache, _ := newTestCache(t)

	var calls int32
	handler := Idempotency(cache, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))

	for _, actor := range []Actor{{ID: 1, Role: RoleClient}, {ID: 2, Role: RoleClient}} {
		rec := httptest.NewRecorder()
		req := withActor(httptest.NewRequest(http.MethodPost, "/api/withdrawals", nil), actor)
		req.Header.Set("Idempotency-Key", "shared-token")
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "same key from different actors must not collide")
}

func TestIdempotency_ServerErrorReleasesTheClaim(t *testing.T) {
	cache, _ := newTestCache(t)

	var calls int32
	handler := Idempotency(cache, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/topups", nil), Actor{ID: 1, Role: RoleClient})
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	req = withActor(httptest.NewRequest(http.MethodPost, "/api/topups", nil), Actor{ID: 1, Role: RoleClient})
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "failed attempts must be retryable")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
