package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/and161185/recipen/internal/metrics"
)

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	t.Parallel()

	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromCtx(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "given-id", seen)
	require.Equal(t, "given-id", rec.Header().Get(RequestIDHeader))
}

func TestLogging_MetadataOnlyAndMetrics(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	m := metrics.New(prometheus.NewRegistry())

	r := mux.NewRouter()
	r.Use(Logging(zap.New(core), m))
	r.HandleFunc("/api/recipes/{id}", okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/abc", strings.NewReader(`{"password":"secret"}`))
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTeapot, rec.Code)

	entries := logs.FilterMessage("http").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "/api/recipes/abc", fields["path"])
	require.EqualValues(t, http.StatusTeapot, fields["status"])
	for _, v := range fields {
		s, _ := v.(string)
		require.NotContains(t, s, "secret")
	}

	// route template keeps label cardinality bounded
	got := testutil.ToFloat64(m.HTTPRequestTotal.WithLabelValues(http.MethodPost, "/api/recipes/{id}", "418"))
	require.Equal(t, 1.0, got)
}

func TestRecover_CatchesPanic(t *testing.T) {
	t.Parallel()

	h := Recover(zaptest.NewLogger(t))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("oh no")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Internal server error", body.Message)
}

func TestRecover_NoPanicPassThrough(t *testing.T) {
	t.Parallel()

	h := Recover(zaptest.NewLogger(t))(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}

func TestSecureHeaders(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SecureHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestMaxBodySize(t *testing.T) {
	t.Parallel()

	var readErr error
	h := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	require.Error(t, readErr)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123")))
	require.NoError(t, readErr)
}

func TestTimeout_SetsDeadline(t *testing.T) {
	t.Parallel()

	var dl time.Time
	var ok bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dl, ok = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(time.Second), dl, time.Second)

	Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = r.Context().Deadline()
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, ok)
}

func TestIPRateLimiter_RejectsOverBurst(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	l := NewIPRateLimiter(60, 2, m)
	h := l.Middleware(http.HandlerFunc(okHandler))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusTeapot, do("10.0.0.1").Code)
	require.Equal(t, http.StatusTeapot, do("10.0.0.1").Code)
	rec := do("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitedTotal))

	// buckets are per IP
	require.Equal(t, http.StatusTeapot, do("10.0.0.2").Code)
}

func TestIPRateLimiter_EvictsIdleBuckets(t *testing.T) {
	t.Parallel()

	now := time.Now()
	l := NewIPRateLimiter(60, 1, nil)
	l.now = func() time.Time { return now }

	first := l.get("10.0.0.1")
	require.Same(t, first, l.get("10.0.0.1"))
	require.Len(t, l.visitors, 1)

	now = now.Add(limiterIdleTTL / 2)
	l.get("10.0.0.2")
	require.Len(t, l.visitors, 2, "not idle long enough")

	now = now.Add(limiterIdleTTL)
	l.get("10.0.0.2")
	require.Len(t, l.visitors, 1)
	require.NotContains(t, l.visitors, "10.0.0.1")

	// a returning IP starts with a fresh bucket
	require.NotSame(t, first, l.get("10.0.0.1"))
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	require.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	require.Equal(t, "198.51.100.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	require.Equal(t, "203.0.113.5", clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "no-port"
	require.Equal(t, "no-port", clientIP(req))
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code, msg := statusOf(ctx.Err())
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "Internal server error", msg)

	code, msg = statusOf(errBadJSON)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "malformed JSON body", msg)
}
