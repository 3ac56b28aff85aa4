package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestAPIKeyAuth_HashRoundTrip(t *testing.T) {
	hash, err := HashKey("s3cret-key")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-key", hash)

	auth := NewAPIKeyAuth("X-API-Key", []string{hash})
	assert.True(t, auth.IsValid("s3cret-key"))
	assert.False(t, auth.IsValid("wrong-key"))
	assert.False(t, auth.IsValid(""))
}

func TestAPIKeyAuth_EmptyHashesIgnored(t *testing.T) {
	auth := NewAPIKeyAuth("X-API-Key", []string{"", ""})
	assert.False(t, auth.IsValid("anything"))
}

func TestAPIKeyAuth_AddKeyHash(t *testing.T) {
	auth := NewAPIKeyAuth("X-API-Key", nil)
	assert.False(t, auth.IsValid("later-key"))

	hash, err := HashKey("later-key")
	require.NoError(t, err)
	auth.AddKeyHash(hash)
	assert.True(t, auth.IsValid("later-key"))
}

func TestAPIKeyAuth_Middleware(t *testing.T) {
	hash, err := HashKey("valid-key")
	require.NoError(t, err)
	auth := NewAPIKeyAuth("X-API-Key", []string{hash})
	handler := auth.Middleware(okHandler())

	// Без ключа.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_api_key")

	// Неверный ключ.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("X-API-Key", "nope")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_api_key")

	// Верный ключ в заголовке.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("X-API-Key", "valid-key")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Верный ключ через Bearer.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Authorization", "Bearer valid-key")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTimeoutMiddleware_SlowHandler(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	handler := TimeoutMiddleware(10 * time.Millisecond)(slow)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "timeout")
}

func TestTimeoutMiddleware_FastHandlerPasses(t *testing.T) {
	handler := TimeoutMiddleware(100 * time.Millisecond)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fast", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersMiddleware(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	handler := RequestSizeLimitMiddleware(16)(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/activity", strings.NewReader(strings.Repeat("x", 64)))
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/activity", strings.NewReader("small"))
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChain_OrderIsOuterFirst(t *testing.T) {
	var order []string
	tag := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(tag("outer"), tag("inner"))(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}
