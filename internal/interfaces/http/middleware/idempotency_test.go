package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/freelance/backend/internal/domain/shared"
	"github.com/freelance/backend/internal/infrastructure/cache"
	"github.com/freelance/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotentRouter(t *testing.T, store shared.IdempotencyStore, status *int) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-Test-User"); v != "" {
			c.Set(JWTUserIDKey, uuid.MustParse(v))
		}
	}, Idempotency(store, time.Hour))
	handler := func(c *gin.Context) { c.Status(*status) }
	router.POST("/invoices/:id/payments", handler)
	router.GET("/invoices/:id/payments", handler)
	return router
}

func idempotentRequest(method, path, key, user string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	return req
}

func TestIdempotency(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	status := http.StatusCreated
	router := newIdempotentRouter(t, store, &status)
	user := uuid.NewString()
	path := "/invoices/" + uuid.NewString() + "/payments"

	t.Run("repeated key is rejected", func(t *testing.T) {
		w := serve(router, idempotentRequest(http.MethodPost, path, "k1", user))
		assert.Equal(t, http.StatusCreated, w.Code)

		w = serve(router, idempotentRequest(http.MethodPost, path, "k1", user))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeDuplicateRequest, decodeError(t, w).Code)
	})

	t.Run("keys are scoped per user and path", func(t *testing.T) {
		w := serve(router, idempotentRequest(http.MethodPost, path, "k1", uuid.NewString()))
		assert.Equal(t, http.StatusCreated, w.Code)

		w = serve(router, idempotentRequest(http.MethodPost, "/invoices/"+uuid.NewString()+"/payments", "k1", user))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("failed requests release the key", func(t *testing.T) {
		status = http.StatusUnprocessableEntity
		w := serve(router, idempotentRequest(http.MethodPost, path, "k2", user))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		status = http.StatusCreated
		w = serve(router, idempotentRequest(http.MethodPost, path, "k2", user))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("reads and keyless requests pass through", func(t *testing.T) {
		for range 2 {
			assert.Equal(t, http.StatusCreated, serve(router, idempotentRequest(http.MethodGet, path, "k1", user)).Code)
			assert.Equal(t, http.StatusCreated, serve(router, idempotentRequest(http.MethodPost, path, "", user)).Code)
		}
	})
}

type unavailableStore struct{ shared.IdempotencyStore }

func (unavailableStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func TestIdempotency_StoreFailuresFailOpen(t *testing.T) {
	status := http.StatusCreated
	router := newIdempotentRouter(t, unavailableStore{}, &status)

	for range 2 {
		w := serve(router, idempotentRequest(http.MethodPost, "/invoices/x/payments", "k", ""))
		require.Equal(t, http.StatusCreated, w.Code)
	}
}
