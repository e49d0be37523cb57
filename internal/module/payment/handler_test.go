package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursecart/server/internal/module/auth"
)

func newTestRouter(env *testEnv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(env.svc)

	public := router.Group("/api/v1")
	authed := router.Group("/api/v1")
	authed.Use(func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, env.parentID)
	})
	handler.RegisterRoutes(public, authed)
	return router
}

func TestHandler_Create_BindsCartItemIDs(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	body := fmt.Sprintf(`{"cart_item_ids":[%q,%q],"description":"fall enrollment"}`,
		env.itemIDs[0], env.itemIDs[1])
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, env.itemIDs, env.aggregator.lastIDs)

	var view paymentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, int64(28000), view.Amount)
	assert.Equal(t, StatusPending, view.Status)
}

func TestHandler_Create_MissingCartItemIDsRejected(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewBufferString(`{"description":"no lines"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.repo.payments)
}
