package transaction

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursecart/server/internal/module/auth"
	"github.com/coursecart/server/internal/shared/response"
)

// Handler exposes the transaction history over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a new transaction handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers transaction routes on the authed group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/payments/transactions", h.List)
}

// List handles GET /payments/transactions.
func (h *Handler) List(c *gin.Context) {
	parentID := c.MustGet(auth.ContextKeyUserID).(uuid.UUID)

	txs, err := h.service.List(c.Request.Context(), parentID)
	if err != nil {
		response.HandleErrorWithDefault(c, err, nil)
		return
	}

	response.Success(c, gin.H{"transactions": txs, "count": len(txs)})
}
