package cart

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursecart/server/internal/module/auth"
	"github.com/coursecart/server/internal/shared/response"
)

// Handler exposes cart operations over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a new cart handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers cart routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	carts := rg.Group("/cart")
	{
		carts.GET("", h.ListItems)
		carts.POST("", h.AddItem)
		carts.DELETE("/:id", h.RemoveItem)
	}
}

var cartErrorMappings = []response.ErrorMapping{
	{Err: ErrCartItemNotFound, Status: http.StatusNotFound},
	{Err: ErrCourseUnavailable, Status: http.StatusUnprocessableEntity},
	{Err: ErrChildNotOwned, Status: http.StatusForbidden},
	{Err: ErrInvalidQuantity, Status: http.StatusBadRequest},
	{Err: ErrDuplicateCartItem, Status: http.StatusConflict},
}

type addItemRequest struct {
	CourseID uuid.UUID `json:"course_id" binding:"required"`
	ChildID  uuid.UUID `json:"child_id" binding:"required"`
	Quantity int       `json:"quantity"`
}

// AddItem handles POST /cart.
func (h *Handler) AddItem(c *gin.Context) {
	parentID := c.MustGet(auth.ContextKeyUserID).(uuid.UUID)

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.service.AddItem(c.Request.Context(), parentID, req.CourseID, req.ChildID, req.Quantity)
	if err != nil {
		response.HandleErrorWithDefault(c, err, cartErrorMappings)
		return
	}

	response.Created(c, item)
}

// ListItems handles GET /cart.
func (h *Handler) ListItems(c *gin.Context) {
	parentID := c.MustGet(auth.ContextKeyUserID).(uuid.UUID)

	items, err := h.service.ListItems(c.Request.Context(), parentID)
	if err != nil {
		response.HandleErrorWithDefault(c, err, cartErrorMappings)
		return
	}

	response.Success(c, gin.H{"items": items, "count": len(items)})
}

// RemoveItem handles DELETE /cart/:id.
func (h *Handler) RemoveItem(c *gin.Context) {
	parentID := c.MustGet(auth.ContextKeyUserID).(uuid.UUID)

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid cart item id")
		return
	}

	if err := h.service.RemoveItem(c.Request.Context(), parentID, itemID); err != nil {
		response.HandleErrorWithDefault(c, err, cartErrorMappings)
		return
	}

	response.NoContent(c)
}
