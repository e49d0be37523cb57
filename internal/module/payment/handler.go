package payment

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursecart/server/internal/module/auth"
	"github.com/coursecart/server/internal/module/cart"
	"github.com/coursecart/server/internal/module/payment/gateway"
	"github.com/coursecart/server/internal/shared/response"
)

// Handler exposes the payment ledger over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers payment routes. Webhook and return are
// called by the gateway and the buyer's browser and stay public; the
// rest requires the parent's token.
func (h *Handler) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.POST("/payments/webhook/:provider", h.Webhook)
	public.GET("/payments/return/:orderCode", h.Return)

	authed.POST("/payments", h.Create)
	authed.GET("/payments/:orderCode", h.Get)
	authed.PUT("/payments/:orderCode/cancel", h.Cancel)
}

var paymentErrorMappings = []response.ErrorMapping{
	{Err: ErrUnknownOrder, Status: http.StatusNotFound},
	{Err: ErrSettlementConflict, Status: http.StatusConflict},
	{Err: ErrAmountMismatch, Status: http.StatusConflict},
	{Err: ErrInvalidTransition, Status: http.StatusConflict},
	{Err: ErrNotOwner, Status: http.StatusForbidden},
	{Err: ErrInvalidAmount, Status: http.StatusUnprocessableEntity},
	{Err: cart.ErrEmptyCart, Status: http.StatusUnprocessableEntity},
	{Err: cart.ErrCartItemNotFound, Status: http.StatusNotFound},
	{Err: cart.ErrDuplicateSelection, Status: http.StatusUnprocessableEntity},
	{Err: cart.ErrCourseUnavailable, Status: http.StatusUnprocessableEntity},
	{Err: cart.ErrChildNotOwned, Status: http.StatusForbidden},
	{Err: gateway.ErrUnknownProvider, Status: http.StatusBadRequest},
	{Err: gateway.ErrUnavailable, Status: http.StatusServiceUnavailable},
	{Err: gateway.ErrRejected, Status: http.StatusBadGateway},
	{Err: gateway.ErrInvalidSignature, Status: http.StatusBadRequest},
}

type createPaymentRequest struct {
	CartItemIDs []uuid.UUID `json:"cart_item_ids" binding:"required,min=1"`
	Provider    string      `json:"provider"`
	Description string      `json:"description"`
}

type paymentView struct {
	OrderCode   string            `json:"order_code"`
	Status      Status            `json:"status"`
	Amount      int64             `json:"amount"`
	Provider    string            `json:"provider"`
	PaymentURL  string            `json:"payment_url,omitempty"`
	Description string            `json:"description,omitempty"`
	ExpiresAt   string            `json:"expires_at"`
	SettledAt   string            `json:"settled_at,omitempty"`
	Items       []paymentItemView `json:"items,omitempty"`
}

type paymentItemView struct {
	CourseID    uuid.UUID `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	ChildID     uuid.UUID `json:"child_id"`
	ChildName   string    `json:"child_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	Subtotal    int64     `json:"subtotal"`
}

func toPaymentView(p *Payment) paymentView {
	view := paymentView{
		OrderCode:   p.OrderCode,
		Status:      p.Status,
		Amount:      p.Amount,
		Provider:    p.Provider,
		PaymentURL:  p.PaymentURL,
		Description: p.Description,
		ExpiresAt:   p.ExpiresAt.Format(time.RFC3339),
	}
	if p.SettledAt != nil {
		view.SettledAt = p.SettledAt.Format(time.RFC3339)
	}
	for _, item := range p.Items {
		view.Items = append(view.Items, paymentItemView{
			CourseID:    item.CourseID,
			CourseTitle: item.CourseTitle,
			ChildID:     item.ChildID,
			ChildName:   item.ChildName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		})
	}
	return view
}

// Create handles POST /payments.
func (h *Handler) Create(c *gin.Context) {
	parentID := c.MustGet(auth.ContextKeyUserID).(uuid.UUID)

	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	p, err := h.service.CreatePayment(c.Request.Context(), parentID, req.CartItemIDs, req.Provider, req.Description)
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	response.Created(c, toPaymentView(p))
}

// Webhook handles POST /payments/webhook/:provider. The raw body is
// handed to the provider adapter for signature verification; the ack
// body is whatever the gateway expects on success.
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return
	}

	ack, err := h.service.HandleNotify(c.Request.Context(), c.Param("provider"), body, c.Request.Header)
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	c.String(http.StatusOK, ack)
}

// Return handles GET /payments/return/:orderCode, the buyer's
// synchronous return from the gateway.
func (h *Handler) Return(c *gin.Context) {
	p, err := h.service.ConfirmReturn(c.Request.Context(), c.Param("orderCode"))
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	response.Success(c, toPaymentView(p))
}

// Get handles GET /payments/:orderCode.
func (h *Handler) Get(c *gin.Context) {
	parentID := c.MustGet(auth.ContextKeyUserID).(uuid.UUID)

	p, err := h.service.Get(c.Request.Context(), parentID, c.Param("orderCode"))
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	response.Success(c, toPaymentView(p))
}

// Cancel handles PUT /payments/:orderCode/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	parentID := c.MustGet(auth.ContextKeyUserID).(uuid.UUID)

	p, err := h.service.Cancel(c.Request.Context(), parentID, c.Param("orderCode"))
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	response.Success(c, toPaymentView(p))
}
