package handler

import (
	"net/http"

	"github.com/anonstay/service-booking/internal/application"
	"github.com/anonstay/service-booking/internal/pkg/auth"
	"github.com/anonstay/service-booking/internal/pkg/middleware"
	"github.com/anonstay/service-booking/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles HTTP requests for payment operations.
type PaymentHandler struct {
	service *application.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers all payment routes on the given router group.
// Verification is deliberately unauthenticated: the gateway redirects the
// guest's browser here with only the reference, and the gateway itself is
// the authority on whether the charge settled.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	payments := r.Group("/payments")
	{
		payments.GET("/verify", h.VerifyPayment)

		authed := payments.Group("")
		authed.Use(middleware.AuthMiddleware(jwtManager))
		{
			authed.POST("/:bookingId/initiate", h.InitiatePayment)
		}
	}
}

// InitiatePayment handles POST /api/v1/payments/:bookingId/initiate
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	dto, err := h.service.InitiatePayment(c.Request.Context(), p.ID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// VerifyPayment handles GET /api/v1/payments/verify?reference=...
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		response.BadRequest(c, "missing reference")
		return
	}

	dto, err := h.service.VerifyPayment(c.Request.Context(), reference)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}
