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

// OwnerHandler handles HTTP requests for hotel-owner booking operations.
type OwnerHandler struct {
	service *application.BookingService
}

// NewOwnerHandler creates a new OwnerHandler.
func NewOwnerHandler(service *application.BookingService) *OwnerHandler {
	return &OwnerHandler{service: service}
}

// RegisterRoutes registers all owner routes on the given router group.
func (h *OwnerHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	owner := r.Group("/owner/bookings")
	owner.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleOwner))
	{
		owner.GET("", h.GetHotelBookings)
		owner.GET("/search", h.SearchHotelBookings)
		owner.PUT("/:id/status", h.UpdateBookingStatus)
		owner.PUT("/:id/check-in", h.ConfirmCheckIn)
	}
}

// GetHotelBookings handles GET /api/v1/owner/bookings
func (h *OwnerHandler) GetHotelBookings(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	dtos, err := h.service.GetHotelBookings(c.Request.Context(), p.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dtos)
}

// SearchHotelBookings handles GET /api/v1/owner/bookings/search
func (h *OwnerHandler) SearchHotelBookings(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.SearchBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dtos, err := h.service.SearchHotelBookings(c.Request.Context(), p.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dtos)
}

// UpdateBookingStatus handles PUT /api/v1/owner/bookings/:id/status
func (h *OwnerHandler) UpdateBookingStatus(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req application.OwnerUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.Status == nil && req.IsPaid == nil {
		response.BadRequest(c, "nothing to update")
		return
	}

	dto, err := h.service.OwnerUpdateStatus(c.Request.Context(), p.ID, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// ConfirmCheckIn handles PUT /api/v1/owner/bookings/:id/check-in
func (h *OwnerHandler) ConfirmCheckIn(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	dto, err := h.service.ConfirmCheckIn(c.Request.Context(), p.ID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}
