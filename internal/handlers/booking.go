package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trainease/booking-service/internal/middleware"
	"github.com/trainease/booking-service/internal/service"
)

// BookingHandler serves the booking lifecycle.
type BookingHandler struct {
	bookings service.BookingService
}

// NewBookingHandler creates a new BookingHandler instance.
func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// CreateBookingRequest is the payload of booking creation. The booking is
// always made for the caller.
type CreateBookingRequest struct {
	RouteID int64 `json:"routeId"`
	Seats   int   `json:"seats"`
}

// UpdateBookingRequest carries the fields to change. Payment status is only
// honoured for admins.
type UpdateBookingRequest struct {
	RouteID       *int64  `json:"routeId"`
	Seats         *int    `json:"seats"`
	PaymentStatus *string `json:"paymentStatus"`
}

// Create godoc
// @Summary Book seats on a route
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "Booking"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	booking, err := h.bookings.Create(c.Request.Context(), middleware.CallerFromContext(c), req.RouteID, req.Seats)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

// Get godoc
// @Summary Get a booking
// @Tags bookings
// @Produce json
// @Param id path int true "Booking ID"
// @Success 200 {object} BookingResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	booking, err := h.bookings.Get(c.Request.Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

// ListAll godoc
// @Summary List every booking
// @Tags bookings
// @Produce json
// @Success 200 {array} BookingResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/bookings [get]
func (h *BookingHandler) ListAll(c *gin.Context) {
	bookings, err := h.bookings.ListAll(c.Request.Context(), middleware.CallerFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(bookings, toBookingResponse))
}

// ListOwn godoc
// @Summary List the caller's bookings
// @Tags bookings
// @Produce json
// @Success 200 {array} BookingResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/bookings/user [get]
func (h *BookingHandler) ListOwn(c *gin.Context) {
	bookings, err := h.bookings.ListByUser(c.Request.Context(), middleware.CallerFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(bookings, toBookingResponse))
}

// ListByRoute godoc
// @Summary List the bookings of a route
// @Tags bookings
// @Produce json
// @Param routeId path int true "Route ID"
// @Success 200 {array} BookingResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/bookings/route/{routeId} [get]
func (h *BookingHandler) ListByRoute(c *gin.Context) {
	routeID, ok := pathID(c, "routeId")
	if !ok {
		return
	}
	bookings, err := h.bookings.ListByRoute(c.Request.Context(), middleware.CallerFromContext(c), routeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(bookings, toBookingResponse))
}

// Update godoc
// @Summary Update a booking
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path int true "Booking ID"
// @Param request body UpdateBookingRequest true "Fields to change"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/bookings/{id} [put]
func (h *BookingHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	booking, err := h.bookings.Update(c.Request.Context(), middleware.CallerFromContext(c), id, service.BookingUpdate{
		RouteID:       req.RouteID,
		Seats:         req.Seats,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

// Cancel godoc
// @Summary Cancel a booking
// @Description Cancelling an already cancelled booking succeeds without changes.
// @Tags bookings
// @Produce json
// @Param id path int true "Booking ID"
// @Success 200 {object} BookingResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	booking, err := h.bookings.Cancel(c.Request.Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

// Delete godoc
// @Summary Delete a booking
// @Tags bookings
// @Param id path int true "Booking ID"
// @Success 200 {object} map[string]string
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/bookings/{id} [delete]
func (h *BookingHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.bookings.Delete(c.Request.Context(), middleware.CallerFromContext(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking deleted"})
}
