package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trainease/booking-service/internal/middleware"
	"github.com/trainease/booking-service/internal/service"
)

// CatalogHandler serves trains and routes.
type CatalogHandler struct {
	catalog service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler instance.
func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// TrainRequest is the payload of train create and update.
type TrainRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
}

// RouteRequest is the payload of route create and update. Times are RFC 3339.
type RouteRequest struct {
	TrainID          int64     `json:"trainId"`
	DepartureStation string    `json:"departureStation"`
	ArrivalStation   string    `json:"arrivalStation"`
	DepartureTime    time.Time `json:"departureTime"`
	ArrivalTime      time.Time `json:"arrivalTime"`
	Price            float64   `json:"price"`
}

func (r TrainRequest) input() service.TrainInput {
	return service.TrainInput{Name: r.Name, Type: r.Type, Capacity: r.Capacity}
}

func (r RouteRequest) input() service.RouteInput {
	return service.RouteInput{
		TrainID:          r.TrainID,
		DepartureStation: r.DepartureStation,
		ArrivalStation:   r.ArrivalStation,
		DepartureTime:    r.DepartureTime,
		ArrivalTime:      r.ArrivalTime,
		Price:            r.Price,
	}
}

// =============================================================================
// Trains
// =============================================================================

// ListTrains godoc
// @Summary List trains
// @Tags trains
// @Produce json
// @Success 200 {array} TrainResponse
// @Router /trains [get]
func (h *CatalogHandler) ListTrains(c *gin.Context) {
	trains, err := h.catalog.ListTrains(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(trains, toTrainResponse))
}

// GetTrain godoc
// @Summary Get a train
// @Tags trains
// @Produce json
// @Param id path int true "Train ID"
// @Success 200 {object} TrainResponse
// @Failure 404 {object} ErrorResponse
// @Router /trains/{id} [get]
func (h *CatalogHandler) GetTrain(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	train, err := h.catalog.GetTrain(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTrainResponse(train))
}

// CreateTrain godoc
// @Summary Create a train
// @Tags trains
// @Accept json
// @Produce json
// @Param request body TrainRequest true "Train"
// @Success 201 {object} TrainResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /trains [post]
func (h *CatalogHandler) CreateTrain(c *gin.Context) {
	var req TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	train, err := h.catalog.CreateTrain(c.Request.Context(), middleware.CallerFromContext(c), req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTrainResponse(train))
}

// UpdateTrain godoc
// @Summary Update a train
// @Tags trains
// @Accept json
// @Produce json
// @Param id path int true "Train ID"
// @Param request body TrainRequest true "Train"
// @Success 200 {object} TrainResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /trains/{id} [put]
func (h *CatalogHandler) UpdateTrain(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	train, err := h.catalog.UpdateTrain(c.Request.Context(), middleware.CallerFromContext(c), id, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTrainResponse(train))
}

// DeleteTrain godoc
// @Summary Delete a train and its routes
// @Tags trains
// @Param id path int true "Train ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /trains/{id} [delete]
func (h *CatalogHandler) DeleteTrain(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteTrain(c.Request.Context(), middleware.CallerFromContext(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "train deleted"})
}

// =============================================================================
// Routes
// =============================================================================

// ListRoutes godoc
// @Summary List routes
// @Tags routes
// @Produce json
// @Success 200 {array} RouteResponse
// @Router /api/routes [get]
func (h *CatalogHandler) ListRoutes(c *gin.Context) {
	routes, err := h.catalog.ListRoutes(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(routes, toRouteResponse))
}

// GetRoute godoc
// @Summary Get a route
// @Tags routes
// @Produce json
// @Param id path int true "Route ID"
// @Success 200 {object} RouteResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/routes/{id} [get]
func (h *CatalogHandler) GetRoute(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	route, err := h.catalog.GetRoute(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRouteResponse(route))
}

// ListRoutesByTrain godoc
// @Summary List the routes of a train
// @Tags routes
// @Produce json
// @Param trainId path int true "Train ID"
// @Success 200 {array} RouteResponse
// @Router /api/routes/train/{trainId} [get]
func (h *CatalogHandler) ListRoutesByTrain(c *gin.Context) {
	trainID, ok := pathID(c, "trainId")
	if !ok {
		return
	}
	routes, err := h.catalog.ListRoutesByTrain(c.Request.Context(), trainID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(routes, toRouteResponse))
}

// CreateRoute godoc
// @Summary Create a route
// @Tags routes
// @Accept json
// @Produce json
// @Param request body RouteRequest true "Route"
// @Success 201 {object} RouteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/routes [post]
func (h *CatalogHandler) CreateRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	route, err := h.catalog.CreateRoute(c.Request.Context(), middleware.CallerFromContext(c), req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRouteResponse(route))
}

// UpdateRoute godoc
// @Summary Update a route
// @Tags routes
// @Accept json
// @Produce json
// @Param id path int true "Route ID"
// @Param request body RouteRequest true "Route"
// @Success 200 {object} RouteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/routes/{id} [put]
func (h *CatalogHandler) UpdateRoute(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	route, err := h.catalog.UpdateRoute(c.Request.Context(), middleware.CallerFromContext(c), id, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRouteResponse(route))
}

// DeleteRoute godoc
// @Summary Delete a route and its bookings
// @Tags routes
// @Param id path int true "Route ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/routes/{id} [delete]
func (h *CatalogHandler) DeleteRoute(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteRoute(c.Request.Context(), middleware.CallerFromContext(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "route deleted"})
}
