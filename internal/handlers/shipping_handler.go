package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"aoin-shipping-service/internal/carrier"
	"aoin-shipping-service/internal/models"
	"aoin-shipping-service/internal/repository"
	"aoin-shipping-service/internal/services"
)

// ShippingHandler handles HTTP requests for shipping operations
type ShippingHandler struct {
	orchestrator *services.ShippingOrchestrator
	prober       *carrier.Prober
	client       *carrier.Client
	logger       *logrus.Entry
}

// NewShippingHandler creates a new shipping handler
func NewShippingHandler(
	orchestrator *services.ShippingOrchestrator,
	prober *carrier.Prober,
	client *carrier.Client,
	logger *logrus.Logger,
) *ShippingHandler {
	return &ShippingHandler{
		orchestrator: orchestrator,
		prober:       prober,
		client:       client,
		logger:       logger.WithField("component", "shipping.handler"),
	}
}

// respondError maps domain error kinds onto HTTP statuses.
func (h *ShippingHandler) respondError(c *gin.Context, err error) {
	var (
		validationErr *carrier.ValidationError
		notFoundErr   *repository.NotFoundError
		noServiceErr  *services.NoServiceError
		authErr       *carrier.AuthError
		apiErr        *carrier.APIError
		timeoutErr    *carrier.TimeoutError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: validationErr.Error(),
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Not found",
			Message: notFoundErr.Error(),
		})
	case errors.As(err, &noServiceErr):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "No courier service available",
			Message: noServiceErr.Error(),
		})
	case errors.As(err, &authErr), errors.As(err, &apiErr), errors.As(err, &timeoutErr):
		h.logger.Errorf("Carrier error: %v", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "Carrier unavailable",
			Message: err.Error(),
		})
	default:
		h.logger.Errorf("Unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
	}
}

// CheckServiceability handles POST /api/shiprocket/serviceability
func (h *ShippingHandler) CheckServiceability(c *gin.Context) {
	var request models.ServiceabilityRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	codAmount := 0.0
	if request.COD {
		codAmount = request.CODAmount
	}

	result, err := h.prober.Check(c.Request.Context(), request.PickupPincode, request.DeliveryPincode, request.Weight, codAmount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
	})
}

// CreateShipment handles POST /api/shiprocket/orders
func (h *ShippingHandler) CreateShipment(c *gin.Context) {
	var request models.CreateShipmentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	result, err := h.orchestrator.CreateShipmentForMerchant(c.Request.Context(), services.CreateShipmentParams{
		OrderID:            request.OrderID,
		MerchantID:         request.MerchantID,
		PickupAddressID:    request.PickupAddressID,
		DeliveryAddressID:  request.DeliveryAddressID,
		PreferredCourierID: request.CourierID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// CreateBulkShipments handles POST /api/shiprocket/orders/bulk
func (h *ShippingHandler) CreateBulkShipments(c *gin.Context) {
	var request models.BulkCreateShipmentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	result, err := h.orchestrator.CreateShipmentsForOrder(c.Request.Context(), request.OrderID, request.DeliveryAddressID, request.CourierID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// CreateShopShipment handles POST /api/shiprocket/shop-orders
func (h *ShippingHandler) CreateShopShipment(c *gin.Context) {
	var request models.CreateShopShipmentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	result, err := h.orchestrator.CreateShipmentForShop(c.Request.Context(), services.ShopShipmentParams{
		OrderID:            request.ShopOrderID,
		ShopID:             request.ShopID,
		DeliveryAddressID:  request.DeliveryAddressID,
		PreferredCourierID: request.CourierID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// TrackByAWB handles GET /api/shiprocket/track/awb/:awb
func (h *ShippingHandler) TrackByAWB(c *gin.Context) {
	tracking, err := h.orchestrator.GetTracking(c.Request.Context(), c.Param("awb"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", tracking)
}

// TrackByOrderID handles GET /api/shiprocket/track/order/:orderId
func (h *ShippingHandler) TrackByOrderID(c *gin.Context) {
	tracking, err := h.orchestrator.GetTrackingByOrderID(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", tracking)
}

// TrackShipment handles GET /api/shiprocket/shipments/:id/track
func (h *ShippingHandler) TrackShipment(c *gin.Context) {
	shipmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid shipment ID",
			Message: "Shipment ID must be an integer",
		})
		return
	}

	tracking, err := h.orchestrator.GetTrackingForShipment(c.Request.Context(), shipmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", tracking)
}

// ListPickupLocations handles GET /api/shiprocket/pickup-locations
func (h *ShippingHandler) ListPickupLocations(c *gin.Context) {
	locations, err := h.client.ListPickupLocations(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    locations,
	})
}

// AddPickupLocation handles POST /api/shiprocket/pickup-locations
func (h *ShippingHandler) AddPickupLocation(c *gin.Context) {
	var request models.AddPickupLocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.client.AddPickupLocation(c.Request.Context(), &carrier.AddPickupRequest{
		PickupLocation: request.PickupLocation,
		Name:           request.Name,
		Email:          request.Email,
		Phone:          carrier.FormatPhone(request.Phone),
		Address:        request.Address,
		Address2:       request.Address2,
		City:           request.City,
		State:          request.State,
		Country:        request.Country,
		PinCode:        request.PinCode,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    resp.Data,
	})
}

// HealthCheck handles GET /health
func (h *ShippingHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "aoin-shipping-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
