package api

import (
	"net/http" // HTTP status codes

	"home_eats/internal/domain"  // Domain models
	"home_eats/internal/service" // Order lifecycle

	"github.com/gin-gonic/gin" // Gin web framework
)

// PlaceOrderRequest is the order placement body
type PlaceOrderRequest struct {
	Tiffin          uint   `json:"tiffin"`           // Tiffin id
	Quantity        int    `json:"quantity"`         // Defaults to 1
	DeliveryAddress string `json:"delivery_address"` // Defaults to the customer's street
	DeliveryPincode string `json:"delivery_pincode"` // Defaults to the customer's pincode
}

// StatusRequest is the update_status body for orders and deliveries
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListOrdersHandler returns the orders visible to the caller
func ListOrdersHandler(orders *service.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := pageFrom(c)
		filter := service.OrderFilter{Status: domain.OrderStatus(c.Query("status"))}
		list, total, err := orders.List(c.Request.Context(), currentUser(c), filter, page)
		if err != nil {
			respondError(c, err)
			return
		}
		paginated(c, list, total, page)
	}
}

// GetOrderHandler returns one order if the caller may see it
func GetOrderHandler(orders *service.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		order, err := orders.Get(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PlaceOrderHandler charges the caller's wallet and creates a pending order
func PlaceOrderHandler(orders *service.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		if req.Tiffin == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"tiffin": "This field is required."})
			return
		}
		order, err := orders.Place(c.Request.Context(), currentUser(c), service.PlaceOrderInput{
			TiffinID:        req.Tiffin,
			Quantity:        req.Quantity,
			DeliveryAddress: req.DeliveryAddress,
			DeliveryPincode: req.DeliveryPincode,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

// UpdateOrderStatusHandler drives the order state machine
func UpdateOrderStatusHandler(orders *service.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "This field is required."})
			return
		}
		order, err := orders.UpdateStatus(c.Request.Context(), currentUser(c), id, domain.OrderStatus(req.Status))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
