package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"home_eats/internal/domain"  // Domain models
	"home_eats/internal/service" // Delivery assignment

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListDeliveriesHandler returns deliveries visible to the caller
func ListDeliveriesHandler(deliveries *service.Deliveries) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := pageFrom(c)
		filter := service.DeliveryFilter{
			Pincode:    c.Query("pincode"),
			Unassigned: c.Query("delivery_boy_is_null") == "true",
			Status:     domain.DeliveryStatus(c.Query("status")),
		}
		if raw := c.Query("delivery_boy"); raw != "" {
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"delivery_boy": "A valid integer is required."})
				return
			}
			id := uint(v)
			filter.CourierID = &id
		}
		list, total, err := deliveries.List(c.Request.Context(), currentUser(c), filter, page)
		if err != nil {
			respondError(c, err)
			return
		}
		paginated(c, list, total, page)
	}
}

// AvailableDeliveriesHandler returns the unclaimed pool in the courier's pincode
func AvailableDeliveriesHandler(deliveries *service.Deliveries) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := pageFrom(c)
		pincode := c.DefaultQuery("pincode", currentUser(c).Pincode)
		list, total, err := deliveries.ListAvailable(c.Request.Context(), pincode, page)
		if err != nil {
			respondError(c, err)
			return
		}
		paginated(c, list, total, page)
	}
}

// AcceptDeliveryHandler claims a delivery for the calling courier
func AcceptDeliveryHandler(deliveries *service.Deliveries) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		d, err := deliveries.Accept(c.Request.Context(), id, currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// UpdateDeliveryStatusHandler moves a delivery
func UpdateDeliveryStatusHandler(deliveries *service.Deliveries) gin.HandlerFunc {
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
		d, err := deliveries.UpdateStatus(c.Request.Context(), currentUser(c), id, domain.DeliveryStatus(req.Status))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}
