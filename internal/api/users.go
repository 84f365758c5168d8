package api

import (
	"net/http" // HTTP status codes

	"home_eats/internal/service" // Account service

	"github.com/gin-gonic/gin" // Gin web framework
)

// UpdateMeRequest is a partial profile update; absent fields are untouched
type UpdateMeRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone_number"`
	Street          *string `json:"street"`
	City            *string `json:"city"`
	State           *string `json:"state"`
	Country         *string `json:"country"`
	Pincode         *string `json:"pincode"`
	BusinessName    *string `json:"business_name"`
	BusinessAddress *string `json:"business_address"`
	BusinessPincode *string `json:"business_pincode"`
	FSSAINumber     *string `json:"fssai_number"`
	VehicleNumber   *string `json:"vehicle_number"`
	IsActive        *bool   `json:"is_active"`
}

// MeHandler returns the caller with role profile and wallet
func MeHandler(accounts *service.Accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := accounts.Me(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateMeHandler applies a partial update to the caller's profile
func UpdateMeHandler(accounts *service.Accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateMeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		user, err := accounts.UpdateMe(c.Request.Context(), currentUser(c).ID, service.ProfilePatch{
			Name:            req.Name,
			Email:           req.Email,
			Phone:           req.Phone,
			Street:          req.Street,
			City:            req.City,
			State:           req.State,
			Country:         req.Country,
			Pincode:         req.Pincode,
			BusinessName:    req.BusinessName,
			BusinessAddress: req.BusinessAddress,
			BusinessPincode: req.BusinessPincode,
			FSSAINumber:     req.FSSAINumber,
			VehicleNumber:   req.VehicleNumber,
			IsActive:        req.IsActive,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
