package api

import (
	"net/http" // HTTP status codes

	"home_eats/internal/config"  // Token lifetimes and secret
	"home_eats/internal/domain"  // Domain models
	"home_eats/internal/service" // Account service
	"home_eats/internal/utils"   // Token utilities

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// LoginRequest is the token obtain body
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// RefreshRequest is the token refresh body
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"` // Refresh token
}

// RegisterRequest is the sign-up body
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	UserType        string `json:"user_type"` // customer, tiffinOwner or deliveryBoy
	Name            string `json:"name"`
	Phone           string `json:"phone_number"`
	Street          string `json:"street"`
	City            string `json:"city"`
	State           string `json:"state"`
	Country         string `json:"country"`
	Pincode         string `json:"pincode"`
	BusinessName    string `json:"business_name"`
	BusinessAddress string `json:"business_address"`
	BusinessPincode string `json:"business_pincode"`
	FSSAINumber     string `json:"fssai_number"`
	VehicleNumber   string `json:"vehicle_number"`
}

// RegisterResponse returns the new user with a token pair
type RegisterResponse struct {
	User    *domain.User `json:"user"`
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
}

// issue signs an access/refresh pair for the user
func issue(cfg *config.Config, u *domain.User) (utils.TokenPair, error) {
	return utils.GenerateTokenPair(u.ID, u.Role, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

// RegisterHandler creates an account with its role profile and wallet
func RegisterHandler(accounts *service.Accounts, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		user, err := accounts.Register(c.Request.Context(), service.RegisterInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			ConfirmPassword: req.ConfirmPassword,
			UserType:        req.UserType,
			Name:            req.Name,
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
		})
		if err != nil {
			respondError(c, err)
			return
		}
		pair, err := issue(cfg, user)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, RegisterResponse{User: user, Access: pair.Access, Refresh: pair.Refresh})
	}
}

// TokenHandler authenticates a user and returns an access/refresh pair
func TokenHandler(accounts *service.Accounts, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		user, err := accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, err) // Unknown user and wrong password look the same
			return
		}
		pair, err := issue(cfg, user)
		if err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("Token issued")
		c.JSON(http.StatusOK, pair)
	}
}

// RefreshHandler trades a refresh token for a new pair; access tokens are refused
func RefreshHandler(accounts *service.Accounts, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		claims, err := utils.ParseJWT(req.Refresh, cfg.JWTSecret, utils.RefreshToken)
		if err != nil {
			detail(c, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}
		user, err := accounts.Load(c.Request.Context(), claims.UserID)
		if err != nil {
			detail(c, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}
		pair, err := issue(cfg, user) // Role is re-read from the database
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, pair)
	}
}
