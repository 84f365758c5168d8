package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"home_eats/internal/domain"  // Domain errors
	"home_eats/internal/storage" // Image errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Messages shown to clients for business rule failures
const (
	msgInsufficientFunds = "Insufficient wallet balance. Please add money to your wallet before placing an order."
	msgWithdrawalStopped = "The withdrawal facility is temporarily stopped."
	msgForbidden         = "You do not have permission to perform this action."
)

// respondError maps a service error to its HTTP status and body
func respondError(c *gin.Context, err error) {
	var verr domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr) // Field-keyed messages
	case errors.Is(err, domain.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"wallet": msgInsufficientFunds})
	case errors.Is(err, domain.ErrTiffinNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"tiffin": "Invalid tiffin"})
	case errors.Is(err, domain.ErrTiffinUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"tiffin": "This tiffin is not available right now."})
	case errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"status": "Invalid status"})
	case errors.Is(err, domain.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"amount": "Invalid amount"})
	case errors.Is(err, storage.ErrUnsupportedImage):
		c.JSON(http.StatusBadRequest, gin.H{"image": "Upload a valid image."})
	case errors.Is(err, domain.ErrInvalidTransition):
		detail(c, http.StatusBadRequest, "Invalid status transition.")
	case errors.Is(err, domain.ErrOrderClosed):
		detail(c, http.StatusBadRequest, "Order is already closed.")
	case errors.Is(err, domain.ErrAlreadyAssigned):
		detail(c, http.StatusBadRequest, "Delivery already assigned.")
	case errors.Is(err, domain.ErrWithdrawalStopped):
		detail(c, http.StatusForbidden, msgWithdrawalStopped)
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrProfileMissing):
		detail(c, http.StatusForbidden, msgForbidden)
	case errors.Is(err, domain.ErrInvalidCredentials):
		detail(c, http.StatusUnauthorized, "No active account found with the given credentials")
	case errors.Is(err, domain.ErrNotFound):
		detail(c, http.StatusNotFound, "Not found.")
	case errors.Is(err, domain.ErrStatusConflict):
		detail(c, http.StatusConflict, "Status changed concurrently, reload and retry.")
	default:
		// Never leak internal messages
		logrus.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Error("Unhandled error")
		detail(c, http.StatusInternalServerError, "Internal server error")
	}
}

// detail writes the {"detail": ...} error body
func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}
