package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"home_eats/internal/domain"  // Domain models
	"home_eats/internal/service" // Notification feed
	"home_eats/internal/utils"   // Pagination

	"github.com/gin-gonic/gin" // Gin web framework
)

// NotificationPage is a feed page with the caller's unread count
type NotificationPage struct {
	utils.PageResult[domain.Notification]
	UnreadCount int64 `json:"unread_count"`
}

// ListNotificationsHandler returns the caller's feed, newest first
func ListNotificationsHandler(notifier *service.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := pageFrom(c)
		var filter service.NotificationFilter
		if raw := c.Query("since_id"); raw != "" {
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"since_id": "A valid integer is required."})
				return
			}
			filter.SinceID = uint(v)
		}
		filter.UnreadOnly = c.Query("unread") == "true"
		list, total, unread, err := notifier.List(c.Request.Context(), currentUser(c).ID, filter, page)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, NotificationPage{
			PageResult:  utils.NewPageResult(list, total, page, requestURL(c)),
			UnreadCount: unread,
		})
	}
}

// MarkNotificationReadHandler flags one entry as seen
func MarkNotificationReadHandler(notifier *service.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := notifier.MarkRead(c.Request.Context(), currentUser(c).ID, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
	}
}

// MarkAllNotificationsReadHandler flags the caller's whole feed as seen
func MarkAllNotificationsReadHandler(notifier *service.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := notifier.MarkAllRead(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": n})
	}
}
