package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Time durations and date filters

	"home_eats/internal/domain"  // Importing domain models
	"home_eats/internal/service" // Account and ledger services
	"home_eats/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Money amounts
)

const adminCacheTTL = 60 * time.Second

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID       uint            `json:"id"`        // User ID
	Username string          `json:"username"`  // Username
	Role     string          `json:"user_type"` // User role
	Pincode  string          `json:"pincode"`   // Postal code
	Balance  decimal.Decimal `json:"balance"`   // Wallet balance, zero when no wallet exists yet
}

// ListUsersHandler returns all users with their wallet balance
func ListUsersHandler(accounts *service.Accounts, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page := pageFrom(c)
		// Create a cache key based on pagination parameters
		cacheKey := "admin:users:page=" + strconv.Itoa(page.Number) + ":size=" + strconv.Itoa(page.Limit())
		var cached utils.PageResult[UserAdminResponse]
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, cached)
			return
		}
		users, total, err := accounts.ListUsers(ctx, page)
		if err != nil {
			respondError(c, err)
			return
		}
		// Map users to response format
		resp := make([]UserAdminResponse, len(users))
		for i, u := range users {
			resp[i] = UserAdminResponse{ID: u.ID, Username: u.Username, Role: u.Role, Pincode: u.Pincode, Balance: decimal.Zero}
			if u.Wallet != nil {
				resp[i].Balance = u.Wallet.Balance
			}
		}
		body := utils.NewPageResult(resp, total, page, requestURL(c))
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, body, adminCacheTTL)
		c.JSON(http.StatusOK, body)
	}
}

// ListTransactionsHandler returns all ledger rows, with optional filtering by user, type, or date
func ListTransactionsHandler(ledger *service.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page := pageFrom(c)
		var filter service.TransactionFilter
		if raw := c.Query("user_id"); raw != "" {
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"user_id": "A valid integer is required."})
				return
			}
			filter.UserID = uint(v)
		}
		filter.Type = c.Query("type")
		for _, bound := range []struct {
			key string
			dst **time.Time
		}{{"from", &filter.From}, {"to", &filter.To}} {
			raw := c.Query(bound.key)
			if raw == "" {
				continue
			}
			t, err := parseDate(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{bound.key: "Use YYYY-MM-DD or RFC 3339."})
				return
			}
			*bound.dst = &t
		}

		// Build cache key from all query params
		var keyParts []string
		for _, k := range []string{"user_id", "type", "from", "to"} {
			keyParts = append(keyParts, k+"="+c.Query(k))
		}
		keyParts = append(keyParts, "page="+strconv.Itoa(page.Number), "size="+strconv.Itoa(page.Limit()))
		cacheKey := "admin:txs:" + strings.Join(keyParts, ":")

		var cached utils.PageResult[domain.WalletTransaction]
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, cached)
			return
		}
		txns, total, err := ledger.AllTransactions(ctx, filter, page)
		if err != nil {
			respondError(c, err)
			return
		}
		body := utils.NewPageResult(txns, total, page, requestURL(c))
		_ = utils.SetCache(ctx, rdb, cacheKey, body, adminCacheTTL)
		c.JSON(http.StatusOK, body)
	}
}

// parseDate accepts a bare date or a full RFC 3339 timestamp
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
