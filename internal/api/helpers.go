package api

import (
	"net/http" // HTTP status codes
	"net/url"  // Absolute page links
	"strconv"  // Path and query parsing

	"home_eats/internal/domain"     // Domain models
	"home_eats/internal/middleware" // Current user lookup
	"home_eats/internal/utils"      // Pagination

	"github.com/gin-gonic/gin" // Gin web framework
)

// pageFrom reads page and page_size from the query string
func pageFrom(c *gin.Context) utils.Page {
	return utils.NewPage(c.Query("page"), c.Query("page_size"))
}

// requestURL rebuilds the absolute URL of the request for next/previous links
func requestURL(c *gin.Context) *url.URL {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return &url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path, RawQuery: c.Request.URL.RawQuery}
}

// paginated writes a page body
func paginated[T any](c *gin.Context, items []T, total int64, page utils.Page) {
	c.JSON(http.StatusOK, utils.NewPageResult(items, total, page, requestURL(c)))
}

// idParam parses a numeric path parameter; it answers 404 itself on failure
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		detail(c, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return uint(v), true
}

// currentUser returns the user loaded by middleware.CurrentUser
func currentUser(c *gin.Context) *domain.User {
	return middleware.User(c)
}

// invalidBody answers a request whose body could not be decoded
func invalidBody(c *gin.Context) {
	detail(c, http.StatusBadRequest, "Invalid request")
}
