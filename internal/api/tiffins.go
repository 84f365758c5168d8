package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // Form value parsing
	"strings"  // Content type checks

	"home_eats/internal/domain"  // Domain models
	"home_eats/internal/service" // Tiffin catalog
	"home_eats/internal/storage" // Image storage

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money amounts
)

// TiffinRequest is the JSON create/update body; absent fields are untouched on update
type TiffinRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable *bool            `json:"is_available"`
}

// ListTiffinsHandler is the public catalog
func ListTiffinsHandler(catalog *service.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := pageFrom(c)
		filter := service.TiffinFilter{Pincode: c.Query("pincode"), Search: c.Query("search")}
		items, total, err := catalog.List(c.Request.Context(), filter, page)
		if err != nil {
			respondError(c, err)
			return
		}
		paginated(c, items, total, page)
	}
}

// GetTiffinHandler returns one listing
func GetTiffinHandler(catalog *service.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		t, err := catalog.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// MyTiffinsHandler returns every listing of the calling owner
func MyTiffinsHandler(catalog *service.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := catalog.Mine(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		if items == nil {
			items = []domain.Tiffin{}
		}
		c.JSON(http.StatusOK, items)
	}
}

// CreateTiffinHandler publishes a listing from JSON or multipart form data
func CreateTiffinHandler(catalog *service.Catalog, images storage.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := tiffinInput(c, images)
		if !ok {
			return
		}
		t, err := catalog.Create(c.Request.Context(), currentUser(c), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

// UpdateTiffinHandler changes a listing the caller owns (PUT and PATCH both update partially)
func UpdateTiffinHandler(catalog *service.Catalog, images storage.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		in, ok := tiffinInput(c, images)
		if !ok {
			return
		}
		t, err := catalog.Update(c.Request.Context(), currentUser(c), id, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// DeleteTiffinHandler removes a listing the caller owns
func DeleteTiffinHandler(catalog *service.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := catalog.Delete(c.Request.Context(), currentUser(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// tiffinInput decodes the request body; it writes the error response itself
func tiffinInput(c *gin.Context, images storage.ImageStore) (service.TiffinInput, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req TiffinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return service.TiffinInput{}, false
		}
		return service.TiffinInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			IsAvailable: req.IsAvailable,
		}, true
	}

	var in service.TiffinInput
	if v, ok := c.GetPostForm("name"); ok {
		in.Name = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		in.Description = &v
	}
	if v, ok := c.GetPostForm("price"); ok {
		price, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"price": "A valid number is required."})
			return in, false
		}
		in.Price = &price
	}
	if v, ok := c.GetPostForm("is_available"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"is_available": "Must be a valid boolean."})
			return in, false
		}
		in.IsAvailable = &b
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, true // Image is optional
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"image": "Upload a valid image."})
		return in, false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return in, false
	}
	defer f.Close()
	ref, err := images.Save(c.Request.Context(), fh.Filename, f)
	if err != nil {
		respondError(c, err)
		return in, false
	}
	in.Image = &ref
	return in, true
}
