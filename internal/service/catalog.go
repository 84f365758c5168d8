package service

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strconv" // Cache keys
	"strings" // Input normalisation
	"time"    // Cache TTL

	"home_eats/internal/domain" // Domain models
	"home_eats/internal/utils"  // Cache and pagination helpers

	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Money amounts
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

const (
	catalogVersionKey = "tiffins:version"
	catalogCacheTTL   = 30 * time.Second
)

// TiffinFilter narrows the public listing
type TiffinFilter struct {
	Pincode string
	Search  string
}

// TiffinInput carries create and update fields; nil means unchanged
type TiffinInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	IsAvailable *bool
	Image       *string
}

// TiffinPage is one cached page of the public listing
type TiffinPage struct {
	Items []domain.Tiffin `json:"items"`
	Total int64           `json:"total"`
}

// Catalog manages tiffin listings
type Catalog struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewCatalog builds a Catalog; rdb may be nil to disable caching
func NewCatalog(db *gorm.DB, rdb *redis.Client) *Catalog {
	return &Catalog{db: db, rdb: rdb}
}

// List returns available tiffins matching the filter
func (c *Catalog) List(ctx context.Context, filter TiffinFilter, page utils.Page) ([]domain.Tiffin, int64, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	pincode := strings.TrimSpace(filter.Pincode)
	cacheKey := "tiffins:v" + strconv.FormatInt(utils.CacheVersion(ctx, c.rdb, catalogVersionKey), 10) +
		":pin=" + pincode + ":q=" + search +
		":page=" + strconv.Itoa(page.Number) + ":size=" + strconv.Itoa(page.Limit())

	var cached TiffinPage
	// Any write bumps the version, so stale pages are simply never read again
	if found, err := utils.GetCache(ctx, c.rdb, cacheKey, &cached); err == nil && found {
		return cached.Items, cached.Total, nil
	}

	q := c.db.WithContext(ctx).Model(&domain.Tiffin{}).Where("tiffins.is_available = ?", true)
	if pincode != "" {
		q = q.Joins("JOIN owner_profiles ON owner_profiles.id = tiffins.owner_id").
			Where("owner_profiles.business_pincode = ?", pincode)
	}
	if search != "" {
		like := containsPattern(search)
		q = q.Where("(LOWER(tiffins.name) LIKE ? ESCAPE '!' OR LOWER(tiffins.description) LIKE ? ESCAPE '!')", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tiffins: %w", err)
	}
	var items []domain.Tiffin
	if err := q.Select("tiffins.*").Preload("Owner").Order("tiffins.id").Offset(page.Offset()).Limit(page.Limit()).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("list tiffins: %w", err)
	}
	_ = utils.SetCache(ctx, c.rdb, cacheKey, TiffinPage{Items: items, Total: total}, catalogCacheTTL)
	return items, total, nil
}

// Get returns a single tiffin with its owner
func (c *Catalog) Get(ctx context.Context, id uint) (*domain.Tiffin, error) {
	var t domain.Tiffin
	if err := c.db.WithContext(ctx).Preload("Owner").First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Mine returns every tiffin of the owner, available or not
func (c *Catalog) Mine(ctx context.Context, owner *domain.User) ([]domain.Tiffin, error) {
	profile, err := ownerProfile(c.db.WithContext(ctx), owner.ID)
	if err != nil {
		return nil, err
	}
	var items []domain.Tiffin
	if err := c.db.WithContext(ctx).Where("owner_id = ?", profile.ID).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Create publishes a tiffin under the owner's profile
func (c *Catalog) Create(ctx context.Context, owner *domain.User, in TiffinInput) (*domain.Tiffin, error) {
	profile, err := ownerProfile(c.db.WithContext(ctx), owner.ID)
	if err != nil {
		return nil, err
	}
	verr := domain.ValidationError{}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		verr["name"] = "This field is required."
	}
	if in.Price == nil {
		verr["price"] = "This field is required."
	} else if !in.Price.IsPositive() {
		verr["price"] = "Price must be greater than zero."
	}
	if len(verr) > 0 {
		return nil, verr
	}
	t := domain.Tiffin{
		OwnerID:     profile.ID,
		Name:        strings.TrimSpace(*in.Name),
		Price:       *in.Price,
		IsAvailable: true,
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.IsAvailable != nil {
		t.IsAvailable = *in.IsAvailable
	}
	if in.Image != nil {
		t.Image = *in.Image
	}
	if err := c.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, fmt.Errorf("create tiffin: %w", err)
	}
	c.invalidate(ctx)
	logrus.WithFields(logrus.Fields{"tiffin_id": t.ID, "owner_id": profile.ID}).Info("Tiffin created")
	return &t, nil
}

// Update changes the given fields of a tiffin the owner holds
func (c *Catalog) Update(ctx context.Context, owner *domain.User, id uint, in TiffinInput) (*domain.Tiffin, error) {
	t, err := c.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid("name", "This field may not be blank.")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return nil, domain.Invalid("price", "Price must be greater than zero.")
		}
		updates["price"] = *in.Price
	}
	if in.IsAvailable != nil {
		updates["is_available"] = *in.IsAvailable
	}
	if in.Image != nil {
		updates["image"] = *in.Image
	}
	if len(updates) > 0 {
		if err := c.db.WithContext(ctx).Model(t).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update tiffin: %w", err)
		}
		c.invalidate(ctx)
	}
	return c.Get(ctx, t.ID)
}

// Delete removes a tiffin the owner holds; tiffins with orders are kept for history
func (c *Catalog) Delete(ctx context.Context, owner *domain.User, id uint) error {
	t, err := c.owned(ctx, owner, id)
	if err != nil {
		return err
	}
	var orders int64
	if err := c.db.WithContext(ctx).Model(&domain.Order{}).Where("tiffin_id = ?", t.ID).Count(&orders).Error; err != nil {
		return err
	}
	if orders > 0 { // Orders reference the tiffin for history
		return domain.Invalid("detail", "Tiffin has orders; mark it unavailable instead.")
	}
	if err := c.db.WithContext(ctx).Delete(&domain.Tiffin{}, t.ID).Error; err != nil {
		return fmt.Errorf("delete tiffin: %w", err)
	}
	c.invalidate(ctx)
	return nil
}

// owned loads a tiffin and checks it belongs to the owner's profile
func (c *Catalog) owned(ctx context.Context, owner *domain.User, id uint) (*domain.Tiffin, error) {
	var t domain.Tiffin
	if err := c.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	profile, err := ownerProfile(c.db.WithContext(ctx), owner.ID)
	if err != nil {
		return nil, domain.ErrForbidden
	}
	if t.OwnerID != profile.ID {
		return nil, domain.ErrForbidden
	}
	return &t, nil
}

func (c *Catalog) invalidate(ctx context.Context) {
	if err := utils.BumpCacheVersion(ctx, c.rdb, catalogVersionKey); err != nil {
		logrus.WithError(err).Warn("catalog cache invalidation failed")
	}
}

func ownerProfile(tx *gorm.DB, userID uint) (*domain.OwnerProfile, error) {
	var p domain.OwnerProfile
	if err := tx.Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileMissing
		}
		return nil, err
	}
	return &p, nil
}

func courierProfile(tx *gorm.DB, userID uint) (*domain.CourierProfile, error) {
	var p domain.CourierProfile
	if err := tx.Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileMissing
		}
		return nil, err
	}
	return &p, nil
}
