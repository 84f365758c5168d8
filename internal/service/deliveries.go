package service

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Messages and error wrapping
	"time"    // Acceptance timestamps

	"home_eats/internal/domain" // Domain models
	"home_eats/internal/utils"  // Pagination

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// DeliveryFilter narrows a delivery listing
type DeliveryFilter struct {
	Pincode    string
	Unassigned bool  // delivery_boy_is_null=true
	CourierID  *uint // delivery_boy=<id>
	Status     domain.DeliveryStatus
}

// Deliveries hands ready orders to couriers
type Deliveries struct {
	db       *gorm.DB
	notifier *Notifier
}

// NewDeliveries builds the delivery assignment service
func NewDeliveries(db *gorm.DB, notifier *Notifier) *Deliveries {
	return &Deliveries{db: db, notifier: notifier}
}

// ListAvailable returns the unclaimed pool, optionally for one pincode
func (s *Deliveries) ListAvailable(ctx context.Context, pincode string, page utils.Page) ([]domain.Delivery, int64, error) {
	q := s.db.WithContext(ctx).Model(&domain.Delivery{}).
		Where("status = ? AND courier_id IS NULL", string(domain.DeliveryPending))
	if pincode != "" {
		q = q.Where("delivery_pincode = ?", pincode)
	}
	return s.page(q, page)
}

// List returns the deliveries visible to actor
func (s *Deliveries) List(ctx context.Context, actor *domain.User, filter DeliveryFilter, page utils.Page) ([]domain.Delivery, int64, error) {
	q, err := s.scope(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	if filter.Pincode != "" {
		q = q.Where("deliveries.delivery_pincode = ?", filter.Pincode)
	}
	if filter.Unassigned {
		q = q.Where("deliveries.courier_id IS NULL")
	}
	if filter.CourierID != nil {
		q = q.Where("deliveries.courier_id = ?", *filter.CourierID)
	}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, 0, domain.ErrInvalidStatus
		}
		q = q.Where("deliveries.status = ?", string(filter.Status))
	}
	return s.page(q, page)
}

func (s *Deliveries) page(q *gorm.DB, page utils.Page) ([]domain.Delivery, int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count deliveries: %w", err)
	}
	var list []domain.Delivery
	if err := q.Preload("Order").Order("deliveries.created_at desc, deliveries.id desc").
		Offset(page.Offset()).Limit(page.Limit()).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list deliveries: %w", err)
	}
	return list, total, nil
}

func (s *Deliveries) scope(ctx context.Context, actor *domain.User) (*gorm.DB, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&domain.Delivery{})
	switch actor.Role {
	case domain.RoleAdmin:
		return q, nil
	case domain.RoleCustomer:
		return q.Where("deliveries.customer_id = ?", actor.ID), nil
	case domain.RoleDelivery:
		return q.Where("(deliveries.courier_id = ? OR deliveries.courier_id IS NULL)", actor.ID), nil
	case domain.RoleOwner:
		profile, err := ownerProfile(db, actor.ID)
		if errors.Is(err, domain.ErrProfileMissing) {
			return q.Where("1 = 0"), nil
		}
		if err != nil {
			return nil, err
		}
		theirs := s.db.WithContext(ctx).Model(&domain.Order{}).
			Select("orders.id").
			Joins("JOIN tiffins ON tiffins.id = orders.tiffin_id").
			Where("tiffins.owner_id = ?", profile.ID)
		return q.Where("deliveries.order_id IN (?)", theirs), nil
	}
	return nil, domain.ErrForbidden
}

// Accept claims an unassigned delivery for courier; only one concurrent claim can win
func (s *Deliveries) Accept(ctx context.Context, deliveryID uint, courier *domain.User) (*domain.Delivery, error) {
	if courier.Role != domain.RoleDelivery {
		return nil, domain.ErrForbidden
	}
	profile, err := courierProfile(s.db.WithContext(ctx), courier.ID)
	if err != nil {
		return nil, err
	}
	if !profile.IsActive {
		return nil, domain.ErrForbidden
	}

	now := time.Now()
	var d domain.Delivery
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Single conditional update; only one claim can match
		res := tx.Model(&domain.Delivery{}).
			Where("id = ? AND courier_id IS NULL AND status = ?", deliveryID, string(domain.DeliveryPending)).
			Updates(map[string]any{
				"courier_id":  courier.ID,
				"status":      domain.DeliveryAccepted,
				"accepted_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("claim delivery: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Tell a missing delivery apart from a lost race
			var n int64
			if err := tx.Model(&domain.Delivery{}).Where("id = ?", deliveryID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return domain.ErrNotFound
			}
			return domain.ErrAlreadyAssigned
		}
		if err := tx.First(&d, deliveryID).Error; err != nil {
			return fmt.Errorf("reload delivery: %w", err)
		}
		return tx.Model(&domain.Order{}).Where("id = ?", d.OrderID).Update("courier_id", courier.ID).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"delivery_id": d.ID,
		"order_id":    d.OrderID,
		"courier_id":  courier.ID,
	}).Info("Delivery accepted")

	s.notifier.notifyQuietly(ctx, d.CustomerID, domain.NotifyDeliveryAccepted,
		fmt.Sprintf("%s will deliver your order #%d.", displayName(courier), d.OrderID),
		map[string]any{"order_id": d.OrderID, "delivery_id": d.ID})
	return &d, nil
}

// UpdateStatus moves a delivery and mirrors courier progress onto its order
func (s *Deliveries) UpdateStatus(ctx context.Context, actor *domain.User, deliveryID uint, target domain.DeliveryStatus) (*domain.Delivery, error) {
	var d domain.Delivery
	if err := s.db.WithContext(ctx).Preload("Order.Tiffin.Owner").First(&d, deliveryID).Error; err != nil {
		return nil, notFound(err)
	}
	if err := authorizeDeliveryUpdate(actor, &d); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	prev := d.Status
	if prev == target {
		return &d, nil
	}
	if prev == domain.DeliveryDelivered || prev == domain.DeliveryCancelled {
		return nil, domain.ErrInvalidTransition
	}
	// accepted means claimed; claiming goes through Accept
	if target == domain.DeliveryAccepted && d.CourierID == nil {
		return nil, domain.ErrInvalidTransition
	}

	updates := map[string]any{"status": target}
	release := target == domain.DeliveryPending && d.CourierID != nil
	if release {
		// back into the pool: drop the courier so anyone in the pincode can claim it again
		updates["courier_id"] = nil
		updates["accepted_at"] = nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Delivery{}).Where("id = ? AND status = ?", d.ID, string(prev)).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update delivery status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrStatusConflict
		}
		if release {
			if err := tx.Model(&domain.Order{}).Where("id = ?", d.OrderID).Update("courier_id", nil).Error; err != nil {
				return fmt.Errorf("release order courier: %w", err)
			}
		}
		return mirrorOntoOrderTx(tx, d.OrderID, target)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"delivery_id": d.ID,
		"from":        prev,
		"to":          target,
		"actor_id":    actor.ID,
	}).Info("Delivery status updated")

	s.notifier.notifyQuietly(ctx, d.CustomerID, domain.NotifyDeliveryStatus,
		fmt.Sprintf("Delivery for order #%d is now %s.", d.OrderID, humanize(string(target))),
		map[string]any{"order_id": d.OrderID, "delivery_id": d.ID, "status": target})

	var out domain.Delivery
	if err := s.db.WithContext(ctx).Preload("Order").First(&out, d.ID).Error; err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func authorizeDeliveryUpdate(actor *domain.User, d *domain.Delivery) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleDelivery:
		if d.CourierID != nil && *d.CourierID == actor.ID {
			return nil
		}
	case domain.RoleOwner:
		if d.Order != nil && d.Order.Tiffin != nil && d.Order.Tiffin.Owner != nil && d.Order.Tiffin.Owner.UserID == actor.ID {
			return nil
		}
	}
	return domain.ErrForbidden
}

// mirrorOntoOrderTx carries pickup and drop-off onto an order still in flight
func mirrorOntoOrderTx(tx *gorm.DB, orderID uint, target domain.DeliveryStatus) error {
	var status domain.OrderStatus
	switch target {
	case domain.DeliveryPickedUp:
		status = domain.OrderPickedUp
	case domain.DeliveryDelivered:
		status = domain.OrderDelivered
	default:
		return nil
	}
	// pending orders never have a delivery; excluding them keeps settlement on the order path
	frozen := []string{string(domain.OrderPending), string(domain.OrderDelivered), string(domain.OrderCancelled)}
	return tx.Model(&domain.Order{}).
		Where("id = ? AND status NOT IN ?", orderID, frozen).
		Update("status", status).Error
}
