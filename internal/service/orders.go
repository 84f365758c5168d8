package service

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Messages and error wrapping
	"strings" // Address defaults
	"time"    // Settlement timestamps

	"home_eats/internal/domain" // Domain models
	"home_eats/internal/utils"  // Pagination

	"github.com/shopspring/decimal" // Money amounts
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Upsert clauses
)

// courierStates are the order states a courier may read and drive
var courierStates = []domain.OrderStatus{domain.OrderReadyForDelivery, domain.OrderPickedUp}

func courierVisible(s domain.OrderStatus) bool {
	for _, st := range courierStates {
		if st == s {
			return true
		}
	}
	return false
}

// PlaceOrderInput is a customer's order request
type PlaceOrderInput struct {
	TiffinID        uint
	Quantity        int
	DeliveryAddress string
	DeliveryPincode string
}

// OrderFilter narrows an order listing
type OrderFilter struct {
	Status domain.OrderStatus
}

// Orders drives the order lifecycle
type Orders struct {
	db       *gorm.DB
	ledger   *Ledger
	notifier *Notifier
}

// NewOrders builds the order lifecycle service
func NewOrders(db *gorm.DB, ledger *Ledger, notifier *Notifier) *Orders {
	return &Orders{db: db, ledger: ledger, notifier: notifier}
}

// Place charges the customer's wallet and records a pending order
func (s *Orders) Place(ctx context.Context, customer *domain.User, in PlaceOrderInput) (*domain.Order, error) {
	if customer.Role != domain.RoleCustomer {
		return nil, domain.ErrForbidden
	}
	// Zero means the field was omitted
	if in.Quantity < 0 {
		return nil, domain.Invalid("quantity", "Quantity must be at least 1.")
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}

	var tiffin domain.Tiffin
	if err := s.db.WithContext(ctx).Preload("Owner").First(&tiffin, in.TiffinID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTiffinNotFound
		}
		return nil, err
	}
	if !tiffin.IsAvailable {
		return nil, domain.ErrTiffinUnavailable
	}
	total := tiffin.Price.Mul(decimal.NewFromInt(int64(qty)))

	wallet, err := s.ledger.GetOrCreate(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(total) {
		return nil, domain.ErrInsufficientFunds // Fail fast; the guarded debit below still decides
	}

	order := domain.Order{
		CustomerID:      customer.ID,
		TiffinID:        tiffin.ID,
		Quantity:        qty,
		TotalPrice:      total,
		DeliveryAddress: firstNonEmpty(in.DeliveryAddress, customer.Street),
		DeliveryPincode: firstNonEmpty(in.DeliveryPincode, customer.Pincode),
		Status:          domain.OrderPending,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return debitTx(tx, customer.ID, total, domain.OrderReference(order.ID)) // Rolls back the order when funds ran out meanwhile
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			logrus.WithFields(logrus.Fields{
				"customer_id": customer.ID,
				"tiffin_id":   tiffin.ID,
				"total":       total.String(),
				"error":       err.Error(),
			}).Error("Order placement failed")
		}
		return nil, err
	}
	s.ledger.Forget(ctx, customer.ID)

	logrus.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"customer_id": customer.ID,
		"tiffin_id":   tiffin.ID,
		"total":       total.String(),
	}).Info("Order placed")

	data := map[string]any{"order_id": order.ID}
	s.notifier.notifyQuietly(ctx, customer.ID, domain.NotifyOrderPlaced, "Your order is placed successfully.", data)
	if tiffin.Owner != nil {
		s.notifier.notifyQuietly(ctx, tiffin.Owner.UserID, domain.NotifyNewOrder,
			fmt.Sprintf("New order #%d for %d x %s.", order.ID, qty, tiffin.Name), data)
	}
	order.Tiffin = &tiffin
	return &order, nil
}

// UpdateStatus moves an order to target, settling, refunding and materialising the delivery as needed
func (s *Orders) UpdateStatus(ctx context.Context, actor *domain.User, orderID uint, target domain.OrderStatus) (*domain.Order, error) {
	if !target.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	var order domain.Order
	if err := s.db.WithContext(ctx).Preload("Tiffin.Owner").First(&order, orderID).Error; err != nil {
		return nil, notFound(err)
	}
	if err := authorizeOrderTransition(actor, &order, target); err != nil {
		return nil, err
	}

	prev := order.Status
	if prev.Terminal() {
		return nil, domain.ErrOrderClosed
	}
	if target == prev {
		return &order, nil // No-op
	}
	if target == domain.OrderPending {
		return nil, domain.ErrInvalidTransition
	}
	if order.Tiffin == nil || order.Tiffin.Owner == nil {
		return nil, fmt.Errorf("order %d: tiffin owner missing", order.ID)
	}
	owner := order.Tiffin.Owner

	settle := prev == domain.OrderPending && target.Settles() && order.SettledAt == nil
	refund := prev == domain.OrderPending && target == domain.OrderCancelled
	ref := domain.OrderReference(order.ID)
	now := time.Now()
	deliveryCreated := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": target}
		if settle {
			updates["settled_at"] = now
		}
		// Compare-and-set on the status we authorised against
		res := tx.Model(&domain.Order{}).Where("id = ? AND status = ?", order.ID, prev).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrStatusConflict
		}
		if settle {
			if _, err := adjustTx(tx, owner.UserID, order.TotalPrice, ref, domain.TxnSettlement); err != nil {
				return err
			}
		}
		if refund {
			if _, err := adjustTx(tx, order.CustomerID, order.TotalPrice, ref, domain.TxnRefund); err != nil {
				return err
			}
		}
		if target == domain.OrderReadyForDelivery {
			created, err := ensureDeliveryTx(tx, &order, owner.BusinessAddress)
			if err != nil {
				return err
			}
			deliveryCreated = created
		}
		return mirrorOntoDeliveryTx(tx, order.ID, target)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrStatusConflict) {
			logrus.WithFields(logrus.Fields{
				"order_id": order.ID,
				"from":     prev,
				"to":       target,
				"error":    err.Error(),
			}).Error("Order status update failed")
		}
		return nil, err
	}
	if settle {
		s.ledger.Forget(ctx, owner.UserID)
	}
	if refund {
		s.ledger.Forget(ctx, order.CustomerID)
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     prev,
		"to":       target,
		"actor_id": actor.ID,
		"settled":  settle,
		"refunded": refund,
	}).Info("Order status updated")

	s.announceTransition(ctx, &order, target, settle, refund, deliveryCreated)
	return s.load(ctx, order.ID)
}

func (s *Orders) announceTransition(ctx context.Context, order *domain.Order, target domain.OrderStatus, settled, refunded, deliveryCreated bool) {
	data := map[string]any{"order_id": order.ID, "status": target}
	msg := fmt.Sprintf("Order #%d is now %s.", order.ID, humanize(string(target)))
	if target == domain.OrderDelivered {
		msg = "Your order is delivered successfully."
	}
	s.notifier.notifyQuietly(ctx, order.CustomerID, domain.NotifyOrderStatus, msg, data)

	if settled {
		s.notifier.notifyQuietly(ctx, order.Tiffin.Owner.UserID, domain.NotifyWalletCredited,
			fmt.Sprintf("%s credited to your wallet for order #%d.", order.TotalPrice.StringFixed(2), order.ID), data)
	}
	if refunded {
		s.notifier.notifyQuietly(ctx, order.CustomerID, domain.NotifyWalletCredited,
			fmt.Sprintf("%s refunded to your wallet for order #%d.", order.TotalPrice.StringFixed(2), order.ID), data)
	}
	if deliveryCreated {
		var couriers []domain.User
		err := s.db.WithContext(ctx).
			Joins("JOIN courier_profiles ON courier_profiles.user_id = users.id").
			Where("users.role = ? AND users.pincode = ? AND courier_profiles.is_active = ?", domain.RoleDelivery, order.DeliveryPincode, true).
			Select("users.id").
			Find(&couriers).Error
		if err != nil {
			logrus.WithError(err).Warn("courier lookup failed")
			return
		}
		for _, c := range couriers {
			s.notifier.notifyQuietly(ctx, c.ID, domain.NotifyDeliveryAvailable,
				fmt.Sprintf("New delivery available for order #%d.", order.ID), data)
		}
	}
}

// authorizeOrderTransition applies the per-role rules for driving an order
func authorizeOrderTransition(actor *domain.User, order *domain.Order, target domain.OrderStatus) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleOwner:
		if order.Tiffin == nil || order.Tiffin.Owner == nil || order.Tiffin.Owner.UserID != actor.ID {
			return domain.ErrForbidden
		}
		return nil
	case domain.RoleCustomer:
		if order.CustomerID != actor.ID || target != domain.OrderCancelled {
			return domain.ErrForbidden
		}
		return nil
	case domain.RoleDelivery:
		if order.DeliveryPincode != actor.Pincode {
			return domain.ErrForbidden
		}
		// couriers only act on orders they can see
		if !courierVisible(order.Status) {
			return domain.ErrForbidden
		}
		if order.CourierID != nil && *order.CourierID != actor.ID {
			return domain.ErrForbidden
		}
		if target != domain.OrderPickedUp && target != domain.OrderDelivered {
			return domain.ErrForbidden
		}
		return nil
	}
	return domain.ErrForbidden
}

// ensureDeliveryTx creates the order's delivery row unless it already exists
func ensureDeliveryTx(tx *gorm.DB, order *domain.Order, pickup string) (bool, error) {
	d := domain.Delivery{
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		PickupAddress:   pickup,
		DeliveryAddress: order.DeliveryAddress,
		DeliveryPincode: order.DeliveryPincode,
		Status:          domain.DeliveryPending,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&d)
	if res.Error != nil {
		return false, fmt.Errorf("create delivery: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// mirrorOntoDeliveryTx carries courier-visible order states onto an open delivery
func mirrorOntoDeliveryTx(tx *gorm.DB, orderID uint, target domain.OrderStatus) error {
	var status domain.DeliveryStatus
	switch target {
	case domain.OrderPickedUp:
		status = domain.DeliveryPickedUp
	case domain.OrderDelivered:
		status = domain.DeliveryDelivered
	case domain.OrderCancelled:
		status = domain.DeliveryCancelled
	default:
		return nil
	}
	closed := []string{string(domain.DeliveryDelivered), string(domain.DeliveryCancelled)}
	return tx.Model(&domain.Delivery{}).
		Where("order_id = ? AND status NOT IN ?", orderID, closed).
		Update("status", status).Error
}

// List returns the orders visible to actor
func (s *Orders) List(ctx context.Context, actor *domain.User, filter OrderFilter, page utils.Page) ([]domain.Order, int64, error) {
	q, err := s.scope(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, 0, domain.ErrInvalidStatus
		}
		q = q.Where("orders.status = ?", string(filter.Status))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	var orders []domain.Order
	if err := q.Preload("Tiffin").Order("orders.created_at desc, orders.id desc").
		Offset(page.Offset()).Limit(page.Limit()).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// Get returns one order if actor may see it
func (s *Orders) Get(ctx context.Context, actor *domain.User, id uint) (*domain.Order, error) {
	q, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	var order domain.Order
	if err := q.Preload("Tiffin").Where("orders.id = ?", id).First(&order).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (s *Orders) load(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	if err := s.db.WithContext(ctx).Preload("Tiffin").First(&order, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// scope restricts the orders table to what actor may read
func (s *Orders) scope(ctx context.Context, actor *domain.User) (*gorm.DB, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&domain.Order{})
	switch actor.Role {
	case domain.RoleAdmin:
		return q, nil
	case domain.RoleCustomer:
		return q.Where("orders.customer_id = ?", actor.ID), nil
	case domain.RoleOwner:
		profile, err := ownerProfile(db, actor.ID)
		if errors.Is(err, domain.ErrProfileMissing) {
			return q.Where("1 = 0"), nil
		}
		if err != nil {
			return nil, err
		}
		mine := s.db.WithContext(ctx).Model(&domain.Tiffin{}).Select("id").Where("owner_id = ?", profile.ID)
		return q.Where("orders.tiffin_id IN (?)", mine), nil
	case domain.RoleDelivery:
		visible := make([]string, len(courierStates))
		for i, st := range courierStates {
			visible[i] = string(st)
		}
		return q.Where("orders.delivery_pincode = ? AND orders.status IN ? AND (orders.courier_id IS NULL OR orders.courier_id = ?)",
			actor.Pincode, visible, actor.ID), nil
	}
	return nil, domain.ErrForbidden
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
