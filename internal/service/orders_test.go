package service

import (
	"context"
	"testing"

	"home_eats/internal/domain"
	"home_eats/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderWorld struct {
	*fixture
	customer *domain.User
	owner    *domain.User
	courier  *domain.User
	tiffin   *domain.Tiffin
}

func newOrderWorld(t *testing.T) *orderWorld {
	return newOrderWorldOn(t, newFixture(t))
}

func newOrderWorldOn(t *testing.T, f *fixture) *orderWorld {
	t.Helper()
	w := &orderWorld{fixture: f}
	w.customer = f.user(t, "asha", domain.RoleCustomer, "560001")
	w.owner = f.user(t, "ravi", domain.RoleOwner, "560001")
	w.courier = f.user(t, "dev", domain.RoleDelivery, "560001")
	w.tiffin = f.tiffin(t, w.owner, "Veg Thali", "30")
	return w
}

func (w *orderWorld) place(t *testing.T, qty int) *domain.Order {
	t.Helper()
	o, err := w.orders.Place(context.Background(), w.customer, PlaceOrderInput{TiffinID: w.tiffin.ID, Quantity: qty})
	require.NoError(t, err)
	return o
}

func TestOrders_PlaceDebitsWallet(t *testing.T) {
	w := newOrderWorld(t)
	w.fund(t, w.customer, "100")

	o := w.place(t, 2)
	assert.Equal(t, domain.OrderPending, o.Status)
	requireAmount(t, "60", o.TotalPrice)
	assert.Equal(t, "asha street", o.DeliveryAddress)
	assert.Equal(t, "560001", o.DeliveryPincode)
	requireAmount(t, "40", w.balance(t, w.customer))

	var debit domain.WalletTransaction
	require.NoError(t, w.db.Where("type = ?", domain.TxnDebit).First(&debit).Error)
	requireAmount(t, "-60", debit.Amount)
	assert.Equal(t, domain.OrderReference(o.ID), debit.Reference)
	w.requireLedgerConsistent(t)

	assert.Equal(t, 1, w.out.count(w.customer.ID))
	assert.Equal(t, 1, w.out.count(w.owner.ID))
}

func TestOrders_PlaceInsufficientFundsMutatesNothing(t *testing.T) {
	w := newOrderWorld(t)
	w.fund(t, w.customer, "50")

	_, err := w.orders.Place(context.Background(), w.customer, PlaceOrderInput{TiffinID: w.tiffin.ID, Quantity: 2})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	requireAmount(t, "50", w.balance(t, w.customer))
	var n int64
	require.NoError(t, w.db.Model(&domain.Order{}).Count(&n).Error)
	assert.Zero(t, n)
	w.requireLedgerConsistent(t)
}

func TestOrders_PlaceValidation(t *testing.T) {
	w := newOrderWorld(t)
	w.fund(t, w.customer, "100")
	ctx := context.Background()

	_, err := w.orders.Place(ctx, w.customer, PlaceOrderInput{TiffinID: 9999})
	assert.ErrorIs(t, err, domain.ErrTiffinNotFound)

	_, err = w.orders.Place(ctx, w.customer, PlaceOrderInput{TiffinID: w.tiffin.ID, Quantity: -1})
	var verr domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = w.orders.Place(ctx, w.owner, PlaceOrderInput{TiffinID: w.tiffin.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, w.db.Model(w.tiffin).Update("is_available", false).Error)
	_, err = w.orders.Place(ctx, w.customer, PlaceOrderInput{TiffinID: w.tiffin.ID})
	assert.ErrorIs(t, err, domain.ErrTiffinUnavailable)
}

func TestOrders_QuantityDefaultsToOne(t *testing.T) {
	w := newOrderWorld(t)
	w.fund(t, w.customer, "100")
	o := w.place(t, 0)
	assert.Equal(t, 1, o.Quantity)
	requireAmount(t, "30", o.TotalPrice)
}

func TestOrders_SettlementFiresOnce(t *testing.T) {
	w := newOrderWorld(t)
	w.fund(t, w.customer, "100")
	o := w.place(t, 2)
	ctx := context.Background()

	got, err := w.orders.UpdateStatus(ctx, w.owner, o.ID, domain.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, got.Status)
	assert.NotNil(t, got.SettledAt)
	requireAmount(t, "60", w.balance(t, w.owner))

	_, err = w.orders.UpdateStatus(ctx, w.owner, o.ID, domain.OrderPreparing)
	require.NoError(t, err)
	requireAmount(t, "60", w.balance(t, w.owner))

	var settlements int64
	require.NoError(t, w.db.Model(&domain.WalletTransaction{}).Where("type = ?", domain.TxnSettlement).Count(&settlements).Error)
	assert.Equal(t, int64(1), settlements)
	w.requireLedgerConsistent(t)
}

func TestOrders_PendingToCancelledRefunds(t *testing.T) {
	w := newOrderWorld(t)
	w.fund(t, w.customer, "100")
	o := w.place(t, 1)

	_, err := w.orders.UpdateStatus(context.Background(), w.customer, o.ID, domain.OrderCancelled)
	require.NoError(t, err)
	requireAmount(t, "100", w.balance(t, w.customer))
	w.requireLedgerConsistent(t)

	_, err = w.orders.UpdateStatus(context.Background(), w.owner, o.ID, domain.OrderConfirmed)
	assert.ErrorIs(t, err, domain.ErrOrderClosed)
}

func TestOrders_TransitionRules(t *testing.T) {
	w := newOrderWorld(t)
	w.fund(t, w.customer, "100")
	o := w.place(t, 1)
	ctx := context.Background()

	_, err := w.orders.UpdateStatus(ctx, w.owner, o.ID, "baking")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = w.orders.UpdateStatus(ctx, w.customer, o.ID, domain.OrderConfirmed)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = w.orders.UpdateStatus(ctx, w.owner, o.ID, domain.OrderPending)
	require.NoError(t, err, "same status is a no-op")

	_, err = w.orders.UpdateStatus(ctx, w.owner, o.ID, domain.OrderConfirmed)
	require.NoError(t, err)
	_, err = w.orders.UpdateStatus(ctx, w.owner, o.ID, domain.OrderPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	other := w.user(t, "meera", domain.RoleOwner, "560001")
	_, err = w.orders.UpdateStatus(ctx, other, o.ID, domain.OrderPreparing)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = w.orders.UpdateStatus(ctx, w.owner, 4242, domain.OrderPreparing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrders_ReadyForDeliveryCreatesOneDelivery(t *testing.T) {
	w := newOrderWorld(t)
	w.fund(t, w.customer, "100")
	o := w.place(t, 1)
	ctx := context.Background()

	_, err := w.orders.UpdateStatus(ctx, w.owner, o.ID, domain.OrderReadyForDelivery)
	require.NoError(t, err)
	// step back and re-enter the state
	_, err = w.orders.UpdateStatus(ctx, w.owner, o.ID, domain.OrderPreparing)
	require.NoError(t, err)
	_, err = w.orders.UpdateStatus(ctx, w.owner, o.ID, domain.OrderReadyForDelivery)
	require.NoError(t, err)

	var deliveries []domain.Delivery
	require.NoError(t, w.db.Find(&deliveries).Error)
	require.Len(t, deliveries, 1)
	d := deliveries[0]
	assert.Equal(t, domain.DeliveryPending, d.Status)
	assert.Nil(t, d.CourierID)
	assert.Equal(t, "1 Kitchen Lane", d.PickupAddress)
	assert.Equal(t, "560001", d.DeliveryPincode)

	// courier in the pincode was told once
	var feed int64
	require.NoError(t, w.db.Model(&domain.Notification{}).
		Where("user_id = ? AND type = ?", w.courier.ID, domain.NotifyDeliveryAvailable).Count(&feed).Error)
	assert.Equal(t, int64(1), feed)
}

func TestOrders_CourierRules(t *testing.T) {
	w := newOrderWorld(t)
	w.fund(t, w.customer, "100")
	o := w.place(t, 1)
	ctx := context.Background()

	// a pending order has not been handed over yet
	_, err := w.orders.UpdateStatus(ctx, w.courier, o.ID, domain.OrderDelivered)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	var stored domain.Order
	require.NoError(t, w.db.First(&stored, o.ID).Error)
	assert.Equal(t, domain.OrderPending, stored.Status)
	assert.Nil(t, stored.SettledAt)

	_, err = w.orders.UpdateStatus(ctx, w.owner, o.ID, domain.OrderConfirmed)
	require.NoError(t, err)
	_, err = w.orders.UpdateStatus(ctx, w.courier, o.ID, domain.OrderPickedUp)
	assert.ErrorIs(t, err, domain.ErrForbidden, "confirmed orders are still with the kitchen")

	_, err = w.orders.UpdateStatus(ctx, w.owner, o.ID, domain.OrderReadyForDelivery)
	require.NoError(t, err)

	far := w.user(t, "far", domain.RoleDelivery, "110001")
	_, err = w.orders.UpdateStatus(ctx, far, o.ID, domain.OrderPickedUp)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = w.orders.UpdateStatus(ctx, w.courier, o.ID, domain.OrderCancelled)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := w.orders.UpdateStatus(ctx, w.courier, o.ID, domain.OrderPickedUp)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPickedUp, got.Status)

	var d domain.Delivery
	require.NoError(t, w.db.Where("order_id = ?", o.ID).First(&d).Error)
	assert.Equal(t, domain.DeliveryPickedUp, d.Status)
}

func TestOrders_ListIsRoleScoped(t *testing.T) {
	w := newOrderWorld(t)
	w.fund(t, w.customer, "100")
	other := w.user(t, "bala", domain.RoleCustomer, "560001")
	w.fund(t, other, "100")
	ctx := context.Background()

	mine := w.place(t, 1)
	_, err := w.orders.Place(ctx, other, PlaceOrderInput{TiffinID: w.tiffin.ID})
	require.NoError(t, err)
	page := utils.NewPage("", "")

	list, total, err := w.orders.List(ctx, w.customer, OrderFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, mine.ID, list[0].ID)

	_, total, err = w.orders.List(ctx, w.owner, OrderFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = w.orders.List(ctx, w.courier, OrderFilter{}, page)
	require.NoError(t, err)
	assert.Zero(t, total, "nothing is ready yet")

	_, err = w.orders.UpdateStatus(ctx, w.owner, mine.ID, domain.OrderReadyForDelivery)
	require.NoError(t, err)
	list, total, err = w.orders.List(ctx, w.courier, OrderFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, mine.ID, list[0].ID)

	_, total, err = w.orders.List(ctx, w.owner, OrderFilter{Status: domain.OrderPending}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, err = w.orders.Get(ctx, other, mine.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := w.orders.Get(ctx, w.customer, mine.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Tiffin)
	assert.Equal(t, "Veg Thali", got.Tiffin.Name)
}

func TestOrders_Scenario(t *testing.T) {
	w := newOrderWorld(t)
	w.fund(t, w.customer, "100")
	ctx := context.Background()

	o := w.place(t, 2)
	requireAmount(t, "40", w.balance(t, w.customer))
	requireAmount(t, "60", o.TotalPrice)
	assert.Equal(t, domain.OrderPending, o.Status)

	for _, s := range []domain.OrderStatus{domain.OrderConfirmed, domain.OrderPreparing, domain.OrderReadyForDelivery} {
		_, err := w.orders.UpdateStatus(ctx, w.owner, o.ID, s)
		require.NoError(t, err, s)
	}
	var d domain.Delivery
	require.NoError(t, w.db.Where("order_id = ?", o.ID).First(&d).Error)
	_, err := w.deliveries.Accept(ctx, d.ID, w.courier)
	require.NoError(t, err)
	_, err = w.deliveries.UpdateStatus(ctx, w.courier, d.ID, domain.DeliveryPickedUp)
	require.NoError(t, err)
	_, err = w.deliveries.UpdateStatus(ctx, w.courier, d.ID, domain.DeliveryDelivered)
	require.NoError(t, err)

	final, err := w.orders.Get(ctx, w.customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDelivered, final.Status)
	require.NotNil(t, final.CourierID)
	assert.Equal(t, w.courier.ID, *final.CourierID)
	requireAmount(t, "60", w.balance(t, w.owner))
	requireAmount(t, "40", w.balance(t, w.customer))
	w.requireLedgerConsistent(t)
}
