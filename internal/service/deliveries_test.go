package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"home_eats/internal/domain"
	"home_eats/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readyDelivery places an order and drives it to ready_for_delivery
func readyDelivery(t *testing.T, w *orderWorld) *domain.Delivery {
	t.Helper()
	w.fund(t, w.customer, "30")
	o := w.place(t, 1)
	_, err := w.orders.UpdateStatus(context.Background(), w.owner, o.ID, domain.OrderReadyForDelivery)
	require.NoError(t, err)
	var d domain.Delivery
	require.NoError(t, w.db.Where("order_id = ?", o.ID).First(&d).Error)
	return &d
}

func TestDeliveries_ListAvailable(t *testing.T) {
	w := newOrderWorld(t)
	d := readyDelivery(t, w)
	ctx := context.Background()
	page := utils.NewPage("", "")

	list, total, err := w.deliveries.ListAvailable(ctx, "560001", page)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, d.ID, list[0].ID)
	require.NotNil(t, list[0].Order)

	_, total, err = w.deliveries.ListAvailable(ctx, "110001", page)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = w.deliveries.Accept(ctx, d.ID, w.courier)
	require.NoError(t, err)
	_, total, err = w.deliveries.ListAvailable(ctx, "", page)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDeliveries_ConcurrentAcceptHasOneWinner(t *testing.T) {
	// several pooled connections so the claims really overlap
	w := newOrderWorldOn(t, newFixtureOn(newConcurrentTestDB(t)))
	d := readyDelivery(t, w)
	couriers := []*domain.User{w.courier}
	for i := 0; i < 5; i++ {
		couriers = append(couriers, w.user(t, fmt.Sprintf("rider%d", i), domain.RoleDelivery, "560001"))
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, len(couriers))
	for i, c := range couriers {
		wg.Add(1)
		go func(i int, c *domain.User) {
			defer wg.Done()
			<-start
			_, errs[i] = w.deliveries.Accept(context.Background(), d.ID, c)
		}(i, c)
	}
	close(start)
	wg.Wait()

	var winner *domain.User
	failures := 0
	for i, err := range errs {
		if err == nil {
			winner = couriers[i]
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
		failures++
	}
	require.NotNil(t, winner)
	assert.Equal(t, len(couriers)-1, failures)

	var stored domain.Delivery
	require.NoError(t, w.db.First(&stored, d.ID).Error)
	require.NotNil(t, stored.CourierID)
	assert.Equal(t, winner.ID, *stored.CourierID)
	assert.Equal(t, domain.DeliveryAccepted, stored.Status)
	assert.NotNil(t, stored.AcceptedAt)

	var order domain.Order
	require.NoError(t, w.db.First(&order, d.OrderID).Error)
	require.NotNil(t, order.CourierID)
	assert.Equal(t, winner.ID, *order.CourierID)
}

func TestDeliveries_AcceptRejections(t *testing.T) {
	w := newOrderWorld(t)
	d := readyDelivery(t, w)
	ctx := context.Background()

	_, err := w.deliveries.Accept(ctx, 9999, w.courier)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = w.deliveries.Accept(ctx, d.ID, w.customer)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, w.db.Model(&domain.CourierProfile{}).Where("user_id = ?", w.courier.ID).Update("is_active", false).Error)
	_, err = w.deliveries.Accept(ctx, d.ID, w.courier)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	bare := domain.User{Username: "noprofile", Password: "x", Role: domain.RoleDelivery}
	require.NoError(t, w.db.Create(&bare).Error)
	_, err = w.deliveries.Accept(ctx, d.ID, &bare)
	assert.ErrorIs(t, err, domain.ErrProfileMissing)
}

func TestDeliveries_UpdateStatusOwnership(t *testing.T) {
	w := newOrderWorld(t)
	d := readyDelivery(t, w)
	ctx := context.Background()
	_, err := w.deliveries.Accept(ctx, d.ID, w.courier)
	require.NoError(t, err)

	stranger := w.user(t, "kiran", domain.RoleDelivery, "560001")
	_, err = w.deliveries.UpdateStatus(ctx, stranger, d.ID, domain.DeliveryPickedUp)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = w.deliveries.UpdateStatus(ctx, w.customer, d.ID, domain.DeliveryPickedUp)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = w.deliveries.UpdateStatus(ctx, w.courier, d.ID, "flying")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	got, err := w.deliveries.UpdateStatus(ctx, w.owner, d.ID, domain.DeliveryPickedUp)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryPickedUp, got.Status)
	require.NotNil(t, got.Order)
	assert.Equal(t, domain.OrderPickedUp, got.Order.Status)

	_, err = w.deliveries.UpdateStatus(ctx, w.courier, d.ID, domain.DeliveryDelivered)
	require.NoError(t, err)
	_, err = w.deliveries.UpdateStatus(ctx, w.courier, d.ID, domain.DeliveryPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDeliveries_ResetToPendingReturnsToPool(t *testing.T) {
	w := newOrderWorld(t)
	d := readyDelivery(t, w)
	ctx := context.Background()
	page := utils.NewPage("", "")

	// accepted without a claim is refused
	_, err := w.deliveries.UpdateStatus(ctx, w.owner, d.ID, domain.DeliveryAccepted)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = w.deliveries.Accept(ctx, d.ID, w.courier)
	require.NoError(t, err)

	got, err := w.deliveries.UpdateStatus(ctx, w.owner, d.ID, domain.DeliveryPending)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryPending, got.Status)
	assert.Nil(t, got.CourierID)
	assert.Nil(t, got.AcceptedAt)
	require.NotNil(t, got.Order)
	assert.Nil(t, got.Order.CourierID)

	_, total, err := w.deliveries.ListAvailable(ctx, "560001", page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	rival := w.user(t, "kiran", domain.RoleDelivery, "560001")
	claimed, err := w.deliveries.Accept(ctx, d.ID, rival)
	require.NoError(t, err)
	require.NotNil(t, claimed.CourierID)
	assert.Equal(t, rival.ID, *claimed.CourierID)

	var o domain.Order
	require.NoError(t, w.db.First(&o, d.OrderID).Error)
	require.NotNil(t, o.CourierID)
	assert.Equal(t, rival.ID, *o.CourierID)
	assert.Equal(t, domain.OrderReadyForDelivery, o.Status)
}

func TestDeliveries_CancelledDeliveryDoesNotTouchOrder(t *testing.T) {
	w := newOrderWorld(t)
	d := readyDelivery(t, w)
	admin := w.user(t, "root", domain.RoleAdmin, "")

	_, err := w.deliveries.UpdateStatus(context.Background(), admin, d.ID, domain.DeliveryCancelled)
	require.NoError(t, err)

	var o domain.Order
	require.NoError(t, w.db.First(&o, d.OrderID).Error)
	assert.Equal(t, domain.OrderReadyForDelivery, o.Status)
}

func TestDeliveries_ListIsRoleScoped(t *testing.T) {
	w := newOrderWorld(t)
	d := readyDelivery(t, w)
	ctx := context.Background()
	page := utils.NewPage("", "")

	for _, u := range []*domain.User{w.customer, w.owner, w.courier} {
		_, total, err := w.deliveries.List(ctx, u, DeliveryFilter{}, page)
		require.NoError(t, err, u.Username)
		assert.Equal(t, int64(1), total, u.Username)
	}

	stranger := w.user(t, "bala", domain.RoleCustomer, "560001")
	_, total, err := w.deliveries.List(ctx, stranger, DeliveryFilter{}, page)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = w.deliveries.List(ctx, w.courier, DeliveryFilter{Unassigned: true}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, err = w.deliveries.Accept(ctx, d.ID, w.courier)
	require.NoError(t, err)

	_, total, err = w.deliveries.List(ctx, w.courier, DeliveryFilter{Unassigned: true}, page)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = w.deliveries.List(ctx, w.owner, DeliveryFilter{CourierID: &w.courier.ID, Status: domain.DeliveryAccepted}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	other := w.user(t, "kiran", domain.RoleDelivery, "560001")
	_, total, err = w.deliveries.List(ctx, other, DeliveryFilter{}, page)
	require.NoError(t, err)
	assert.Zero(t, total)
}
