package service

import (
	"context"
	"testing"

	"home_eats/internal/domain"
	"home_eats/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registration(username, userType string) RegisterInput {
	return RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
		UserType:        userType,
		Street:          "12 MG Road",
		Pincode:         "560001",
	}
}

func TestAccounts_RegisterCreatesProfileAndWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner, err := f.accounts.Register(ctx, registration("Ravi", "tiffinOwner"))
	require.NoError(t, err)
	assert.Equal(t, "ravi", owner.Username)
	assert.Equal(t, domain.RoleOwner, owner.Role)
	require.NotNil(t, owner.OwnerProfile)
	assert.Equal(t, "12 MG Road", owner.OwnerProfile.BusinessAddress)
	assert.Equal(t, "560001", owner.OwnerProfile.BusinessPincode)
	require.NotNil(t, owner.Wallet)
	requireAmount(t, "0", owner.Wallet.Balance)

	courier, err := f.accounts.Register(ctx, registration("dev", "deliveryBoy"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDelivery, courier.Role)
	require.NotNil(t, courier.CourierProfile)
	assert.True(t, courier.CourierProfile.IsActive)

	customer, err := f.accounts.Register(ctx, registration("asha", "customer"))
	require.NoError(t, err)
	assert.Nil(t, customer.OwnerProfile)
	assert.Nil(t, customer.CourierProfile)
}

func TestAccounts_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]struct {
		mutate func(*RegisterInput)
		field  string
	}{
		"mismatch":     {func(in *RegisterInput) { in.ConfirmPassword = "different1" }, "confirm_password"},
		"short":        {func(in *RegisterInput) { in.Password, in.ConfirmPassword = "abc", "abc" }, "password"},
		"no username":  {func(in *RegisterInput) { in.Username = "" }, "username"},
		"bad username": {func(in *RegisterInput) { in.Username = "has space" }, "username"},
		"no type":      {func(in *RegisterInput) { in.UserType = "" }, "user_type"},
		"admin type":   {func(in *RegisterInput) { in.UserType = "admin" }, "user_type"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := registration("asha", "customer")
			tc.mutate(&in)
			_, err := f.accounts.Register(ctx, in)
			var verr domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr, tc.field)
		})
	}
}

func TestAccounts_RegisterDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, registration("asha", "customer"))
	require.NoError(t, err)

	_, err = f.accounts.Register(ctx, registration("ASHA", "customer"))
	var verr domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "username")

	in := registration("bala", "customer")
	in.Email = "asha@example.com"
	_, err = f.accounts.Register(ctx, in)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "email")
}

func TestAccounts_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, registration("asha", "customer"))
	require.NoError(t, err)

	u, err := f.accounts.Authenticate(ctx, "Asha", "password123")
	require.NoError(t, err)
	assert.Equal(t, "asha", u.Username)

	_, err = f.accounts.Authenticate(ctx, "asha", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.accounts.Authenticate(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAccounts_UpdateMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, err := f.accounts.Register(ctx, registration("ravi", "owner"))
	require.NoError(t, err)
	_, err = f.accounts.Register(ctx, registration("asha", "customer"))
	require.NoError(t, err)

	got, err := f.accounts.UpdateMe(ctx, owner.ID, ProfilePatch{
		Name:         strPtr("Ravi Kumar"),
		Pincode:      strPtr("600001"),
		BusinessName: strPtr("Ravi's Kitchen"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", got.Name)
	assert.Equal(t, "600001", got.Pincode)
	assert.Equal(t, "12 MG Road", got.Street, "untouched fields stay")
	require.NotNil(t, got.OwnerProfile)
	assert.Equal(t, "Ravi's Kitchen", got.OwnerProfile.BusinessName)

	_, err = f.accounts.UpdateMe(ctx, owner.ID, ProfilePatch{Email: strPtr("asha@example.com")})
	var verr domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "email")

	got, err = f.accounts.UpdateMe(ctx, owner.ID, ProfilePatch{Email: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, got.Email)
}

func TestAccounts_ListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"a1", "b2", "c3"} {
		_, err := f.accounts.Register(ctx, registration(name, "customer"))
		require.NoError(t, err)
	}
	users, total, err := f.accounts.ListUsers(ctx, utils.Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, users, 1)
	assert.Equal(t, "c3", users[0].Username)
	assert.NotNil(t, users[0].Wallet)
}
