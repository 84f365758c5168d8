package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"home_eats/internal/db"
	"home_eats/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "open sqlite")
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// newConcurrentTestDB opens a file-backed database that serves several connections at once;
// writers queue on the busy timeout instead of failing
func newConcurrentTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eats.db")
	dsn := "file:" + path + "?_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "open sqlite file")
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return srv, rdb
}

// recorder is a Broadcaster that remembers what it was asked to push
type recorder struct {
	mu     sync.Mutex
	events map[uint][]any
}

func (r *recorder) BroadcastToUser(userID uint, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = map[uint][]any{}
	}
	r.events[userID] = append(r.events[userID], payload)
}

func (r *recorder) count(userID uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events[userID])
}

// fixture wires every service over one database
type fixture struct {
	db         *gorm.DB
	out        *recorder
	ledger     *Ledger
	notifier   *Notifier
	catalog    *Catalog
	orders     *Orders
	deliveries *Deliveries
	banks      *BankAccounts
	accounts   *Accounts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(newTestDB(t))
}

func newFixtureOn(gdb *gorm.DB) *fixture {
	out := &recorder{}
	ledger := NewLedger(gdb, nil)
	notifier := NewNotifier(gdb, out)
	return &fixture{
		db:         gdb,
		out:        out,
		ledger:     ledger,
		notifier:   notifier,
		catalog:    NewCatalog(gdb, nil),
		orders:     NewOrders(gdb, ledger, notifier),
		deliveries: NewDeliveries(gdb, notifier),
		banks:      NewBankAccounts(gdb),
		accounts:   NewAccounts(gdb, ledger),
	}
}

func (f *fixture) user(t *testing.T, username, role, pincode string) *domain.User {
	t.Helper()
	u := domain.User{
		Username: username,
		Password: "x",
		Role:     role,
		Street:   username + " street",
		Pincode:  pincode,
	}
	require.NoError(t, f.db.Create(&u).Error)
	switch role {
	case domain.RoleOwner:
		p := domain.OwnerProfile{UserID: u.ID, BusinessName: username + " kitchen", BusinessAddress: "1 Kitchen Lane", BusinessPincode: pincode}
		require.NoError(t, f.db.Create(&p).Error)
		u.OwnerProfile = &p
	case domain.RoleDelivery:
		p := domain.CourierProfile{UserID: u.ID, VehicleNumber: "KA01", IsActive: true}
		require.NoError(t, f.db.Create(&p).Error)
		u.CourierProfile = &p
	}
	return &u
}

func (f *fixture) tiffin(t *testing.T, owner *domain.User, name, price string) *domain.Tiffin {
	t.Helper()
	tf := domain.Tiffin{OwnerID: owner.OwnerProfile.ID, Name: name, Price: dec(price), IsAvailable: true}
	require.NoError(t, f.db.Create(&tf).Error)
	return &tf
}

func (f *fixture) fund(t *testing.T, u *domain.User, amount string) {
	t.Helper()
	_, err := f.ledger.Deposit(context.Background(), u.ID, dec(amount))
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, u *domain.User) decimal.Decimal {
	t.Helper()
	var w domain.Wallet
	require.NoError(t, f.db.Where("user_id = ?", u.ID).First(&w).Error)
	return w.Balance
}

// requireLedgerConsistent checks that every wallet equals the sum of its rows
func (f *fixture) requireLedgerConsistent(t *testing.T) {
	t.Helper()
	var wallets []domain.Wallet
	require.NoError(t, f.db.Find(&wallets).Error)
	for _, w := range wallets {
		var rows []domain.WalletTransaction
		require.NoError(t, f.db.Where("wallet_id = ?", w.ID).Find(&rows).Error)
		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(r.Amount)
		}
		require.True(t, sum.Equal(w.Balance), "wallet %d: balance %s, rows sum to %s", w.ID, w.Balance, sum)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
