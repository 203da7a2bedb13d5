package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/enums"
	pkgerrors "github.com/mirontsev/gamekeys-backend/pkg/errors"
	"github.com/mirontsev/gamekeys-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  email TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'customer',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS games (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  base_price NUMERIC NOT NULL DEFAULT 0,
  discount_percent INTEGER NOT NULL DEFAULT 0,
  price_final NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS platforms (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  total_amount NUMERIC NOT NULL DEFAULT 0,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL,
  game_id INTEGER NOT NULL,
  platform_id INTEGER NOT NULL,
  qty INTEGER NOT NULL DEFAULT 1,
  unit_price NUMERIC NOT NULL,
  subtotal NUMERIC GENERATED ALWAYS AS (unit_price * qty) STORED,
  fulfillment_status TEXT NOT NULL DEFAULT 'pending',
  delivered_to_email TEXT,
  delivered_at DATETIME,
  delivery_note TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS payments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL,
  provider TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) int64 {
	t.Helper()
	require.NoError(t, db.Exec("INSERT INTO users (email) VALUES (?)", email).Error)
	var id int64
	require.NoError(t, db.Raw("SELECT id FROM users WHERE email = ?", email).Scan(&id).Error)
	return id
}

func seedOrder(t *testing.T, db *gorm.DB, userID int64, status string, createdAt time.Time) int64 {
	t.Helper()
	require.NoError(t, db.Exec(
		"INSERT INTO orders (user_id, status, payment_status, total_amount, created_at, updated_at) VALUES (?, ?, 'captured', '19.25', ?, ?)",
		userID, status, createdAt, createdAt,
	).Error)
	var id int64
	require.NoError(t, db.Raw("SELECT id FROM orders ORDER BY id DESC LIMIT 1").Scan(&id).Error)
	return id
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newOrdersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func TestListNewestFirstWithEmailAndFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	older := seedOrder(t, db, alice, "fulfilled", base)
	newer := seedOrder(t, db, alice, "fulfilled", base.Add(time.Hour))
	seedOrder(t, db, bob, "fulfilled", base.Add(2*time.Hour))

	svc := newOrdersService(t, db)
	ctx := context.Background()

	all, err := svc.List(ctx, pagination.Params{}, Filters{})
	require.NoError(t, err)
	require.Len(t, all.Orders, 3)
	assert.True(t, all.Orders[0].CreatedAt.After(all.Orders[1].CreatedAt))
	require.NotNil(t, all.Orders[0].UserEmail)
	assert.Equal(t, "bob@example.com", *all.Orders[0].UserEmail)

	mine, err := svc.List(ctx, pagination.Params{}, Filters{UserID: &alice})
	require.NoError(t, err)
	require.Len(t, mine.Orders, 2)
	assert.Equal(t, newer, mine.Orders[0].ID)
	assert.Equal(t, older, mine.Orders[1].ID)
}

func TestListPaginatesWithCursor(t *testing.T) {
	db := setupOrdersTestDB(t)
	alice := seedUser(t, db, "alice@example.com")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedOrder(t, db, alice, "fulfilled", base.Add(time.Duration(i)*time.Hour))
	}

	svc := newOrdersService(t, db)
	ctx := context.Background()

	first, err := svc.List(ctx, pagination.Params{Limit: 2}, Filters{})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor}, Filters{})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Empty(t, second.NextCursor)
	assert.NotEqual(t, first.Orders[1].ID, second.Orders[0].ID)
}

func TestGetByIDEnforcesOwnership(t *testing.T) {
	db := setupOrdersTestDB(t)
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")
	orderID := seedOrder(t, db, alice, "fulfilled", time.Now().UTC())

	require.NoError(t, db.Exec("INSERT INTO games (title, price_final) VALUES ('Alpha', '19.25')").Error)
	require.NoError(t, db.Exec("INSERT INTO platforms (name) VALUES ('Steam')").Error)
	require.NoError(t, db.Exec(
		"INSERT INTO order_items (order_id, game_id, platform_id, qty, unit_price, fulfillment_status) VALUES (?, 1, 1, 1, '19.25', 'issued')",
		orderID,
	).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO payments (order_id, provider, amount, status) VALUES (?, 'card', '19.25', 'captured')",
		orderID,
	).Error)

	svc := newOrdersService(t, db)
	ctx := context.Background()

	detail, err := svc.GetByID(ctx, orderID, Actor{UserID: alice, Role: enums.UserRoleCustomer})
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Alpha", detail.Items[0].GameTitle)
	assert.Equal(t, "Steam", detail.Items[0].PlatformName)
	require.NotNil(t, detail.Payment)
	assert.EqualValues(t, "captured", detail.Payment.Status)
	require.NotNil(t, detail.UserEmail)
	assert.Equal(t, "alice@example.com", *detail.UserEmail)

	_, err = svc.GetByID(ctx, orderID, Actor{UserID: bob, Role: enums.UserRoleCustomer})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())

	_, err = svc.GetByID(ctx, orderID, Actor{UserID: bob, Role: enums.UserRoleAdmin})
	require.NoError(t, err, "admin may read any order")

	_, err = svc.GetByID(ctx, 404404, Actor{UserID: alice, Role: enums.UserRoleAdmin})
	require.Error(t, err)
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestUpdateAppliesPartialEdit(t *testing.T) {
	db := setupOrdersTestDB(t)
	alice := seedUser(t, db, "alice@example.com")
	orderID := seedOrder(t, db, alice, "fulfilled", time.Now().UTC())

	svc := newOrdersService(t, db)
	ctx := context.Background()

	notes := "manual refund pending"
	detail, err := svc.Update(ctx, orderID, UpdateInput{Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, detail.Order.Notes)
	assert.Equal(t, notes, *detail.Order.Notes)
	assert.Equal(t, enums.OrderStatusFulfilled, detail.Order.Status, "untouched fields keep their value")

	failed := enums.OrderStatusFailed
	detail, err = svc.Update(ctx, orderID, UpdateInput{Status: &failed})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusFailed, detail.Order.Status)
	require.NotNil(t, detail.Order.Notes)
	assert.Equal(t, notes, *detail.Order.Notes)
}

func TestUpdateCancelledOrderIsTerminal(t *testing.T) {
	db := setupOrdersTestDB(t)
	alice := seedUser(t, db, "alice@example.com")
	orderID := seedOrder(t, db, alice, "cancelled", time.Now().UTC())

	svc := newOrdersService(t, db)

	fulfilled := enums.OrderStatusFulfilled
	_, err := svc.Update(context.Background(), orderID, UpdateInput{Status: &fulfilled})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestCancelIsSoftAndIdempotent(t *testing.T) {
	db := setupOrdersTestDB(t)
	alice := seedUser(t, db, "alice@example.com")
	orderID := seedOrder(t, db, alice, "fulfilled", time.Now().UTC())
	require.NoError(t, db.Exec(
		"INSERT INTO order_items (order_id, game_id, platform_id, qty, unit_price, fulfillment_status) VALUES (?, 1, 1, 1, '19.25', 'issued')",
		orderID,
	).Error)

	svc := newOrdersService(t, db)
	ctx := context.Background()

	require.NoError(t, svc.Cancel(ctx, orderID))
	require.NoError(t, svc.Cancel(ctx, orderID), "second cancel is a no-op")

	var status string
	require.NoError(t, db.Raw("SELECT status FROM orders WHERE id = ?", orderID).Scan(&status).Error)
	assert.Equal(t, "cancelled", status)

	var fulfillment string
	require.NoError(t, db.Raw("SELECT fulfillment_status FROM order_items WHERE order_id = ?", orderID).Scan(&fulfillment).Error)
	assert.Equal(t, "issued", fulfillment, "issued keys stay issued")

	require.Error(t, svc.Cancel(ctx, 404404))
}
