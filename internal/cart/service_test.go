package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/internal/catalog"
	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS games (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  description TEXT,
  cover_url TEXT,
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
		`CREATE TABLE IF NOT EXISTS game_platforms (
  game_id INTEGER NOT NULL,
  platform_id INTEGER NOT NULL,
  PRIMARY KEY (game_id, platform_id)
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
		`CREATE UNIQUE INDEX IF NOT EXISTS orders_one_draft_per_user
  ON orders (user_id) WHERE status = 'pending';`,
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

func seedCartGame(t *testing.T, db *gorm.DB, title, price string, platformNames ...string) int64 {
	t.Helper()

	require.NoError(t, db.Exec(
		"INSERT INTO games (title, base_price, price_final) VALUES (?, ?, ?)",
		title, price, price,
	).Error)
	var gameID int64
	require.NoError(t, db.Raw("SELECT id FROM games WHERE title = ?", title).Scan(&gameID).Error)

	for _, name := range platformNames {
		require.NoError(t, db.Exec(
			"INSERT INTO platforms (name) VALUES (?) ON CONFLICT (name) DO NOTHING", name,
		).Error)
		var platformID int64
		require.NoError(t, db.Raw("SELECT id FROM platforms WHERE name = ?", name).Scan(&platformID).Error)
		require.NoError(t, db.Exec(
			"INSERT INTO game_platforms (game_id, platform_id) VALUES (?, ?)", gameID, platformID,
		).Error)
	}
	return gameID
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newCartService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	pricing, err := catalog.NewService(catalog.NewRepository(db))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), pricing, gormTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func storedTotal(t *testing.T, db *gorm.DB, orderID int64) decimal.Decimal {
	t.Helper()
	var raw string
	require.NoError(t, db.Raw("SELECT CAST(total_amount AS TEXT) FROM orders WHERE id = ?", orderID).Scan(&raw).Error)
	return decimal.RequireFromString(raw)
}

func orderID(t *testing.T, cart *Cart) int64 {
	t.Helper()
	require.NotNil(t, cart.OrderID)
	return *cart.OrderID
}

func TestAddItemCreatesDraftAndKeepsTotalInSync(t *testing.T) {
	db := setupCartTestDB(t)
	gameA := seedCartGame(t, db, "Alpha", "19.25", "Steam")
	gameB := seedCartGame(t, db, "Beta", "10.75", "Steam")

	svc := newCartService(t, db)
	ctx := context.Background()

	first, err := svc.AddItem(ctx, 1, AddItemInput{GameID: gameA})
	require.NoError(t, err)
	assert.Empty(t, first.Notice)
	draftID := orderID(t, first)

	second, err := svc.AddItem(ctx, 1, AddItemInput{GameID: gameB})
	require.NoError(t, err)
	assert.Equal(t, draftID, orderID(t, second), "one draft per user")
	assert.Equal(t, 2, second.Count)

	cart, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 2, cart.Count)

	want := decimal.RequireFromString("30")
	assert.True(t, cart.Total.Equal(want), "read-time total %s", cart.Total)
	assert.True(t, storedTotal(t, db, draftID).Equal(want), "stored total must agree")
}

func TestAddItemDuplicateIsNoticeNotSecondLine(t *testing.T) {
	db := setupCartTestDB(t)
	gameID := seedCartGame(t, db, "Alpha", "19.99", "Steam")

	svc := newCartService(t, db)
	ctx := context.Background()

	first, err := svc.AddItem(ctx, 1, AddItemInput{GameID: gameID})
	require.NoError(t, err)
	require.Empty(t, first.Notice)
	require.Len(t, first.Items, 1)
	draftID := orderID(t, first)

	// Quantity is accepted and capped at one key per line.
	again, err := svc.AddItem(ctx, 1, AddItemInput{GameID: gameID, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, NoticeAlreadyInCart, again.Notice)
	require.Len(t, again.Items, 1)
	assert.Equal(t, first.Items[0].ItemID, again.Items[0].ItemID)
	assert.Equal(t, 1, again.Count)
	assert.Equal(t, 1, again.Items[0].Qty)

	var count int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM order_items WHERE order_id = ?", draftID).Scan(&count).Error)
	assert.EqualValues(t, 1, count)

	assert.True(t, storedTotal(t, db, draftID).Equal(decimal.RequireFromString("19.99")))
}

func TestCartPayloadCarriesCountAndCover(t *testing.T) {
	db := setupCartTestDB(t)
	gameID := seedCartGame(t, db, "Alpha", "19.99", "Steam")
	require.NoError(t, db.Exec(
		"UPDATE games SET cover_url = 'https://cdn.example.com/alpha.jpg' WHERE id = ?", gameID,
	).Error)

	svc := newCartService(t, db)
	cart, err := svc.AddItem(context.Background(), 1, AddItemInput{GameID: gameID})
	require.NoError(t, err)

	assert.Equal(t, 1, cart.Count)
	require.Len(t, cart.Items, 1)
	require.NotNil(t, cart.Items[0].CoverURL)
	assert.Equal(t, "https://cdn.example.com/alpha.jpg", *cart.Items[0].CoverURL)
}

func TestRemoveItemRecalculatesTotal(t *testing.T) {
	db := setupCartTestDB(t)
	gameA := seedCartGame(t, db, "Alpha", "19.99", "Steam")
	gameB := seedCartGame(t, db, "Beta", "5.00", "Steam")

	svc := newCartService(t, db)
	ctx := context.Background()

	added, err := svc.AddItem(ctx, 1, AddItemInput{GameID: gameA})
	require.NoError(t, err)
	removedItemID := added.Items[0].ItemID
	draftID := orderID(t, added)

	kept, err := svc.AddItem(ctx, 1, AddItemInput{GameID: gameB})
	require.NoError(t, err)
	require.Len(t, kept.Items, 2)

	cart, err := svc.RemoveItem(ctx, 1, removedItemID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, gameB, cart.Items[0].GameID)
	assert.Equal(t, 1, cart.Count)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, storedTotal(t, db, draftID).Equal(decimal.RequireFromString("5.00")))
}

func TestRemoveItemForeignLineIsNoOp(t *testing.T) {
	db := setupCartTestDB(t)
	gameID := seedCartGame(t, db, "Alpha", "19.99", "Steam")

	svc := newCartService(t, db)
	ctx := context.Background()

	owned, err := svc.AddItem(ctx, 1, AddItemInput{GameID: gameID})
	require.NoError(t, err)
	ownedItemID := owned.Items[0].ItemID

	// Give user 2 their own draft so the delete has a target order to miss.
	_, err = svc.AddItem(ctx, 2, AddItemInput{GameID: gameID})
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, 2, ownedItemID)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Count, "user 2 keeps their own line")

	var count int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM order_items WHERE id = ?", ownedItemID).Scan(&count).Error)
	assert.EqualValues(t, 1, count, "line owned by user 1 must survive")
}

func TestClearCartEmptiesDraft(t *testing.T) {
	db := setupCartTestDB(t)
	gameA := seedCartGame(t, db, "Alpha", "19.99", "Steam")
	gameB := seedCartGame(t, db, "Beta", "5.00", "Steam")

	svc := newCartService(t, db)
	ctx := context.Background()

	added, err := svc.AddItem(ctx, 1, AddItemInput{GameID: gameA})
	require.NoError(t, err)
	draftID := orderID(t, added)
	_, err = svc.AddItem(ctx, 1, AddItemInput{GameID: gameB})
	require.NoError(t, err)

	cart, err := svc.ClearCart(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Count)
	assert.True(t, cart.Total.Equal(decimal.Zero))
	assert.True(t, storedTotal(t, db, draftID).Equal(decimal.Zero))
}

func TestGetCartWithoutDraftReturnsEmptyShape(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)

	cart, err := svc.GetCart(context.Background(), 77)
	require.NoError(t, err)
	assert.Nil(t, cart.OrderID)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Count)
	assert.True(t, cart.Total.Equal(decimal.Zero))
}

// blindFirstLookupRepo misses the draft lookup a fixed number of times, which
// drives the create path into the unique index held by the existing draft.
type blindFirstLookupRepo struct {
	Repository
	misses *int
}

func (r *blindFirstLookupRepo) WithTx(tx *gorm.DB) Repository {
	return &blindFirstLookupRepo{Repository: r.Repository.WithTx(tx), misses: r.misses}
}

func (r *blindFirstLookupRepo) FindDraftOrder(ctx context.Context, userID int64) (*models.Order, error) {
	if *r.misses > 0 {
		*r.misses--
		return nil, gorm.ErrRecordNotFound
	}
	return r.Repository.FindDraftOrder(ctx, userID)
}

func TestAddItemLosingDraftRaceRefetchesWinner(t *testing.T) {
	db := setupCartTestDB(t)
	gameA := seedCartGame(t, db, "Alpha", "19.25", "Steam")
	gameB := seedCartGame(t, db, "Beta", "10.75", "Steam")

	svc := newCartService(t, db)
	ctx := context.Background()

	winner, err := svc.AddItem(ctx, 1, AddItemInput{GameID: gameA})
	require.NoError(t, err)
	winnerID := orderID(t, winner)

	pricing, err := catalog.NewService(catalog.NewRepository(db))
	require.NoError(t, err)
	misses := 1
	racing, err := NewService(
		&blindFirstLookupRepo{Repository: NewRepository(db), misses: &misses},
		pricing,
		gormTxRunner{db: db},
	)
	require.NoError(t, err)

	// The blind lookup forces a CreateDraft, which the partial unique index
	// rejects; the service must refetch the winner's draft and use it.
	cart, err := racing.AddItem(ctx, 1, AddItemInput{GameID: gameB})
	require.NoError(t, err)
	assert.Equal(t, winnerID, orderID(t, cart))
	assert.Equal(t, 2, cart.Count)

	var drafts int64
	require.NoError(t, db.Raw(
		"SELECT COUNT(*) FROM orders WHERE user_id = 1 AND status = 'pending'",
	).Scan(&drafts).Error)
	assert.EqualValues(t, 1, drafts, "the race must never leave a second draft")
}
