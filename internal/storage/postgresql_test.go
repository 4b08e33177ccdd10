package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/bookflix/internal/migrations"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err)

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))
	require.NoError(t, CheckDatabaseReady(storage))

	cleanup := func() {
		_ = storage.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return storage, cleanup
}

func createUser(t *testing.T, s *Storage, username string) string {
	t.Helper()
	uid, err := s.RegisterUser(context.Background(), models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		FirstName:    "Test",
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	return uid
}

func activeRows(t *testing.T, s *Storage, userUID string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB.QueryRow(
		`SELECT COUNT(*) FROM user_subscriptions WHERE user_uid = $1 AND is_active`, userUID).Scan(&n))
	return n
}

func TestStorage(t *testing.T) {
	s, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	tiers, err := s.ListTiers(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	free, paid := tiers[0], tiers[1]

	t.Run("users", func(t *testing.T) {
		uid := createUser(t, s, "reader")

		u, err := s.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "reader", u.Username)
		assert.False(t, u.IsSubscribed)
		assert.Nil(t, u.SubscriptionEndDate)

		_, err = s.RegisterUser(ctx, models.User{Username: "reader", Email: "other@example.com",
			PasswordHash: "x", Role: models.RoleUser})
		assert.ErrorIs(t, err, ErrAlreadyExists)

		usernameTaken, emailTaken, err := s.UserExists(ctx, "reader", "READER@example.com")
		require.NoError(t, err)
		assert.True(t, usernameTaken)
		assert.True(t, emailTaken)

		phone := "+100200300"
		u.Phone = &phone
		u.LastName = "Reader"
		require.NoError(t, s.UpdateUserProfile(ctx, u))
		u, err = s.GetUserByUsername(ctx, "reader")
		require.NoError(t, err)
		assert.Equal(t, "Reader", u.LastName)
		require.NotNil(t, u.Phone)
		assert.Equal(t, phone, *u.Phone)

		_, err = s.GetUser(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("tiers", func(t *testing.T) {
		def, err := s.GetDefaultTier(ctx)
		require.NoError(t, err)
		assert.Equal(t, "FREE", def.Name)
		assert.False(t, def.PaymentRequired)

		_, err = s.GetTier(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("activate keeps one active row", func(t *testing.T) {
		uid := createUser(t, s, "upgrader")
		now := time.Now().UTC()

		_, err := s.ActivateSubscription(ctx, models.Subscription{UserUID: uid, TierID: free.ID,
			StartDate: now, EndDate: now.AddDate(0, 0, 7)})
		require.NoError(t, err)
		sub, err := s.ActivateSubscription(ctx, models.Subscription{UserUID: uid, TierID: paid.ID,
			StartDate: now, EndDate: now.AddDate(0, 0, 30)})
		require.NoError(t, err)
		assert.Equal(t, paid.ID, sub.TierID)
		require.NotNil(t, sub.Tier)
		assert.Equal(t, paid.Name, sub.Tier.Name)

		assert.Equal(t, 1, activeRows(t, s, uid))

		cur, err := s.GetCurrentSubscription(ctx, uid, now)
		require.NoError(t, err)
		assert.Equal(t, sub.ID, cur.ID)

		u, err := s.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.True(t, u.IsSubscribed)
		require.NotNil(t, u.SubscriptionEndDate)

		list, err := s.ListSubscriptions(ctx, uid)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		_, err = s.GetCurrentSubscription(ctx, uid, now.AddDate(0, 2, 0))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("complete payment is idempotent", func(t *testing.T) {
		uid := createUser(t, s, "payer")
		_, err := s.CreatePayment(ctx, models.Payment{UserUID: uid, TierID: paid.ID,
			PaymentID: "PAYID-1", Amount: paid.PriceUSD, Currency: "USD"})
		require.NoError(t, err)

		_, err = s.CreatePayment(ctx, models.Payment{UserUID: uid, TierID: paid.ID,
			PaymentID: "PAYID-1", Amount: paid.PriceUSD, Currency: "USD"})
		assert.ErrorIs(t, err, ErrAlreadyExists)

		now := time.Now().UTC()
		sub := models.Subscription{StartDate: now, EndDate: now.AddDate(0, 0, 30)}
		first, completed, err := s.CompletePayment(ctx, "PAYID-1", "PAYER", sub)
		require.NoError(t, err)
		assert.True(t, completed)

		second, completed, err := s.CompletePayment(ctx, "PAYID-1", "PAYER", sub)
		require.NoError(t, err)
		assert.False(t, completed)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, activeRows(t, s, uid))

		p, err := s.GetPayment(ctx, "PAYID-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, p.Status)
		require.NotNil(t, p.SubscriptionID)
		assert.Equal(t, first.ID, *p.SubscriptionID)

		require.NoError(t, s.FailPayment(ctx, "PAYID-1", "PAYER"))
		p, err = s.GetPayment(ctx, "PAYID-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, p.Status)

		payments, err := s.ListPayments(ctx, uid)
		require.NoError(t, err)
		assert.Len(t, payments, 1)

		_, _, err = s.CompletePayment(ctx, "PAYID-missing", "PAYER", sub)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("upsert book keeps non-empty fields", func(t *testing.T) {
		pages := 320
		b, err := s.UpsertBook(ctx, models.Book{ExternalID: "vol-1", Title: "Dune",
			Authors: "Frank Herbert", Description: "old", PageCount: &pages})
		require.NoError(t, err)
		assert.Equal(t, models.SourceGoogle, b.Source)

		again, err := s.UpsertBook(ctx, models.Book{ExternalID: "vol-1", Description: "new"})
		require.NoError(t, err)
		assert.Equal(t, b.ID, again.ID)
		assert.Equal(t, "Dune", again.Title)
		assert.Equal(t, "Frank Herbert", again.Authors)
		assert.Equal(t, "new", again.Description)
		require.NotNil(t, again.PageCount)
		assert.Equal(t, 320, *again.PageCount)

		byExt, err := s.GetBookByExternalID(ctx, models.SourceGoogle, "vol-1")
		require.NoError(t, err)
		assert.Equal(t, b.ID, byExt.ID)

		_, err = s.GetBook(ctx, 99999)
		assert.ErrorIs(t, err, ErrNotFound)

		books, err := s.ListBooks(ctx, 10, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, books)
	})

	t.Run("favorites and progress", func(t *testing.T) {
		uid := createUser(t, s, "bookworm")
		b1, err := s.UpsertBook(ctx, models.Book{ExternalID: "fav-1", Title: "One"})
		require.NoError(t, err)
		b2, err := s.UpsertBook(ctx, models.Book{ExternalID: "fav-2", Title: "Two"})
		require.NoError(t, err)

		created, err := s.AddFavorite(ctx, uid, b1.ID)
		require.NoError(t, err)
		assert.True(t, created)
		created, err = s.AddFavorite(ctx, uid, b1.ID)
		require.NoError(t, err)
		assert.False(t, created)

		_, err = s.AddFavorite(ctx, uid, 99999)
		assert.ErrorIs(t, err, ErrNotFound)

		favs, err := s.ListFavorites(ctx, uid)
		require.NoError(t, err)
		require.Len(t, favs, 1)
		assert.Equal(t, b1.ID, favs[0].Book.ID)
		assert.True(t, favs[0].Book.IsFavorited)

		_, err = s.UpsertProgress(ctx, uid, b2.ID, 10)
		require.NoError(t, err)
		h, err := s.UpsertProgress(ctx, uid, b2.ID, 55)
		require.NoError(t, err)
		assert.Equal(t, 55, h.Progress)
		_, err = s.UpsertProgress(ctx, uid, b1.ID, 100)
		require.NoError(t, err)

		history, err := s.ListReadingHistory(ctx, uid)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, b1.ID, history[0].Book.ID)
		assert.True(t, history[0].Book.IsFavorited)
		assert.Equal(t, 55, history[1].Progress)

		states, err := s.BookStates(ctx, uid, []int{b1.ID, b2.ID})
		require.NoError(t, err)
		assert.Equal(t, models.BookState{IsFavorited: true, ReadingProgress: 100}, states[b1.ID])
		assert.Equal(t, models.BookState{ReadingProgress: 55}, states[b2.ID])

		removed, err := s.RemoveFavorite(ctx, uid, b1.ID)
		require.NoError(t, err)
		assert.True(t, removed)
		removed, err = s.RemoveFavorite(ctx, uid, b1.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))
	})
}
