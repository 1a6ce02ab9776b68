package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/fundledger/internal/domain"
	"github.com/josh-kwaku/fundledger/internal/repository"
	"github.com/josh-kwaku/fundledger/internal/testutil"
)

func TestFundraiserRepository_ApplyDonationVersionCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewFundraiserRepository(db)
	ctx := context.Background()

	f := testutil.SeedFundraiser(t, db, uuid.New(), "School roof", 1000)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.ApplyDonation(ctx, tx, f.ID, 400, domain.FundraiserStatusOpen, f.Version))
	require.NoError(t, tx.Commit())

	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	err = repo.ApplyDonation(ctx, tx, f.ID, 500, domain.FundraiserStatusOpen, f.Version)
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	require.NoError(t, tx.Rollback())

	got, err := repo.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), got.Raised)
	assert.Equal(t, f.Version+1, got.Version)
	assert.Nil(t, got.ClosedAt)
}

func TestFundraiserRepository_ApplyDonationClosingStampsClosedAt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewFundraiserRepository(db)
	ctx := context.Background()

	f := testutil.SeedFundraiser(t, db, uuid.New(), "Flood relief", 1000)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.ApplyDonation(ctx, tx, f.ID, 1000, domain.FundraiserStatusClosed, f.Version))
	require.NoError(t, tx.Commit())

	got, err := repo.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FundraiserStatusClosed, got.Status)
	assert.NotNil(t, got.ClosedAt)
}

func TestFundraiserRepository_WithdrawnCannotExceedRaised(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewFundraiserRepository(db)
	ctx := context.Background()

	f := testutil.SeedFundraiser(t, db, uuid.New(), "Animal shelter", 1000)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	err = repo.ApplyWithdrawal(ctx, tx, f.ID, 10, f.Version)
	require.Error(t, err)
	require.NoError(t, tx.Rollback())
}

func TestFundraiserRepository_GetByIDNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewFundraiserRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFundraiserRepository_DuplicateTitlePerCreator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewFundraiserRepository(db)
	ctx := context.Background()

	creator := uuid.New()
	testutil.SeedFundraiser(t, db, creator, "Clean Water", 1000)

	now := time.Now().UTC()
	dup := &domain.Fundraiser{
		ID: uuid.New(), CreatorID: creator, Title: "clean water", Category: "Community",
		Description: "again", Goal: 500, Status: domain.FundraiserStatusOpen, Version: 1,
		CreatedAt: now, UpdatedAt: now,
	}
	require.ErrorIs(t, repo.Create(ctx, dup), domain.ErrDuplicateTitle)

	dup.ID = uuid.New()
	dup.CreatorID = uuid.New()
	require.NoError(t, repo.Create(ctx, dup))
}

func TestFundraiserRepository_ListSearchEscapesWildcards(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewFundraiserRepository(db)
	ctx := context.Background()

	testutil.SeedFundraiser(t, db, uuid.New(), "100% Solar", 1000)
	testutil.SeedFundraiser(t, db, uuid.New(), "1000 Trees", 1000)

	got, err := repo.List(ctx, domain.FundraiserFilter{Search: "0%"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100% Solar", got[0].Title)

	all, err := repo.List(ctx, domain.FundraiserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFundraiserRepository_ListByCategoryExcludesAndLimits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewFundraiserRepository(db)
	ctx := context.Background()

	current := testutil.SeedFundraiser(t, db, uuid.New(), "Surgery for Ravi", 1000)
	for _, title := range []string{"Dialysis", "Chemo", "Physio", "Ambulance"} {
		testutil.SeedFundraiser(t, db, uuid.New(), title, 1000)
	}
	other := testutil.SeedFundraiser(t, db, uuid.New(), "School roof", 1000)
	_, err := db.Exec(`UPDATE fundraisers SET category = 'Education' WHERE id = $1`, other.ID)
	require.NoError(t, err)

	medical, err := repo.List(ctx, domain.FundraiserFilter{Category: "medical"})
	require.NoError(t, err)
	assert.Len(t, medical, 5)

	related, err := repo.List(ctx, domain.FundraiserFilter{Category: "Medical", ExcludeID: current.ID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, related, 3)
	for _, f := range related {
		assert.NotEqual(t, current.ID, f.ID)
		assert.Equal(t, "Medical", f.Category)
	}

	education, err := repo.List(ctx, domain.FundraiserFilter{Category: "Education", Search: "roof"})
	require.NoError(t, err)
	require.Len(t, education, 1)
	assert.Equal(t, other.ID, education[0].ID)
}

func TestFundraiserRepository_UpdateDetails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewFundraiserRepository(db)
	ctx := context.Background()

	creator := uuid.New()
	f := testutil.SeedFundraiser(t, db, creator, "Flood relief", 1000)
	testutil.SeedFundraiser(t, db, creator, "Food bank", 1000)

	f.Title = "Flood relief 2026"
	f.Category = "Disaster"
	f.Description = "boats and blankets"
	f.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.UpdateDetails(ctx, f))

	got, err := repo.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flood relief 2026", got.Title)
	assert.Equal(t, "Disaster", got.Category)
	assert.Equal(t, "boats and blankets", got.Description)
	assert.Equal(t, f.Version, got.Version)

	f.Title = "FOOD BANK"
	require.ErrorIs(t, repo.UpdateDetails(ctx, f), domain.ErrDuplicateTitle)

	missing := *f
	missing.ID = uuid.New()
	missing.Title = "elsewhere"
	require.ErrorIs(t, repo.UpdateDetails(ctx, &missing), domain.ErrNotFound)
}

func TestDonationRepository_UpsertMergesPerDonor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewDonationRepository(db)
	ctx := context.Background()

	f := testutil.SeedFundraiser(t, db, uuid.New(), "Library", 10_000)
	donor := uuid.New()
	first := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	second := first.Add(30 * time.Minute)

	upsert := func(amount int64, at time.Time) *domain.Donation {
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		d, err := repo.Upsert(ctx, tx, &domain.Donation{
			ID: uuid.New(), FundraiserID: f.ID, DonorID: donor, Amount: amount, Timestamp: at, CreatedAt: at,
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		return d
	}

	d1 := upsert(100, first)
	d2 := upsert(50, second)

	assert.Equal(t, d1.ID, d2.ID)
	assert.Equal(t, int64(150), d2.Amount)
	assert.True(t, second.Equal(d2.Timestamp))

	byDonor, err := repo.ListByDonor(ctx, donor)
	require.NoError(t, err)
	require.Len(t, byDonor, 1)
	assert.Equal(t, int64(150), byDonor[0].Amount)
}

func TestProfileRepository_GetByIDsSkipsUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewProfileRepository(db)
	ctx := context.Background()

	known := testutil.SeedProfile(t, db, "Asha", "asha@example.com")

	got, err := repo.GetByIDs(ctx, []uuid.UUID{known, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Asha", got[known].Name)
}

func TestProfileRepository_UpsertReplacesDisplayFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewProfileRepository(db)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, repo.Upsert(ctx, &domain.Profile{UserID: id, Name: "Ravi", Email: "ravi@example.com"}))
	require.NoError(t, repo.Upsert(ctx, &domain.Profile{UserID: id, Name: "Ravi K", Email: "ravi.k@example.com"}))

	got, err := repo.GetByIDs(ctx, []uuid.UUID{id})
	require.NoError(t, err)
	assert.Equal(t, domain.Profile{UserID: id, Name: "Ravi K", Email: "ravi.k@example.com"}, got[id])
}

func TestLedgerEventRepository_PendingAndStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLedgerEventRepository(db)
	ctx := context.Background()

	event := &domain.LedgerEvent{
		ID:           uuid.New(),
		FundraiserID: uuid.New(),
		EventType:    domain.LedgerEventTypeDonationRecorded,
		Payload:      []byte(`{"amount":10}`),
		Status:       domain.LedgerEventStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, event))
	require.NoError(t, tx.Commit())

	pending, err := repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.JSONEq(t, `{"amount":10}`, string(pending[0].Payload))

	require.NoError(t, repo.UpdateStatus(ctx, event.ID, domain.LedgerEventStatusDispatched))

	pending, err = repo.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), domain.LedgerEventStatusFailed), domain.ErrNotFound)
}

func TestIdempotencyRepository_CleanExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	user := uuid.New()
	require.NoError(t, repo.Set(ctx, &repository.IdempotencyCacheEntry{
		Key: "stale", UserID: user, RequestHash: "h", StatusCode: 201,
		ResponseBody: []byte(`{}`), CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour),
	}))
	require.NoError(t, repo.Set(ctx, &repository.IdempotencyCacheEntry{
		Key: "live", UserID: user, RequestHash: "h", StatusCode: 201,
		ResponseBody: []byte(`{}`), CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	n, err := repo.CleanExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	live, err := repo.Get(ctx, "live", user)
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.False(t, live.Expired(now))
}
