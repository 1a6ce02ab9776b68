package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/domain"
)

func SeedProfile(t *testing.T, db *sql.DB, name, email string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO profiles (user_id, name, email) VALUES ($1, $2, $3)`,
		id, name, email,
	)
	if err != nil {
		t.Fatalf("seed profile %s: %v", email, err)
	}
	return id
}

// SeedFundraiser inserts an open fundraiser with the given goal and zero
// balances.
func SeedFundraiser(t *testing.T, db *sql.DB, creatorID uuid.UUID, title string, goal int64) *domain.Fundraiser {
	t.Helper()

	now := time.Now().UTC()
	f := &domain.Fundraiser{
		ID:          uuid.New(),
		CreatorID:   creatorID,
		Title:       title,
		Category:    "Medical",
		Description: "seeded for tests",
		Goal:        goal,
		Status:      domain.FundraiserStatusOpen,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := db.Exec(
		`INSERT INTO fundraisers (id, creator_id, title, category, description, goal, status, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.ID, f.CreatorID, f.Title, f.Category, f.Description, f.Goal, f.Status, f.Version, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed fundraiser %s: %v", title, err)
	}
	return f
}

func GetFundraiserBalances(t *testing.T, db *sql.DB, id uuid.UUID) (raised, withdrawn int64, status domain.FundraiserStatus) {
	t.Helper()

	err := db.QueryRow(
		`SELECT raised, withdrawn, status FROM fundraisers WHERE id = $1`, id,
	).Scan(&raised, &withdrawn, &status)
	if err != nil {
		t.Fatalf("get fundraiser balances %s: %v", id, err)
	}
	return raised, withdrawn, status
}

func CountLedgerEvents(t *testing.T, db *sql.DB, fundraiserID uuid.UUID, eventType domain.LedgerEventType) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM ledger_events WHERE fundraiser_id = $1 AND event_type = $2`,
		fundraiserID, eventType,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger events for %s: %v", fundraiserID, err)
	}
	return count
}

func CountWithdrawals(t *testing.T, db *sql.DB, fundraiserID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM withdrawals WHERE fundraiser_id = $1`, fundraiserID).Scan(&count)
	if err != nil {
		t.Fatalf("count withdrawals for %s: %v", fundraiserID, err)
	}
	return count
}
