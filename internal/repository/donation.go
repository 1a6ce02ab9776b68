package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/fundledger/internal/domain"
)

const donationColumns = `id, fundraiser_id, donor_id, amount, donated_at, created_at`

type DonationRepository struct {
	db *sql.DB
}

func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Upsert merges d into the donor's existing record for the fundraiser, or
// inserts it when the donor has not given before. The stored row is returned.
func (r *DonationRepository) Upsert(ctx context.Context, tx *sql.Tx, d *domain.Donation) (*domain.Donation, error) {
	row := tx.QueryRowContext(ctx,
		`INSERT INTO donations (id, fundraiser_id, donor_id, amount, donated_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT donations_fundraiser_donor_key DO UPDATE
		SET amount = donations.amount + EXCLUDED.amount,
			donated_at = EXCLUDED.donated_at
		RETURNING `+donationColumns,
		d.ID, d.FundraiserID, d.DonorID, d.Amount, d.Timestamp, d.CreatedAt,
	)
	stored, err := scanDonation(row)
	if err != nil {
		return nil, fmt.Errorf("Upsert: %w", err)
	}
	return stored, nil
}

func (r *DonationRepository) ListByFundraiser(ctx context.Context, fundraiserID uuid.UUID) ([]domain.Donation, error) {
	donations, err := r.query(ctx,
		`SELECT `+donationColumns+` FROM donations
		WHERE fundraiser_id = $1 ORDER BY donated_at DESC, id`, fundraiserID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByFundraiser: %w", err)
	}
	return donations, nil
}

func (r *DonationRepository) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]domain.Donation, error) {
	donations, err := r.query(ctx,
		`SELECT `+donationColumns+` FROM donations
		WHERE donor_id = $1 ORDER BY donated_at DESC, id`, donorID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByDonor: %w", err)
	}
	return donations, nil
}

// ListAll returns every donation record, oldest contribution first.
func (r *DonationRepository) ListAll(ctx context.Context) ([]domain.Donation, error) {
	donations, err := r.query(ctx,
		`SELECT `+donationColumns+` FROM donations ORDER BY donated_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	return donations, nil
}

func (r *DonationRepository) query(ctx context.Context, query string, args ...any) ([]domain.Donation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donations []domain.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		donations = append(donations, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return donations, nil
}

func scanDonation(s scanner) (*domain.Donation, error) {
	var d domain.Donation
	err := s.Scan(&d.ID, &d.FundraiserID, &d.DonorID, &d.Amount, &d.Timestamp, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
