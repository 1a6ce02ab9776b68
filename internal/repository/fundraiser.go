package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/domain"
)

const fundraiserColumns = `id, creator_id, title, category, description,
	goal, raised, withdrawn, status, version, created_at, updated_at, closed_at`

const fundraiserTitleConstraint = "fundraisers_creator_title_key"

type FundraiserRepository struct {
	db *sql.DB
}

func NewFundraiserRepository(db *sql.DB) *FundraiserRepository {
	return &FundraiserRepository{db: db}
}

func (r *FundraiserRepository) Create(ctx context.Context, f *domain.Fundraiser) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fundraisers (
			id, creator_id, title, category, description,
			goal, raised, withdrawn, status, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		f.ID, f.CreatorID, f.Title, f.Category, f.Description,
		f.Goal, f.Raised, f.Withdrawn, f.Status, f.Version, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, fundraiserTitleConstraint) {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateTitle)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *FundraiserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fundraiser, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fundraiserColumns+` FROM fundraisers WHERE id = $1`, id,
	)
	f, err := scanFundraiser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return f, nil
}

// List returns fundraisers matching the filter, newest first. Search is a
// case-insensitive title substring and Category a case-insensitive exact
// match.
func (r *FundraiserRepository) List(ctx context.Context, filter domain.FundraiserFilter) ([]domain.Fundraiser, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Search != "" {
		conds = append(conds, `title ILIKE `+arg(likePattern(filter.Search)))
	}
	if filter.Category != "" {
		conds = append(conds, `lower(category) = lower(`+arg(filter.Category)+`)`)
	}
	if filter.ExcludeID != uuid.Nil {
		conds = append(conds, `id <> `+arg(filter.ExcludeID))
	}

	query := `SELECT ` + fundraiserColumns + ` FROM fundraisers`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}

	fundraisers, err := r.queryFundraisers(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return fundraisers, nil
}

func (r *FundraiserRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.Fundraiser, error) {
	fundraisers, err := r.queryFundraisers(ctx,
		`SELECT `+fundraiserColumns+` FROM fundraisers
		WHERE creator_id = $1 ORDER BY created_at DESC, id`, creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByCreator: %w", err)
	}
	return fundraisers, nil
}

// SumRaisedByCreator totals raised across every fundraiser the creator owns.
func (r *FundraiserRepository) SumRaisedByCreator(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(raised), 0) FROM fundraisers WHERE creator_id = $1`, creatorID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("SumRaisedByCreator: %w", err)
	}
	return total, nil
}

// CreatorIndex maps every fundraiser id to its creator id.
func (r *FundraiserRepository) CreatorIndex(ctx context.Context) (map[uuid.UUID]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, creator_id FROM fundraisers`)
	if err != nil {
		return nil, fmt.Errorf("CreatorIndex: %w", err)
	}
	defer rows.Close()

	index := make(map[uuid.UUID]uuid.UUID)
	for rows.Next() {
		var id, creatorID uuid.UUID
		if err := rows.Scan(&id, &creatorID); err != nil {
			return nil, fmt.Errorf("CreatorIndex: scan: %w", err)
		}
		index[id] = creatorID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CreatorIndex: rows: %w", err)
	}
	return index, nil
}

// ApplyDonation commits a new raised total and status only if the stored
// version still equals expectedVersion.
func (r *FundraiserRepository) ApplyDonation(ctx context.Context, tx *sql.Tx, id uuid.UUID, newRaised int64, newStatus domain.FundraiserStatus, expectedVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE fundraisers
		SET raised = $1,
			status = $2,
			version = version + 1,
			updated_at = now(),
			closed_at = CASE WHEN $2::text = 'closed' AND closed_at IS NULL THEN now() ELSE closed_at END
		WHERE id = $3 AND version = $4`,
		newRaised, newStatus, id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("ApplyDonation: %w", err)
	}
	return expectOneRow(res, "ApplyDonation")
}

// ApplyWithdrawal commits a new withdrawn total only if the stored version
// still equals expectedVersion.
func (r *FundraiserRepository) ApplyWithdrawal(ctx context.Context, tx *sql.Tx, id uuid.UUID, newWithdrawn int64, expectedVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE fundraisers
		SET withdrawn = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3`,
		newWithdrawn, id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("ApplyWithdrawal: %w", err)
	}
	return expectOneRow(res, "ApplyWithdrawal")
}

// UpdateDetails rewrites the descriptive columns. Money columns and the
// version are untouched so edits never race with donations.
func (r *FundraiserRepository) UpdateDetails(ctx context.Context, f *domain.Fundraiser) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE fundraisers
		SET title = $1, category = $2, description = $3, updated_at = $4
		WHERE id = $5`,
		f.Title, f.Category, f.Description, f.UpdatedAt, f.ID,
	)
	if err != nil {
		if isUniqueViolation(err, fundraiserTitleConstraint) {
			return fmt.Errorf("UpdateDetails: %w", domain.ErrDuplicateTitle)
		}
		return fmt.Errorf("UpdateDetails: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateDetails: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateDetails: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *FundraiserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fundraisers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *FundraiserRepository) queryFundraisers(ctx context.Context, query string, args ...any) ([]domain.Fundraiser, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fundraisers []domain.Fundraiser
	for rows.Next() {
		f, err := scanFundraiser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		fundraisers = append(fundraisers, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return fundraisers, nil
}

func expectOneRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrVersionConflict)
	}
	return nil
}

func scanFundraiser(s scanner) (*domain.Fundraiser, error) {
	var f domain.Fundraiser
	err := s.Scan(
		&f.ID, &f.CreatorID, &f.Title, &f.Category, &f.Description,
		&f.Goal, &f.Raised, &f.Withdrawn, &f.Status, &f.Version,
		&f.CreatedAt, &f.UpdatedAt, &f.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
