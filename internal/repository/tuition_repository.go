package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"school/api/internal/models"
)

var ErrTuitionTierNotFound = errors.New("tuition tier not found")

type TuitionRepository struct {
	db DB
}

func NewTuitionRepository(db DB) *TuitionRepository {
	return &TuitionRepository{db: db}
}

func (r *TuitionRepository) Create(ctx context.Context, tier *models.TuitionTier) error {
	const query = `
		INSERT INTO tuition_tiers (grade, amount_cents, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	row := r.db.QueryRow(ctx, query, tier.Grade, tier.AmountCents)
	if err := row.Scan(&tier.ID, &tier.CreatedAt, &tier.UpdatedAt); err != nil {
		return fmt.Errorf("insert tuition tier: %w", err)
	}
	return nil
}

func (r *TuitionRepository) GetByID(ctx context.Context, id int64) (models.TuitionTier, error) {
	const query = `
		SELECT id, grade, amount_cents, created_at, updated_at
		FROM tuition_tiers WHERE id = $1
	`

	var tier models.TuitionTier
	err := r.db.QueryRow(ctx, query, id).Scan(
		&tier.ID,
		&tier.Grade,
		&tier.AmountCents,
		&tier.CreatedAt,
		&tier.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TuitionTier{}, ErrTuitionTierNotFound
		}
		return models.TuitionTier{}, err
	}
	return tier, nil
}

func (r *TuitionRepository) List(ctx context.Context) ([]models.TuitionTier, error) {
	const query = `
		SELECT id, grade, amount_cents, created_at, updated_at
		FROM tuition_tiers ORDER BY grade ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tuition tiers: %w", err)
	}
	defer rows.Close()

	var tiers []models.TuitionTier
	for rows.Next() {
		var tier models.TuitionTier
		if err := rows.Scan(
			&tier.ID,
			&tier.Grade,
			&tier.AmountCents,
			&tier.CreatedAt,
			&tier.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return tiers, rows.Err()
}

func (r *TuitionRepository) Update(ctx context.Context, tier models.TuitionTier) error {
	const query = `
		UPDATE tuition_tiers SET grade = $2, amount_cents = $3, updated_at = NOW()
		WHERE id = $1
	`

	cmd, err := r.db.Exec(ctx, query, tier.ID, tier.Grade, tier.AmountCents)
	if err != nil {
		return fmt.Errorf("update tuition tier: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrTuitionTierNotFound
	}
	return nil
}

func (r *TuitionRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM tuition_tiers WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete tuition tier: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrTuitionTierNotFound
	}
	return nil
}
