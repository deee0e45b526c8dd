package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"school/api/internal/models"
)

var ErrScheduleNotFound = errors.New("schedule not found")

type ScheduleRepository struct {
	db DB
}

func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	const query = `
		INSERT INTO schedules (start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	row := r.db.QueryRow(ctx, query, schedule.StartTime, schedule.EndTime)
	if err := row.Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (models.Schedule, error) {
	const query = `
		SELECT id, start_time, end_time, created_at, updated_at
		FROM schedules WHERE id = $1
	`

	var schedule models.Schedule
	err := r.db.QueryRow(ctx, query, id).Scan(
		&schedule.ID,
		&schedule.StartTime,
		&schedule.EndTime,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Schedule{}, ErrScheduleNotFound
		}
		return models.Schedule{}, err
	}
	return schedule, nil
}

func (r *ScheduleRepository) List(ctx context.Context) ([]models.Schedule, error) {
	const query = `
		SELECT id, start_time, end_time, created_at, updated_at
		FROM schedules ORDER BY start_time ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		var schedule models.Schedule
		if err := rows.Scan(
			&schedule.ID,
			&schedule.StartTime,
			&schedule.EndTime,
			&schedule.CreatedAt,
			&schedule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

func (r *ScheduleRepository) Update(ctx context.Context, schedule models.Schedule) error {
	const query = `
		UPDATE schedules SET start_time = $2, end_time = $3, updated_at = NOW()
		WHERE id = $1
	`

	cmd, err := r.db.Exec(ctx, query, schedule.ID, schedule.StartTime, schedule.EndTime)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM schedules WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}
