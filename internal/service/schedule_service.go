package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"school/api/internal/models"
	"school/api/internal/repository"
)

// ScheduleStore is the schedule repository surface.
type ScheduleStore interface {
	List(ctx context.Context) ([]models.Schedule, error)
	GetByID(ctx context.Context, id int64) (models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule models.Schedule) error
	Delete(ctx context.Context, id int64) error
}

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type ScheduleService struct {
	schedules ScheduleStore
}

func NewScheduleService(schedules ScheduleStore) *ScheduleService {
	return &ScheduleService{schedules: schedules}
}

func (s *ScheduleService) List(ctx context.Context) ([]models.Schedule, error) {
	return s.schedules.List(ctx)
}

type ScheduleInput struct {
	StartTime string
	EndTime   string
}

func (s *ScheduleService) Create(ctx context.Context, input ScheduleInput) (models.Schedule, error) {
	if err := validateTimeRange(input.StartTime, input.EndTime); err != nil {
		return models.Schedule{}, err
	}

	schedule := models.Schedule{
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	}
	if err := s.schedules.Create(ctx, &schedule); err != nil {
		return models.Schedule{}, err
	}
	return schedule, nil
}

func (s *ScheduleService) Update(ctx context.Context, id int64, input ScheduleInput) (models.Schedule, error) {
	if err := validateTimeRange(input.StartTime, input.EndTime); err != nil {
		return models.Schedule{}, err
	}

	schedule, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return models.Schedule{}, ErrNotFound
		}
		return models.Schedule{}, err
	}

	schedule.StartTime = input.StartTime
	schedule.EndTime = input.EndTime
	if err := s.schedules.Update(ctx, schedule); err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return models.Schedule{}, ErrNotFound
		}
		return models.Schedule{}, err
	}
	return schedule, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// validateTimeRange accepts zero-padded "HH:MM" values with start
// strictly before end. Lexicographic comparison matches clock order for
// this format.
func validateTimeRange(start, end string) error {
	if !timeOfDayPattern.MatchString(start) || !timeOfDayPattern.MatchString(end) {
		return fmt.Errorf("%w: times must be HH:MM", ErrMalformedInput)
	}
	if start >= end {
		return fmt.Errorf("%w: start time must be before end time", ErrMalformedInput)
	}
	return nil
}
