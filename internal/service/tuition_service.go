package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"school/api/internal/models"
	"school/api/internal/repository"
)

// TuitionStore is the tuition-tier repository surface.
type TuitionStore interface {
	List(ctx context.Context) ([]models.TuitionTier, error)
	GetByID(ctx context.Context, id int64) (models.TuitionTier, error)
	Create(ctx context.Context, tier *models.TuitionTier) error
	Update(ctx context.Context, tier models.TuitionTier) error
	Delete(ctx context.Context, id int64) error
}

var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)

type TuitionService struct {
	tiers TuitionStore
}

func NewTuitionService(tiers TuitionStore) *TuitionService {
	return &TuitionService{tiers: tiers}
}

func (s *TuitionService) List(ctx context.Context) ([]models.TuitionTier, error) {
	return s.tiers.List(ctx)
}

type TuitionInput struct {
	Grade  string
	Amount string
}

func (s *TuitionService) Create(ctx context.Context, input TuitionInput) (models.TuitionTier, error) {
	grade := strings.TrimSpace(input.Grade)
	if grade == "" {
		return models.TuitionTier{}, fmt.Errorf("%w: grade is required", ErrMalformedInput)
	}
	cents, err := ParseAmount(input.Amount)
	if err != nil {
		return models.TuitionTier{}, err
	}

	tier := models.TuitionTier{Grade: grade, AmountCents: cents}
	if err := s.tiers.Create(ctx, &tier); err != nil {
		return models.TuitionTier{}, err
	}
	return tier, nil
}

func (s *TuitionService) Update(ctx context.Context, id int64, input TuitionInput) (models.TuitionTier, error) {
	grade := strings.TrimSpace(input.Grade)
	if grade == "" {
		return models.TuitionTier{}, fmt.Errorf("%w: grade is required", ErrMalformedInput)
	}
	cents, err := ParseAmount(input.Amount)
	if err != nil {
		return models.TuitionTier{}, err
	}

	tier, err := s.tiers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTuitionTierNotFound) {
			return models.TuitionTier{}, ErrNotFound
		}
		return models.TuitionTier{}, err
	}

	tier.Grade = grade
	tier.AmountCents = cents
	if err := s.tiers.Update(ctx, tier); err != nil {
		if errors.Is(err, repository.ErrTuitionTierNotFound) {
			return models.TuitionTier{}, ErrNotFound
		}
		return models.TuitionTier{}, err
	}
	return tier, nil
}

func (s *TuitionService) Delete(ctx context.Context, id int64) error {
	if err := s.tiers.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTuitionTierNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ParseAmount converts a decimal money string into cents. A comma
// decimal separator is accepted alongside the dot.
func ParseAmount(raw string) (int64, error) {
	value := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if !amountPattern.MatchString(value) {
		return 0, fmt.Errorf("%w: amount must be a decimal value", ErrMalformedInput)
	}

	whole, frac, _ := strings.Cut(value, ".")
	cents, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount out of range", ErrMalformedInput)
	}
	cents *= 100

	if frac != "" {
		if len(frac) == 1 {
			frac += "0"
		}
		fracCents, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: amount out of range", ErrMalformedInput)
		}
		cents += fracCents
	}
	return cents, nil
}
