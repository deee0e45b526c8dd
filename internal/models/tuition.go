package models

import (
	"fmt"
	"time"
)

// TuitionTier is the monthly tuition amount for one grade level.
// Amounts are stored in cents to avoid floating-point money.
type TuitionTier struct {
	ID          int64
	Grade       string
	AmountCents int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t TuitionTier) Amount() string {
	return fmt.Sprintf("%d.%02d", t.AmountCents/100, t.AmountCents%100)
}
