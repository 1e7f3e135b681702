package dto

import "github.com/google/uuid"

type AdjustKarmaRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
}

type MonthlyBonusRequest struct {
	// Month is YYYY-MM. Empty means the previous calendar month.
	Month string `json:"month"`
}
