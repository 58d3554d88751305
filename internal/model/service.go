package model

import "github.com/shopspring/decimal"

// PracticeService is a billable service offered by the practice.
type PracticeService struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Code        string          `json:"code"`
	Duration    int             `json:"duration"` // minutes
	Description string          `json:"description"`
	Rate        decimal.Decimal `json:"rate"`
}
