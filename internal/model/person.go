package model

import "time"

type Clinician struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

type Client struct {
	ID             string    `json:"id"`
	LegalFirstName string    `json:"legal_first_name"`
	LegalLastName  string    `json:"legal_last_name"`
	PreferredName  string    `json:"preferred_name"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}
