package model

import "time"

const HistoryEventType = "History events"

type HistoryEntry struct {
	ID        int64     `json:"id"`
	Datetime  time.Time `json:"datetime"`
	EventType string    `json:"event_type"`
	EventText string    `json:"event_text"`
	UserID    *string   `json:"user_id"`
	ClientID  *string   `json:"client_id"`
	IsHIPAA   bool      `json:"is_hipaa"`
}

type HistoryPage struct {
	Data       []HistoryEntry `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

type Pagination struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
