package models

import (
	"time"
)

type Link struct {
	ID                string     `json:"id"`
	ShortCode         string     `json:"shortCode"`
	OriginalURL       string     `json:"originalUrl"`
	OwnerUserID       string     `json:"-"`
	ExternalAccountID *string    `json:"-"`
	Clicks            int64      `json:"clicks"`
	CreatedAt         time.Time  `json:"createdAt"`
	LastClickedAt     *time.Time `json:"lastClickedAt,omitempty"`
}

type CreateLinkInput struct {
	OwnerUserID       string
	OriginalURL       string
	CustomSlug        *string
	ExternalAccountID *string
}

type LinkStats struct {
	ID            string     `json:"id"`
	ShortCode     string     `json:"shortCode"`
	Clicks        int64      `json:"clicks"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
}
