package api

import "github.com/starford/voicememo/internal/models"

// MemoRecord is a single journal entry (aliased from the domain layer).
type MemoRecord = models.MemoRecord

// MemoListResponse wraps paginated memo listings.
type MemoListResponse struct {
	Memos []MemoRecord `json:"memos" validate:"required"`
	Total int          `json:"total" example:"42" validate:"required"`
}
