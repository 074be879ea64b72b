package dto

import (
	"time"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// PaginationMeta describes the page window of a list response.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ActivityListRequest defines filters for listing activity entries.
type ActivityListRequest struct {
	Page       int
	PageSize   int
	SchoolID   uint
	ActorID    uint
	Action     string
	EntityType string
}

// ActivityResponse serializes one activity log entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	SchoolID   uint                   `json:"school_id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityListResponse wraps paginated activity entries.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse maps an activity log model to its response form.
func NewActivityResponse(a models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:         a.ID,
		SchoolID:   a.SchoolID,
		ActorID:    a.ActorID,
		ActorRole:  a.ActorRole,
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Metadata:   a.Metadata,
		CreatedAt:  a.CreatedAt,
	}
}
