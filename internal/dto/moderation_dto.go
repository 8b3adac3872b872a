package dto

import "github.com/campustroc/backend/internal/models"

type DecideRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

type CreateReportRequest struct {
	Reason string `json:"reason"`
}

type ActionReportRequest struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note"`
}

type PromoteRequest struct {
	Role   models.Role    `json:"role"`
	Campus *models.Campus `json:"campus,omitempty"`
}

type BanRequest struct {
	Reason string `json:"reason"`
}

// Page wraps a paginated list.
type Page struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}
