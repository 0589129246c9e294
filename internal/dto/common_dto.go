package dto

import "encoding/json"

// PageQuery binds ?page=&per_page= on list endpoints.
type PageQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// Normalize fills in defaults.
func (q *PageQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}
}

// StatusUpdateRequest is sent by the executor to report progress on any entity.
type StatusUpdateRequest struct {
	ID      string          `json:"id" binding:"required,uuid"`
	Status  string          `json:"status" binding:"required"`
	Results json.RawMessage `json:"results"`
	Message string          `json:"message"`
}

// StatusResponse is returned to the executor by status lookups.
type StatusResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
