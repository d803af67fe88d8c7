package controllers

import "github.com/datallboy/gospool/internal/domain"

type ErrorResponse struct {
	Error string `json:"error"`
}

type GroupsResponse struct {
	Groups []domain.Group `json:"groups"`
}

// PostResponse reports the article numbers a new article was filed under.
type PostResponse struct {
	MessageID string           `json:"message_id"`
	Numbers   map[string]int64 `json:"numbers"`
}
