package handlers

import (
	"multisweeper/internal/repository"
	"multisweeper/internal/session"
)

// Handler serves the REST view of live games and finished results.
// Results is nil when the server runs without a database.
type Handler struct {
	Registry *session.Registry
	Results  *repository.GameResultRepository
}

func NewHandler(registry *session.Registry, results *repository.GameResultRepository) *Handler {
	return &Handler{
		Registry: registry,
		Results:  results,
	}
}
