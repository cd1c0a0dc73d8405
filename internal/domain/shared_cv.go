package domain

import (
	"errors"
	"time"

	"cv-builder/internal/model"

	"github.com/google/uuid"
)

var ErrShareNotFound = errors.New("shared cv not found")

// SharedCV is an immutable snapshot of a session's document published under
// its own id, so it outlives the session.
type SharedCV struct {
	ID        uuid.UUID       `json:"id"`
	Template  string          `json:"template"`
	Document  *model.Document `json:"document"`
	CreatedAt time.Time       `json:"created_at"`
}
