package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Portfolio represents a portfolio entity in the domain layer
type Portfolio struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Validate ensures the portfolio adheres to domain rules
// Returns an error if validation fails
func (p *Portfolio) Validate() error {
	if p.Name == "" {
		return errors.New("portfolio name cannot be empty")
	}
	return nil
}
