package models

import (
	"time"

	"github.com/google/uuid"
)

// User categories used to resolve limit definitions
const (
	CategoryStandard = "standard"
	CategoryPremium  = "premium"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	HashedPassword string
	Category       string
}
