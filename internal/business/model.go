package business

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role enumerates membership roles.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Business is a shared venture owned by its creator.
type Business struct {
	ID               uuid.UUID
	Name             string
	InviteCode       string
	StartDate        time.Time
	AutoUpdateEquity bool
	CreatedBy        uuid.UUID
	CreatedAt        time.Time
}

// Member links a user to a business with a role and an equity share.
type Member struct {
	BusinessID       uuid.UUID
	UserID           uuid.UUID
	Name             string
	Role             Role
	EquityPercentage decimal.Decimal
	JoinedAt         time.Time
}
