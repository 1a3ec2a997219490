package users

import (
	"time"

	"github.com/google/uuid"
)

// User is a directory entry. Accounts and credentials live upstream; this
// table only supplies display names for member listings and reports.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
}
