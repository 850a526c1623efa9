package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByIDs returns the users that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
	Save(ctx context.Context, user *User) error
}
