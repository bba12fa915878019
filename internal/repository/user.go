package repository

import (
	"context"
	"fmt"

	"github.com/trainease/booking-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Repository[models.User]
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// ResyncIDSequence moves the id sequence past the highest stored id, so
	// rows inserted with an explicit id do not collide with later inserts.
	ResyncIDSequence(ctx context.Context) error
}

type userRepository struct {
	Repository[models.User]
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		Repository: New[models.User](db, "user"),
		db:         db,
	}
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := conn(ctx, r.db).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username %s: %w", username, translate(err))
	}
	return &user, nil
}

func (r *userRepository) ResyncIDSequence(ctx context.Context) error {
	err := conn(ctx, r.db).
		Exec("SELECT setval(pg_get_serial_sequence('users', 'id'), GREATEST((SELECT MAX(id) FROM users), 1))").
		Error
	if err != nil {
		return fmt.Errorf("failed to resync user id sequence: %w", translate(err))
	}
	return nil
}
