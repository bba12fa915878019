package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trainease/booking-service/internal/models"
	"github.com/trainease/booking-service/internal/repository"
)

const (
	maxUsernameLength = 64
	// bcrypt input limit in bytes
	maxPasswordLength = 72
)

// UserUpdate carries the mutable user fields. Nil fields are left unchanged.
type UserUpdate struct {
	Username *string
	Password *string
	FullName *string
	IsAdmin  *bool
}

// SessionRevoker drops every session of a user.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID int64) error
}

// UserService registers, authenticates and manages user accounts.
type UserService interface {
	Register(ctx context.Context, username, password, fullName string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	Get(ctx context.Context, caller *Caller, id int64) (*models.User, error)
	List(ctx context.Context, caller *Caller) ([]models.User, error)
	Update(ctx context.Context, caller *Caller, id int64, update UserUpdate) (*models.User, error)
	Delete(ctx context.Context, caller *Caller, id int64) error
	EnsureAdmin(ctx context.Context, username, password string) (*models.User, error)
}

type userService struct {
	users      repository.UserRepository
	tx         repository.Transactor
	hasher     PasswordHasher
	guard      *Guard
	sessions   SessionRevoker
	reservedID int64
}

// NewUserService creates a UserService. reservedAdminID names the bootstrap
// admin account that can never be deleted.
func NewUserService(users repository.UserRepository, tx repository.Transactor, hasher PasswordHasher, guard *Guard, sessions SessionRevoker, reservedAdminID int64) UserService {
	return &userService{
		users:      users,
		tx:         tx,
		hasher:     hasher,
		guard:      guard,
		sessions:   sessions,
		reservedID: reservedAdminID,
	}
}

func validateUsername(username string) error {
	if username == "" {
		return validationError("username is required")
	}
	if len(username) > maxUsernameLength {
		return validationError("username must be at most %d characters", maxUsernameLength)
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return validationError("password is required")
	}
	if len(password) > maxPasswordLength {
		return validationError("password must be at most %d bytes", maxPasswordLength)
	}
	return nil
}

// usernameFree returns ErrConflict when username belongs to someone other
// than selfID.
func (s *userService) usernameFree(ctx context.Context, username string, selfID int64) error {
	existing, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return fmt.Errorf("%w: username %s already exists", ErrConflict, username)
	}
	return nil
}

func (s *userService) Register(ctx context.Context, username, password, fullName string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		Role:         models.RoleUser,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.usernameFree(ctx, username, 0); err != nil {
			return err
		}
		if err := s.users.Create(ctx, user); err != nil {
			return storeError(err, "username "+username+" already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, caller *Caller, id int64) (*models.User, error) {
	if err := s.guard.Authorize(caller, ActionUserRead, owner(id)); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("user %d", id))
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, caller *Caller) ([]models.User, error) {
	if err := s.guard.Authorize(caller, ActionUserList, nil); err != nil {
		return nil, err
	}
	return s.users.FindAll(ctx)
}

func (s *userService) Update(ctx context.Context, caller *Caller, id int64, update UserUpdate) (*models.User, error) {
	if err := s.guard.Authorize(caller, ActionUserUpdate, owner(id)); err != nil {
		return nil, err
	}

	var (
		user          *models.User
		revokeSession bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.users.FindByID(ctx, id)
		if err != nil {
			return storeError(err, fmt.Sprintf("user %d", id))
		}

		if update.Username != nil {
			username := strings.TrimSpace(*update.Username)
			if err := validateUsername(username); err != nil {
				return err
			}
			if username != existing.Username {
				if err := s.usernameFree(ctx, username, id); err != nil {
					return err
				}
				existing.Username = username
			}
		}

		if update.FullName != nil {
			existing.FullName = strings.TrimSpace(*update.FullName)
		}

		// A password equal to the stored digest is an echo of the current
		// value, not a new password.
		if update.Password != nil && *update.Password != "" && *update.Password != existing.PasswordHash {
			if err := validatePassword(*update.Password); err != nil {
				return err
			}
			hash, err := s.hasher.Hash(*update.Password)
			if err != nil {
				return err
			}
			existing.PasswordHash = hash
			revokeSession = true
		}

		// Only admins may change roles; for everyone else the flag is kept.
		if update.IsAdmin != nil && caller.IsAdmin && *update.IsAdmin != existing.IsAdmin() {
			if !*update.IsAdmin && existing.ID == s.reservedID {
				return fmt.Errorf("%w: the main admin account cannot be demoted", ErrForbidden)
			}
			existing.Role = models.RoleUser
			if *update.IsAdmin {
				existing.Role = models.RoleAdmin
			}
			revokeSession = true
		}

		if err := s.users.Update(ctx, existing); err != nil {
			return storeError(err, "username "+existing.Username+" already exists")
		}
		user = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	if revokeSession {
		if err := s.sessions.RevokeUser(ctx, id); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, caller *Caller, id int64) error {
	if id == s.reservedID {
		return fmt.Errorf("%w: cannot delete the main admin account", ErrForbidden)
	}
	if err := s.guard.Authorize(caller, ActionUserDelete, owner(id)); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return storeError(err, fmt.Sprintf("user %d", id))
	}
	return s.sessions.RevokeUser(ctx, id)
}

// EnsureAdmin creates the bootstrap admin under the reserved id when that
// account is missing and returns it. A reserved id held by a non-admin, or an
// admin username taken by another account, is an error.
func (s *userService) EnsureAdmin(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	var admin *models.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.users.FindByID(ctx, s.reservedID)
		switch {
		case err == nil && existing.IsAdmin():
			admin = existing
			return nil
		case err == nil:
			return fmt.Errorf("%w: reserved admin id %d belongs to non-admin user %s",
				ErrConflict, s.reservedID, existing.Username)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		if err := validateUsername(username); err != nil {
			return err
		}
		if err := validatePassword(password); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if err := s.usernameFree(ctx, username, s.reservedID); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(password)
		if err != nil {
			return err
		}
		user := &models.User{
			ID:           s.reservedID,
			Username:     username,
			PasswordHash: hash,
			FullName:     "Administrator",
			Role:         models.RoleAdmin,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return storeError(err, "username "+username+" already exists")
		}
		if err := s.users.ResyncIDSequence(ctx); err != nil {
			return err
		}
		admin = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}
