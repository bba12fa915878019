package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/trainease/booking-service/internal/models"
)

// Session is the server-side record behind a session token.
type Session struct {
	ID      string
	UserID  int64
	IsAdmin bool
}

// Caller returns the request identity carried by the session.
func (s *Session) Caller() *Caller {
	return &Caller{UserID: s.UserID, IsAdmin: s.IsAdmin}
}

// SessionService manages login sessions.
type SessionService interface {
	Create(ctx context.Context, user *models.User) (string, *Session, error)
	Resolve(ctx context.Context, token string) (*Session, error)
	Destroy(ctx context.Context, token string) error
	RevokeUser(ctx context.Context, userID int64) error
	TTL() time.Duration
}

type sessionService struct {
	signer TokenSigner
	redis  *redis.Client
	ttl    time.Duration
}

// NewSessionService creates a SessionService storing sessions in Redis.
func NewSessionService(signer TokenSigner, redisClient *redis.Client, ttl time.Duration) SessionService {
	return &sessionService{
		signer: signer,
		redis:  redisClient,
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return "session:" + id
}

func userSessionsKey(userID int64) string {
	return fmt.Sprintf("user_sessions:%d", userID)
}

func (s *sessionService) TTL() time.Duration {
	return s.ttl
}

func (s *sessionService) Create(ctx context.Context, user *models.User) (string, *Session, error) {
	session := &Session{
		ID:      uuid.NewString(),
		UserID:  user.ID,
		IsAdmin: user.IsAdmin(),
	}

	token, err := s.signer.Sign(session.ID, session.UserID, s.ttl)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	key := sessionKey(session.ID)
	indexKey := userSessionsKey(user.ID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "user_id", session.UserID, "is_admin", strconv.FormatBool(session.IsAdmin))
		pipe.Expire(ctx, key, s.ttl)
		pipe.SAdd(ctx, indexKey, session.ID)
		pipe.Expire(ctx, indexKey, s.ttl)
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	return token, session, nil
}

func (s *sessionService) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	fields, err := s.redis.HGetAll(ctx, sessionKey(claims.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: session expired", ErrUnauthenticated)
	}

	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil || userID != claims.UserID {
		return nil, fmt.Errorf("%w: session mismatch", ErrUnauthenticated)
	}
	isAdmin, _ := strconv.ParseBool(fields["is_admin"])

	return &Session{ID: claims.ID, UserID: userID, IsAdmin: isAdmin}, nil
}

func (s *sessionService) Destroy(ctx context.Context, token string) error {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(claims.ID))
		pipe.SRem(ctx, userSessionsKey(claims.UserID), claims.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *sessionService) RevokeUser(ctx context.Context, userID int64) error {
	indexKey := userSessionsKey(userID)
	ids, err := s.redis.SMembers(ctx, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list sessions of user %d: %w", userID, err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, indexKey)

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to revoke sessions of user %d: %w", userID, err)
	}
	return nil
}
