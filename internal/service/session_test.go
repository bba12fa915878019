package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/trainease/booking-service/internal/models"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func setupTestSessionService(t *testing.T) (SessionService, *miniredis.Miniredis) {
	t.Helper()

	client, mr := setupTestRedis(t)
	return NewSessionService(newTestSigner(t, testSecret), client, testTTL), mr
}

// =============================================================================
// Create Tests
// =============================================================================

func TestSessionCreate_StoresRecord(t *testing.T) {
	sessions, mr := setupTestSessionService(t)
	defer mr.Close()

	user := &models.User{ID: 7, Username: "alice", Role: models.RoleAdmin}

	token, session, err := sessions.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if token == "" {
		t.Fatal("Create() should return a token")
	}
	if session.UserID != 7 || !session.IsAdmin {
		t.Errorf("session = %+v, want user 7 admin", session)
	}

	key := sessionKey(session.ID)
	if got := mr.HGet(key, "user_id"); got != "7" {
		t.Errorf("stored user_id = %q, want 7", got)
	}
	if got := mr.HGet(key, "is_admin"); got != "true" {
		t.Errorf("stored is_admin = %q, want true", got)
	}
	if ttl := mr.TTL(key); ttl != testTTL {
		t.Errorf("session TTL = %v, want %v", ttl, testTTL)
	}
	if ok, _ := mr.SIsMember(userSessionsKey(7), session.ID); !ok {
		t.Error("session should be indexed under its user")
	}
}

func TestSessionCreate_RedisFailure(t *testing.T) {
	sessions, mr := setupTestSessionService(t)
	mr.Close()

	_, _, err := sessions.Create(context.Background(), &models.User{ID: 1})
	if err == nil {
		t.Error("Create() should fail when Redis is unavailable")
	}
}

// =============================================================================
// Resolve Tests
// =============================================================================

func TestSessionResolve_RoundTrip(t *testing.T) {
	sessions, mr := setupTestSessionService(t)
	defer mr.Close()

	token, created, _ := sessions.Create(context.Background(), &models.User{ID: 3, Role: models.RoleUser})

	resolved, err := sessions.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.ID != created.ID || resolved.UserID != 3 || resolved.IsAdmin {
		t.Errorf("Resolve() = %+v, want %+v", resolved, created)
	}

	caller := resolved.Caller()
	if caller.UserID != 3 || caller.IsAdmin {
		t.Errorf("Caller() = %+v, want user 3 non-admin", caller)
	}
}

func TestSessionResolve_Unauthenticated(t *testing.T) {
	sessions, mr := setupTestSessionService(t)
	defer mr.Close()

	foreign := NewSessionService(newTestSigner(t, "another-secret-that-is-32-bytes-long!"), redis.NewClient(&redis.Options{Addr: mr.Addr()}), testTTL)
	foreignToken, _, err := foreign.Create(context.Background(), &models.User{ID: 1})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "signed with another secret", token: foreignToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sessions.Resolve(context.Background(), tt.token)
			if !errors.Is(err, ErrUnauthenticated) {
				t.Errorf("Resolve() error = %v, want ErrUnauthenticated", err)
			}
		})
	}
}

func TestSessionResolve_Expired(t *testing.T) {
	sessions, mr := setupTestSessionService(t)
	defer mr.Close()

	token, _, _ := sessions.Create(context.Background(), &models.User{ID: 1})
	mr.FastForward(testTTL + time.Second)

	_, err := sessions.Resolve(context.Background(), token)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Resolve() error = %v, want ErrUnauthenticated", err)
	}
}

// =============================================================================
// Destroy / Revoke Tests
// =============================================================================

func TestSessionDestroy(t *testing.T) {
	sessions, mr := setupTestSessionService(t)
	defer mr.Close()

	token, session, _ := sessions.Create(context.Background(), &models.User{ID: 5})

	if err := sessions.Destroy(context.Background(), token); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if mr.Exists(sessionKey(session.ID)) {
		t.Error("Destroy() should remove the session record")
	}
	if _, err := sessions.Resolve(context.Background(), token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Resolve() after Destroy error = %v, want ErrUnauthenticated", err)
	}
}

func TestSessionDestroy_InvalidToken(t *testing.T) {
	sessions, mr := setupTestSessionService(t)
	defer mr.Close()

	if err := sessions.Destroy(context.Background(), "invalid"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Destroy() error = %v, want ErrUnauthenticated", err)
	}
}

func TestSessionRevokeUser(t *testing.T) {
	sessions, mr := setupTestSessionService(t)
	defer mr.Close()

	ctx := context.Background()
	first, _, _ := sessions.Create(ctx, &models.User{ID: 9})
	second, _, _ := sessions.Create(ctx, &models.User{ID: 9})
	other, _, _ := sessions.Create(ctx, &models.User{ID: 10})

	if err := sessions.RevokeUser(ctx, 9); err != nil {
		t.Fatalf("RevokeUser() error = %v", err)
	}

	for _, token := range []string{first, second} {
		if _, err := sessions.Resolve(ctx, token); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("Resolve() of revoked session error = %v, want ErrUnauthenticated", err)
		}
	}
	if _, err := sessions.Resolve(ctx, other); err != nil {
		t.Errorf("sessions of other users should survive, got %v", err)
	}
}

func TestSessionRevokeUser_NoSessions(t *testing.T) {
	sessions, mr := setupTestSessionService(t)
	defer mr.Close()

	if err := sessions.RevokeUser(context.Background(), 99); err != nil {
		t.Errorf("RevokeUser() without sessions error = %v", err)
	}
}
