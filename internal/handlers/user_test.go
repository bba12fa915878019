package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainease/booking-service/internal/models"
	"github.com/trainease/booking-service/internal/service"
)

func setupUserHandler(users *mockUserService, sessions *mockSessionService) *UserHandler {
	if sessions == nil {
		sessions = &mockSessionService{ttl: 24 * time.Hour}
	}
	cookies := NewCookieHelper(CookieConfig{Path: "/", SameSite: http.SameSiteLaxMode})
	return NewUserHandler(users, sessions, cookies)
}

var alice = &models.User{ID: 2, Username: "alice", PasswordHash: "digest", FullName: "Alice Martin", Role: models.RoleUser}

// =============================================================================
// Register
// =============================================================================

func TestRegister_Success(t *testing.T) {
	users := &mockUserService{
		registerFunc: func(_ context.Context, username, password, fullName string) (*models.User, error) {
			assert.Equal(t, "alice", username)
			assert.Equal(t, "s3cret", password)
			assert.Equal(t, "Alice Martin", fullName)
			return alice, nil
		},
	}
	h := setupUserHandler(users, nil)

	w := serve(http.MethodPost, "/api/user/register", "/api/user/register", h.Register, "", RegisterRequest{
		Username: "alice", Password: "s3cret", FullName: "Alice Martin",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "digest")
	assert.NotContains(t, w.Body.String(), "password")

	resp, err := decode[UserResponse](w)
	require.NoError(t, err)
	assert.Equal(t, UserResponse{ID: 2, Username: "alice", FullName: "Alice Martin", IsAdmin: false}, resp)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		err        error
		wantStatus int
	}{
		{"duplicate username", RegisterRequest{Username: "alice", Password: "x"}, fmt.Errorf("%w: username alice", service.ErrConflict), http.StatusConflict},
		{"missing password", RegisterRequest{Username: "alice"}, fmt.Errorf("%w: password is required", service.ErrValidation), http.StatusBadRequest},
		{"invalid json", "not json", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockUserService{
				registerFunc: func(context.Context, string, string, string) (*models.User, error) {
					return nil, tt.err
				},
			}
			h := setupUserHandler(users, nil)

			w := serve(http.MethodPost, "/api/user/register", "/api/user/register", h.Register, "", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// =============================================================================
// Login / logout
// =============================================================================

func TestLogin_Success(t *testing.T) {
	users := &mockUserService{
		authenticateFunc: func(_ context.Context, username, password string) (*models.User, error) {
			return alice, nil
		},
	}
	sessions := &mockSessionService{
		ttl: 24 * time.Hour,
		createFunc: func(_ context.Context, user *models.User) (string, *service.Session, error) {
			assert.Equal(t, alice.ID, user.ID)
			return "signed-token", &service.Session{ID: "s1", UserID: user.ID}, nil
		},
	}
	h := setupUserHandler(users, sessions)

	w := serve(http.MethodPost, "/api/user/login", "/api/user/login", h.Login, "", LoginRequest{
		Username: "alice", Password: "s3cret",
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp, err := decode[LoginResponse](w)
	require.NoError(t, err)
	assert.Equal(t, "signed-token", resp.Token)
	assert.Equal(t, int64(86400), resp.ExpiresIn)
	assert.Equal(t, "alice", resp.User.Username)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, "signed-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	users := &mockUserService{
		authenticateFunc: func(context.Context, string, string) (*models.User, error) {
			return nil, service.ErrInvalidCredentials
		},
	}
	h := setupUserHandler(users, nil)

	w := serve(http.MethodPost, "/api/user/login", "/api/user/login", h.Login, "", LoginRequest{
		Username: "alice", Password: "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestLogin_MissingFields(t *testing.T) {
	h := setupUserHandler(&mockUserService{}, nil)

	for _, body := range []any{
		map[string]string{"password": "s3cret"},
		map[string]string{"username": "alice"},
		"invalid json",
	} {
		w := serve(http.MethodPost, "/api/user/login", "/api/user/login", h.Login, "", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
	}
}

func TestLogin_SessionStoreFailure(t *testing.T) {
	users := &mockUserService{
		authenticateFunc: func(context.Context, string, string) (*models.User, error) {
			return alice, nil
		},
	}
	sessions := &mockSessionService{
		createFunc: func(context.Context, *models.User) (string, *service.Session, error) {
			return "", nil, fmt.Errorf("failed to store session: connection refused")
		},
	}
	h := setupUserHandler(users, sessions)

	w := serve(http.MethodPost, "/api/user/login", "/api/user/login", h.Login, "", LoginRequest{
		Username: "alice", Password: "s3cret",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestLogout(t *testing.T) {
	var destroyed []string
	sessions := &mockSessionService{
		destroyFunc: func(_ context.Context, token string) error {
			destroyed = append(destroyed, token)
			return nil
		},
	}
	h := setupUserHandler(&mockUserService{}, sessions)

	w := serve(http.MethodPost, "/api/user/logout", "/api/user/logout", h.Logout, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{aliceToken}, destroyed)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	w = serve(http.MethodPost, "/api/user/logout", "/api/user/logout", h.Logout, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, destroyed, 1)
}

// =============================================================================
// Current / list / get
// =============================================================================

func TestCurrent(t *testing.T) {
	users := &mockUserService{
		getFunc: func(_ context.Context, caller *service.Caller, id int64) (*models.User, error) {
			assert.Equal(t, caller.UserID, id)
			return alice, nil
		},
	}
	h := setupUserHandler(users, nil)

	w := serve(http.MethodGet, "/api/user/current", "/api/user/current", h.Current, aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodGet, "/api/user/current", "/api/user/current", h.Current, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(http.MethodGet, "/api/user/current", "/api/user/current", h.Current, "unknown-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsers(t *testing.T) {
	users := &mockUserService{
		listFunc: func(_ context.Context, caller *service.Caller) ([]models.User, error) {
			if caller == nil {
				return nil, service.ErrUnauthenticated
			}
			if !caller.IsAdmin {
				return nil, service.ErrForbidden
			}
			return []models.User{*alice}, nil
		},
	}
	h := setupUserHandler(users, nil)

	w := serve(http.MethodGet, "/api/user", "/api/user", h.List, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list, err := decode[[]UserResponse](w)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusForbidden, serve(http.MethodGet, "/api/user", "/api/user", h.List, aliceToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodGet, "/api/user", "/api/user", h.List, "", nil).Code)
}

func TestListUsers_Empty(t *testing.T) {
	users := &mockUserService{
		listFunc: func(context.Context, *service.Caller) ([]models.User, error) {
			return nil, nil
		},
	}
	h := setupUserHandler(users, nil)

	w := serve(http.MethodGet, "/api/user", "/api/user", h.List, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetUser(t *testing.T) {
	users := &mockUserService{
		getFunc: func(_ context.Context, caller *service.Caller, id int64) (*models.User, error) {
			if id == 404 {
				return nil, fmt.Errorf("%w: user 404", service.ErrNotFound)
			}
			return alice, nil
		},
	}
	h := setupUserHandler(users, nil)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/user/2", http.StatusOK},
		{"/api/user/404", http.StatusNotFound},
		{"/api/user/abc", http.StatusBadRequest},
		{"/api/user/-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(http.MethodGet, "/api/user/:id", tt.path, h.Get, aliceToken, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// =============================================================================
// Update / delete
// =============================================================================

func TestUpdateUser(t *testing.T) {
	var got service.UserUpdate
	users := &mockUserService{
		updateFunc: func(_ context.Context, caller *service.Caller, id int64, update service.UserUpdate) (*models.User, error) {
			assert.Equal(t, callerOf(aliceToken), caller)
			assert.Equal(t, int64(2), id)
			got = update
			return alice, nil
		},
	}
	h := setupUserHandler(users, nil)

	w := serve(http.MethodPut, "/api/user/:id", "/api/user/2", h.Update, aliceToken, `{"fullName":"Alice M.","isAdmin":true}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.FullName)
	assert.Equal(t, "Alice M.", *got.FullName)
	require.NotNil(t, got.IsAdmin)
	assert.True(t, *got.IsAdmin)
	assert.Nil(t, got.Username)
	assert.Nil(t, got.Password)
}

func TestDeleteUser(t *testing.T) {
	users := &mockUserService{
		deleteFunc: func(_ context.Context, caller *service.Caller, id int64) error {
			if id == 1 {
				return fmt.Errorf("%w: the reserved admin account cannot be deleted", service.ErrForbidden)
			}
			if caller == nil || !caller.IsAdmin {
				return service.ErrForbidden
			}
			return nil
		},
	}
	h := setupUserHandler(users, nil)

	assert.Equal(t, http.StatusOK, serve(http.MethodDelete, "/api/user/:id", "/api/user/2", h.Delete, adminToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(http.MethodDelete, "/api/user/:id", "/api/user/1", h.Delete, adminToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(http.MethodDelete, "/api/user/:id", "/api/user/1", h.Delete, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(http.MethodDelete, "/api/user/:id", "/api/user/3", h.Delete, aliceToken, nil).Code)
}
