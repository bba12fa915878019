package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trainease/booking-service/internal/middleware"
	"github.com/trainease/booking-service/internal/models"
	"github.com/trainease/booking-service/internal/service"
)

var errNotImplemented = errors.New("not implemented")

// =============================================================================
// Mock Implementations
// =============================================================================

type mockUserService struct {
	registerFunc     func(ctx context.Context, username, password, fullName string) (*models.User, error)
	authenticateFunc func(ctx context.Context, username, password string) (*models.User, error)
	getFunc          func(ctx context.Context, caller *service.Caller, id int64) (*models.User, error)
	listFunc         func(ctx context.Context, caller *service.Caller) ([]models.User, error)
	updateFunc       func(ctx context.Context, caller *service.Caller, id int64, update service.UserUpdate) (*models.User, error)
	deleteFunc       func(ctx context.Context, caller *service.Caller, id int64) error
}

func (m *mockUserService) Register(ctx context.Context, username, password, fullName string) (*models.User, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, username, password, fullName)
	}
	return nil, errNotImplemented
}

func (m *mockUserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if m.authenticateFunc != nil {
		return m.authenticateFunc(ctx, username, password)
	}
	return nil, errNotImplemented
}

func (m *mockUserService) Get(ctx context.Context, caller *service.Caller, id int64) (*models.User, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, caller, id)
	}
	return nil, errNotImplemented
}

func (m *mockUserService) List(ctx context.Context, caller *service.Caller) ([]models.User, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, caller)
	}
	return nil, errNotImplemented
}

func (m *mockUserService) Update(ctx context.Context, caller *service.Caller, id int64, update service.UserUpdate) (*models.User, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, caller, id, update)
	}
	return nil, errNotImplemented
}

func (m *mockUserService) Delete(ctx context.Context, caller *service.Caller, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, caller, id)
	}
	return errNotImplemented
}

func (m *mockUserService) EnsureAdmin(context.Context, string, string) (*models.User, error) {
	return nil, errNotImplemented
}

type mockSessionService struct {
	createFunc  func(ctx context.Context, user *models.User) (string, *service.Session, error)
	destroyFunc func(ctx context.Context, token string) error
	ttl         time.Duration
}

func (m *mockSessionService) Create(ctx context.Context, user *models.User) (string, *service.Session, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return "", nil, errNotImplemented
}

func (m *mockSessionService) Resolve(context.Context, string) (*service.Session, error) {
	return nil, errNotImplemented
}

func (m *mockSessionService) Destroy(ctx context.Context, token string) error {
	if m.destroyFunc != nil {
		return m.destroyFunc(ctx, token)
	}
	return errNotImplemented
}

func (m *mockSessionService) RevokeUser(context.Context, int64) error {
	return errNotImplemented
}

func (m *mockSessionService) TTL() time.Duration {
	return m.ttl
}

type mockCatalogService struct {
	listTrainsFunc        func(ctx context.Context) ([]models.Train, error)
	getTrainFunc          func(ctx context.Context, id int64) (*models.Train, error)
	createTrainFunc       func(ctx context.Context, caller *service.Caller, in service.TrainInput) (*models.Train, error)
	updateTrainFunc       func(ctx context.Context, caller *service.Caller, id int64, in service.TrainInput) (*models.Train, error)
	deleteTrainFunc       func(ctx context.Context, caller *service.Caller, id int64) error
	listRoutesFunc        func(ctx context.Context) ([]models.Route, error)
	getRouteFunc          func(ctx context.Context, id int64) (*models.Route, error)
	listRoutesByTrainFunc func(ctx context.Context, trainID int64) ([]models.Route, error)
	createRouteFunc       func(ctx context.Context, caller *service.Caller, in service.RouteInput) (*models.Route, error)
	updateRouteFunc       func(ctx context.Context, caller *service.Caller, id int64, in service.RouteInput) (*models.Route, error)
	deleteRouteFunc       func(ctx context.Context, caller *service.Caller, id int64) error
}

func (m *mockCatalogService) ListTrains(ctx context.Context) ([]models.Train, error) {
	if m.listTrainsFunc != nil {
		return m.listTrainsFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogService) GetTrain(ctx context.Context, id int64) (*models.Train, error) {
	if m.getTrainFunc != nil {
		return m.getTrainFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogService) CreateTrain(ctx context.Context, caller *service.Caller, in service.TrainInput) (*models.Train, error) {
	if m.createTrainFunc != nil {
		return m.createTrainFunc(ctx, caller, in)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogService) UpdateTrain(ctx context.Context, caller *service.Caller, id int64, in service.TrainInput) (*models.Train, error) {
	if m.updateTrainFunc != nil {
		return m.updateTrainFunc(ctx, caller, id, in)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogService) DeleteTrain(ctx context.Context, caller *service.Caller, id int64) error {
	if m.deleteTrainFunc != nil {
		return m.deleteTrainFunc(ctx, caller, id)
	}
	return errNotImplemented
}

func (m *mockCatalogService) ListRoutes(ctx context.Context) ([]models.Route, error) {
	if m.listRoutesFunc != nil {
		return m.listRoutesFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogService) GetRoute(ctx context.Context, id int64) (*models.Route, error) {
	if m.getRouteFunc != nil {
		return m.getRouteFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogService) ListRoutesByTrain(ctx context.Context, trainID int64) ([]models.Route, error) {
	if m.listRoutesByTrainFunc != nil {
		return m.listRoutesByTrainFunc(ctx, trainID)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogService) CreateRoute(ctx context.Context, caller *service.Caller, in service.RouteInput) (*models.Route, error) {
	if m.createRouteFunc != nil {
		return m.createRouteFunc(ctx, caller, in)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogService) UpdateRoute(ctx context.Context, caller *service.Caller, id int64, in service.RouteInput) (*models.Route, error) {
	if m.updateRouteFunc != nil {
		return m.updateRouteFunc(ctx, caller, id, in)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogService) DeleteRoute(ctx context.Context, caller *service.Caller, id int64) error {
	if m.deleteRouteFunc != nil {
		return m.deleteRouteFunc(ctx, caller, id)
	}
	return errNotImplemented
}

type mockBookingService struct {
	createFunc      func(ctx context.Context, caller *service.Caller, routeID int64, seats int) (*models.Booking, error)
	getFunc         func(ctx context.Context, caller *service.Caller, id int64) (*models.Booking, error)
	listByUserFunc  func(ctx context.Context, caller *service.Caller) ([]models.Booking, error)
	listByRouteFunc func(ctx context.Context, caller *service.Caller, routeID int64) ([]models.Booking, error)
	listAllFunc     func(ctx context.Context, caller *service.Caller) ([]models.Booking, error)
	updateFunc      func(ctx context.Context, caller *service.Caller, id int64, update service.BookingUpdate) (*models.Booking, error)
	cancelFunc      func(ctx context.Context, caller *service.Caller, id int64) (*models.Booking, error)
	deleteFunc      func(ctx context.Context, caller *service.Caller, id int64) error
}

func (m *mockBookingService) Create(ctx context.Context, caller *service.Caller, routeID int64, seats int) (*models.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, caller, routeID, seats)
	}
	return nil, errNotImplemented
}

func (m *mockBookingService) Get(ctx context.Context, caller *service.Caller, id int64) (*models.Booking, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, caller, id)
	}
	return nil, errNotImplemented
}

func (m *mockBookingService) ListByUser(ctx context.Context, caller *service.Caller) ([]models.Booking, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, caller)
	}
	return nil, errNotImplemented
}

func (m *mockBookingService) ListByRoute(ctx context.Context, caller *service.Caller, routeID int64) ([]models.Booking, error) {
	if m.listByRouteFunc != nil {
		return m.listByRouteFunc(ctx, caller, routeID)
	}
	return nil, errNotImplemented
}

func (m *mockBookingService) ListAll(ctx context.Context, caller *service.Caller) ([]models.Booking, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx, caller)
	}
	return nil, errNotImplemented
}

func (m *mockBookingService) Update(ctx context.Context, caller *service.Caller, id int64, update service.BookingUpdate) (*models.Booking, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, caller, id, update)
	}
	return nil, errNotImplemented
}

func (m *mockBookingService) Cancel(ctx context.Context, caller *service.Caller, id int64) (*models.Booking, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, caller, id)
	}
	return nil, errNotImplemented
}

func (m *mockBookingService) Delete(ctx context.Context, caller *service.Caller, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, caller, id)
	}
	return errNotImplemented
}

// =============================================================================
// Test Helpers
// =============================================================================

const (
	adminToken = "admin-token"
	aliceToken = "alice-token"
)

// tokenResolver resolves the fixed test tokens.
type tokenResolver map[string]*service.Session

func (r tokenResolver) Resolve(_ context.Context, token string) (*service.Session, error) {
	if session, ok := r[token]; ok {
		return session, nil
	}
	return nil, service.ErrUnauthenticated
}

var testSessions = tokenResolver{
	adminToken: {ID: "admin-session", UserID: 1, IsAdmin: true},
	aliceToken: {ID: "alice-session", UserID: 2},
}

// serve registers handler under pattern behind the session middleware and
// performs one request. token is sent as a bearer header when non-empty.
func serve(method, pattern, path string, handler gin.HandlerFunc, token string, body any) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	r.Use(middleware.Session(testSessions, SessionCookie))
	r.Handle(method, pattern, handler)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) (T, error) {
	var v T
	err := json.Unmarshal(w.Body.Bytes(), &v)
	return v, err
}

func callerOf(token string) *service.Caller {
	if session, ok := testSessions[token]; ok {
		return session.Caller()
	}
	return nil
}
