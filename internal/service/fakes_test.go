package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/trainease/booking-service/internal/models"
	"github.com/trainease/booking-service/internal/repository"
)

// =============================================================================
// In-memory repositories
// =============================================================================

type memRepo[T any] struct {
	mu      sync.Mutex
	rows    map[int64]T
	next    int64
	id      func(*T) *int64
	columns map[string]func(*T) any

	createErr error
	updateErr error
}

func newMemRepo[T any](id func(*T) *int64, columns map[string]func(*T) any) *memRepo[T] {
	return &memRepo[T]{rows: map[int64]T{}, id: id, columns: columns}
}

func (r *memRepo[T]) FindByID(_ context.Context, id int64) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("find %d: %w", id, repository.ErrNotFound)
	}
	return &row, nil
}

func (r *memRepo[T]) sorted(keep func(*T) bool) []T {
	ids := make([]int64, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []T{}
	for _, id := range ids {
		row := r.rows[id]
		if keep(&row) {
			out = append(out, row)
		}
	}
	return out
}

func (r *memRepo[T]) FindAll(_ context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(*T) bool { return true }), nil
}

func (r *memRepo[T]) FindBy(_ context.Context, column string, value any) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	get, ok := r.columns[column]
	if !ok {
		return nil, fmt.Errorf("unknown column %s", column)
	}
	return r.sorted(func(row *T) bool { return get(row) == value }), nil
}

func (r *memRepo[T]) Create(_ context.Context, entity *T) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.id(entity)
	if *id == 0 {
		r.next++
		*id = r.next
	} else if *id > r.next {
		r.next = *id
	}
	r.rows[*id] = *entity
	return nil
}

func (r *memRepo[T]) Update(_ context.Context, entity *T) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := *r.id(entity)
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("update %d: %w", id, repository.ErrNotFound)
	}
	r.rows[id] = *entity
	return nil
}

func (r *memRepo[T]) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("delete %d: %w", id, repository.ErrNotFound)
	}
	delete(r.rows, id)
	return nil
}

func (r *memRepo[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type memUsers struct {
	*memRepo[models.User]
}

func newMemUsers() *memUsers {
	return &memUsers{newMemRepo(func(u *models.User) *int64 { return &u.ID }, nil)}
}

func (r *memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("find %s: %w", username, repository.ErrNotFound)
}

// memRepo assigns ids past any explicit id, so there is no sequence to move.
func (r *memUsers) ResyncIDSequence(context.Context) error { return nil }

type memTrains struct {
	*memRepo[models.Train]
}

func newMemTrains() *memTrains {
	return &memTrains{newMemRepo(func(t *models.Train) *int64 { return &t.ID }, nil)}
}

func (r *memTrains) FindForUpdate(ctx context.Context, id int64) (*models.Train, error) {
	return r.FindByID(ctx, id)
}

type memRoutes struct {
	*memRepo[models.Route]
	trains *memTrains
}

func newMemRoutes(trains *memTrains) *memRoutes {
	return &memRoutes{
		memRepo: newMemRepo(func(r *models.Route) *int64 { return &r.ID }, map[string]func(*models.Route) any{
			"train_id": func(r *models.Route) any { return r.TrainID },
		}),
		trains: trains,
	}
}

func (r *memRoutes) FindByTrain(ctx context.Context, trainID int64) ([]models.Route, error) {
	return r.FindBy(ctx, "train_id", trainID)
}

func (r *memRoutes) FindByTrainForUpdate(ctx context.Context, trainID int64) ([]models.Route, error) {
	return r.FindByTrain(ctx, trainID)
}

func (r *memRoutes) FindWithTrainForUpdate(ctx context.Context, id int64) (*models.Route, error) {
	route, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	train, err := r.trains.FindByID(ctx, route.TrainID)
	if err != nil {
		return nil, err
	}
	route.Train = train
	return route, nil
}

type memBookings struct {
	*memRepo[models.Booking]
}

func newMemBookings() *memBookings {
	return &memBookings{newMemRepo(func(b *models.Booking) *int64 { return &b.ID }, map[string]func(*models.Booking) any{
		"user_id":  func(b *models.Booking) any { return b.UserID },
		"route_id": func(b *models.Booking) any { return b.RouteID },
	})}
}

func (r *memBookings) FindByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	return r.FindBy(ctx, "user_id", userID)
}

func (r *memBookings) FindByRoute(ctx context.Context, routeID int64) ([]models.Booking, error) {
	return r.FindBy(ctx, "route_id", routeID)
}

func (r *memBookings) ActiveSeats(_ context.Context, routeID, excludeID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for id, b := range r.rows {
		if b.RouteID == routeID && id != excludeID && b.BookingStatus == models.BookingConfirmed {
			total += b.Seats
		}
	}
	return total, nil
}

// =============================================================================
// Transactor, publisher, revoker and observer fakes
// =============================================================================

type fakeTx struct {
	calls int
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type publishedEvent struct {
	key     string
	message any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{key: key, message: message})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.key)
	}
	return keys
}

type recordingRevoker struct {
	revoked []int64
	err     error
}

func (r *recordingRevoker) RevokeUser(_ context.Context, userID int64) error {
	if r.err != nil {
		return r.err
	}
	r.revoked = append(r.revoked, userID)
	return nil
}

type countingObserver struct {
	events map[string]int
}

func (o *countingObserver) ObserveBooking(event string, seats int) {
	if o.events == nil {
		o.events = map[string]int{}
	}
	o.events[event] += seats
}

var errStore = errors.New("store unavailable")
