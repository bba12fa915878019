package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trainease/booking-service/internal/events"
	"github.com/trainease/booking-service/internal/models"
	"github.com/trainease/booking-service/internal/repository"
)

// BookingPolicy holds the configurable booking rules.
type BookingPolicy struct {
	// EnforceCapacity rejects bookings that would push the confirmed seats
	// of a route past its train capacity.
	EnforceCapacity bool
}

// BookingUpdate carries the mutable booking fields. Nil fields are left
// unchanged.
type BookingUpdate struct {
	RouteID       *int64
	Seats         *int
	PaymentStatus *string
}

// BookingObserver is notified of every committed lifecycle event.
type BookingObserver interface {
	ObserveBooking(event string, seats int)
}

// BookingService enforces the booking lifecycle.
type BookingService interface {
	Create(ctx context.Context, caller *Caller, routeID int64, seats int) (*models.Booking, error)
	Get(ctx context.Context, caller *Caller, id int64) (*models.Booking, error)
	ListByUser(ctx context.Context, caller *Caller) ([]models.Booking, error)
	ListByRoute(ctx context.Context, caller *Caller, routeID int64) ([]models.Booking, error)
	ListAll(ctx context.Context, caller *Caller) ([]models.Booking, error)
	Update(ctx context.Context, caller *Caller, id int64, update BookingUpdate) (*models.Booking, error)
	Cancel(ctx context.Context, caller *Caller, id int64) (*models.Booking, error)
	Delete(ctx context.Context, caller *Caller, id int64) error
}

type bookingService struct {
	bookings  repository.BookingRepository
	routes    repository.RouteRepository
	tx        repository.Transactor
	guard     *Guard
	publisher events.Publisher
	observer  BookingObserver
	policy    BookingPolicy
	now       func() time.Time
}

// NewBookingService creates a BookingService.
func NewBookingService(
	bookings repository.BookingRepository,
	routes repository.RouteRepository,
	tx repository.Transactor,
	guard *Guard,
	publisher events.Publisher,
	observer BookingObserver,
	policy BookingPolicy,
) BookingService {
	return &bookingService{
		bookings:  bookings,
		routes:    routes,
		tx:        tx,
		guard:     guard,
		publisher: publisher,
		observer:  observer,
		policy:    policy,
		now:       time.Now,
	}
}

// lockRoute loads the route with its train and holds the row lock for the
// rest of the transaction. A missing route is a payload error.
func (s *bookingService) lockRoute(ctx context.Context, routeID int64) (*models.Route, error) {
	route, err := s.routes.FindWithTrainForUpdate(ctx, routeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, validationError("route %d does not exist", routeID)
	}
	if err != nil {
		return nil, err
	}
	if route.Train == nil {
		return nil, fmt.Errorf("route %d has no train loaded", routeID)
	}
	return route, nil
}

func (s *bookingService) checkSeats(ctx context.Context, route *models.Route, seats int, excludeID int64) error {
	if seats < 1 {
		return validationError("seats must be at least 1")
	}

	capacity := route.Train.Capacity
	if seats > capacity {
		return validationError("seats must not exceed train capacity %d", capacity)
	}
	if !s.policy.EnforceCapacity {
		return nil
	}

	booked, err := s.bookings.ActiveSeats(ctx, route.ID, excludeID)
	if err != nil {
		return err
	}
	if booked+seats > capacity {
		return validationError("only %d seats left on route %d", max(capacity-booked, 0), route.ID)
	}
	return nil
}

func (s *bookingService) Create(ctx context.Context, caller *Caller, routeID int64, seats int) (*models.Booking, error) {
	if err := s.guard.Authorize(caller, ActionBookingCreate, nil); err != nil {
		return nil, err
	}
	if seats < 1 {
		return nil, validationError("seats must be at least 1")
	}

	var booking *models.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		route, err := s.lockRoute(ctx, routeID)
		if err != nil {
			return err
		}
		if err := s.checkSeats(ctx, route, seats, 0); err != nil {
			return err
		}

		booking = &models.Booking{
			UserID:        caller.UserID,
			RouteID:       route.ID,
			BookingDate:   s.now(),
			Seats:         seats,
			TotalPrice:    float64(seats) * route.Price,
			PaymentStatus: models.PaymentPending,
			BookingStatus: models.BookingConfirmed,
		}
		return s.bookings.Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.BookingCreated, booking)
	return booking, nil
}

func (s *bookingService) find(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("booking %d", id))
	}
	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, caller *Caller, id int64) (*models.Booking, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(caller, ActionBookingRead, owner(booking.UserID)); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListByUser(ctx context.Context, caller *Caller) ([]models.Booking, error) {
	if err := s.guard.Authorize(caller, ActionBookingListOwn, nil); err != nil {
		return nil, err
	}
	return s.bookings.FindByUser(ctx, caller.UserID)
}

func (s *bookingService) ListByRoute(ctx context.Context, caller *Caller, routeID int64) ([]models.Booking, error) {
	if err := s.guard.Authorize(caller, ActionBookingListAll, nil); err != nil {
		return nil, err
	}
	return s.bookings.FindByRoute(ctx, routeID)
}

func (s *bookingService) ListAll(ctx context.Context, caller *Caller) ([]models.Booking, error) {
	if err := s.guard.Authorize(caller, ActionBookingListAll, nil); err != nil {
		return nil, err
	}
	return s.bookings.FindAll(ctx)
}

func (s *bookingService) Update(ctx context.Context, caller *Caller, id int64, update BookingUpdate) (*models.Booking, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	var booking *models.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		if err := s.guard.Authorize(caller, ActionBookingUpdate, owner(existing.UserID)); err != nil {
			return err
		}
		if existing.IsCancelled() {
			return validationError("booking %d is cancelled", id)
		}

		routeID, seats := existing.RouteID, existing.Seats
		if update.RouteID != nil {
			routeID = *update.RouteID
		}
		if update.Seats != nil {
			seats = *update.Seats
		}

		route, err := s.lockRoute(ctx, routeID)
		if err != nil {
			return err
		}
		if err := s.checkSeats(ctx, route, seats, existing.ID); err != nil {
			return err
		}

		// Payment status is settled by admins; other callers keep the
		// stored value.
		if update.PaymentStatus != nil && caller.IsAdmin {
			if !models.ValidPaymentStatus(*update.PaymentStatus) {
				return validationError("unknown payment status %q", *update.PaymentStatus)
			}
			existing.PaymentStatus = *update.PaymentStatus
		}

		existing.RouteID = route.ID
		existing.Route = nil
		existing.Seats = seats
		existing.TotalPrice = float64(seats) * route.Price
		if err := s.bookings.Update(ctx, existing); err != nil {
			return err
		}
		booking = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Cancel moves a booking to CANCELLED. Cancelling an already cancelled
// booking succeeds without writing or emitting anything.
func (s *bookingService) Cancel(ctx context.Context, caller *Caller, id int64) (*models.Booking, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	var (
		booking          *models.Booking
		alreadyCancelled bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		if err := s.guard.Authorize(caller, ActionBookingCancel, owner(existing.UserID)); err != nil {
			return err
		}

		booking = existing
		if existing.IsCancelled() {
			alreadyCancelled = true
			return nil
		}

		existing.BookingStatus = models.BookingCancelled
		return s.bookings.Update(ctx, existing)
	})
	if err != nil {
		return nil, err
	}

	if !alreadyCancelled {
		s.emit(ctx, events.BookingCancelled, booking)
	}
	return booking, nil
}

func (s *bookingService) Delete(ctx context.Context, caller *Caller, id int64) error {
	if err := s.guard.Authorize(caller, ActionBookingDelete, nil); err != nil {
		return err
	}

	var deleted *models.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		if err := s.bookings.Delete(ctx, id); err != nil {
			return storeError(err, fmt.Sprintf("booking %d", id))
		}
		deleted = existing
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, events.BookingDeleted, deleted)
	return nil
}

// emit runs after commit. Broker failures are logged and never surface to
// the caller.
func (s *bookingService) emit(ctx context.Context, key string, b *models.Booking) {
	if s.observer != nil {
		s.observer.ObserveBooking(key, b.Seats)
	}

	msg := events.BookingMessage{
		BookingID:     b.ID,
		UserID:        b.UserID,
		RouteID:       b.RouteID,
		Seats:         b.Seats,
		TotalPrice:    b.TotalPrice,
		BookingStatus: b.BookingStatus,
		PaymentStatus: b.PaymentStatus,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, key, msg); err != nil {
		slog.WarnContext(ctx, "failed to publish booking event",
			"event", key, "booking_id", b.ID, "error", err)
	}
}
