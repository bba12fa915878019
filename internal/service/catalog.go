package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trainease/booking-service/internal/models"
	"github.com/trainease/booking-service/internal/repository"
)

// TrainInput carries the mutable train fields.
type TrainInput struct {
	Name     string
	Type     string
	Capacity int
}

// RouteInput carries the mutable route fields.
type RouteInput struct {
	TrainID          int64
	DepartureStation string
	ArrivalStation   string
	DepartureTime    time.Time
	ArrivalTime      time.Time
	Price            float64
}

// CatalogService manages trains and their routes. Reads are public, writes
// are reserved to admins.
type CatalogService interface {
	ListTrains(ctx context.Context) ([]models.Train, error)
	GetTrain(ctx context.Context, id int64) (*models.Train, error)
	CreateTrain(ctx context.Context, caller *Caller, in TrainInput) (*models.Train, error)
	UpdateTrain(ctx context.Context, caller *Caller, id int64, in TrainInput) (*models.Train, error)
	DeleteTrain(ctx context.Context, caller *Caller, id int64) error

	ListRoutes(ctx context.Context) ([]models.Route, error)
	GetRoute(ctx context.Context, id int64) (*models.Route, error)
	ListRoutesByTrain(ctx context.Context, trainID int64) ([]models.Route, error)
	CreateRoute(ctx context.Context, caller *Caller, in RouteInput) (*models.Route, error)
	UpdateRoute(ctx context.Context, caller *Caller, id int64, in RouteInput) (*models.Route, error)
	DeleteRoute(ctx context.Context, caller *Caller, id int64) error
}

type catalogService struct {
	trains   repository.TrainRepository
	routes   repository.RouteRepository
	bookings repository.BookingRepository
	tx       repository.Transactor
	guard    *Guard
	policy   BookingPolicy
}

// NewCatalogService creates a CatalogService. Capacity changes are checked
// against the confirmed bookings of the affected routes under policy.
func NewCatalogService(
	trains repository.TrainRepository,
	routes repository.RouteRepository,
	bookings repository.BookingRepository,
	tx repository.Transactor,
	guard *Guard,
	policy BookingPolicy,
) CatalogService {
	return &catalogService{
		trains:   trains,
		routes:   routes,
		bookings: bookings,
		tx:       tx,
		guard:    guard,
		policy:   policy,
	}
}

func (in *TrainInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	switch {
	case in.Name == "":
		return validationError("train name is required")
	case in.Type == "":
		return validationError("train type is required")
	case in.Capacity <= 0:
		return validationError("train capacity must be greater than 0")
	}
	return nil
}

func (in *RouteInput) validate() error {
	in.DepartureStation = strings.TrimSpace(in.DepartureStation)
	in.ArrivalStation = strings.TrimSpace(in.ArrivalStation)
	switch {
	case in.TrainID <= 0:
		return validationError("trainId is required")
	case in.DepartureStation == "" || in.ArrivalStation == "":
		return validationError("departure and arrival stations are required")
	case strings.EqualFold(in.DepartureStation, in.ArrivalStation):
		return validationError("departure and arrival stations must differ")
	case in.DepartureTime.IsZero() || in.ArrivalTime.IsZero():
		return validationError("departure and arrival times are required")
	case !in.ArrivalTime.After(in.DepartureTime):
		return validationError("arrival time must be after departure time")
	case in.Price < 0:
		return validationError("price must not be negative")
	}
	return nil
}

func (s *catalogService) ListTrains(ctx context.Context) ([]models.Train, error) {
	return s.trains.FindAll(ctx)
}

func (s *catalogService) GetTrain(ctx context.Context, id int64) (*models.Train, error) {
	train, err := s.trains.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("train %d", id))
	}
	return train, nil
}

func (s *catalogService) CreateTrain(ctx context.Context, caller *Caller, in TrainInput) (*models.Train, error) {
	if err := s.guard.Authorize(caller, ActionTrainWrite, nil); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	train := &models.Train{Name: in.Name, Type: in.Type, Capacity: in.Capacity}
	if err := s.trains.Create(ctx, train); err != nil {
		return nil, err
	}
	return train, nil
}

func (s *catalogService) UpdateTrain(ctx context.Context, caller *Caller, id int64, in TrainInput) (*models.Train, error) {
	if err := s.guard.Authorize(caller, ActionTrainWrite, nil); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var train *models.Train
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.trains.FindForUpdate(ctx, id)
		if err != nil {
			return storeError(err, fmt.Sprintf("train %d", id))
		}
		if in.Capacity < existing.Capacity {
			routes, err := s.routes.FindByTrainForUpdate(ctx, id)
			if err != nil {
				return err
			}
			for i := range routes {
				if err := s.checkRouteLoad(ctx, routes[i].ID, in.Capacity); err != nil {
					return err
				}
			}
		}
		existing.Name = in.Name
		existing.Type = in.Type
		existing.Capacity = in.Capacity
		if err := s.trains.Update(ctx, existing); err != nil {
			return err
		}
		train = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return train, nil
}

func (s *catalogService) DeleteTrain(ctx context.Context, caller *Caller, id int64) error {
	if err := s.guard.Authorize(caller, ActionTrainWrite, nil); err != nil {
		return err
	}
	if err := s.trains.Delete(ctx, id); err != nil {
		return storeError(err, fmt.Sprintf("train %d", id))
	}
	return nil
}

func (s *catalogService) ListRoutes(ctx context.Context) ([]models.Route, error) {
	return s.routes.FindAll(ctx)
}

func (s *catalogService) GetRoute(ctx context.Context, id int64) (*models.Route, error) {
	route, err := s.routes.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("route %d", id))
	}
	return route, nil
}

func (s *catalogService) ListRoutesByTrain(ctx context.Context, trainID int64) ([]models.Route, error) {
	return s.routes.FindByTrain(ctx, trainID)
}

// requireTrain reports a missing train as a validation failure of the route
// payload rather than a missing resource. The train row stays locked.
func (s *catalogService) requireTrain(ctx context.Context, trainID int64) (*models.Train, error) {
	train, err := s.trains.FindForUpdate(ctx, trainID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, validationError("train %d does not exist", trainID)
	}
	if err != nil {
		return nil, err
	}
	return train, nil
}

// checkRouteLoad fails when the confirmed bookings of a route no longer fit
// capacity. The caller must hold the route row lock.
func (s *catalogService) checkRouteLoad(ctx context.Context, routeID int64, capacity int) error {
	if s.policy.EnforceCapacity {
		booked, err := s.bookings.ActiveSeats(ctx, routeID, 0)
		if err != nil {
			return err
		}
		if booked > capacity {
			return validationError("route %d has %d seats booked, more than capacity %d", routeID, booked, capacity)
		}
		return nil
	}

	bookings, err := s.bookings.FindByRoute(ctx, routeID)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if !b.IsCancelled() && b.Seats > capacity {
			return validationError("booking %d has %d seats, more than capacity %d", b.ID, b.Seats, capacity)
		}
	}
	return nil
}

func (s *catalogService) CreateRoute(ctx context.Context, caller *Caller, in RouteInput) (*models.Route, error) {
	if err := s.guard.Authorize(caller, ActionRouteWrite, nil); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	route := &models.Route{
		TrainID:          in.TrainID,
		DepartureStation: in.DepartureStation,
		ArrivalStation:   in.ArrivalStation,
		DepartureTime:    in.DepartureTime,
		ArrivalTime:      in.ArrivalTime,
		Price:            in.Price,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.requireTrain(ctx, in.TrainID); err != nil {
			return err
		}
		return s.routes.Create(ctx, route)
	})
	if err != nil {
		return nil, err
	}
	return route, nil
}

func (s *catalogService) UpdateRoute(ctx context.Context, caller *Caller, id int64, in RouteInput) (*models.Route, error) {
	if err := s.guard.Authorize(caller, ActionRouteWrite, nil); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var route *models.Route
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.routes.FindWithTrainForUpdate(ctx, id)
		if err != nil {
			return storeError(err, fmt.Sprintf("route %d", id))
		}
		if existing.TrainID != in.TrainID {
			train, err := s.requireTrain(ctx, in.TrainID)
			if err != nil {
				return err
			}
			if err := s.checkRouteLoad(ctx, id, train.Capacity); err != nil {
				return err
			}
		}
		existing.Train = nil
		existing.TrainID = in.TrainID
		existing.DepartureStation = in.DepartureStation
		existing.ArrivalStation = in.ArrivalStation
		existing.DepartureTime = in.DepartureTime
		existing.ArrivalTime = in.ArrivalTime
		existing.Price = in.Price
		if err := s.routes.Update(ctx, existing); err != nil {
			return err
		}
		route = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return route, nil
}

func (s *catalogService) DeleteRoute(ctx context.Context, caller *Caller, id int64) error {
	if err := s.guard.Authorize(caller, ActionRouteWrite, nil); err != nil {
		return err
	}
	if err := s.routes.Delete(ctx, id); err != nil {
		return storeError(err, fmt.Sprintf("route %d", id))
	}
	return nil
}
