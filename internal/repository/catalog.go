package repository

import (
	"context"
	"fmt"

	"github.com/trainease/booking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrainRepository defines the interface for train data operations.
type TrainRepository interface {
	Repository[models.Train]
	// FindForUpdate loads a train, locking its row until the surrounding
	// transaction ends.
	FindForUpdate(ctx context.Context, id int64) (*models.Train, error)
}

type trainRepository struct {
	Repository[models.Train]
	db *gorm.DB
}

// NewTrainRepository creates a new TrainRepository instance.
func NewTrainRepository(db *gorm.DB) TrainRepository {
	return &trainRepository{
		Repository: New[models.Train](db, "train"),
		db:         db,
	}
}

func (r *trainRepository) FindForUpdate(ctx context.Context, id int64) (*models.Train, error) {
	var train models.Train
	err := conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&train, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock train id %d: %w", id, translate(err))
	}
	return &train, nil
}

// RouteRepository defines the interface for route data operations.
type RouteRepository interface {
	Repository[models.Route]
	FindByTrain(ctx context.Context, trainID int64) ([]models.Route, error)
	// FindWithTrainForUpdate loads a route and its train, locking the route
	// row until the surrounding transaction ends.
	FindWithTrainForUpdate(ctx context.Context, id int64) (*models.Route, error)
	// FindByTrainForUpdate loads the routes of a train and locks their rows.
	FindByTrainForUpdate(ctx context.Context, trainID int64) ([]models.Route, error)
}

type routeRepository struct {
	Repository[models.Route]
	db *gorm.DB
}

// NewRouteRepository creates a new RouteRepository instance.
func NewRouteRepository(db *gorm.DB) RouteRepository {
	return &routeRepository{
		Repository: New[models.Route](db, "route"),
		db:         db,
	}
}

func (r *routeRepository) FindByTrain(ctx context.Context, trainID int64) ([]models.Route, error) {
	return r.FindBy(ctx, "train_id", trainID)
}

func (r *routeRepository) FindWithTrainForUpdate(ctx context.Context, id int64) (*models.Route, error) {
	var route models.Route
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}}).
		Preload("Train").
		First(&route, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock route id %d: %w", id, translate(err))
	}
	return &route, nil
}

func (r *routeRepository) FindByTrainForUpdate(ctx context.Context, trainID int64) ([]models.Route, error) {
	var routes []models.Route
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("train_id = ?", trainID).
		Order("id").
		Find(&routes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock routes of train %d: %w", trainID, translate(err))
	}
	return routes, nil
}
