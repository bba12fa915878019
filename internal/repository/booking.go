package repository

import (
	"context"
	"fmt"

	"github.com/trainease/booking-service/internal/models"
	"gorm.io/gorm"
)

// BookingRepository defines the interface for booking data operations.
type BookingRepository interface {
	Repository[models.Booking]
	FindByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	FindByRoute(ctx context.Context, routeID int64) ([]models.Booking, error)
	// ActiveSeats sums the seats of confirmed bookings on a route, leaving
	// out excludeID (0 excludes nothing).
	ActiveSeats(ctx context.Context, routeID, excludeID int64) (int, error)
}

type bookingRepository struct {
	Repository[models.Booking]
	db *gorm.DB
}

// NewBookingRepository creates a new BookingRepository instance.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{
		Repository: New[models.Booking](db, "booking"),
		db:         db,
	}
}

func (r *bookingRepository) FindByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	return r.FindBy(ctx, "user_id", userID)
}

func (r *bookingRepository) FindByRoute(ctx context.Context, routeID int64) ([]models.Booking, error) {
	return r.FindBy(ctx, "route_id", routeID)
}

func (r *bookingRepository) ActiveSeats(ctx context.Context, routeID, excludeID int64) (int, error) {
	var total int64
	err := conn(ctx, r.db).
		Model(&models.Booking{}).
		Select("COALESCE(SUM(seats), 0)").
		Where("route_id = ? AND booking_status = ? AND id <> ?", routeID, models.BookingConfirmed, excludeID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum seats for route %d: %w", routeID, translate(err))
	}
	return int(total), nil
}
