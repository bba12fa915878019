package handlers

import (
	"time"

	"github.com/trainease/booking-service/internal/models"
)

// UserResponse is the public view of a user. The password digest is never
// exposed.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	IsAdmin  bool   `json:"isAdmin"`
}

// TrainResponse is the public view of a train.
type TrainResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
}

// RouteResponse is the public view of a route.
type RouteResponse struct {
	ID               int64     `json:"id"`
	TrainID          int64     `json:"trainId"`
	DepartureStation string    `json:"departureStation"`
	ArrivalStation   string    `json:"arrivalStation"`
	DepartureTime    time.Time `json:"departureTime"`
	ArrivalTime      time.Time `json:"arrivalTime"`
	Price            float64   `json:"price"`
}

// BookingResponse is the public view of a booking.
type BookingResponse struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	RouteID       int64     `json:"routeId"`
	BookingDate   time.Time `json:"bookingDate"`
	Seats         int       `json:"seats"`
	TotalPrice    float64   `json:"totalPrice"`
	PaymentStatus string    `json:"paymentStatus"`
	BookingStatus string    `json:"bookingStatus"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		IsAdmin:  u.IsAdmin(),
	}
}

func toTrainResponse(t *models.Train) TrainResponse {
	return TrainResponse{
		ID:       t.ID,
		Name:     t.Name,
		Type:     t.Type,
		Capacity: t.Capacity,
	}
}

func toRouteResponse(r *models.Route) RouteResponse {
	return RouteResponse{
		ID:               r.ID,
		TrainID:          r.TrainID,
		DepartureStation: r.DepartureStation,
		ArrivalStation:   r.ArrivalStation,
		DepartureTime:    r.DepartureTime,
		ArrivalTime:      r.ArrivalTime,
		Price:            r.Price,
	}
}

func toBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		RouteID:       b.RouteID,
		BookingDate:   b.BookingDate,
		Seats:         b.Seats,
		TotalPrice:    b.TotalPrice,
		PaymentStatus: b.PaymentStatus,
		BookingStatus: b.BookingStatus,
	}
}

// mapAll converts a slice of entities, always returning a non-nil slice so
// empty lists encode as [].
func mapAll[T, R any](items []T, fn func(*T) R) []R {
	out := make([]R, 0, len(items))
	for i := range items {
		out = append(out, fn(&items[i]))
	}
	return out
}
