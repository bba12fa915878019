package models

import "time"

// Train is a rolling-stock unit with a fixed seat capacity.
type Train struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Type      string    `gorm:"not null"`
	Capacity  int       `gorm:"not null"`
	Routes    []Route   `gorm:"foreignKey:TrainID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the database table name for the Train model.
func (Train) TableName() string {
	return "trains"
}

// Route is a scheduled journey of a train between two stations.
type Route struct {
	ID               int64     `gorm:"primaryKey"`
	TrainID          int64     `gorm:"index;not null"`
	Train            *Train    `gorm:"foreignKey:TrainID"`
	DepartureStation string    `gorm:"column:departure_station;not null"`
	ArrivalStation   string    `gorm:"column:arrival_station;not null"`
	DepartureTime    time.Time `gorm:"column:departure_time;not null"`
	ArrivalTime      time.Time `gorm:"column:arrival_time;not null"`
	Price            float64   `gorm:"not null"`
	Bookings         []Booking `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the database table name for the Route model.
func (Route) TableName() string {
	return "routes"
}
