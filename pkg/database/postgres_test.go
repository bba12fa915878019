package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trainease/booking-service/internal/config"
)

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		DBHost:      "db",
		DBPort:      "5432",
		DBUser:      "trainease",
		DBPassword:  "secret",
		DBName:      "bookings",
		Environment: "development",
	}

	pg := FromConfig(cfg)
	assert.Equal(t, "disable", pg.SSLMode)
	assert.Equal(t, "UTC", pg.TimeZone)
	assert.Equal(t, "host=db port=5432 user=trainease password=secret dbname=bookings sslmode=disable TimeZone=UTC", pg.DSN())

	cfg.Environment = "production"
	assert.Equal(t, "require", FromConfig(cfg).SSLMode)
}
