package storage

import (
	"time"

	"farefeed/internal/models"
)

// Storage defines the interface for the journey fare history backend
type Storage interface {
	SaveQuotes(journey string, quotes []models.FareQuote) error
	LoadRecent(journey string, limit int) ([]models.FareRecord, error)
	ListJourneys() ([]models.JourneyInfo, error)
	CleanupOldRecords(retention time.Duration) error
	Close() error
}
