package source

import (
	"context"
	"time"

	"github.com/jgoulah/powerdash/pkg/models"
)

// ReadingStore is the part of the sqlite cache a DBSource needs
type ReadingStore interface {
	ListReadings(ctx context.Context) ([]models.Reading, error)
}

// DBSource serves readings previously stored by the sync command
type DBSource struct {
	store ReadingStore
	name  string
	loc   *time.Location
}

// NewDBSource wraps a reading store; timestamps are returned in loc
func NewDBSource(store ReadingStore, name string, loc *time.Location) *DBSource {
	if loc == nil {
		loc = time.Local
	}
	return &DBSource{store: store, name: name, loc: loc}
}

// FetchReadings returns the cached readings in arrival order
func (s *DBSource) FetchReadings(ctx context.Context) ([]models.Reading, error) {
	readings, err := s.store.ListReadings(ctx)
	if err != nil {
		return nil, &FetchError{Source: s.name, Err: err}
	}
	for i := range readings {
		readings[i].Timestamp = readings[i].Timestamp.In(s.loc)
	}
	return readings, nil
}
