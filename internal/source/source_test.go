package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jgoulah/powerdash/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `[
	{"date": "2024-03-01", "timestamp": "2024-03-01T08:00:00", "voltage": 230, "current": 1, "power": 230, "energy": 40, "frequency": 50, "pf": 1},
	{"date": "2024-03-03", "timestamp": "2024-03-03T08:00:00", "voltage": 231, "current": 2, "power": 462, "energy": 90, "frequency": 50, "pf": 1}
]`

func TestHTTPSourceFetchReadings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/data", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/api/data", WithLocation(time.UTC))
	readings, err := src.FetchReadings(context.Background())
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, "2024-03-01", readings[0].DateKey())
	assert.Equal(t, 90.0, readings[1].Energy)
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, WithRetries(2, time.Millisecond), WithLocation(time.UTC))
	readings, err := src.FetchReadings(context.Background())
	require.NoError(t, err)
	assert.Len(t, readings, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSourceGivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, WithRetries(1, time.Millisecond))
	_, err := src.FetchReadings(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, http.StatusBadGateway, ferr.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPSourceDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, WithRetries(3, time.Millisecond))
	_, err := src.FetchReadings(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPSourceMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL).FetchReadings(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
}

func TestHTTPSourceDropsRejectedRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"timestamp": "2024-03-01T08:00:00", "energy": 1}, {"timestamp": "bad", "energy": 2}]`))
	}))
	defer srv.Close()

	readings, err := NewHTTPSource(srv.URL, WithLocation(time.UTC)).FetchReadings(context.Background())
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 1.0, readings[0].Energy)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.json")
	require.NoError(t, os.WriteFile(path, []byte(samplePayload), 0600))

	readings, err := NewFileSource(path, time.UTC, nil).FetchReadings(context.Background())
	require.NoError(t, err)
	assert.Len(t, readings, 2)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.json"), time.UTC, nil).FetchReadings(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type fakeStore struct {
	readings []models.Reading
	err      error
}

func (f fakeStore) ListReadings(ctx context.Context) ([]models.Reading, error) {
	return f.readings, f.err
}

func TestDBSource(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	stored := []models.Reading{
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Timestamp: time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC), Energy: 1},
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Timestamp: time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC), Energy: 2},
	}

	got, err := NewDBSource(fakeStore{readings: stored}, "data.db", ist).FetchReadings(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float64{1, 2}, []float64{got[0].Energy, got[1].Energy})

	// 20:00 UTC is already the next local day, matching the stored date
	assert.Equal(t, ist, got[0].Timestamp.Location())
	assert.True(t, stored[0].Timestamp.Equal(got[0].Timestamp))
	assert.NoError(t, got[0].Validate())

	_, err = NewDBSource(fakeStore{err: errors.New("locked")}, "data.db", ist).FetchReadings(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "locked")
}
