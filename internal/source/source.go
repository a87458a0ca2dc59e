package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jgoulah/powerdash/internal/logger"
	"github.com/jgoulah/powerdash/pkg/models"
)

// Source supplies the full, ordered reading sequence
type Source interface {
	FetchReadings(ctx context.Context) ([]models.Reading, error)
}

// ErrFetch is matched by every FetchError via errors.Is
var ErrFetch = errors.New("fetching readings failed")

// FetchError represents a failure to retrieve readings from a source
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets callers test for ErrFetch
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// HTTPSource fetches readings from the backend's JSON endpoint
type HTTPSource struct {
	url     string
	client  *http.Client
	retries int
	backoff time.Duration
	loc     *time.Location
	log     *logger.Logger
}

// Option configures an HTTPSource
type Option func(*HTTPSource)

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(s *HTTPSource) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// WithRetries sets how many extra attempts follow a transport error or 5xx response
func WithRetries(retries int, backoff time.Duration) Option {
	return func(s *HTTPSource) {
		if retries >= 0 {
			s.retries = retries
		}
		if backoff > 0 {
			s.backoff = backoff
		}
	}
}

// WithLocation sets the zone used for local dates
func WithLocation(loc *time.Location) Option {
	return func(s *HTTPSource) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *logger.Logger) Option {
	return func(s *HTTPSource) {
		if log != nil {
			s.log = log
		}
	}
}

// NewHTTPSource creates a source for the given endpoint
func NewHTTPSource(url string, opts ...Option) *HTTPSource {
	s := &HTTPSource{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		backoff: time.Second,
		loc:     time.Local,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchReadings downloads and decodes the reading array
func (s *HTTPSource) FetchReadings(ctx context.Context) ([]models.Reading, error) {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			s.log.Warnw("retrying fetch", "url", s.url, "attempt", attempt+1, "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, &FetchError{Source: s.url, Err: ctx.Err()}
			case <-time.After(s.backoff):
			}
		}

		body, err := s.get(ctx)
		if err == nil {
			return decodeAndLog(body, s.loc, s.log, s.url)
		}

		lastErr = err
		if !retryable(err) {
			break
		}
	}

	return nil, lastErr
}

// get performs a single GET request
func (s *HTTPSource) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &FetchError{Source: s.url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: s.url, Err: fmt.Errorf("request error: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: s.url, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: s.url, StatusCode: resp.StatusCode, Err: fmt.Errorf("response: %s", truncate(body, 200))}
	}

	return body, nil
}

// retryable reports whether another attempt could succeed
func retryable(err error) bool {
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		return false
	}
	if errors.Is(ferr.Err, context.Canceled) {
		return false
	}
	return ferr.StatusCode == 0 || ferr.StatusCode >= 500
}

// FileSource reads readings from a JSON dump of the endpoint's response
type FileSource struct {
	path string
	loc  *time.Location
	log  *logger.Logger
}

// NewFileSource creates a source backed by a local file
func NewFileSource(path string, loc *time.Location, log *logger.Logger) *FileSource {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FileSource{path: path, loc: loc, log: log}
}

// FetchReadings reads and decodes the file
func (s *FileSource) FetchReadings(ctx context.Context) ([]models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Source: s.path, Err: err}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &FetchError{Source: s.path, Err: fmt.Errorf("reading file: %w", err)}
	}

	return decodeAndLog(data, s.loc, s.log, s.path)
}

// decodeAndLog decodes a payload, logging and dropping rejected records
func decodeAndLog(data []byte, loc *time.Location, log *logger.Logger, src string) ([]models.Reading, error) {
	readings, err := Decode(data, loc)
	if readings == nil && err != nil {
		return nil, &FetchError{Source: src, Err: err}
	}
	if err != nil {
		log.Warnw("skipped malformed readings", "source", src, "err", err)
	}

	log.Debugw("fetched readings", "source", src, "count", len(readings))
	return readings, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
