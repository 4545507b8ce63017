package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"airwatch-server/internal/broadcast"
	"airwatch-server/internal/modules/readings/repository"
	"airwatch-server/internal/modules/readings/types"
)

// ErrStoreUnavailable wraps persistence failures so callers can report them
// as server-side errors distinct from validation rejects.
var ErrStoreUnavailable = errors.New("reading store unavailable")

const (
	defaultPage  = 1
	defaultLimit = 50
	maxLimit     = 1000
)

type Service struct {
	repository repository.ReadingRepository
	publisher  broadcast.Publisher
	site       types.Location
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repo repository.ReadingRepository, publisher broadcast.Publisher, site types.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repository: repo,
		publisher:  publisher,
		site:       site,
		logger:     logger,
		now:        time.Now,
	}
}

// Ingest validates p, fills in the ingest-time defaults, persists the
// reading, and only then broadcasts it. The broadcast therefore always
// carries a durably stored reading; a validation or store failure
// broadcasts nothing.
func (s *Service) Ingest(p types.ReadingPayload) (types.Reading, error) {
	if err := validatePayload(p); err != nil {
		return types.Reading{}, err
	}

	r := types.Reading{
		Temperature:   *p.Temperature,
		Humidity:      *p.Humidity,
		VOCIndex:      *p.VOCIndex,
		VOCRaw:        *p.VOCRaw,
		PM1:           *p.PM1,
		PM25:          *p.PM25,
		PM10:          *p.PM10,
		Rainfall:      *p.Rainfall,
		WindSpeed:     *p.WindSpeed,
		WindDirection: *p.WindDirection,
		Location:      s.site,
		Timestamp:     s.now().UTC(),
	}
	if p.Location != nil {
		r.Location = *p.Location
	}
	if p.Timestamp != nil {
		r.Timestamp = p.Timestamp.UTC()
	}

	id, err := s.repository.InsertReading(r)
	if err != nil {
		return types.Reading{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	r.ID = id

	s.publisher.Publish(r)

	s.logger.Debug("reading ingested",
		"id", r.ID,
		"timestamp", r.Timestamp,
	)
	return r, nil
}

// Latest returns the newest stored reading, or the documented placeholder
// when the store is empty.
func (s *Service) Latest() (types.Reading, error) {
	latest, err := s.repository.GetLatestReading()
	if err != nil {
		return types.Reading{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if latest == nil {
		return types.Placeholder(s.site), nil
	}
	return *latest, nil
}

// Page returns one page of readings, newest first. Non-positive page and
// limit fall back to the defaults (1 and 50).
func (s *Service) Page(page int, limit int) (types.Page, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	total, err := s.repository.CountReadings()
	if err != nil {
		return types.Page{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	items, err := s.repository.GetReadings(limit, (page-1)*limit)
	if err != nil {
		return types.Page{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}

	return types.Page{
		Data:  items,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}, nil
}

// Range returns readings with start <= ts <= end, newest first. Both bounds
// are required.
func (s *Service) Range(start time.Time, end time.Time) ([]types.Reading, error) {
	if start.IsZero() {
		return nil, &types.ValidationError{Field: "start", Reason: "is required"}
	}
	if end.IsZero() {
		return nil, &types.ValidationError{Field: "end", Reason: "is required"}
	}
	out, err := s.repository.GetReadingsRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}

func validatePayload(p types.ReadingPayload) error {
	numeric := []struct {
		name  string
		value *float64
	}{
		{"temperature", p.Temperature},
		{"humidity", p.Humidity},
		{"vocIndex", p.VOCIndex},
		{"vocRaw", p.VOCRaw},
		{"pm1", p.PM1},
		{"pm25", p.PM25},
		{"pm10", p.PM10},
		{"rainfall", p.Rainfall},
		{"windSpeed", p.WindSpeed},
	}
	for _, f := range numeric {
		if f.value == nil {
			return &types.ValidationError{Field: f.name, Reason: "is required"}
		}
	}

	if *p.Humidity < 0 || *p.Humidity > 100 {
		return &types.ValidationError{Field: "humidity", Reason: "must be between 0 and 100"}
	}
	for _, pm := range []struct {
		name  string
		value float64
	}{
		{"pm1", *p.PM1}, {"pm25", *p.PM25}, {"pm10", *p.PM10},
	} {
		if pm.value < 0 {
			return &types.ValidationError{Field: pm.name, Reason: "must be non-negative"}
		}
	}

	if p.WindDirection == nil || *p.WindDirection == "" {
		return &types.ValidationError{Field: "windDirection", Reason: "is required"}
	}
	if !types.ValidWindDirection(*p.WindDirection) {
		return &types.ValidationError{Field: "windDirection", Reason: "must be a compass point or Unknown"}
	}

	return nil
}
