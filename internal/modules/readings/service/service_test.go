package service

import (
	"errors"
	"testing"
	"time"

	"airwatch-server/internal/modules/readings/types"
)

var testSite = types.Location{Latitude: 1.3521, Longitude: 103.8198}

type fakeRepo struct {
	readings  []types.Reading
	nextID    int64
	insertErr error
	queryErr  error
}

func (f *fakeRepo) InsertReading(r types.Reading) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.nextID++
	r.ID = f.nextID
	f.readings = append(f.readings, r)
	return f.nextID, nil
}

func (f *fakeRepo) GetLatestReading() (*types.Reading, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var latest *types.Reading
	for i := range f.readings {
		if latest == nil || f.readings[i].Timestamp.After(latest.Timestamp) {
			latest = &f.readings[i]
		}
	}
	return latest, nil
}

func (f *fakeRepo) GetReadings(limit int, offset int) ([]types.Reading, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if offset >= len(f.readings) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.readings) {
		end = len(f.readings)
	}
	return f.readings[offset:end], nil
}

func (f *fakeRepo) CountReadings() (int, error) {
	if f.queryErr != nil {
		return 0, f.queryErr
	}
	return len(f.readings), nil
}

func (f *fakeRepo) GetReadingsRange(from time.Time, to time.Time) ([]types.Reading, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []types.Reading
	for _, r := range f.readings {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePublisher struct {
	published []types.Reading
}

func (f *fakePublisher) Publish(r types.Reading) {
	f.published = append(f.published, r)
}

func ptr[T any](v T) *T { return &v }

func validPayload() types.ReadingPayload {
	return types.ReadingPayload{
		Temperature:   ptr(25.5),
		Humidity:      ptr(60.0),
		VOCIndex:      ptr(100.0),
		VOCRaw:        ptr(25000.0),
		PM1:           ptr(5.0),
		PM25:          ptr(10.0),
		PM10:          ptr(15.0),
		Rainfall:      ptr(0.0),
		WindSpeed:     ptr(2.5),
		WindDirection: ptr("N"),
	}
}

func newTestService(repo *fakeRepo, pub *fakePublisher) *Service {
	return NewService(repo, pub, testSite, nil)
}

func TestIngest_PersistsThenBroadcasts(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	stored, err := svc.Ingest(validPayload())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if stored.ID != 1 {
		t.Errorf("ID = %d, want 1", stored.ID)
	}
	if stored.Timestamp.IsZero() {
		t.Error("Timestamp not assigned")
	}
	if stored.Location != testSite {
		t.Errorf("Location = %+v, want site default %+v", stored.Location, testSite)
	}
	if len(repo.readings) != 1 {
		t.Fatalf("persisted %d readings, want 1", len(repo.readings))
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d readings, want 1", len(pub.published))
	}
	if pub.published[0].ID != stored.ID {
		t.Errorf("published ID = %d, want stored ID %d", pub.published[0].ID, stored.ID)
	}
}

func TestIngest_ExplicitTimestampAndLocationKept(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	ts := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	loc := types.Location{Latitude: 51.5, Longitude: -0.12}
	p := validPayload()
	p.Timestamp = &ts
	p.Location = &loc

	stored, err := svc.Ingest(p)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !stored.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", stored.Timestamp, ts)
	}
	if stored.Location != loc {
		t.Errorf("Location = %+v, want %+v", stored.Location, loc)
	}
}

func TestIngest_MissingFieldRejected(t *testing.T) {
	fields := []struct {
		name   string
		mutate func(*types.ReadingPayload)
	}{
		{"temperature", func(p *types.ReadingPayload) { p.Temperature = nil }},
		{"humidity", func(p *types.ReadingPayload) { p.Humidity = nil }},
		{"vocIndex", func(p *types.ReadingPayload) { p.VOCIndex = nil }},
		{"vocRaw", func(p *types.ReadingPayload) { p.VOCRaw = nil }},
		{"pm1", func(p *types.ReadingPayload) { p.PM1 = nil }},
		{"pm25", func(p *types.ReadingPayload) { p.PM25 = nil }},
		{"pm10", func(p *types.ReadingPayload) { p.PM10 = nil }},
		{"rainfall", func(p *types.ReadingPayload) { p.Rainfall = nil }},
		{"windSpeed", func(p *types.ReadingPayload) { p.WindSpeed = nil }},
		{"windDirection", func(p *types.ReadingPayload) { p.WindDirection = nil }},
	}

	for _, tt := range fields {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			pub := &fakePublisher{}
			svc := newTestService(repo, pub)

			p := validPayload()
			tt.mutate(&p)

			_, err := svc.Ingest(p)
			var verr *types.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Ingest error = %v, want ValidationError", err)
			}
			if verr.Field != tt.name {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tt.name)
			}
			if len(repo.readings) != 0 {
				t.Error("rejected payload was persisted")
			}
			if len(pub.published) != 0 {
				t.Error("rejected payload was broadcast")
			}
		})
	}
}

func TestIngest_OutOfRangeRejected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.ReadingPayload)
	}{
		{"humidity above 100", func(p *types.ReadingPayload) { p.Humidity = ptr(101.0) }},
		{"humidity below 0", func(p *types.ReadingPayload) { p.Humidity = ptr(-1.0) }},
		{"negative pm1", func(p *types.ReadingPayload) { p.PM1 = ptr(-0.5) }},
		{"negative pm25", func(p *types.ReadingPayload) { p.PM25 = ptr(-0.5) }},
		{"negative pm10", func(p *types.ReadingPayload) { p.PM10 = ptr(-0.5) }},
		{"bogus wind direction", func(p *types.ReadingPayload) { p.WindDirection = ptr("NORTHISH") }},
		{"empty wind direction", func(p *types.ReadingPayload) { p.WindDirection = ptr("") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeRepo{}, &fakePublisher{})
			p := validPayload()
			tt.mutate(&p)

			_, err := svc.Ingest(p)
			var verr *types.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Ingest error = %v, want ValidationError", err)
			}
		})
	}
}

func TestIngest_UnknownWindDirectionAccepted(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakePublisher{})
	p := validPayload()
	p.WindDirection = ptr(types.WindUnknown)

	if _, err := svc.Ingest(p); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
}

func TestIngest_StoreFailureNotBroadcast(t *testing.T) {
	repo := &fakeRepo{insertErr: errors.New("disk gone")}
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	_, err := svc.Ingest(validPayload())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Ingest error = %v, want ErrStoreUnavailable", err)
	}
	if len(pub.published) != 0 {
		t.Error("store failure was broadcast")
	}
}

func TestLatest_PlaceholderOnEmptyStore(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakePublisher{})

	got, err := svc.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.WindDirection != types.WindUnknown {
		t.Errorf("placeholder WindDirection = %q, want %q", got.WindDirection, types.WindUnknown)
	}
	if got.Location != testSite {
		t.Errorf("placeholder Location = %+v, want %+v", got.Location, testSite)
	}
	if !got.Timestamp.IsZero() {
		t.Errorf("placeholder Timestamp = %v, want zero", got.Timestamp)
	}
}

func TestLatest_ReturnsNewestAfterIngest(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakePublisher{})

	stored, err := svc.Ingest(validPayload())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	got, err := svc.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != stored.ID {
		t.Errorf("Latest ID = %d, want %d", got.ID, stored.ID)
	}
}

func TestPage_Defaults(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakePublisher{})

	page, err := svc.Page(0, -3)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Page != 1 || page.Limit != 50 {
		t.Errorf("defaults = page %d limit %d, want 1 and 50", page.Page, page.Limit)
	}
	if page.Pages != 1 {
		t.Errorf("Pages = %d on empty store, want 1", page.Pages)
	}
}

func TestPage_Metadata(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakePublisher{})
	for i := 0; i < 7; i++ {
		if _, err := svc.Ingest(validPayload()); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}

	page, err := svc.Page(2, 3)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Total != 7 {
		t.Errorf("Total = %d, want 7", page.Total)
	}
	if page.Pages != 3 {
		t.Errorf("Pages = %d, want 3", page.Pages)
	}
	if len(page.Data) != 3 {
		t.Errorf("len(Data) = %d, want 3", len(page.Data))
	}
}

func TestRange_MissingBoundsRejected(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakePublisher{})
	now := time.Now()

	if _, err := svc.Range(time.Time{}, now); err == nil {
		t.Error("missing start accepted")
	}
	if _, err := svc.Range(now, time.Time{}); err == nil {
		t.Error("missing end accepted")
	}
}
