package repository

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"airwatch-server/internal/db/migrate"
	"airwatch-server/internal/modules/readings/types"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Fatalf("close db: %v", closeErr)
		}
	})
	if err := migrate.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleReading(ts time.Time) types.Reading {
	return types.Reading{
		Timestamp:     ts,
		Temperature:   25.5,
		Humidity:      60,
		VOCIndex:      100,
		VOCRaw:        25000,
		PM1:           5,
		PM25:          10,
		PM10:          15,
		Rainfall:      0,
		WindSpeed:     2.5,
		WindDirection: "N",
		Location:      types.Location{Latitude: 1.3521, Longitude: 103.8198},
	}
}

func TestInsertReading_AssignsID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	id, err := repo.InsertReading(sampleReading(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("InsertReading: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d, want > 0", id)
	}

	id2, err := repo.InsertReading(sampleReading(time.Date(2026, 2, 1, 12, 5, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("InsertReading: %v", err)
	}
	if id2 <= id {
		t.Fatalf("second id = %d, want > %d", id2, id)
	}
}

func TestGetLatestReading_Empty(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	latest, err := repo.GetLatestReading()
	if err != nil {
		t.Fatalf("GetLatestReading: %v", err)
	}
	if latest != nil {
		t.Fatalf("latest = %+v, want nil on empty store", latest)
	}
}

func TestGetLatestReading_MaxTimestampWins(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	// Inserted out of timestamp order on purpose; latest must follow ts,
	// not insertion order.
	times := []time.Time{
		time.Date(2026, 2, 1, 13, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 14, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	for i, ts := range times {
		r := sampleReading(ts)
		r.Temperature = float64(20 + i)
		if _, err := repo.InsertReading(r); err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}

	latest, err := repo.GetLatestReading()
	if err != nil {
		t.Fatalf("GetLatestReading: %v", err)
	}
	if latest == nil {
		t.Fatal("latest = nil, want a reading")
	}
	want := time.Date(2026, 2, 1, 14, 0, 0, 0, time.UTC)
	if !latest.Timestamp.Equal(want) {
		t.Errorf("latest.Timestamp = %v, want %v", latest.Timestamp, want)
	}
	if latest.Temperature != 21 {
		t.Errorf("latest.Temperature = %v, want 21", latest.Temperature)
	}
}

func TestGetReadings_OrderAndPaging(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := sampleReading(base.Add(time.Duration(i) * time.Hour))
		r.Temperature = float64(i)
		if _, err := repo.InsertReading(r); err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}

	page1, err := repo.GetReadings(2, 0)
	if err != nil {
		t.Fatalf("GetReadings: %v", err)
	}
	if len(page1) != 2 {
		t.Fatalf("page1: got %d readings, want 2", len(page1))
	}
	// Newest first
	if page1[0].Temperature != 4 || page1[1].Temperature != 3 {
		t.Errorf("page1 temperatures = [%v, %v], want [4, 3]", page1[0].Temperature, page1[1].Temperature)
	}

	page3, err := repo.GetReadings(2, 4)
	if err != nil {
		t.Fatalf("GetReadings: %v", err)
	}
	if len(page3) != 1 {
		t.Fatalf("page3: got %d readings, want 1", len(page3))
	}
	if page3[0].Temperature != 0 {
		t.Errorf("page3[0].Temperature = %v, want 0", page3[0].Temperature)
	}

	total, err := repo.CountReadings()
	if err != nil {
		t.Fatalf("CountReadings: %v", err)
	}
	if total != 5 {
		t.Fatalf("CountReadings = %d, want 5", total)
	}
}

func TestGetReadingsRange_InclusiveBounds(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := repo.InsertReading(sampleReading(base.Add(time.Duration(i) * time.Hour))); err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}

	from := base.Add(1 * time.Hour)
	to := base.Add(3 * time.Hour)
	got, err := repo.GetReadingsRange(from, to)
	if err != nil {
		t.Fatalf("GetReadingsRange: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d readings, want 3 (bounds inclusive)", len(got))
	}
	// Descending by timestamp
	if !got[0].Timestamp.Equal(to) || !got[2].Timestamp.Equal(from) {
		t.Errorf("range order: got [%v .. %v], want [%v .. %v]",
			got[0].Timestamp, got[2].Timestamp, to, from)
	}
}

func TestScanReadings_RoundTripsAllFields(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	in := sampleReading(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	in.WindDirection = "WSW"
	in.Rainfall = 1.25
	if _, err := repo.InsertReading(in); err != nil {
		t.Fatalf("InsertReading: %v", err)
	}

	out, err := repo.GetLatestReading()
	if err != nil {
		t.Fatalf("GetLatestReading: %v", err)
	}
	if out == nil {
		t.Fatal("latest = nil")
	}
	if out.WindDirection != "WSW" {
		t.Errorf("WindDirection = %q, want WSW", out.WindDirection)
	}
	if out.Rainfall != 1.25 {
		t.Errorf("Rainfall = %v, want 1.25", out.Rainfall)
	}
	if out.Location != in.Location {
		t.Errorf("Location = %+v, want %+v", out.Location, in.Location)
	}
	if out.VOCRaw != 25000 || out.PM25 != 10 {
		t.Errorf("fields lost in round trip: %+v", out)
	}
}
